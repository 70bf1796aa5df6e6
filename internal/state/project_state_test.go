package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fmac-task/internal/apperr"
	"fmac-task/internal/models"
)

func TestProjectState_AddProjectDerivesColorAndMembership(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)

	p, err := e.projects.AddProject(context.Background(), models.Project{Name: "Apollo"})
	require.NoError(t, err)
	require.Equal(t, models.ProjectColor("Apollo"), p.Color)
	require.True(t, p.HasMember("alice"))
	require.Equal(t, "alice", p.CreatorID)
	require.Len(t, e.projects.Projects(), 1)

	_, err = e.projects.AddProject(context.Background(), models.Project{})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestProjectState_DeleteProjectUnlinksTasks(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	ctx := context.Background()

	p, err := e.projects.AddProject(ctx, models.Project{Name: "Apollo"})
	require.NoError(t, err)
	var ids []string
	for _, title := range []string{"a", "b"} {
		task, err := e.tasks.AddTask(ctx, models.Task{Title: title, ProjectID: p.ID})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	keep, err := e.tasks.AddTask(ctx, models.Task{Title: "c", ProjectID: "other"})
	require.NoError(t, err)

	require.NoError(t, e.projects.DeleteProject(ctx, p.ID))
	require.Empty(t, e.projects.Projects())

	for _, task := range e.tasks.Tasks() {
		require.NotEqual(t, p.ID, task.ProjectID)
	}
	for _, id := range ids {
		require.Nil(t, e.rawTask(t, id)["project_id"])
	}
	cached, _ := e.tasks.Task(keep.ID)
	require.Equal(t, "other", cached.ProjectID)

	require.NoError(t, e.tasks.Refresh(ctx))
	for _, task := range e.tasks.Tasks() {
		require.NotEqual(t, p.ID, task.ProjectID)
	}
}

func TestProjectState_DeleteRequiresCreator(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t, alice)
	p, err := e.projects.AddProject(ctx, models.Project{Name: "Eng board", DepartmentID: "Sales"})
	require.NoError(t, err)

	e.login(t, bob)
	require.Len(t, e.projects.Projects(), 1)
	require.ErrorIs(t, e.projects.DeleteProject(ctx, p.ID), apperr.ErrForbidden)

	e.login(t, admin)
	require.NoError(t, e.projects.DeleteProject(ctx, p.ID))
}

func TestProjectState_MembersAndRename(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	ctx := context.Background()
	p, err := e.projects.AddProject(ctx, models.Project{Name: "Apollo"})
	require.NoError(t, err)

	p, err = e.projects.AddMember(ctx, p.ID, models.Member{ID: "bob", Name: "Bob"})
	require.NoError(t, err)
	require.True(t, p.HasMember("bob"))

	e.login(t, bob)
	require.Len(t, e.projects.Projects(), 1)

	e.login(t, alice)
	p, err = e.projects.RemoveMember(ctx, p.ID, "bob")
	require.NoError(t, err)
	require.False(t, p.HasMember("bob"))

	renamed, err := e.projects.UpdateProject(ctx, p.ID, models.ProjectPatch{Name: models.Ptr("Artemis")})
	require.NoError(t, err)
	require.Equal(t, models.ProjectColor("Artemis"), renamed.Color)
	cached, _ := e.projects.Project(p.ID)
	require.Equal(t, renamed, cached)

	_, err = e.projects.UpdateProject(ctx, "nope", models.ProjectPatch{Name: models.Ptr("x")})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	e.login(t, models.Actor{})
	_, err = e.projects.AddMember(ctx, p.ID, models.Member{ID: "x"})
	require.ErrorIs(t, err, apperr.ErrAuthRequired)
}
