package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/schema"
	"fmac-task/internal/services"
	"fmac-task/internal/testutil"
	"fmac-task/internal/visibility"
)

func TestRun_MigratesLegacyShapesOnce(t *testing.T) {
	store := testutil.NewInMemoryStore(t, docstore.Options{})
	ctx := context.Background()

	_, err := store.Upsert(ctx, schema.Profiles, "u1", map[string]any{"name": "Ann", "role": "superuser", "avatar_url": "a.png"})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, schema.Profiles, "u2", map[string]any{"name": "Bo", "role": "admin"})
	require.NoError(t, err)

	legacy, err := store.Add(ctx, schema.Tasks, map[string]any{"title": "old", "assigned_to": "u1"})
	require.NoError(t, err)
	broken, err := store.Add(ctx, schema.Tasks, map[string]any{"title": "broken", "assignees": "[oops"})
	require.NoError(t, err)
	project, err := store.Add(ctx, schema.Projects, map[string]any{"name": "P", "members": []any{"u1", "u9"}})
	require.NoError(t, err)
	badProject, err := store.Add(ctx, schema.Projects, map[string]any{"name": "Q", "members": "{bad"})
	require.NoError(t, err)

	deps := Deps{
		Tasks:    services.NewTaskService(store),
		Projects: services.NewProjectService(store),
		Users:    services.NewUserService(store, 0),
	}
	report, err := Run(ctx, deps)
	require.NoError(t, err)
	require.Equal(t, 1, report.RolesNormalized)
	require.Equal(t, 1, report.AssigneesReconciled)
	require.Equal(t, 1, report.MembersCanonicalized)
	require.ElementsMatch(t, []string{schema.Tasks + "/" + broken.ID(), schema.Projects + "/" + badProject.ID()}, report.Skipped)

	doc, err := store.GetByID(ctx, schema.Tasks, legacy.ID())
	require.NoError(t, err)
	require.Equal(t, `[{"id":"u1"}]`, doc["assignees"])
	require.Equal(t, "u1", doc["assigned_to"])

	doc, err = store.GetByID(ctx, schema.Tasks, broken.ID())
	require.NoError(t, err)
	require.Equal(t, "[oops", doc["assignees"])

	doc, err = store.GetByID(ctx, schema.Projects, project.ID())
	require.NoError(t, err)
	require.Equal(t, []any{
		map[string]any{"id": "u1", "name": "Ann", "avatar": "a.png"},
		map[string]any{"id": "u9", "name": "", "avatar": ""},
	}, doc["members"])

	doc, err = store.GetByID(ctx, schema.Projects, badProject.ID())
	require.NoError(t, err)
	require.Equal(t, "{bad", doc["members"])

	prof, err := deps.Users.Get(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, "member", prof.Role)

	again, err := Run(ctx, deps)
	require.NoError(t, err)
	require.Zero(t, again.RolesNormalized)
	require.Zero(t, again.AssigneesReconciled)
	require.Zero(t, again.MembersCanonicalized)
	require.Len(t, again.Skipped, 2)
}

func TestRun_KeepsLegacyAssigneeVisible(t *testing.T) {
	store := testutil.NewInMemoryStore(t, docstore.Options{})
	ctx := context.Background()

	mixed, err := store.Add(ctx, schema.Tasks, map[string]any{
		"title":       "mixed",
		"created_by":  "u9",
		"assignees":   `[{"id":"u1"}]`,
		"assigned_to": "u2",
	})
	require.NoError(t, err)

	tasks := services.NewTaskService(store)
	u2 := models.Actor{ID: "u2", Role: models.RoleMember}
	before, err := tasks.Get(ctx, mixed.ID())
	require.NoError(t, err)
	require.True(t, visibility.CanSeeTask(before, u2))

	report, err := Run(ctx, Deps{
		Tasks:    tasks,
		Projects: services.NewProjectService(store),
		Users:    services.NewUserService(store, 0),
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.AssigneesReconciled)

	after, err := tasks.Get(ctx, mixed.ID())
	require.NoError(t, err)
	require.True(t, visibility.CanSeeTask(after, u2))
	require.Equal(t, []string{"u1", "u2"}, after.AssigneeIDs())

	raw, err := store.GetByID(ctx, schema.Tasks, mixed.ID())
	require.NoError(t, err)
	require.Equal(t, `[{"id":"u1"},{"id":"u2"}]`, raw["assignees"])
	require.Equal(t, "u1", raw["assigned_to"])
}
