package state

import (
	"context"
	"slices"

	"fmac-task/internal/activity"
	"fmac-task/internal/apperr"
	"fmac-task/internal/models"
	"fmac-task/internal/services"
	"fmac-task/internal/visibility"
)

type ProjectDeps struct {
	Projects *services.ProjectService
	Tasks    *services.TaskService
	Recorder *activity.Recorder
	// TaskState receives the in-memory unlink when a project is deleted.
	TaskState *TaskState
}

// ProjectState owns the visible project list of one actor.
type ProjectState struct {
	deps   ProjectDeps
	mirror *mirror[models.Project]
}

func NewProjectState(deps ProjectDeps) *ProjectState {
	return &ProjectState{
		deps: deps,
		mirror: newMirror(
			func(p models.Project) string { return p.ID },
			func(p models.Project) string { return p.UpdatedAt },
		),
	}
}

func (s *ProjectState) Projects() []models.Project { return s.mirror.snapshot() }

func (s *ProjectState) Status() Status {
	st, _ := s.mirror.state()
	return st
}

func (s *ProjectState) Err() error {
	_, err := s.mirror.state()
	return err
}

func (s *ProjectState) Project(id string) (models.Project, bool) { return s.mirror.find(id) }

func (s *ProjectState) SetActor(ctx context.Context, actor models.Actor) error {
	s.mirror.reset(actor)
	if !actor.Authenticated() {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *ProjectState) Refresh(ctx context.Context) error {
	seq, actor := s.mirror.begin()
	all, err := s.deps.Projects.List(ctx)
	var visible []models.Project
	if err == nil {
		visible = visibility.VisibleProjects(all, actor)
	}
	s.mirror.finish(seq, visible, err)
	return err
}

func (s *ProjectState) requireActor(op string) (models.Actor, error) {
	actor := s.mirror.currentActor()
	if !actor.Authenticated() {
		return models.Actor{}, apperr.AuthRequired(op)
	}
	return actor, nil
}

func (s *ProjectState) cached(op, id string) (models.Project, error) {
	p, ok := s.mirror.find(id)
	if !ok {
		return models.Project{}, apperr.NotFound(op, "project", id)
	}
	return p, nil
}

// AddProject creates a project owned by the actor, who is always listed as
// a member. The color is derived from the name.
func (s *ProjectState) AddProject(ctx context.Context, draft models.Project) (models.Project, error) {
	const op = "projects.add"
	actor, err := s.requireActor(op)
	if err != nil {
		return models.Project{}, err
	}
	draft = draft.Clone()
	if err := draft.Validate(); err != nil {
		return models.Project{}, apperr.Invalid(op, err.Error())
	}
	draft.CreatorID = actor.ID
	draft.Color = models.ProjectColor(draft.Name)
	if !draft.HasMember(actor.ID) {
		draft.Members = append([]models.Member{{ID: actor.ID, Name: actor.Name}}, draft.Members...)
	}

	created, err := s.deps.Projects.Add(ctx, draft)
	if err != nil {
		return models.Project{}, err
	}
	s.mirror.insert(actor.ID, created)
	s.track(created.ID, actor.ID, models.ActionCreated, models.ActivityDetails{"target": "project", "value": created.Name})
	return created, nil
}

func (s *ProjectState) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	const op = "projects.update"
	actor, err := s.requireActor(op)
	if err != nil {
		return models.Project{}, err
	}
	before, err := s.cached(op, id)
	if err != nil {
		return models.Project{}, err
	}
	if patch.Name != nil && *patch.Name == "" {
		return models.Project{}, apperr.Invalid(op, "name cannot be empty")
	}
	if patch.Empty() {
		return before, nil
	}
	updated, err := s.deps.Projects.Update(ctx, id, patch)
	if err != nil {
		return models.Project{}, err
	}
	s.mirror.replace(actor.ID, updated)
	if before.Name != updated.Name {
		s.track(id, actor.ID, models.ActionUpdated, models.Change("name", before.Name, updated.Name))
	} else {
		s.track(id, actor.ID, models.ActionUpdated, nil)
	}
	return updated, nil
}

// DeleteProject unlinks the project's tasks in the store, deletes the
// project, then applies the same unlink to the cached task list. Only the
// creator or an admin may delete.
func (s *ProjectState) DeleteProject(ctx context.Context, id string) error {
	const op = "projects.delete"
	actor, err := s.requireActor(op)
	if err != nil {
		return err
	}
	p, err := s.cached(op, id)
	if err != nil {
		return err
	}
	if p.CreatorID != actor.ID && !actor.IsAdmin() {
		return apperr.Forbidden(op, "only the creator can delete this project")
	}
	if _, err := s.deps.Tasks.UnlinkProject(ctx, id); err != nil {
		return err
	}
	// the unlink is committed; the task mirror follows it even if the
	// project delete below fails
	defer func() {
		if s.deps.TaskState != nil {
			s.deps.TaskState.UnlinkProject(id)
		}
	}()
	if err := s.deps.Projects.Delete(ctx, id); err != nil {
		return err
	}
	s.mirror.remove(actor.ID, id)
	s.track(id, actor.ID, models.ActionDeleted, models.ActivityDetails{"target": "project", "value": p.Name})
	return nil
}

func (s *ProjectState) AddMember(ctx context.Context, projectID string, m models.Member) (models.Project, error) {
	if _, err := s.requireActor("projects.add_member"); err != nil {
		return models.Project{}, err
	}
	p, err := s.cached("projects.add_member", projectID)
	if err != nil {
		return models.Project{}, err
	}
	if m.ID == "" {
		return models.Project{}, apperr.Invalid("projects.add_member", "member id is required")
	}
	if p.HasMember(m.ID) {
		return p, nil
	}
	members := append(slices.Clone(p.Members), m)
	return s.UpdateProject(ctx, projectID, models.ProjectPatch{Members: &members})
}

func (s *ProjectState) RemoveMember(ctx context.Context, projectID, userID string) (models.Project, error) {
	if _, err := s.requireActor("projects.remove_member"); err != nil {
		return models.Project{}, err
	}
	p, err := s.cached("projects.remove_member", projectID)
	if err != nil {
		return models.Project{}, err
	}
	if !p.HasMember(userID) {
		return p, nil
	}
	members := slices.DeleteFunc(slices.Clone(p.Members), func(m models.Member) bool { return m.ID == userID })
	return s.UpdateProject(ctx, projectID, models.ProjectPatch{Members: &members})
}

func (s *ProjectState) track(id, actorID string, action models.Action, details models.ActivityDetails) {
	s.deps.Recorder.Track(activity.Entry{
		EntityType: models.EntityProject,
		EntityID:   id,
		ActorID:    actorID,
		Action:     action,
		Details:    details,
	})
}
