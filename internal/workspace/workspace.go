// Package workspace is the composition layer: it bundles the task and
// project hooks of one actor and keeps one such bundle per actor.
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"fmac-task/internal/activity"
	"fmac-task/internal/blob"
	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/notify"
	"fmac-task/internal/services"
	"fmac-task/internal/state"
)

// Backend holds the stateless collaborators every workspace shares.
type Backend struct {
	Tasks       *services.TaskService
	Projects    *services.ProjectService
	Comments    *services.CommentService
	Attachments *services.AttachmentService
	Activities  *services.ActivityService
	Departments *services.DepartmentService
	Users       *services.UserService
	Recorder    *activity.Recorder
	Dispatcher  *activity.Dispatcher
	Notifier    notify.Notifier
	Blobs       blob.Remover
}

// BackendOptions configure NewBackend. Zero values fall back to defaults.
type BackendOptions struct {
	Notifier      notify.Notifier
	Blobs         blob.Remover
	ProfileTTL    time.Duration
	EffectTimeout time.Duration
}

func NewBackend(store docstore.Store, opts BackendOptions) *Backend {
	dispatcher := activity.NewDispatcher(opts.EffectTimeout)
	activities := services.NewActivityService(store)
	b := &Backend{
		Tasks:       services.NewTaskService(store),
		Projects:    services.NewProjectService(store),
		Comments:    services.NewCommentService(store),
		Attachments: services.NewAttachmentService(store),
		Activities:  activities,
		Departments: services.NewDepartmentService(store),
		Users:       services.NewUserService(store, opts.ProfileTTL),
		Recorder:    activity.NewRecorder(activities, dispatcher),
		Dispatcher:  dispatcher,
		Notifier:    opts.Notifier,
		Blobs:       opts.Blobs,
	}
	if b.Notifier == nil {
		b.Notifier = notify.Log{}
	}
	if b.Blobs == nil {
		b.Blobs = blob.Noop{}
	}
	return b
}

// Close drains queued side effects.
func (b *Backend) Close() {
	b.Dispatcher.Close()
}

// Workspace is the contract the rest of the application consumes.
type Workspace struct {
	Tasks       *state.TaskState
	Projects    *state.ProjectState
	Departments *services.DepartmentService
	Users       *services.UserService

	mu    sync.Mutex
	actor models.Actor
}

func New(b *Backend) *Workspace {
	tasks := state.NewTaskState(state.TaskDeps{
		Tasks:       b.Tasks,
		Comments:    b.Comments,
		Attachments: b.Attachments,
		Activities:  b.Activities,
		Recorder:    b.Recorder,
		Dispatcher:  b.Dispatcher,
		Notifier:    b.Notifier,
		Blobs:       b.Blobs,
	})
	projects := state.NewProjectState(state.ProjectDeps{
		Projects:  b.Projects,
		Tasks:     b.Tasks,
		Recorder:  b.Recorder,
		TaskState: tasks,
	})
	return &Workspace{
		Tasks:       tasks,
		Projects:    projects,
		Departments: b.Departments,
		Users:       b.Users,
	}
}

func (w *Workspace) Actor() models.Actor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.actor
}

// SetActor hands both hooks to actor and reloads them.
func (w *Workspace) SetActor(ctx context.Context, actor models.Actor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setActorLocked(ctx, actor)
}

func (w *Workspace) setActorLocked(ctx context.Context, actor models.Actor) error {
	w.actor = actor
	return errors.Join(w.Tasks.SetActor(ctx, actor), w.Projects.SetActor(ctx, actor))
}

// ensure switches to actor only if its identity or visibility context
// changed.
func (w *Workspace) ensure(ctx context.Context, actor models.Actor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.actor == actor {
		return nil
	}
	return w.setActorLocked(ctx, actor)
}

// Refresh reloads both hooks.
func (w *Workspace) Refresh(ctx context.Context) error {
	return errors.Join(w.Tasks.Refresh(ctx), w.Projects.Refresh(ctx))
}
