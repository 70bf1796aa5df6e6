package state

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"fmac-task/internal/activity"
	"fmac-task/internal/apperr"
	"fmac-task/internal/blob"
	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/notify"
	"fmac-task/internal/services"
	"fmac-task/internal/visibility"
)

// TaskDeps are the collaborators of a TaskState. Notifier and Blobs default
// to logging stand-ins.
type TaskDeps struct {
	Tasks       *services.TaskService
	Comments    *services.CommentService
	Attachments *services.AttachmentService
	Activities  *services.ActivityService
	Recorder    *activity.Recorder
	Dispatcher  *activity.Dispatcher
	Notifier    notify.Notifier
	Blobs       blob.Remover
}

// TaskState owns the visible task list of one actor.
type TaskState struct {
	deps   TaskDeps
	mirror *mirror[models.Task]
	now    func() time.Time
}

func NewTaskState(deps TaskDeps) *TaskState {
	if deps.Notifier == nil {
		deps.Notifier = notify.Log{}
	}
	if deps.Blobs == nil {
		deps.Blobs = blob.Noop{}
	}
	return &TaskState{
		deps: deps,
		mirror: newMirror(
			func(t models.Task) string { return t.ID },
			func(t models.Task) string { return t.UpdatedAt },
		),
		now: time.Now,
	}
}

// Tasks returns a snapshot of the visible tasks.
func (s *TaskState) Tasks() []models.Task { return s.mirror.snapshot() }

func (s *TaskState) Status() Status {
	st, _ := s.mirror.state()
	return st
}

// Err returns the cause of the last failed load.
func (s *TaskState) Err() error {
	_, err := s.mirror.state()
	return err
}

func (s *TaskState) Actor() models.Actor { return s.mirror.currentActor() }

// Task looks a task up in the mirror only.
func (s *TaskState) Task(id string) (models.Task, bool) { return s.mirror.find(id) }

// SetActor switches the owner, clears the list and loads it again. Without
// an authenticated actor the list stays empty and idle.
func (s *TaskState) SetActor(ctx context.Context, actor models.Actor) error {
	s.mirror.reset(actor)
	if !actor.Authenticated() {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh refetches every task and filters it for the current actor. On
// failure the previous list stays visible and Status reports StatusError.
func (s *TaskState) Refresh(ctx context.Context) error {
	seq, actor := s.mirror.begin()
	all, err := s.deps.Tasks.List(ctx)
	var visible []models.Task
	if err == nil {
		visible = visibility.VisibleTasks(all, actor)
	}
	s.mirror.finish(seq, visible, err)
	return err
}

func (s *TaskState) requireActor(op string) (models.Actor, error) {
	actor := s.mirror.currentActor()
	if !actor.Authenticated() {
		return models.Actor{}, apperr.AuthRequired(op)
	}
	return actor, nil
}

func (s *TaskState) cached(op, id string) (models.Task, error) {
	t, ok := s.mirror.find(id)
	if !ok {
		return models.Task{}, apperr.NotFound(op, "task", id)
	}
	return t, nil
}

func (s *TaskState) stamp() string {
	return s.now().UTC().Format(docstore.TimeLayout)
}

// AddTask creates a task owned by the actor. Status defaults to todo and
// priority to medium; a task created completed starts at progress 100.
func (s *TaskState) AddTask(ctx context.Context, draft models.Task) (models.Task, error) {
	const op = "tasks.add"
	actor, err := s.requireActor(op)
	if err != nil {
		return models.Task{}, err
	}
	draft = draft.Clone()
	draft.Status = models.NormalizeStatus(string(draft.Status))
	if draft.Status == "" {
		draft.Status = models.StatusTodo
	}
	if draft.Priority == "" {
		draft.Priority = models.PriorityMedium
	}
	if draft.Status == models.StatusCompleted {
		draft.Progress = 100
	}
	draft.CreatorID = actor.ID
	if err := draft.Validate(); err != nil {
		return models.Task{}, apperr.Invalid(op, err.Error())
	}

	created, err := s.deps.Tasks.Add(ctx, draft)
	if err != nil {
		return models.Task{}, err
	}
	s.mirror.insert(actor.ID, created)

	s.deps.Recorder.Track(activity.Entry{
		EntityID: created.ID,
		ActorID:  actor.ID,
		Action:   models.ActionCreated,
		Details:  models.ActivityDetails{"target": "task", "value": created.Title},
	})
	if len(created.Assignees) > 0 {
		s.notify(created.ID, actor.ID, notify.KindAssignment)
	}
	return created, nil
}

// UpdateTask writes patch and replaces the cached task with the stored
// result. The task must be in the mirror.
func (s *TaskState) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	const op = "tasks.update"
	actor, err := s.requireActor(op)
	if err != nil {
		return models.Task{}, err
	}
	before, err := s.cached(op, id)
	if err != nil {
		return models.Task{}, err
	}
	if patch.Status != nil {
		patch.Status = models.Ptr(models.NormalizeStatus(string(*patch.Status)))
	}
	if err := patch.Validate(); err != nil {
		return models.Task{}, apperr.Invalid(op, err.Error())
	}
	if patch.Empty() {
		return before, nil
	}

	updated, err := s.deps.Tasks.Update(ctx, id, patch)
	if err != nil {
		return models.Task{}, err
	}
	s.mirror.replace(actor.ID, updated)

	s.deps.Recorder.Track(activity.TaskChanges(before, updated, actor.ID)...)
	if !slices.Equal(before.AssigneeIDs(), updated.AssigneeIDs()) {
		s.notify(id, actor.ID, notify.KindAssignment)
	}
	if before.Status != updated.Status {
		s.notify(id, actor.ID, notify.KindStatus)
	}
	return updated, nil
}

func (s *TaskState) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	return s.UpdateTask(ctx, id, models.TaskPatch{Status: &status})
}

// DeleteTask removes the task with its comments and attachments. The
// activity trail is kept and gains a deleted entry.
func (s *TaskState) DeleteTask(ctx context.Context, id string) error {
	const op = "tasks.delete"
	actor, err := s.requireActor(op)
	if err != nil {
		return err
	}
	t, err := s.cached(op, id)
	if err != nil {
		return err
	}
	removed, err := s.deps.Tasks.Purge(ctx, id)
	if err != nil {
		return err
	}
	s.mirror.remove(actor.ID, id)

	s.deps.Recorder.Track(activity.Entry{
		EntityID: id,
		ActorID:  actor.ID,
		Action:   models.ActionDeleted,
		Details:  models.ActivityDetails{"target": "task", "value": t.Title},
	})
	for _, a := range removed {
		s.removeBlob(a)
	}
	return nil
}

// GetTaskByID reads the task from the store rather than the mirror. Tasks
// the actor cannot see are reported as not found.
func (s *TaskState) GetTaskByID(ctx context.Context, id string) (models.Task, error) {
	const op = "tasks.get"
	actor, err := s.requireActor(op)
	if err != nil {
		return models.Task{}, err
	}
	t, err := s.deps.Tasks.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !visibility.CanSeeTask(t, actor) {
		return models.Task{}, apperr.NotFound(op, "task", id)
	}
	return t, nil
}

// UnlinkProject clears projectId on every cached task that references
// projectID. The store side is handled by the caller.
func (s *TaskState) UnlinkProject(projectID string) int {
	if projectID == "" {
		return 0
	}
	return s.mirror.rewrite(func(t models.Task) (models.Task, bool) {
		if t.ProjectID != projectID {
			return t, false
		}
		t = t.Clone()
		t.ProjectID = ""
		return t, true
	})
}

func (s *TaskState) Comments(ctx context.Context, taskID string) ([]models.Comment, error) {
	const op = "comments.list"
	if _, err := s.requireActor(op); err != nil {
		return nil, err
	}
	if _, err := s.cached(op, taskID); err != nil {
		return nil, err
	}
	return s.deps.Comments.ListByTask(ctx, taskID)
}

func (s *TaskState) AddComment(ctx context.Context, taskID, content string) (models.Comment, error) {
	const op = "comments.add"
	actor, err := s.requireActor(op)
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := s.cached(op, taskID); err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.Invalid(op, "content is required")
	}
	c, err := s.deps.Comments.Add(ctx, models.Comment{TaskID: taskID, UserID: actor.ID, Content: content})
	if err != nil {
		return models.Comment{}, err
	}
	s.deps.Recorder.Track(activity.Entry{
		EntityID: taskID,
		ActorID:  actor.ID,
		Action:   models.ActionCommented,
		Details:  models.ActivityDetails{"target": "comment", "value": c.ID},
	})
	s.notify(taskID, actor.ID, notify.KindComment)
	return c, nil
}

// DeleteComment removes a comment. Only its author, the task creator or an
// admin may do so.
func (s *TaskState) DeleteComment(ctx context.Context, taskID, commentID string) error {
	const op = "comments.delete"
	actor, err := s.requireActor(op)
	if err != nil {
		return err
	}
	t, err := s.cached(op, taskID)
	if err != nil {
		return err
	}
	c, err := s.deps.Comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if c.TaskID != taskID {
		return apperr.NotFound(op, "comment", commentID)
	}
	if c.UserID != actor.ID && t.CreatorID != actor.ID && !actor.IsAdmin() {
		return apperr.Forbidden(op, "only the author can delete this comment")
	}
	return s.deps.Comments.Delete(ctx, commentID)
}

func (s *TaskState) Attachments(ctx context.Context, taskID string) ([]models.Attachment, error) {
	const op = "attachments.list"
	if _, err := s.requireActor(op); err != nil {
		return nil, err
	}
	if _, err := s.cached(op, taskID); err != nil {
		return nil, err
	}
	return s.deps.Attachments.ListByTask(ctx, taskID)
}

// AddAttachment records a reference to an already uploaded blob.
func (s *TaskState) AddAttachment(ctx context.Context, taskID string, a models.Attachment) (models.Attachment, error) {
	const op = "attachments.add"
	actor, err := s.requireActor(op)
	if err != nil {
		return models.Attachment{}, err
	}
	if _, err := s.cached(op, taskID); err != nil {
		return models.Attachment{}, err
	}
	if a.Name == "" || (a.URL == "" && a.FilePath == "") {
		return models.Attachment{}, apperr.Invalid(op, "name and url or filePath are required")
	}
	a.TaskID = taskID
	a.UploadedBy = actor.ID
	a.UploadedAt = s.stamp()
	saved, err := s.deps.Attachments.Add(ctx, a)
	if err != nil {
		return models.Attachment{}, err
	}
	s.deps.Recorder.Track(activity.Entry{
		EntityID: taskID,
		ActorID:  actor.ID,
		Action:   models.ActionUpdated,
		Details:  models.ActivityDetails{"target": "attachment", "value": saved.Name},
	})
	return saved, nil
}

// DeleteAttachment removes the reference and queues removal of the blob.
func (s *TaskState) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	const op = "attachments.delete"
	actor, err := s.requireActor(op)
	if err != nil {
		return err
	}
	if _, err := s.cached(op, taskID); err != nil {
		return err
	}
	a, err := s.deps.Attachments.Get(ctx, attachmentID)
	if err != nil {
		return err
	}
	if a.TaskID != taskID {
		return apperr.NotFound(op, "attachment", attachmentID)
	}
	if err := s.deps.Attachments.Delete(ctx, attachmentID); err != nil {
		return err
	}
	s.deps.Recorder.Track(activity.Entry{
		EntityID: taskID,
		ActorID:  actor.ID,
		Action:   models.ActionUpdated,
		Details:  models.ActivityDetails{"target": "attachment", "oldValue": a.Name},
	})
	s.removeBlob(a)
	return nil
}

func (s *TaskState) Activities(ctx context.Context, taskID string) ([]models.Activity, error) {
	const op = "activities.list"
	if _, err := s.requireActor(op); err != nil {
		return nil, err
	}
	if _, err := s.cached(op, taskID); err != nil {
		return nil, err
	}
	return s.deps.Activities.ListByEntity(ctx, taskID)
}

func (s *TaskState) notify(taskID, actorID string, kind notify.Kind) {
	s.deps.Dispatcher.Dispatch(fmt.Sprintf("notify %s %s", kind, taskID), func(ctx context.Context) error {
		return s.deps.Notifier.SendNotification(ctx, taskID, actorID, kind)
	})
}

func (s *TaskState) removeBlob(a models.Attachment) {
	if a.FilePath == "" {
		return
	}
	s.deps.Dispatcher.Dispatch("remove blob "+a.FilePath, func(ctx context.Context) error {
		return s.deps.Blobs.Remove(ctx, a.FilePath)
	})
}
