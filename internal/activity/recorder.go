// Package activity appends audit entries after mutations and runs other
// fire-and-forget side effects through an ordered queue.
package activity

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"fmac-task/internal/apperr"
	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/services"
)

// Recorder writes activity entries.
type Recorder struct {
	activities *services.ActivityService
	dispatcher *Dispatcher
	now        func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewRecorder(activities *services.ActivityService, dispatcher *Dispatcher) *Recorder {
	return &Recorder{activities: activities, dispatcher: dispatcher, now: time.Now}
}

// Entry describes one activity to append.
type Entry struct {
	EntityType models.EntityType
	EntityID   string
	ActorID    string
	Action     models.Action
	Details    models.ActivityDetails
}

// Record appends one task activity and returns it. Failures come back as
// ErrActivityRecord.
func (r *Recorder) Record(ctx context.Context, entityID, actorID string, action models.Action, details models.ActivityDetails) (models.Activity, error) {
	return r.write(ctx, Entry{EntityType: models.EntityTask, EntityID: entityID, ActorID: actorID, Action: action, Details: details}, r.stamp())
}

// Track queues entries on the dispatcher. They are persisted in the order
// given, stamped when Track is called. Nothing is returned to the caller;
// failures are logged by the dispatcher.
func (r *Recorder) Track(entries ...Entry) {
	for _, e := range entries {
		if e.EntityType == "" {
			e.EntityType = models.EntityTask
		}
		ts := r.stamp()
		r.dispatcher.Dispatch(fmt.Sprintf("record %s %s", e.Action, e.EntityID), func(ctx context.Context) error {
			_, err := r.write(ctx, e, ts)
			return err
		})
	}
}

func (r *Recorder) write(ctx context.Context, e Entry, ts string) (models.Activity, error) {
	if e.EntityID == "" {
		return models.Activity{}, apperr.ActivityRecord("activity.record", fmt.Errorf("entity id is required"))
	}
	a, err := r.activities.Add(ctx, models.Activity{
		EntityID:   e.EntityID,
		EntityType: e.EntityType,
		ActorID:    e.ActorID,
		Action:     e.Action,
		Details:    e.Details,
		Timestamp:  ts,
	})
	if err != nil {
		return models.Activity{}, apperr.ActivityRecord("activity.record", err)
	}
	return a, nil
}

// stamp returns strictly increasing timestamps so entries sort in call order
// even when the clock does not advance between them.
func (r *Recorder) stamp() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now().UTC()
	if !t.After(r.last) {
		t = r.last.Add(time.Nanosecond)
	}
	r.last = t
	return t.Format(docstore.TimeLayout)
}

// TaskChanges returns one entry per significant field that differs between
// before and after: status, priority, progress and assignees.
func TaskChanges(before, after models.Task, actorID string) []Entry {
	var out []Entry
	add := func(action models.Action, target string, oldValue, newValue any) {
		out = append(out, Entry{
			EntityType: models.EntityTask,
			EntityID:   after.ID,
			ActorID:    actorID,
			Action:     action,
			Details:    models.Change(target, oldValue, newValue),
		})
	}
	if before.Status != after.Status {
		add(models.ActionUpdated, "status", string(before.Status), string(after.Status))
	}
	if before.Priority != after.Priority {
		add(models.ActionUpdated, "priority", string(before.Priority), string(after.Priority))
	}
	if before.Progress != after.Progress {
		add(models.ActionUpdated, "progress", before.Progress, after.Progress)
	}
	if !slices.Equal(before.AssigneeIDs(), after.AssigneeIDs()) {
		add(models.ActionAssigned, "assignees", before.AssigneeIDs(), after.AssigneeIDs())
	}
	return out
}
