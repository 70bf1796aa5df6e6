package state

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"fmac-task/internal/apperr"
	"fmac-task/internal/models"
	"fmac-task/internal/notify"
	"fmac-task/internal/schema"
)

func TestTaskState_AddThenGetByID(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	ctx := context.Background()

	created, err := e.tasks.AddTask(ctx, models.Task{Title: "X", DueDate: "2025-05-01T09:00:00Z"})
	require.NoError(t, err)
	require.Equal(t, models.StatusTodo, created.Status)
	require.Equal(t, models.PriorityMedium, created.Priority)
	require.Equal(t, "alice", created.CreatorID)

	got, err := e.tasks.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.CreatedAt)
	require.Equal(t, "X", got.Title)
	require.Equal(t, "2025-05-01T09:00:00Z", got.DueDate)

	cached, ok := e.tasks.Task(created.ID)
	require.True(t, ok)
	require.Equal(t, created, cached)
}

func TestTaskState_AddCompletedForcesProgress(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)

	created, err := e.tasks.AddTask(context.Background(), models.Task{Title: "done already", Status: "done", Progress: 20})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, created.Status)
	require.Equal(t, 100, created.Progress)
}

func TestTaskState_RequiresActor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.tasks.SetActor(ctx, models.Actor{}))
	require.Equal(t, StatusIdle, e.tasks.Status())

	_, err := e.tasks.AddTask(ctx, models.Task{Title: "X"})
	require.ErrorIs(t, err, apperr.ErrAuthRequired)
	_, err = e.tasks.UpdateTask(ctx, "t1", models.TaskPatch{Title: models.Ptr("Y")})
	require.ErrorIs(t, err, apperr.ErrAuthRequired)
	require.ErrorIs(t, e.tasks.DeleteTask(ctx, "t1"), apperr.ErrAuthRequired)
	_, err = e.tasks.AddComment(ctx, "t1", "hi")
	require.ErrorIs(t, err, apperr.ErrAuthRequired)
}

func TestTaskState_CacheIsExistenceOracle(t *testing.T) {
	e := newEnv(t)
	hidden := e.seedTask(t, models.Task{Title: "bob's", CreatorID: "bob"})
	e.login(t, alice)

	_, err := e.tasks.UpdateTask(context.Background(), hidden.ID, models.TaskPatch{Title: models.Ptr("mine now")})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.Equal(t, "bob's", e.rawTask(t, hidden.ID)["title"])

	_, err = e.tasks.GetTaskByID(context.Background(), hidden.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTaskState_FailedWriteLeavesMirrorUntouched(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	ctx := context.Background()
	created, err := e.tasks.AddTask(ctx, models.Task{Title: "A", Progress: 5})
	require.NoError(t, err)
	before := e.tasks.Tasks()

	e.store.set(func(f *faultyStore) { f.failUpdate = true })
	_, err = e.tasks.UpdateTask(ctx, created.ID, models.TaskPatch{Progress: models.Ptr(50), Title: models.Ptr("B")})
	require.ErrorIs(t, err, apperr.ErrWrite)
	require.Equal(t, before, e.tasks.Tasks())

	_, err = e.tasks.UpdateTask(ctx, created.ID, models.TaskPatch{Progress: models.Ptr(150)})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestTaskState_UpdateRecordsActivityAndReplacesByValue(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	ctx := context.Background()
	created, err := e.tasks.AddTask(ctx, models.Task{Title: "A"})
	require.NoError(t, err)
	snapshot := e.tasks.Tasks()

	updated, err := e.tasks.UpdateTask(ctx, created.ID, models.TaskPatch{
		Status:    models.Ptr(models.StatusInProgress),
		Progress:  models.Ptr(40),
		Assignees: &[]models.Assignee{{ID: "bob", Name: "Bob"}},
	})
	require.NoError(t, err)
	require.Equal(t, "A", updated.Title)
	require.Equal(t, "bob", updated.AssigneeID)

	require.Equal(t, models.StatusTodo, snapshot[0].Status)
	cached, _ := e.tasks.Task(created.ID)
	require.Equal(t, updated, cached)

	e.dispatcher.Flush()
	trail, err := e.tasks.Activities(ctx, created.ID)
	require.NoError(t, err)
	var actions []models.Action
	for _, a := range trail {
		actions = append(actions, a.Action)
	}
	require.Equal(t, []models.Action{models.ActionCreated, models.ActionUpdated, models.ActionUpdated, models.ActionAssigned}, actions)
	require.ElementsMatch(t, []notify.Kind{notify.KindAssignment, notify.KindStatus}, e.notes.got())
}

func TestTaskState_ActivityFailureDoesNotFailMutation(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	e.store.set(func(f *faultyStore) { f.failAddTo = schema.Activities })
	ctx := context.Background()

	created, err := e.tasks.AddTask(ctx, models.Task{Title: "A"})
	require.NoError(t, err)
	updated, err := e.tasks.UpdateTask(ctx, created.ID, models.TaskPatch{Status: models.Ptr(models.StatusCompleted)})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, updated.Status)
	e.dispatcher.Flush()

	trail, err := e.activities.ListByEntity(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, trail)
}

func TestTaskState_ConcurrentUpdatesConverge(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	ctx := context.Background()
	created, err := e.tasks.AddTask(ctx, models.Task{Title: "race"})
	require.NoError(t, err)

	for round := 0; round < 10; round++ {
		var wg sync.WaitGroup
		for _, p := range []int{10, 90} {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				_, err := e.tasks.UpdateTask(ctx, created.ID, models.TaskPatch{Progress: models.Ptr(p)})
				if err != nil {
					t.Error(err)
				}
			}(p)
		}
		wg.Wait()

		cached, ok := e.tasks.Task(created.ID)
		require.True(t, ok)
		stored := e.rawTask(t, created.ID)
		require.Equal(t, stored["progress"], float64(cached.Progress))
		require.Equal(t, stored["updatedAt"], cached.UpdatedAt)
	}
}

func TestTaskState_DeleteTaskCascadesChildren(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	ctx := context.Background()
	task, err := e.tasks.AddTask(ctx, models.Task{Title: "doomed"})
	require.NoError(t, err)
	_, err = e.tasks.AddComment(ctx, task.ID, "  first  ")
	require.NoError(t, err)
	_, err = e.tasks.AddAttachment(ctx, task.ID, models.Attachment{Name: "spec.pdf", FilePath: "tasks/spec.pdf", Size: 10})
	require.NoError(t, err)

	require.NoError(t, e.tasks.DeleteTask(ctx, task.ID))
	_, ok := e.tasks.Task(task.ID)
	require.False(t, ok)
	e.dispatcher.Flush()

	left, err := e.comments.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Empty(t, left)
	require.Equal(t, []string{"tasks/spec.pdf"}, e.blobs.paths)

	trail, err := e.activities.ListByEntity(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActionDeleted, trail[len(trail)-1].Action)

	require.ErrorIs(t, e.tasks.DeleteTask(ctx, task.ID), apperr.ErrNotFound)
}

func TestTaskState_Comments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shared := e.seedTask(t, models.Task{Title: "shared", CreatorID: "alice", Assignees: []models.Assignee{{ID: "bob"}}})

	e.login(t, alice)
	c, err := e.tasks.AddComment(ctx, shared.ID, "  looks good ")
	require.NoError(t, err)
	require.Equal(t, "looks good", c.Content)
	_, err = e.tasks.AddComment(ctx, shared.ID, "   ")
	require.ErrorIs(t, err, apperr.ErrInvalid)

	e.login(t, bob)
	require.ErrorIs(t, e.tasks.DeleteComment(ctx, shared.ID, c.ID), apperr.ErrForbidden)
	mine, err := e.tasks.AddComment(ctx, shared.ID, "thanks")
	require.NoError(t, err)
	require.NoError(t, e.tasks.DeleteComment(ctx, shared.ID, mine.ID))

	list, err := e.tasks.Comments(ctx, shared.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	e.dispatcher.Flush()
	require.Equal(t, []notify.Kind{notify.KindComment, notify.KindComment}, e.notes.got())
}

func TestTaskState_RefreshErrorKeepsList(t *testing.T) {
	e := newEnv(t)
	e.login(t, alice)
	ctx := context.Background()
	_, err := e.tasks.AddTask(ctx, models.Task{Title: "A"})
	require.NoError(t, err)
	require.Equal(t, StatusReady, e.tasks.Status())

	e.store.set(func(f *faultyStore) { f.failList = true })
	require.Error(t, e.tasks.Refresh(ctx))
	require.Equal(t, StatusError, e.tasks.Status())
	require.ErrorIs(t, e.tasks.Err(), apperr.ErrWrite)
	require.Len(t, e.tasks.Tasks(), 1)

	e.store.set(func(f *faultyStore) { f.failList = false })
	require.NoError(t, e.tasks.Refresh(ctx))
	require.Equal(t, StatusReady, e.tasks.Status())
	require.NoError(t, e.tasks.Err())
}

func TestTaskState_StaleLoadIsDiscarded(t *testing.T) {
	e := newEnv(t)
	e.seedTask(t, models.Task{Title: "alice's", CreatorID: "alice"})
	e.seedTask(t, models.Task{Title: "bob's", CreatorID: "bob"})
	ctx := context.Background()
	require.NoError(t, e.tasks.SetActor(ctx, models.Actor{}))

	gate, entered := make(chan struct{}), make(chan struct{})
	e.store.set(func(f *faultyStore) { f.gateList, f.enteredList = gate, entered })

	done := make(chan error)
	go func() { done <- e.tasks.SetActor(ctx, alice) }()
	<-entered
	require.Equal(t, StatusLoading, e.tasks.Status())

	require.NoError(t, e.tasks.SetActor(ctx, bob))
	close(gate)
	require.NoError(t, <-done)

	tasks := e.tasks.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, "bob's", tasks[0].Title)
	require.Equal(t, bob, e.tasks.Actor())
}

func TestTaskState_WritesDuringLoadSurviveIt(t *testing.T) {
	e := newEnv(t)
	seeded := e.seedTask(t, models.Task{Title: "seeded", CreatorID: "alice"})
	doomed := e.seedTask(t, models.Task{Title: "doomed", CreatorID: "alice"})
	e.login(t, alice)
	ctx := context.Background()

	gate, entered := make(chan struct{}), make(chan struct{})
	e.store.set(func(f *faultyStore) { f.gateList, f.enteredList = gate, entered })
	done := make(chan error)
	go func() { done <- e.tasks.Refresh(ctx) }()
	<-entered

	// the load has already read the store; everything below commits after it
	created, err := e.tasks.AddTask(ctx, models.Task{Title: "X"})
	require.NoError(t, err)
	_, err = e.tasks.UpdateTask(ctx, seeded.ID, models.TaskPatch{Progress: models.Ptr(90)})
	require.NoError(t, err)
	require.NoError(t, e.tasks.DeleteTask(ctx, doomed.ID))

	close(gate)
	require.NoError(t, <-done)
	require.Equal(t, StatusReady, e.tasks.Status())

	_, ok := e.tasks.Task(created.ID)
	require.True(t, ok)
	got, ok := e.tasks.Task(seeded.ID)
	require.True(t, ok)
	require.Equal(t, 90, got.Progress)
	_, ok = e.tasks.Task(doomed.ID)
	require.False(t, ok)
	require.Len(t, e.tasks.Tasks(), 2)

	require.NoError(t, e.tasks.Refresh(ctx))
	got, _ = e.tasks.Task(seeded.ID)
	require.Equal(t, 90, got.Progress)
	require.Len(t, e.tasks.Tasks(), 2)
}

func TestTaskState_VisibilityFollowsActor(t *testing.T) {
	e := newEnv(t)
	e.seedTask(t, models.Task{Title: "T1", CreatorID: "alice"})
	e.seedTask(t, models.Task{Title: "T2", CreatorID: "carol", AssigneeID: "bob"})

	e.login(t, alice)
	require.Len(t, e.tasks.Tasks(), 1)
	e.login(t, bob)
	require.Len(t, e.tasks.Tasks(), 1)
	require.Equal(t, "T2", e.tasks.Tasks()[0].Title)
	e.login(t, admin)
	require.Len(t, e.tasks.Tasks(), 2)
}

func TestTaskState_MalformedAssigneesStillVisibleToCreator(t *testing.T) {
	e := newEnv(t)
	_, err := e.raw.Add(context.Background(), schema.Tasks, map[string]any{
		"title":      "broken",
		"created_by": "alice",
		"assignees":  "[{\"id\": \"bob\"",
	})
	require.NoError(t, err)

	e.login(t, alice)
	require.Len(t, e.tasks.Tasks(), 1)
	e.login(t, bob)
	require.Empty(t, e.tasks.Tasks())
}
