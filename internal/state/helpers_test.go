package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fmac-task/internal/activity"
	"fmac-task/internal/apperr"
	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/notify"
	"fmac-task/internal/schema"
	"fmac-task/internal/services"
	"fmac-task/internal/testutil"
)

// faultyStore injects failures into a real store. A gated list reads the
// store first and then waits for the gate before returning.
type faultyStore struct {
	docstore.Store

	mu          sync.Mutex
	failUpdate  bool
	failList    bool
	failAddTo   string
	gateList    chan struct{}
	enteredList chan struct{}
}

func (f *faultyStore) Add(ctx context.Context, coll string, data map[string]any) (docstore.Document, error) {
	f.mu.Lock()
	fail := f.failAddTo == coll
	f.mu.Unlock()
	if fail {
		return nil, apperr.Write("docstore.add", errors.New("permission denied"))
	}
	return f.Store.Add(ctx, coll, data)
}

func (f *faultyStore) Update(ctx context.Context, coll, id string, data map[string]any) (docstore.Document, error) {
	f.mu.Lock()
	fail := f.failUpdate
	f.mu.Unlock()
	if fail {
		return nil, apperr.Write("docstore.update", errors.New("network down"))
	}
	return f.Store.Update(ctx, coll, id, data)
}

func (f *faultyStore) GetAllOrdered(ctx context.Context, coll, field string, dir docstore.Direction, conds ...docstore.Condition) ([]docstore.Document, error) {
	f.mu.Lock()
	fail := f.failList
	gate, entered := f.gateList, f.enteredList
	f.gateList, f.enteredList = nil, nil
	f.mu.Unlock()
	if fail {
		return nil, apperr.Write("docstore.list", errors.New("network down"))
	}
	docs, err := f.Store.GetAllOrdered(ctx, coll, field, dir, conds...)
	if entered != nil {
		close(entered)
		<-gate
	}
	return docs, err
}

func (f *faultyStore) set(fn func(f *faultyStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []notify.Kind
}

func (n *recordingNotifier) SendNotification(_ context.Context, _, _ string, kind notify.Kind) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return nil
}

func (n *recordingNotifier) got() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Kind(nil), n.kinds...)
}

type recordingBlobs struct {
	mu    sync.Mutex
	paths []string
}

func (b *recordingBlobs) Remove(_ context.Context, p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paths = append(b.paths, p)
	return nil
}

// steppingClock returns a strictly increasing time on every call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

type env struct {
	raw        *docstore.GormStore
	store      *faultyStore
	taskSvc    *services.TaskService
	projectSvc *services.ProjectService
	comments   *services.CommentService
	activities *services.ActivityService
	dispatcher *activity.Dispatcher
	notes      *recordingNotifier
	blobs      *recordingBlobs
	tasks      *TaskState
	projects   *ProjectState
}

var (
	alice = models.Actor{ID: "alice", Name: "Alice", Role: models.RoleMember, Department: "Eng"}
	bob   = models.Actor{ID: "bob", Name: "Bob", Role: models.RoleMember, Department: "Sales"}
	admin = models.Actor{ID: "root", Name: "Root", Role: models.RoleAdmin}
)

func newEnv(t *testing.T) *env {
	t.Helper()
	raw := testutil.NewInMemoryStore(t, docstore.Options{Now: steppingClock()})
	e := &env{
		raw:        raw,
		store:      &faultyStore{Store: raw},
		dispatcher: activity.NewDispatcher(time.Second),
		notes:      &recordingNotifier{},
		blobs:      &recordingBlobs{},
	}
	t.Cleanup(e.dispatcher.Close)
	e.taskSvc = services.NewTaskService(e.store)
	e.projectSvc = services.NewProjectService(e.store)
	e.comments = services.NewCommentService(e.store)
	e.activities = services.NewActivityService(e.store)
	rec := activity.NewRecorder(e.activities, e.dispatcher)
	e.tasks = NewTaskState(TaskDeps{
		Tasks:       e.taskSvc,
		Comments:    e.comments,
		Attachments: services.NewAttachmentService(e.store),
		Activities:  e.activities,
		Recorder:    rec,
		Dispatcher:  e.dispatcher,
		Notifier:    e.notes,
		Blobs:       e.blobs,
	})
	e.projects = NewProjectState(ProjectDeps{
		Projects:  e.projectSvc,
		Tasks:     e.taskSvc,
		Recorder:  rec,
		TaskState: e.tasks,
	})
	return e
}

func (e *env) login(t *testing.T, actor models.Actor) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.tasks.SetActor(ctx, actor))
	require.NoError(t, e.projects.SetActor(ctx, actor))
}

// seedTask writes a task straight to the store, bypassing any mirror.
func (e *env) seedTask(t *testing.T, task models.Task) models.Task {
	t.Helper()
	out, err := e.taskSvc.Add(context.Background(), task)
	require.NoError(t, err)
	return out
}

func (e *env) rawTask(t *testing.T, id string) docstore.Document {
	t.Helper()
	doc, err := e.raw.GetByID(context.Background(), schema.Tasks, id)
	require.NoError(t, err)
	return doc
}
