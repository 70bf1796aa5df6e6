package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskFieldMapRoundTrip(t *testing.T) {
	app := map[string]any{
		"title":      "Ship it",
		"dueDate":    "2025-04-30T17:00:00Z",
		"projectId":  "p1",
		"creatorId":  "u1",
		"assigneeId": "u2",
		"extra":      true,
	}
	stored := Task.ToStore(app)
	require.Equal(t, "2025-04-30T17:00:00Z", stored["due_date"])
	require.Equal(t, "p1", stored["project_id"])
	require.Equal(t, "u1", stored["created_by"])
	require.Equal(t, "u2", stored["assigned_to"])
	require.Equal(t, true, stored["extra"])
	require.NotContains(t, stored, "dueDate")

	require.Equal(t, app, Task.ToApp(stored))
}

func TestEveryTableIsInvertible(t *testing.T) {
	for _, m := range []FieldMap{Task, Project, Department, Profile, Comment, Activity, Attachment} {
		for app, store := range m.toStore {
			require.Equal(t, app, m.AppKey(store), "%s.%s", m.Name(), app)
		}
	}
}

func TestNewFieldMapRejectsDuplicates(t *testing.T) {
	require.Panics(t, func() {
		NewFieldMap("bad", map[string]string{"a": "x", "b": "x"})
	})
}
