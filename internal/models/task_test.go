package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskPatch_NullClears(t *testing.T) {
	var p TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate": null, "projectId": null}`), &p))
	require.NotNil(t, p.DueDate)
	require.Equal(t, "", *p.DueDate)
	require.NotNil(t, p.ProjectID)
	require.Equal(t, "", *p.ProjectID)
	require.False(t, p.Empty())

	task := p.Apply(Task{Title: "T", DueDate: "2025-01-01T00:00:00Z", ProjectID: "p1"})
	require.Empty(t, task.DueDate)
	require.Empty(t, task.ProjectID)

	p = TaskPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"title": "T", "progress": 5}`), &p))
	require.Nil(t, p.DueDate)
	require.Nil(t, p.ProjectID)
	require.Equal(t, 5, *p.Progress)

	p = TaskPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"title": null}`), &p))
	require.Nil(t, p.Title)

	require.Error(t, json.Unmarshal([]byte(`{"progress": "x"}`), &TaskPatch{}))
}

func TestProjectPatch_NullClearsDepartment(t *testing.T) {
	var p ProjectPatch
	require.NoError(t, json.Unmarshal([]byte(`{"departmentId": null}`), &p))
	require.NotNil(t, p.DepartmentID)
	require.Equal(t, "", *p.DepartmentID)

	p = ProjectPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"name": "P"}`), &p))
	require.Nil(t, p.DepartmentID)
}
