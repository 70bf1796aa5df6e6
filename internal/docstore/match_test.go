package docstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchOperators(t *testing.T) {
	doc := Document{
		"id":       "t1",
		"status":   "todo",
		"progress": float64(40),
		"tags":     []any{"ops", "infra"},
		"due_date": "2025-02-01T00:00:00Z",
	}
	cases := []struct {
		cond Condition
		want bool
	}{
		{Where("status", OpEq, "todo"), true},
		{Where("status", OpNe, "todo"), false},
		{Where("progress", OpEq, 40), true},
		{Where("progress", OpGt, 39), true},
		{Where("progress", OpLte, 39), false},
		{Where("due_date", OpLt, "2025-03-01T00:00:00Z"), true},
		{Where("status", OpIn, []string{"todo", "in_progress"}), true},
		{Where("status", OpNotIn, []string{"todo"}), false},
		{Where("tags", OpArrayContains, "ops"), true},
		{Where("tags", OpArrayContainsAny, []string{"x", "infra"}), true},
		{Where("tags", OpArrayContains, "x"), false},
		{Where("project_id", OpEq, "p1"), false},
		{Where("project_id", OpNe, "p1"), true},
		{Where("project_id", OpNotIn, []string{"p1"}), true},
		{Where("progress", OpGt, "abc"), false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Match(doc, []Condition{tc.cond}), tc.cond.String())
	}
}

func TestMatchMissingOrNullField(t *testing.T) {
	for _, doc := range []Document{{"id": "t1"}, {"id": "t1", "project_id": nil}} {
		require.False(t, Match(doc, []Condition{Where("project_id", OpEq, nil)}))
		require.True(t, Match(doc, []Condition{Where("project_id", OpNe, nil)}))
		require.True(t, Match(doc, []Condition{Where("project_id", OpNe, "p1")}))
		require.True(t, Match(doc, []Condition{Where("project_id", OpNotIn, []string{"p1"})}))
		require.False(t, Match(doc, []Condition{Where("project_id", OpIn, []any{nil})}))
		require.False(t, Match(doc, []Condition{Where("project_id", OpArrayContains, "p1")}))
	}
}

func TestMatchIsConjunction(t *testing.T) {
	doc := Document{"a": "1", "b": "2"}
	require.True(t, Match(doc, []Condition{Where("a", OpEq, "1"), Where("b", OpEq, "2")}))
	require.False(t, Match(doc, []Condition{Where("a", OpEq, "1"), Where("b", OpEq, "3")}))
	require.True(t, Match(doc, nil))
}

func TestSortMissingLast(t *testing.T) {
	docs := []Document{{"id": "a"}, {"id": "b", "n": float64(2)}, {"id": "c", "n": float64(5)}}
	Sort(docs, "n", Desc)
	require.Equal(t, []string{"c", "b", "a"}, []string{docs[0].ID(), docs[1].ID(), docs[2].ID()})
	Sort(docs, "n", Asc)
	require.Equal(t, []string{"b", "c", "a"}, []string{docs[0].ID(), docs[1].ID(), docs[2].ID()})
}
