package docstore

import (
	"fmt"
	"reflect"
	"sort"
)

type Operator string

const (
	OpEq               Operator = "=="
	OpNe               Operator = "!="
	OpLt               Operator = "<"
	OpLte              Operator = "<="
	OpGt               Operator = ">"
	OpGte              Operator = ">="
	OpIn               Operator = "in"
	OpNotIn            Operator = "not-in"
	OpArrayContains    Operator = "array-contains"
	OpArrayContainsAny Operator = "array-contains-any"
)

// Condition is one {field, operator, value} triple. A query's conditions are
// AND-ed together.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

func Where(field string, op Operator, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Match reports whether doc satisfies every condition. Conditions are
// evaluated in memory; nothing is pushed down to the backend.
func Match(doc Document, conds []Condition) bool {
	for _, c := range conds {
		if !matchOne(doc, c) {
			return false
		}
	}
	return true
}

func matchOne(doc Document, c Condition) bool {
	v, present := doc[c.Field]
	if !present || v == nil {
		return c.Op == OpNe || c.Op == OpNotIn
	}
	switch c.Op {
	case OpEq:
		return equal(v, c.Value)
	case OpNe:
		return !equal(v, c.Value)
	case OpLt, OpLte, OpGt, OpGte:
		cmp, ok := compare(v, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpLt:
			return cmp < 0
		case OpLte:
			return cmp <= 0
		case OpGt:
			return cmp > 0
		default:
			return cmp >= 0
		}
	case OpIn:
		return containsAny([]any{v}, toSlice(c.Value))
	case OpNotIn:
		return !containsAny([]any{v}, toSlice(c.Value))
	case OpArrayContains:
		return containsAny(toSlice(v), []any{c.Value})
	case OpArrayContainsAny:
		return containsAny(toSlice(v), toSlice(c.Value))
	}
	return false
}

func containsAny(haystack, needles []any) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if equal(h, n) {
				return true
			}
		}
	}
	return false
}

func toSlice(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compare orders numbers numerically and strings lexically (RFC3339
// timestamps sort correctly as strings).
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		switch {
		case sa < sb:
			return -1, true
		case sa > sb:
			return 1, true
		}
		return 0, true
	}
	ba, okA := a.(bool)
	bb, okB := b.(bool)
	if okA && okB {
		switch {
		case ba == bb:
			return 0, true
		case !ba:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Sort orders docs by a single field in place. Documents missing the field go
// last regardless of direction.
func Sort(docs []Document, field string, dir Direction) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, okA := docs[i][field]
		b, okB := docs[j][field]
		if !okA || a == nil {
			return false
		}
		if !okB || b == nil {
			return true
		}
		cmp, ok := compare(a, b)
		if !ok {
			return false
		}
		if dir == Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func filter(docs []Document, conds []Condition) []Document {
	if len(conds) == 0 {
		return docs
	}
	out := docs[:0]
	for _, d := range docs {
		if Match(d, conds) {
			out = append(out, d)
		}
	}
	return out
}
