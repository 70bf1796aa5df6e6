package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"fmac-task/internal/apperr"
	"fmac-task/internal/models"
)

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func integer(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func stringList(m map[string]any, key string) []string {
	out := []string{}
	switch v := m[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	}
	return out
}

// nullable stores empty strings as null so unset references read back empty.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func encodeJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// decodeJSON accepts either a serialized JSON string or an already decoded
// value and decodes it into out. Empty input leaves out untouched.
func decodeJSON(raw any, out any) error {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		data = b
	}
	return json.Unmarshal(data, out)
}

// refs decodes a list whose entries are either bare id strings or objects.
func refs(raw any) ([]map[string]string, error) {
	var items []any
	if err := decodeJSON(raw, &items); err != nil {
		return nil, err
	}
	out := make([]map[string]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, map[string]string{"id": v})
			}
		case map[string]any:
			ref := map[string]string{}
			for k, val := range v {
				if s, ok := val.(string); ok {
					ref[k] = s
				}
			}
			if ref["id"] == "" {
				return nil, fmt.Errorf("reference without id: %v", v)
			}
			out = append(out, ref)
		default:
			return nil, fmt.Errorf("unexpected reference %T", item)
		}
	}
	return out, nil
}

func decodeAssignees(raw any) ([]models.Assignee, error) {
	items, err := refs(raw)
	if err != nil {
		return nil, err
	}
	out := make([]models.Assignee, 0, len(items))
	for _, r := range items {
		out = append(out, models.Assignee{ID: r["id"], Name: r["name"], Avatar: r["avatar"], Email: r["email"]})
	}
	return out, nil
}

func decodeMembers(raw any) ([]models.Member, error) {
	items, err := refs(raw)
	if err != nil {
		return nil, err
	}
	out := make([]models.Member, 0, len(items))
	for _, r := range items {
		out = append(out, models.Member{ID: r["id"], Name: r["name"], Avatar: r["avatar"]})
	}
	return out, nil
}

func memberFields(members []models.Member) []map[string]any {
	out := make([]map[string]any, 0, len(members))
	for _, m := range members {
		out = append(out, map[string]any{"id": m.ID, "name": m.Name, "avatar": m.Avatar})
	}
	return out
}

// logParse records a recoverable ParseError. The caller continues with its
// fallback value.
func logParse(op string, err error) {
	log.Printf("services: %v", apperr.Parse(op, err))
}
