package services

import (
	"context"
	"log"

	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/schema"
)

// ReconcileAssignees rewrites every task whose stored assignees are not in
// canonical form: a JSON string list with assigned_to mirroring its first
// entry. A legacy assigned_to missing from the list is kept as an extra
// entry. Tasks whose assignees cannot be parsed are left untouched and
// returned as skipped. It returns how many tasks were rewritten.
func (s *TaskService) ReconcileAssignees(ctx context.Context) (int, []string, error) {
	docs, err := s.tasks.list(ctx)
	if err != nil {
		return 0, nil, err
	}
	var ops []docstore.Operation
	var skipped []string
	for _, doc := range docs {
		if _, err := decodeAssignees(doc["assignees"]); err != nil {
			log.Printf("migrate: task %s has unreadable assignees %v, leaving it as is", str(doc, "id"), doc["assignees"])
			skipped = append(skipped, schema.Tasks+"/"+str(doc, "id"))
			continue
		}
		t := decodeTask(doc)
		want := encodeJSON(nonNil(t.Assignees))
		first := ""
		if len(t.Assignees) > 0 {
			first = t.Assignees[0].ID
		}
		got, isString := doc["assignees"].(string)
		if isString && got == want && str(doc, "assigneeId") == first {
			continue
		}
		ops = append(ops, s.tasks.op(docstore.OpUpdate, t.ID, map[string]any{
			"assignees":  want,
			"assigneeId": nullable(first),
		}))
	}
	if len(ops) == 0 {
		return 0, skipped, nil
	}
	if err := s.tasks.store.BatchWrite(ctx, ops); err != nil {
		return 0, skipped, err
	}
	return len(ops), skipped, nil
}

// CanonicalizeMembers rewrites member lists into object form. Missing names
// and avatars are filled from profiles. Projects whose members cannot be
// parsed are skipped.
func (s *ProjectService) CanonicalizeMembers(ctx context.Context, profiles map[string]models.Profile) (int, []string, error) {
	docs, err := s.projects.list(ctx)
	if err != nil {
		return 0, nil, err
	}
	var ops []docstore.Operation
	var skipped []string
	for _, doc := range docs {
		if _, err := decodeMembers(doc["members"]); err != nil {
			log.Printf("migrate: project %s has unreadable members %v, leaving it as is", str(doc, "id"), doc["members"])
			skipped = append(skipped, schema.Projects+"/"+str(doc, "id"))
			continue
		}
		p := decodeProject(doc)
		for i, m := range p.Members {
			prof, ok := profiles[m.ID]
			if !ok {
				continue
			}
			if m.Name == "" {
				p.Members[i].Name = prof.Name
			}
			if m.Avatar == "" {
				p.Members[i].Avatar = prof.Avatar
			}
		}
		want := memberFields(p.Members)
		if encodeJSON(doc["members"]) == encodeJSON(want) {
			continue
		}
		ops = append(ops, s.projects.op(docstore.OpUpdate, p.ID, map[string]any{"members": want}))
	}
	if len(ops) == 0 {
		return 0, skipped, nil
	}
	if err := s.projects.store.BatchWrite(ctx, ops); err != nil {
		return 0, skipped, err
	}
	return len(ops), skipped, nil
}

// NormalizeRoles rewrites unknown or missing roles to member.
func (s *UserService) NormalizeRoles(ctx context.Context) (int, error) {
	docs, err := s.profiles.list(ctx)
	if err != nil {
		return 0, err
	}
	var ops []docstore.Operation
	for _, doc := range docs {
		raw := str(doc, "role")
		role := models.NormalizeRole(raw)
		if string(role) == raw {
			continue
		}
		id := str(doc, "id")
		s.cache.Delete(id)
		ops = append(ops, s.profiles.op(docstore.OpUpdate, id, map[string]any{"role": string(role)}))
	}
	if len(ops) == 0 {
		return 0, nil
	}
	if err := s.profiles.store.BatchWrite(ctx, ops); err != nil {
		return 0, err
	}
	return len(ops), nil
}

// ProfileIndex loads every profile keyed by id.
func (s *UserService) ProfileIndex(ctx context.Context) (map[string]models.Profile, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Profile, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}
