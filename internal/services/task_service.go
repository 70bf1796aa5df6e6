package services

import (
	"context"
	"fmt"
	"slices"

	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/schema"
)

// TaskService is the entity service for the tasks collection.
type TaskService struct {
	tasks       collection
	comments    collection
	attachments collection
}

func NewTaskService(store docstore.Store) *TaskService {
	return &TaskService{
		tasks:       newCollection(store, schema.Task),
		comments:    newCollection(store, schema.Comment),
		attachments: newCollection(store, schema.Attachment),
	}
}

// List retrieves every task, newest first.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	docs, err := s.tasks.listOrdered(ctx, "createdAt", docstore.Desc)
	if err != nil {
		return nil, err
	}
	return decodeTasks(docs), nil
}

func (s *TaskService) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	docs, err := s.tasks.list(ctx, s.tasks.where("projectId", docstore.OpEq, projectID))
	if err != nil {
		return nil, err
	}
	return decodeTasks(docs), nil
}

func (s *TaskService) Get(ctx context.Context, id string) (models.Task, error) {
	doc, err := s.tasks.get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	return decodeTask(doc), nil
}

// Add persists a new task and returns it with the server-assigned id and
// timestamps.
func (s *TaskService) Add(ctx context.Context, t models.Task) (models.Task, error) {
	doc, err := s.tasks.add(ctx, taskFields(t))
	if err != nil {
		return models.Task{}, err
	}
	return decodeTask(doc), nil
}

// Update writes only the fields set in patch and returns the merged document.
func (s *TaskService) Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	doc, err := s.tasks.update(ctx, id, patchFields(patch))
	if err != nil {
		return models.Task{}, err
	}
	return decodeTask(doc), nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.tasks.delete(ctx, id)
}

// Purge removes a task together with its comments and attachment records in
// one batch. It returns the removed attachments so their blobs can be
// released.
func (s *TaskService) Purge(ctx context.Context, id string) ([]models.Attachment, error) {
	comments, err := s.comments.list(ctx, s.comments.where("taskId", docstore.OpEq, id))
	if err != nil {
		return nil, err
	}
	attDocs, err := s.attachments.list(ctx, s.attachments.where("taskId", docstore.OpEq, id))
	if err != nil {
		return nil, err
	}
	ops := make([]docstore.Operation, 0, len(comments)+len(attDocs)+1)
	for _, c := range comments {
		ops = append(ops, s.comments.op(docstore.OpDelete, str(c, "id"), nil))
	}
	attachments := make([]models.Attachment, 0, len(attDocs))
	for _, a := range attDocs {
		attachments = append(attachments, decodeAttachment(a))
		ops = append(ops, s.attachments.op(docstore.OpDelete, str(a, "id"), nil))
	}
	ops = append(ops, s.tasks.op(docstore.OpDelete, id, nil))
	if err := s.tasks.store.BatchWrite(ctx, ops); err != nil {
		return nil, err
	}
	return attachments, nil
}

// UnlinkProject clears projectId on every task referencing projectID and
// returns the ids of the tasks it touched.
func (s *TaskService) UnlinkProject(ctx context.Context, projectID string) ([]string, error) {
	linked, err := s.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(linked) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(linked))
	ops := make([]docstore.Operation, 0, len(linked))
	for _, t := range linked {
		ids = append(ids, t.ID)
		ops = append(ops, s.tasks.op(docstore.OpUpdate, t.ID, map[string]any{"projectId": nil}))
	}
	if err := s.tasks.store.BatchWrite(ctx, ops); err != nil {
		return nil, fmt.Errorf("unlink project %s: %w", projectID, err)
	}
	return ids, nil
}

// Participants returns the creator and assignees of a task without
// duplicates.
func (s *TaskService) Participants(ctx context.Context, taskID string) ([]string, error) {
	t, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return Participants(t), nil
}

func Participants(t models.Task) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range append([]string{t.CreatorID, t.AssigneeID}, t.AssigneeIDs()...) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func taskFields(t models.Task) map[string]any {
	assignees := foldAssignee(t.Assignees, t.AssigneeID)
	first := ""
	if len(assignees) > 0 {
		first = assignees[0].ID
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"status":      string(t.Status),
		"priority":    string(t.Priority),
		"dueDate":     nullable(t.DueDate),
		"projectId":   nullable(t.ProjectID),
		"creatorId":   t.CreatorID,
		"assigneeId":  nullable(first),
		"assignees":   encodeJSON(assignees),
		"progress":    t.Progress,
		"tags":        tags,
		"subtasks":    encodeJSON(nonNil(t.Subtasks)),
		"checklists":  encodeJSON(nonNil(t.Checklists)),
	}
}

// foldAssignee appends the legacy single assignee to list unless it is
// already there. The result is never nil.
func foldAssignee(list []models.Assignee, legacy string) []models.Assignee {
	out := slices.Clone(nonNil(list))
	if legacy == "" {
		return out
	}
	for _, a := range out {
		if a.ID == legacy {
			return out
		}
	}
	return append(out, models.Assignee{ID: legacy})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func patchFields(p models.TaskPatch) map[string]any {
	f := map[string]any{}
	if p.Title != nil {
		f["title"] = *p.Title
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.Status != nil {
		f["status"] = string(*p.Status)
	}
	if p.Priority != nil {
		f["priority"] = string(*p.Priority)
	}
	if p.DueDate != nil {
		f["dueDate"] = nullable(*p.DueDate)
	}
	if p.ProjectID != nil {
		f["projectId"] = nullable(*p.ProjectID)
	}
	if p.Assignees != nil {
		list := nonNil(*p.Assignees)
		f["assignees"] = encodeJSON(list)
		f["assigneeId"] = nil
		if len(list) > 0 {
			f["assigneeId"] = list[0].ID
		}
	}
	if p.Progress != nil {
		f["progress"] = *p.Progress
	}
	if p.Tags != nil {
		f["tags"] = nonNil(*p.Tags)
	}
	if p.Subtasks != nil {
		f["subtasks"] = encodeJSON(nonNil(*p.Subtasks))
	}
	if p.Checklists != nil {
		f["checklists"] = encodeJSON(nonNil(*p.Checklists))
	}
	return f
}

func decodeTasks(docs []map[string]any) []models.Task {
	out := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeTask(d))
	}
	return out
}

// decodeTask builds the canonical task from a stored document. Legacy single
// assignees are folded into the list; malformed sub-documents are logged and
// treated as empty.
func decodeTask(doc map[string]any) models.Task {
	t := models.Task{
		ID:          str(doc, "id"),
		Title:       str(doc, "title"),
		Description: str(doc, "description"),
		Status:      models.NormalizeStatus(str(doc, "status")),
		Priority:    models.Priority(str(doc, "priority")),
		DueDate:     str(doc, "dueDate"),
		ProjectID:   str(doc, "projectId"),
		CreatorID:   str(doc, "creatorId"),
		AssigneeID:  str(doc, "assigneeId"),
		Progress:    int(integer(doc, "progress")),
		Tags:        stringList(doc, "tags"),
		CreatedAt:   str(doc, "createdAt"),
		UpdatedAt:   str(doc, "updatedAt"),
	}
	assignees, err := decodeAssignees(doc["assignees"])
	if err != nil {
		logParse("task "+t.ID+" assignees", err)
		assignees = nil
	}
	t.Assignees = foldAssignee(assignees, t.AssigneeID)
	t.AssigneeID = ""
	if len(t.Assignees) > 0 {
		t.AssigneeID = t.Assignees[0].ID
	}
	if err := decodeJSON(doc["subtasks"], &t.Subtasks); err != nil {
		logParse("task "+t.ID+" subtasks", err)
		t.Subtasks = nil
	}
	if err := decodeJSON(doc["checklists"], &t.Checklists); err != nil {
		logParse("task "+t.ID+" checklists", err)
		t.Checklists = nil
	}
	return t
}
