// Package schema holds the one table per entity that translates application
// field names to persisted keys and back. Read and write paths both go
// through these tables.
package schema

import "fmt"

// Collection names in the backing store.
const (
	Profiles    = "profiles"
	Tasks       = "tasks"
	Projects    = "projects"
	Departments = "departments"
	Comments    = "comments"
	Activities  = "task_activities"
	Attachments = "attachments"
)

// FieldMap is a bidirectional application<->persisted key table. Keys not in
// the table pass through unchanged in both directions.
type FieldMap struct {
	name    string
	toStore map[string]string
	toApp   map[string]string
}

// NewFieldMap builds a map from app->store pairs. It panics on a duplicate
// persisted key because the table would no longer be invertible.
func NewFieldMap(name string, appToStore map[string]string) FieldMap {
	m := FieldMap{
		name:    name,
		toStore: make(map[string]string, len(appToStore)),
		toApp:   make(map[string]string, len(appToStore)),
	}
	for app, store := range appToStore {
		if prev, dup := m.toApp[store]; dup {
			panic(fmt.Sprintf("schema %s: %q and %q both persist as %q", name, prev, app, store))
		}
		m.toStore[app] = store
		m.toApp[store] = app
	}
	return m
}

func (m FieldMap) Name() string { return m.name }

// StoreKey returns the persisted key for an application field.
func (m FieldMap) StoreKey(app string) string {
	if k, ok := m.toStore[app]; ok {
		return k
	}
	return app
}

// AppKey returns the application field for a persisted key.
func (m FieldMap) AppKey(store string) string {
	if k, ok := m.toApp[store]; ok {
		return k
	}
	return store
}

// ToStore renames application keys to persisted keys.
func (m FieldMap) ToStore(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[m.StoreKey(k)] = v
	}
	return out
}

// ToApp renames persisted keys to application keys.
func (m FieldMap) ToApp(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[m.AppKey(k)] = v
	}
	return out
}

var Task = NewFieldMap(Tasks, map[string]string{
	"id":          "id",
	"title":       "title",
	"description": "description",
	"status":      "status",
	"priority":    "priority",
	"dueDate":     "due_date",
	"projectId":   "project_id",
	"creatorId":   "created_by",
	"assigneeId":  "assigned_to",
	"assignees":   "assignees",
	"progress":    "progress",
	"tags":        "tags",
	"subtasks":    "subtasks",
	"checklists":  "checklists",
	"createdAt":   "createdAt",
	"updatedAt":   "updatedAt",
})

var Project = NewFieldMap(Projects, map[string]string{
	"id":           "id",
	"name":         "name",
	"description":  "description",
	"color":        "color",
	"departmentId": "department_id",
	"members":      "members",
	"creatorId":    "created_by",
	"createdAt":    "createdAt",
	"updatedAt":    "updatedAt",
})

var Department = NewFieldMap(Departments, map[string]string{
	"id":          "id",
	"name":        "name",
	"description": "description",
	"headId":      "head_id",
	"createdAt":   "createdAt",
	"updatedAt":   "updatedAt",
})

var Profile = NewFieldMap(Profiles, map[string]string{
	"id":           "id",
	"name":         "name",
	"email":        "email",
	"role":         "role",
	"department":   "department",
	"avatar":       "avatar_url",
	"passwordHash": "password_hash",
	"createdAt":    "createdAt",
	"updatedAt":    "updatedAt",
})

var Comment = NewFieldMap(Comments, map[string]string{
	"id":        "id",
	"taskId":    "task_id",
	"userId":    "user_id",
	"content":   "content",
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
})

var Activity = NewFieldMap(Activities, map[string]string{
	"id":         "id",
	"entityId":   "task_id",
	"entityType": "entity_type",
	"actorId":    "user_id",
	"action":     "action",
	"details":    "details",
	"timestamp":  "timestamp",
	"createdAt":  "createdAt",
	"updatedAt":  "updatedAt",
})

var Attachment = NewFieldMap(Attachments, map[string]string{
	"id":         "id",
	"taskId":     "task_id",
	"name":       "name",
	"size":       "size",
	"type":       "type",
	"url":        "url",
	"uploadedBy": "uploaded_by",
	"uploadedAt": "uploaded_at",
	"filePath":   "file_path",
	"createdAt":  "createdAt",
	"updatedAt":  "updatedAt",
})
