package models

// Action is what an activity entry records.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionAssigned  Action = "assigned"
	ActionDeleted   Action = "deleted"
	ActionCommented Action = "commented"
)

// EntityType tells which collection an activity's entity id points into.
type EntityType string

const (
	EntityTask    EntityType = "task"
	EntityProject EntityType = "project"
)

// ActivityDetails is free-form; the conventional keys are target, value,
// oldValue and newValue.
type ActivityDetails map[string]any

// Change describes one field moving from old to new.
func Change(target string, oldValue, newValue any) ActivityDetails {
	return ActivityDetails{"target": target, "oldValue": oldValue, "newValue": newValue}
}

// Activity is an append-only audit entry.
type Activity struct {
	ID         string          `json:"id"`
	EntityID   string          `json:"entityId"`
	EntityType EntityType      `json:"entityType"`
	ActorID    string          `json:"actorId"`
	Action     Action          `json:"action"`
	Details    ActivityDetails `json:"details,omitempty"`
	Timestamp  string          `json:"timestamp"`
}
