package services

import (
	"context"

	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/schema"
)

// ActivityService appends to and reads the activity trail. Entries are never
// updated or deleted.
type ActivityService struct {
	activities collection
}

func NewActivityService(store docstore.Store) *ActivityService {
	return &ActivityService{activities: newCollection(store, schema.Activity)}
}

func (s *ActivityService) Add(ctx context.Context, a models.Activity) (models.Activity, error) {
	f := map[string]any{
		"entityId":   a.EntityID,
		"entityType": string(a.EntityType),
		"actorId":    a.ActorID,
		"action":     string(a.Action),
		"timestamp":  a.Timestamp,
	}
	if len(a.Details) > 0 {
		f["details"] = map[string]any(a.Details)
	}
	doc, err := s.activities.add(ctx, f)
	if err != nil {
		return models.Activity{}, err
	}
	return decodeActivity(doc), nil
}

// ListByEntity returns an entity's trail in timestamp order.
func (s *ActivityService) ListByEntity(ctx context.Context, entityID string) ([]models.Activity, error) {
	docs, err := s.activities.listOrdered(ctx, "timestamp", docstore.Asc, s.activities.where("entityId", docstore.OpEq, entityID))
	if err != nil {
		return nil, err
	}
	out := make([]models.Activity, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeActivity(d))
	}
	return out, nil
}

func decodeActivity(doc map[string]any) models.Activity {
	a := models.Activity{
		ID:         str(doc, "id"),
		EntityID:   str(doc, "entityId"),
		EntityType: models.EntityType(str(doc, "entityType")),
		ActorID:    str(doc, "actorId"),
		Action:     models.Action(str(doc, "action")),
		Timestamp:  str(doc, "timestamp"),
	}
	if a.EntityType == "" {
		a.EntityType = models.EntityTask
	}
	if a.Timestamp == "" {
		a.Timestamp = str(doc, "createdAt")
	}
	if d, ok := doc["details"].(map[string]any); ok {
		a.Details = models.ActivityDetails(d)
	}
	return a
}
