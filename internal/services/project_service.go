package services

import (
	"context"

	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/schema"
)

// ProjectService is the entity service for the projects collection.
type ProjectService struct {
	projects collection
}

func NewProjectService(store docstore.Store) *ProjectService {
	return &ProjectService{projects: newCollection(store, schema.Project)}
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	docs, err := s.projects.listOrdered(ctx, "createdAt", docstore.Desc)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeProject(d))
	}
	return out, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (models.Project, error) {
	doc, err := s.projects.get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	return decodeProject(doc), nil
}

func (s *ProjectService) Add(ctx context.Context, p models.Project) (models.Project, error) {
	doc, err := s.projects.add(ctx, projectFields(p))
	if err != nil {
		return models.Project{}, err
	}
	return decodeProject(doc), nil
}

// Update writes the patch. A rename also rewrites the derived color.
func (s *ProjectService) Update(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	f := map[string]any{}
	if patch.Name != nil {
		f["name"] = *patch.Name
		f["color"] = models.ProjectColor(*patch.Name)
	}
	if patch.Description != nil {
		f["description"] = *patch.Description
	}
	if patch.DepartmentID != nil {
		f["departmentId"] = nullable(*patch.DepartmentID)
	}
	if patch.Members != nil {
		f["members"] = memberFields(*patch.Members)
	}
	doc, err := s.projects.update(ctx, id, f)
	if err != nil {
		return models.Project{}, err
	}
	return decodeProject(doc), nil
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.projects.delete(ctx, id)
}

func projectFields(p models.Project) map[string]any {
	return map[string]any{
		"name":         p.Name,
		"description":  p.Description,
		"color":        p.Color,
		"departmentId": nullable(p.DepartmentID),
		"members":      memberFields(p.Members),
		"creatorId":    p.CreatorID,
	}
}

func decodeProject(doc map[string]any) models.Project {
	p := models.Project{
		ID:           str(doc, "id"),
		Name:         str(doc, "name"),
		Description:  str(doc, "description"),
		Color:        str(doc, "color"),
		DepartmentID: str(doc, "departmentId"),
		CreatorID:    str(doc, "creatorId"),
		CreatedAt:    str(doc, "createdAt"),
		UpdatedAt:    str(doc, "updatedAt"),
	}
	if p.Color == "" {
		p.Color = models.ProjectColor(p.Name)
	}
	members, err := decodeMembers(doc["members"])
	if err != nil {
		logParse("project "+p.ID+" members", err)
		members = nil
	}
	if members == nil {
		members = []models.Member{}
	}
	p.Members = members
	return p
}
