package services

import (
	"context"

	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/schema"
)

type DepartmentService struct {
	departments collection
	profiles    collection
}

func NewDepartmentService(store docstore.Store) *DepartmentService {
	return &DepartmentService{
		departments: newCollection(store, schema.Department),
		profiles:    newCollection(store, schema.Profile),
	}
}

func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	docs, err := s.departments.listOrdered(ctx, "name", docstore.Asc)
	if err != nil {
		return nil, err
	}
	out := make([]models.Department, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeDepartment(d))
	}
	return out, nil
}

func (s *DepartmentService) Get(ctx context.Context, id string) (models.Department, error) {
	doc, err := s.departments.get(ctx, id)
	if err != nil {
		return models.Department{}, err
	}
	return decodeDepartment(doc), nil
}

func (s *DepartmentService) Add(ctx context.Context, d models.Department) (models.Department, error) {
	doc, err := s.departments.add(ctx, map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"headId":      nullable(d.HeadID),
	})
	if err != nil {
		return models.Department{}, err
	}
	return decodeDepartment(doc), nil
}

// Members returns the profiles whose department field equals the
// department's name. Membership is a string match, not a reference.
func (s *DepartmentService) Members(ctx context.Context, departmentID string) ([]models.Profile, error) {
	d, err := s.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		return []models.Profile{}, nil
	}
	docs, err := s.profiles.listOrdered(ctx, "name", docstore.Asc, s.profiles.where("department", docstore.OpEq, d.Name))
	if err != nil {
		return nil, err
	}
	return decodeProfiles(docs), nil
}

func decodeDepartment(doc map[string]any) models.Department {
	return models.Department{
		ID:          str(doc, "id"),
		Name:        str(doc, "name"),
		Description: str(doc, "description"),
		HeadID:      str(doc, "headId"),
		CreatedAt:   str(doc, "createdAt"),
		UpdatedAt:   str(doc, "updatedAt"),
	}
}
