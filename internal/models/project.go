package models

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"slices"
)

// Member is a canonical project member reference.
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Color        string   `json:"color"`
	DepartmentID string   `json:"departmentId,omitempty"`
	Members      []Member `json:"members"`
	CreatorID    string   `json:"creatorId"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func (p Project) HasMember(userID string) bool {
	if userID == "" {
		return false
	}
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

func (p Project) Clone() Project {
	p.Members = slices.Clone(p.Members)
	return p
}

func (p Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	DepartmentID *string   `json:"departmentId"`
	Members      *[]Member `json:"members"`
}

// UnmarshalJSON treats an explicit null departmentId as a clear.
func (p *ProjectPatch) UnmarshalJSON(data []byte) error {
	type plain ProjectPatch
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	return clearOnNull(data, map[string]**string{"departmentId": &p.DepartmentID})
}

func (p ProjectPatch) Empty() bool {
	return p == ProjectPatch{}
}

// Apply merges the patch into a copy of project, recoloring on rename.
func (p ProjectPatch) Apply(project Project) Project {
	out := project.Clone()
	if p.Name != nil {
		out.Name = *p.Name
		out.Color = ProjectColor(out.Name)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.DepartmentID != nil {
		out.DepartmentID = *p.DepartmentID
	}
	if p.Members != nil {
		out.Members = slices.Clone(*p.Members)
	}
	return out
}

var projectPalette = []string{
	"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#EC4899", "#14B8A6", "#F97316", "#6366F1", "#84CC16",
}

// ProjectColor derives a palette color from the project name. The same name
// always yields the same color.
func ProjectColor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return projectPalette[h.Sum32()%uint32(len(projectPalette))]
}
