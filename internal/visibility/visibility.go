// Package visibility decides which tasks and projects an actor may see.
// Every function here is pure.
package visibility

import "fmac-task/internal/models"

// CanSeeTask reports whether actor created the task or is assigned to it,
// either through the legacy single assignee or the assignee list. Admins see
// everything.
func CanSeeTask(t models.Task, actor models.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.ID == "" {
		return false
	}
	return t.CreatorID == actor.ID || t.HasAssignee(actor.ID)
}

// CanSeeProject reports whether actor is a member, shares the project's
// department, or created it. The department clause needs both sides set.
func CanSeeProject(p models.Project, actor models.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.ID == "" {
		return false
	}
	if p.CreatorID == actor.ID || p.HasMember(actor.ID) {
		return true
	}
	return p.DepartmentID != "" && actor.Department != "" && p.DepartmentID == actor.Department
}

// VisibleTasks filters tasks for actor, keeping input order and the first
// occurrence of each id.
func VisibleTasks(tasks []models.Task, actor models.Actor) []models.Task {
	return visible(tasks, actor, CanSeeTask, func(t models.Task) string { return t.ID })
}

// VisibleProjects filters projects for actor, keeping input order and the
// first occurrence of each id.
func VisibleProjects(projects []models.Project, actor models.Actor) []models.Project {
	return visible(projects, actor, CanSeeProject, func(p models.Project) string { return p.ID })
}

func visible[T any](items []T, actor models.Actor, can func(T, models.Actor) bool, id func(T) string) []T {
	out := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := id(item)
		if _, dup := seen[key]; dup {
			continue
		}
		if !can(item, actor) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
