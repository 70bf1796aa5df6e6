package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fmac-task/internal/models"
)

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	Title       string                 `json:"title" binding:"required"`
	Description string                 `json:"description"`
	Status      models.TaskStatus      `json:"status"`
	Priority    models.Priority        `json:"priority"`
	DueDate     string                 `json:"dueDate"`
	ProjectID   string                 `json:"projectId"`
	Assignees   []models.Assignee      `json:"assignees"`
	Progress    int                    `json:"progress"`
	Tags        []string               `json:"tags"`
	Subtasks    []models.Subtask       `json:"subtasks"`
	Checklists  []models.ChecklistItem `json:"checklists"`
}

func (r CreateTaskRequest) task() models.Task {
	return models.Task{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		ProjectID:   r.ProjectID,
		Assignees:   r.Assignees,
		Progress:    r.Progress,
		Tags:        r.Tags,
		Subtasks:    r.Subtasks,
		Checklists:  r.Checklists,
	}
}

// UpdateTaskStatusRequest represents a minimal request to change status
type UpdateTaskStatusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required"`
}

// GetTasks returns the caller's visible tasks
// GET /api/tasks
func (h *Handler) GetTasks(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	if wantsRefresh(c) {
		if err := w.Tasks.Refresh(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
	}
	resp := gin.H{"tasks": w.Tasks.Tasks(), "status": w.Tasks.Status()}
	if err := w.Tasks.Err(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GetTaskByID reads one task from the store
// GET /api/tasks/:id
func (h *Handler) GetTaskByID(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	task, err := w.Tasks.GetTaskByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask
// POST /api/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	task, err := w.Tasks.AddTask(c.Request.Context(), req.task())
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("handlers: task %s created by %s", task.ID, task.CreatorID)
	c.JSON(http.StatusCreated, task)
}

// UpdateTask applies a partial update. A null dueDate or projectId clears it.
// PUT /api/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	task, err := w.Tasks.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTaskStatus
// PATCH /api/tasks/:id/status
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Status is required."})
		return
	}
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	task, err := w.Tasks.UpdateTaskStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask
// DELETE /api/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := w.Tasks.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
