package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fmac-task/internal/models"
)

type CreateProjectRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	DepartmentID string          `json:"departmentId"`
	Members      []models.Member `json:"members"`
}

type AddMemberRequest struct {
	ID     string `json:"id" binding:"required"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// GET /api/projects
func (h *Handler) GetProjects(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	if wantsRefresh(c) {
		if err := w.Projects.Refresh(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
	}
	resp := gin.H{"projects": w.Projects.Projects(), "status": w.Projects.Status()}
	if err := w.Projects.Err(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Name is required."})
		return
	}
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	project, err := w.Projects.AddProject(c.Request.Context(), models.Project{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		Members:      req.Members,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// PUT /api/projects/:id
func (h *Handler) UpdateProject(c *gin.Context) {
	var patch models.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	project, err := w.Projects.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DELETE /api/projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := w.Projects.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// POST /api/projects/:id/members
func (h *Handler) AddProjectMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Member id is required."})
		return
	}
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	project, err := w.Projects.AddMember(c.Request.Context(), c.Param("id"), models.Member{ID: req.ID, Name: req.Name, Avatar: req.Avatar})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DELETE /api/projects/:id/members/:userId
func (h *Handler) RemoveProjectMember(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	project, err := w.Projects.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}
