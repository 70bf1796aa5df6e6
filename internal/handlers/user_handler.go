package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fmac-task/internal/middleware"
)

// GetAllUsers returns all profiles
// GET /api/users
func (h *Handler) GetAllUsers(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	users, err := w.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetMe returns the caller as the middleware resolved them
// GET /api/me
func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
		return
	}
	c.JSON(http.StatusOK, actor)
}

// GET /api/departments
func (h *Handler) GetDepartments(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	departments, err := w.Departments.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

// GET /api/departments/:id/members
func (h *Handler) GetDepartmentMembers(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	members, err := w.Departments.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
