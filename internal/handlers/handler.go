package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fmac-task/internal/apperr"
	"fmac-task/internal/auth"
	"fmac-task/internal/middleware"
	"fmac-task/internal/realtime"
	"fmac-task/internal/services"
	"fmac-task/internal/workspace"
)

// Handler exposes the per-actor workspaces over HTTP.
type Handler struct {
	sessions *workspace.Sessions
	users    *services.UserService
	issuer   *auth.Issuer
	hub      *realtime.Hub
}

func New(sessions *workspace.Sessions, users *services.UserService, issuer *auth.Issuer, hub *realtime.Hub) *Handler {
	return &Handler{sessions: sessions, users: users, issuer: issuer, hub: hub}
}

func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("handlers: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// workspace returns the caller's workspace, writing the error response
// itself when there is none.
func (h *Handler) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
		return nil, false
	}
	w, err := h.sessions.Get(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return w, true
}

func wantsRefresh(c *gin.Context) bool {
	return c.Query("refresh") == "true"
}
