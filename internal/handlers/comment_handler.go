package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fmac-task/internal/models"
)

type AddCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddAttachmentRequest references a blob that was uploaded elsewhere.
type AddAttachmentRequest struct {
	Name     string `json:"name" binding:"required"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	FilePath string `json:"filePath"`
}

// GET /api/tasks/:id/comments
func (h *Handler) GetComments(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	comments, err := w.Tasks.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// POST /api/tasks/:id/comments
func (h *Handler) AddComment(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Content is required."})
		return
	}
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	comment, err := w.Tasks.AddComment(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DELETE /api/tasks/:id/comments/:commentId
func (h *Handler) DeleteComment(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := w.Tasks.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// GET /api/tasks/:id/activities
func (h *Handler) GetActivities(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	activities, err := w.Tasks.Activities(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// GET /api/tasks/:id/attachments
func (h *Handler) GetAttachments(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	attachments, err := w.Tasks.Attachments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attachments)
}

// POST /api/tasks/:id/attachments
func (h *Handler) AddAttachment(c *gin.Context) {
	var req AddAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Name is required."})
		return
	}
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	attachment, err := w.Tasks.AddAttachment(c.Request.Context(), c.Param("id"), models.Attachment{
		Name:     req.Name,
		Size:     req.Size,
		Type:     req.Type,
		URL:      req.URL,
		FilePath: req.FilePath,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

// DELETE /api/tasks/:id/attachments/:attachmentId
func (h *Handler) DeleteAttachment(c *gin.Context) {
	w, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := w.Tasks.DeleteAttachment(c.Request.Context(), c.Param("id"), c.Param("attachmentId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted successfully"})
}
