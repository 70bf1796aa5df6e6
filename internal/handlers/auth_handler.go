package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fmac-task/internal/apperr"
	"fmac-task/internal/auth"
	"fmac-task/internal/models"
)

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Department string `json:"department"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Token   string         `json:"token"`
	User    models.Profile `json:"user"`
	Message string         `json:"message"`
}

// Signup creates a member profile
// POST /api/signup
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Name, email and a password of at least 6 characters are required."})
		return
	}

	ctx := c.Request.Context()
	_, err := h.users.FindByEmail(ctx, req.Email)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
		return
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		respondError(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	profile, err := h.users.Upsert(ctx, models.Profile{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         models.RoleMember,
		Department:   req.Department,
		PasswordHash: hash,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.issuer.GenerateToken(profile.ID, profile.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: profile, Message: "Signup successful"})
}

// Login checks the password and issues a token
// POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Email and password are required."})
		return
	}

	profile, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		respondError(c, err)
		return
	}
	if err != nil || profile.PasswordHash == "" || auth.CheckPassword(profile.PasswordHash, req.Password) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.issuer.GenerateToken(profile.ID, profile.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: profile, Message: "Login successful"})
}
