package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fmac-task/internal/apperr"
	"fmac-task/internal/auth"
	"fmac-task/internal/models"
)

const actorKey = "actor"

// Profiles resolves the user a token was issued to.
type Profiles interface {
	Get(ctx context.Context, id string) (models.Profile, error)
}

// JWTAuthMiddleware validates the bearer token and stores the caller's
// Actor, freshly resolved from the profile store, in the context.
func JWTAuthMiddleware(issuer *auth.Issuer, profiles Profiles) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if parts := strings.Split(c.GetHeader("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
		// Fallback for WebSocket/browser where custom headers cannot be set
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
			return
		}

		claims, err := issuer.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		profile, err := profiles.Get(c.Request.Context(), claims.UserID)
		if errors.Is(err, apperr.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User no longer exists"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.Set(actorKey, profile.Actor())
		c.Next()
	}
}

// ActorFrom returns the actor the middleware stored, if any.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok && actor.Authenticated()
}
