package routes

import (
	"github.com/gin-gonic/gin"

	"fmac-task/internal/auth"
	"fmac-task/internal/handlers"
	"fmac-task/internal/middleware"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Handler  *handlers.Handler
	Issuer   *auth.Issuer
	Profiles middleware.Profiles
}

func SetupRoutes(deps Deps) *gin.Engine {
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "fmac-task is running",
		})
	})

	h := deps.Handler

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware(deps.Issuer, deps.Profiles))
	{
		protectedRoutes.GET("/me", h.GetMe)

		// Task endpoints
		protectedRoutes.GET("/tasks", h.GetTasks)
		protectedRoutes.GET("/tasks/:id", h.GetTaskByID)
		protectedRoutes.POST("/tasks", h.CreateTask)
		protectedRoutes.PUT("/tasks/:id", h.UpdateTask)
		protectedRoutes.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
		protectedRoutes.DELETE("/tasks/:id", h.DeleteTask)

		protectedRoutes.GET("/tasks/:id/comments", h.GetComments)
		protectedRoutes.POST("/tasks/:id/comments", h.AddComment)
		protectedRoutes.DELETE("/tasks/:id/comments/:commentId", h.DeleteComment)
		protectedRoutes.GET("/tasks/:id/activities", h.GetActivities)
		protectedRoutes.GET("/tasks/:id/attachments", h.GetAttachments)
		protectedRoutes.POST("/tasks/:id/attachments", h.AddAttachment)
		protectedRoutes.DELETE("/tasks/:id/attachments/:attachmentId", h.DeleteAttachment)

		// Project endpoints
		protectedRoutes.GET("/projects", h.GetProjects)
		protectedRoutes.POST("/projects", h.CreateProject)
		protectedRoutes.PUT("/projects/:id", h.UpdateProject)
		protectedRoutes.DELETE("/projects/:id", h.DeleteProject)
		protectedRoutes.POST("/projects/:id/members", h.AddProjectMember)
		protectedRoutes.DELETE("/projects/:id/members/:userId", h.RemoveProjectMember)

		// Directory endpoints
		protectedRoutes.GET("/users", h.GetAllUsers)
		protectedRoutes.GET("/departments", h.GetDepartments)
		protectedRoutes.GET("/departments/:id/members", h.GetDepartmentMembers)

		protectedRoutes.GET("/ws", h.WebSocket)
	}

	return ginRouter
}
