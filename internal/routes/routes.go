package routes

import (
	"errors"
	"net/http"

	"atlas/internal/database"
	"atlas/internal/handlers"
	"atlas/internal/middleware"
	"atlas/internal/web"

	"github.com/gin-gonic/gin"
)

// Options tunes the router for the deployment.
type Options struct {
	SecureCookies  bool
	AllowedOrigins []string
}

func SetupRoutes(opts Options) *gin.Engine {
	origins := middleware.NewOrigins(opts.AllowedOrigins)
	handlers.SecureCookies = opts.SecureCookies
	handlers.AllowedOrigins = origins

	// Create a new GIN Router
	ginRouter := gin.Default()
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.CORS(origins))

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		status, dbStatus := http.StatusOK, "ok"
		if err := pingDB(c); err != nil {
			status, dbStatus = http.StatusServiceUnavailable, "unavailable"
		}
		c.JSON(status, gin.H{
			"status":   http.StatusText(status),
			"database": dbStatus,
			"message":  "Atlas API is running",
		})
	})

	// Public pages
	ginRouter.SetHTMLTemplate(web.Templates())
	web.Register(ginRouter)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/register", handlers.Register)
		api.POST("/login", handlers.Login)
		api.POST("/logout", handlers.Logout)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		protectedRoutes.GET("/me", handlers.Me)

		// Task endpoints
		protectedRoutes.GET("/tasks", handlers.GetTasks)
		protectedRoutes.GET("/tasks/:id", handlers.GetTaskByID)
		protectedRoutes.POST("/tasks", handlers.CreateTask)
		protectedRoutes.PUT("/tasks/:id", handlers.UpdateTask)
		protectedRoutes.DELETE("/tasks/:id", handlers.DeleteTask)

		// Timer endpoints
		protectedRoutes.POST("/tasks/:id/timer/start", handlers.StartTimer)
		protectedRoutes.POST("/tasks/:id/timer/stop", handlers.StopTimer)
		protectedRoutes.GET("/tasks/:id/timer", handlers.GetTimerStatus)
		protectedRoutes.GET("/timer/active", handlers.GetActiveTimer)

		// Group endpoints
		protectedRoutes.GET("/groups", handlers.GetGroups)
		protectedRoutes.POST("/groups", handlers.CreateGroup)
		protectedRoutes.GET("/groups/:id", handlers.GetGroupByID)
		protectedRoutes.PUT("/groups/:id", handlers.UpdateGroup)
		protectedRoutes.DELETE("/groups/:id", handlers.DeleteGroup)

		protectedRoutes.GET("/stats", handlers.GetStats)
		protectedRoutes.GET("/ws", handlers.WebSocketHandler)
	}

	return ginRouter
}

var errNoDB = errors.New("database not initialized")

func pingDB(c *gin.Context) error {
	db := database.GetDB()
	if db == nil {
		return errNoDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(c.Request.Context())
}
