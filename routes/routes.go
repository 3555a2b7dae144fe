package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"connectsphere-api/config"
	"connectsphere-api/controllers"
	"connectsphere-api/middleware"
	"connectsphere-api/services"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, emailService *services.EmailService) {
	clock := services.SystemClock()

	// Services
	connectionService := services.NewConnectionService(db, clock)
	eventService := services.NewEventService(db, clock, emailService)
	invitationService := services.NewInvitationService(db, emailService)

	// Controllers
	authController := controllers.NewAuthController(db, cfg.JWTSecret, emailService)
	userController := controllers.NewUserController(db, connectionService)
	connectionController := controllers.NewConnectionController(connectionService)
	eventController := controllers.NewEventController(eventService)
	invitationController := controllers.NewInvitationController(invitationService)
	chapterController := controllers.NewChapterController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	// Event reads degrade to public-only visibility for anonymous callers
	publicEvents := v1.Group("/events")
	publicEvents.Use(middleware.OptionalAuthMiddleware(cfg.JWTSecret))
	{
		publicEvents.GET("/", eventController.GetEvents)
		publicEvents.GET("/upcoming", eventController.GetUpcomingEvents)
		publicEvents.GET("/chapter/:chapter_id", eventController.GetEventsByChapter)
		publicEvents.GET("/:id", eventController.GetEvent)
	}

	chapters := v1.Group("/chapters")
	{
		chapters.GET("/", chapterController.GetChapters)
		chapters.GET("/:id", chapterController.GetChapter)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		users := protected.Group("/users")
		{
			users.GET("/profile", userController.GetProfile)
			users.GET("/search", userController.SearchUsers)
			users.GET("/:user_id", userController.GetUser)
		}

		connections := protected.Group("/connections")
		{
			connections.GET("/", connectionController.GetConnections)
			connections.GET("/pending", connectionController.GetPendingRequests)
			connections.GET("/sent", connectionController.GetSentRequests)
			connections.GET("/stats", connectionController.GetStats)
			connections.GET("/status/:user_id", connectionController.GetConnectionStatus)
			connections.POST("/request/:user_id", connectionController.SendRequest)
			connections.PUT("/:id/accept", connectionController.AcceptRequest)
			connections.PUT("/:id/decline", connectionController.DeclineRequest)
			connections.DELETE("/:id", connectionController.RemoveConnection)
		}

		events := protected.Group("/events")
		{
			events.POST("/", eventController.CreateEvent)
			events.PUT("/:id", eventController.UpdateEvent)
			events.DELETE("/:id", eventController.DeleteEvent)
			events.POST("/:id/rsvp", eventController.Rsvp)
			events.POST("/:id/invitees", invitationController.AddInvitees)
			events.GET("/:id/stats", invitationController.GetInvitationStats)
			events.GET("/:id/export", invitationController.ExportAttendees)
		}
	}
}
