package routes

import (
	"content-platform-api/controllers"
	"content-platform-api/middleware"
	"content-platform-api/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func SetupRoutes(router *gin.Engine, notifications *controllers.NotificationController) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"success": true,
					"message": "Content Platform API is running",
				})
			})
		}

		// Recipient-facing notification surface (managers and admins)
		protected := v1.Group("/notifications")
		protected.Use(middleware.AuthMiddleware(), middleware.RequireRole(models.RoleManager, models.RoleAdmin))
		{
			protected.GET("", notifications.GetNotifications)
			protected.GET("/counter", notifications.GetNotificationCounter)
			protected.GET("/stats", notifications.GetNotificationStats)
			protected.GET("/stream", notifications.StreamNotifications)
			protected.PUT("/:id/read", notifications.MarkNotificationRead)
			protected.PUT("/read-all", notifications.MarkAllNotificationsRead)

			// Operators author broadcasts from the admin console
			protected.POST("/broadcasts", middleware.RequireRole(models.RoleAdmin), notifications.RaiseOperatorBroadcast)
		}

		// Machine event intake (metric collector, log shipper, CI, matching
		// service, AI workers)
		events := v1.Group("/notifications/events")
		events.Use(middleware.ServiceKeyMiddleware(), middleware.RateLimitMiddleware(rate.Limit(20), 40))
		{
			events.POST("/metrics", notifications.RaiseMetricAlert)
			events.POST("/logs", notifications.RaiseLogAlert)
			events.POST("/deployments", notifications.RaiseDeploymentAlert)
			events.POST("/matches", notifications.RaiseMatchAlert)
			events.POST("/proposals", notifications.RaiseProposalAlert)
			events.POST("/reports", notifications.RaiseReportAlert)
			events.POST("/broadcasts", notifications.RaiseOperatorBroadcast)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Route not found"})
	})
}
