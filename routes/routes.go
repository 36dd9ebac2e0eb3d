// Package routes assembles the HTTP surface of the marketplace API.
package routes

import (
	"net/http"
	"time"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/controllers"
	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/blousecraft/blousecraft-api/metrics"
	"github.com/blousecraft/blousecraft-api/middleware"
	"github.com/blousecraft/blousecraft-api/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the engine with the middleware chain and every route.
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	ensureValidToken, err := middleware.EnsureValidToken(cfg)
	if err != nil {
		return nil, err
	}
	limiter := middleware.NewLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		logger.RequestID(),
		logger.AccessLog(),
		metrics.Middleware(),
		cors.New(corsConfig(cfg)),
	)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/health", healthCheck)
	v1.GET("/database/status", databaseStatus)

	public := v1.Group("", middleware.RateLimit(limiter))
	{
		public.GET("/tailors/nearby", controllers.NearbyTailors)
		public.GET("/tailors/search", controllers.SearchTailors)
		public.GET("/tailors/:id", controllers.GetTailor)
		public.GET("/tailors/:id/reviews", controllers.ListTailorReviews)
		public.GET("/courses", controllers.ListCourses)
		public.GET("/courses/:id", controllers.GetCourse)
	}

	protected := v1.Group("", ensureValidToken, middleware.RateLimit(limiter))
	{
		protected.POST("/users/sync", controllers.SyncUser)
		protected.GET("/users/me", controllers.GetCurrentUser)
		protected.PUT("/users/me", controllers.UpdateCurrentUser)

		protected.POST("/tailors", controllers.CreateTailor)
		protected.PUT("/tailors/:id", controllers.UpdateTailor)

		protected.POST("/orders", controllers.CreateOrder)
		protected.GET("/orders", controllers.ListOrders)
		protected.GET("/orders/:id", controllers.GetOrder)
		protected.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
		protected.PUT("/orders/:id/price", controllers.UpdateOrderPrice)
		protected.POST("/orders/:id/messages", controllers.SendMessage)
		protected.GET("/orders/:id/messages", controllers.GetMessages)

		protected.POST("/reviews", controllers.CreateReview)

		protected.POST("/courses", controllers.CreateCourse)
		protected.PUT("/courses/:id", controllers.UpdateCourse)
		protected.GET("/courses/:id/materials", controllers.ListCourseMaterials)
		protected.POST("/courses/:id/materials", controllers.UploadCourseMaterial)
		protected.DELETE("/courses/:id/materials", controllers.DeleteCourseMaterial)

		protected.POST("/enrollments", controllers.EnrollInCourse)
		protected.GET("/enrollments", controllers.ListEnrollments)
		protected.PUT("/enrollments/:id/progress", controllers.UpdateEnrollmentProgress)

		protected.GET("/notifications", controllers.ListNotifications)
		protected.PUT("/notifications/read-all", controllers.MarkAllNotificationsRead)
		protected.PUT("/notifications/:id/read", controllers.MarkNotificationRead)
	}

	admin := protected.Group("/admin",
		middleware.RequireScope(middleware.AdminScope),
		middleware.RequireRole(models.RoleAdmin),
	)
	{
		admin.GET("/stats", controllers.GetPlatformStats)
		admin.PUT("/tailors/:id/verify", controllers.VerifyTailor)
	}

	return router, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "BlouseCraft API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not initialized",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
