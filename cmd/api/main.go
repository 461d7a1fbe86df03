package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"content-platform-api/config"
	"content-platform-api/controllers"
	"content-platform-api/middleware"
	"content-platform-api/monitor"
	"content-platform-api/routes"
	"content-platform-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitLogging()
	config.InitDB()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Notification core wiring
	store := services.NewNotificationStore(config.DB)
	idle := time.Duration(envInt("CHANNEL_IDLE_MINUTES", 60)) * time.Minute
	registry := services.NewChannelRegistry(idle)
	broadcaster := services.NewBroadcaster(store, registry)
	notifications := controllers.NewNotificationController(store, registry, broadcaster)

	// Create Gin router
	router := gin.New()
	router.Use(gin.LoggerWithWriter(config.LogWriter))
	router.Use(gin.Recovery())

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	router.Use(middleware.CORSMiddleware())

	// Operator monitor + raw log tail
	monitor.RegisterMonitorPage(router, registry)
	monitor.RegisterLogsRoute(router)

	routes.SetupRoutes(router, notifications)

	// Scheduled jobs: retention purge and resource sampling
	scheduler := cron.New()
	retention := services.NewRetentionJob(store, envInt("RETENTION_DAYS", 90))
	if _, err := scheduler.AddFunc("0 4 * * *", retention.Run); err != nil {
		log.Printf("Warning: Failed to schedule retention job: %v", err)
	}
	resources := services.NewResourceJob(broadcaster,
		uint64(envInt("RESOURCE_MAX_HEAP_MB", 1024)),
		envInt("RESOURCE_MAX_GOROUTINES", 5000))
	if _, err := scheduler.AddFunc("@every 1m", resources.Run); err != nil {
		log.Printf("Warning: Failed to schedule resource sampler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Tail the app log for ERROR/WARN lines and raise log alerts
	logWatcher := monitor.NewLogWatcher(config.LogFilePath(), broadcaster)
	if err := logWatcher.Start(); err != nil {
		log.Printf("Warning: Failed to start log watcher: %v", err)
	} else {
		defer logWatcher.Stop()
	}

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s", port)
	log.Printf("📣 Notification push idle timeout: %s", idle)
	if ginMode == "release" {
		log.Printf("🏭 Running in production mode")
	} else {
		log.Printf("🔧 Running in development mode")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
