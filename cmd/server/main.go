// cmd/server/main.go - GiveBridge Donation Platform Server
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"givebridge/internal/config"
	"givebridge/internal/database"
	"givebridge/internal/handlers"
	"givebridge/internal/middleware"
	"givebridge/internal/services"
	"givebridge/internal/storage"
	"givebridge/pkg/auth"
	"givebridge/pkg/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	serverStartTime = time.Now()

	appVersion = "1.0.0"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.Load()
	log := setupLogging(cfg)

	printStartupInfo(cfg, log)

	log.Info("🔌 Connecting to MongoDB...")
	db, err := database.NewMongoDB(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Client.Disconnect(ctx); err != nil {
			log.Warnf("⚠️  Error disconnecting from MongoDB: %v", err)
		} else {
			log.Info("✅ Disconnected from MongoDB")
		}
	}()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateIndexes(indexCtx); err != nil {
		log.Warnf("⚠️  Warning: Failed to create some indexes: %v", err)
	}
	cancelIndexes()

	validator.Init()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiration)*time.Hour)

	collections := getCollections(db.Database)

	storageClient := storage.NewClient(cfg.StorageURL, cfg.StorageAPIKey, cfg.StorageBucket)
	if !storageClient.Enabled() {
		log.Warn("⚠️  Object storage not configured, image uploads are disabled")
	}

	hub := handlers.NewHub(log)
	go hub.Run()

	notificationService := services.NewNotificationService(
		cfg,
		collections["users"],
		collections["notifications"],
		log,
	)

	donationService := services.NewDonationService(
		db.Client,
		collections["donations"],
		collections["pickup_requests"],
		notificationService,
		storageClient,
		hub,
		log,
	)

	h := initializeHandlers(cfg, collections, donationService, notificationService, storageClient, jwtManager, hub, log)

	router := setupRouter(cfg, h, jwtManager, hub)

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		log.Infof("🚀 GiveBridge Backend Server v%s starting...", appVersion)
		log.Infof("🌐 Server running on http://%s:%s", cfg.Host, cfg.Port)
		log.Infof("📡 WebSocket endpoint: ws://%s:%s/ws", cfg.Host, cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tell connected clients before the listener goes away
	hub.PublishChange("system", "SHUTDOWN", nil)
	time.Sleep(1 * time.Second)

	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("⚠️  Server forced to shutdown: %v", err)
	} else {
		log.Info("✅ Server gracefully stopped")
	}

	log.Info("👋 GiveBridge Backend exited")
}

func setupLogging(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	} else {
		gin.SetMode(gin.DebugMode)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

func printStartupInfo(cfg *config.Config, log *logrus.Logger) {
	log.Info("================================================================================")
	log.Infof("🤝 GiveBridge Donation Platform Backend")
	log.Infof("📌 Version: %s", appVersion)
	log.Infof("🌍 Environment: %s", cfg.Env)
	log.Infof("🔧 Configuration:")
	log.Infof("   • Host: %s", cfg.Host)
	log.Infof("   • Port: %s", cfg.Port)
	log.Infof("   • Database: %s", cfg.DatabaseName)
	log.Infof("   • CORS Origins: %v", cfg.AllowedOrigins)
	if cfg.RateLimitEnabled {
		log.Infof("   • Rate Limit: %d requests per %ds", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	log.Info("================================================================================")
}

func getCollections(db *mongo.Database) map[string]*mongo.Collection {
	return map[string]*mongo.Collection{
		"users":           db.Collection("users"),
		"donations":       db.Collection("donations"),
		"pickup_requests": db.Collection("pickup_requests"),
		"notifications":   db.Collection("notifications"),
		"messages":        db.Collection("messages"),
		"user_reports":    db.Collection("user_reports"),
	}
}

type handlerSet struct {
	auth          *handlers.AuthHandler
	profile       *handlers.ProfileHandler
	donation      *handlers.DonationHandler
	pickupRequest *handlers.PickupRequestHandler
	message       *handlers.MessageHandler
	notification  *handlers.NotificationHandler
	report        *handlers.ReportHandler
	admin         *handlers.AdminHandler
	realtime      *handlers.RealtimeHandler
}

func initializeHandlers(
	cfg *config.Config,
	collections map[string]*mongo.Collection,
	donationService *services.DonationService,
	notificationService *services.NotificationService,
	storageClient *storage.Client,
	jwtManager *auth.JWTManager,
	hub *handlers.Hub,
	log *logrus.Logger,
) *handlerSet {
	donationHandler := handlers.NewDonationHandler(
		collections["donations"],
		collections["pickup_requests"],
		donationService,
		storageClient,
		hub,
		log,
	)

	return &handlerSet{
		auth:     handlers.NewAuthHandler(collections["users"], jwtManager),
		profile:  handlers.NewProfileHandler(collections["users"], storageClient, log),
		donation: donationHandler,
		pickupRequest: handlers.NewPickupRequestHandler(
			collections["pickup_requests"],
			donationService,
			donationHandler,
		),
		message: handlers.NewMessageHandler(
			collections["messages"],
			collections["users"],
			notificationService,
			hub,
			log,
		),
		notification: handlers.NewNotificationHandler(collections["notifications"]),
		report: handlers.NewReportHandler(
			collections["user_reports"],
			collections["users"],
		),
		admin: handlers.NewAdminHandler(
			collections["users"],
			collections["donations"],
			collections["user_reports"],
			donationService,
			log,
		),
		realtime: handlers.NewRealtimeHandler(hub, jwtManager, log),
	}
}

func setupRouter(cfg *config.Config, h *handlerSet, jwtManager *auth.JWTManager, hub *handlers.Hub) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindow)*time.Second)
		router.Use(limiter.RateLimit())
	}

	// WebSocket endpoint authenticates via token query parameter
	router.GET("/ws", h.realtime.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(serverStartTime).String(),
			"version":   appVersion,
			"stats": gin.H{
				"websocket_users": hub.ConnectedUsers(),
			},
		})
	})

	v1 := router.Group("/api/v1")
	{
		// Public
		v1.POST("/auth/register", h.auth.Register)
		v1.POST("/auth/login", h.auth.Login)

		// Authenticated
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager))
		{
			protected.GET("/users/me", h.profile.GetMe)
			protected.PUT("/users/me", h.profile.UpdateMe)
			protected.POST("/users/me/avatar", h.profile.UploadAvatar)
			protected.PUT("/users/me/password", h.auth.ChangePassword)
			protected.GET("/users/:id/contact", h.profile.GetContact)

			protected.GET("/donations", h.donation.List)
			protected.GET("/donations/mine", h.donation.Mine)
			protected.GET("/donations/:id", h.donation.Get)
			protected.GET("/donations/:id/requests", h.donation.ListRequests)

			donorOnly := protected.Group("")
			donorOnly.Use(middleware.RequireRole("donor", "admin"))
			{
				donorOnly.POST("/donations", h.donation.Create)
				donorOnly.POST("/donations/images", h.donation.UploadImages)
				donorOnly.POST("/donations/:id/select", h.donation.SelectRecipient)
			}
			protected.DELETE("/donations/:id", h.donation.Delete)

			receiverOnly := protected.Group("")
			receiverOnly.Use(middleware.RequireRole("receiver"))
			{
				receiverOnly.PUT("/donations/:id/status", h.donation.UpdateStatus)
				receiverOnly.POST("/donations/:id/requests", h.pickupRequest.Create)
			}
			protected.GET("/pickup-requests/mine", h.pickupRequest.Mine)

			protected.POST("/messages", h.message.Send)
			protected.GET("/messages", h.message.Inbox)
			protected.GET("/messages/unread-count", h.message.UnreadCount)
			protected.PUT("/messages/:id/read", h.message.MarkRead)

			protected.GET("/notifications", h.notification.List)
			protected.GET("/notifications/unread-count", h.notification.UnreadCount)
			protected.PUT("/notifications/:id/read", h.notification.MarkRead)
			protected.PUT("/notifications/read-all", h.notification.MarkAllRead)
			protected.DELETE("/notifications/:id", h.notification.Delete)

			protected.POST("/reports", h.report.Create)
		}

		// Admin
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager))
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/donations", h.admin.ListDonations)
			admin.DELETE("/donations/:id", h.admin.DeleteDonation)
			admin.GET("/reports", h.admin.ListReports)
			admin.PUT("/reports/:id/status", h.admin.UpdateReportStatus)
			admin.PUT("/users/:id/blocked", h.admin.SetUserBlocked)
			admin.GET("/stats", h.admin.Stats)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}
