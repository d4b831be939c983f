package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoadvisor-service/config"
	"ecoadvisor-service/database"
	"ecoadvisor-service/handlers"
	"ecoadvisor-service/metrics"
	"ecoadvisor-service/middleware"
	"ecoadvisor-service/rabbitmq"
	"ecoadvisor-service/service"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	log.Info("Starting the ecoadvisor service...")

	// A missing credential degrades the service to a disabled state with a
	// user-visible message; it must not crash the process.
	if !cfg.CredentialConfigured() {
		log.Warnf("No API credential configured for provider %q; the UI will run in disabled mode", cfg.LLMProvider)
	}

	// Initialize optional analysis history store
	var db *database.Database
	if cfg.HistoryEnabled() {
		var err error
		db, err = database.NewDatabase(cfg)
		if err != nil {
			log.Errorf("Failed to initialize history database, continuing without history: %v", err)
			db = nil
		} else {
			defer db.Close()
			if err := db.CreateAnalysisHistoryTable(); err != nil {
				log.Errorf("Failed to create analysis_history table, continuing without history: %v", err)
				db.Close()
				db = nil
			}
		}
	}

	// Initialize optional analyzed-result publisher
	var publisher *rabbitmq.Publisher
	if cfg.PublishingEnabled() {
		var err error
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Errorf("Failed to initialize RabbitMQ publisher, continuing without publishing: %v", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// Register Prometheus metrics
	metrics.Register()

	// Initialize service and handlers
	analysisService := service.NewService(cfg, db, publisher)
	h := handlers.NewHandlers(cfg, analysisService)

	// Setup HTTP server
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Single-page UI
	router.GET("/", h.Index)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/status", h.Status)
		api.GET("/version", h.Version)
		api.GET("/analyses", h.ListAnalyses)
		api.GET("/analyses/:id", h.GetAnalysis)
		api.GET("/stats", h.GetStats)

		rateLimited := api.Group("/")
		rateLimited.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
		{
			rateLimited.POST("/analyze", h.Analyze)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
