package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/blousecraft/blousecraft-api/models"
	"github.com/blousecraft/blousecraft-api/routes"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.GoEnv, cfg.LogLevel)
	defer logger.Sync()
	lg := logger.L()
	lg.Info("Starting BlouseCraft API server...", zap.String("env", cfg.GoEnv))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := config.ConnectDatabase(cfg); err != nil {
		lg.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database models
	if err := config.GetDB().AutoMigrate(models.All()...); err != nil {
		lg.Fatal("Failed to migrate database", zap.Error(err))
	}
	lg.Info("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitS3Service(ctx, cfg); err != nil {
			lg.Fatal("Failed to initialize S3 service", zap.Error(err))
		}
		lg.Info("S3 service initialized", zap.String("bucket", cfg.AWSS3Bucket))
	} else {
		lg.Warn("AWS_S3_BUCKET not set, course materials are disabled")
	}

	publisher, err := services.InitEventPublisher(cfg)
	if err != nil {
		lg.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			lg.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	router, err := routes.SetupRouter(cfg)
	if err != nil {
		lg.Fatal("Failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("Server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server forced to shutdown", zap.Error(err))
	}
}
