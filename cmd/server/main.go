package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/princeprakhar/review-catalog-backend/internal/api/handlers"
	"github.com/princeprakhar/review-catalog-backend/internal/api/routes"
	"github.com/princeprakhar/review-catalog-backend/internal/app"
	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger.Init()

	// Load configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application: ", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupRoutes(router, cfg, routes.Handlers{
		Product:   handlers.NewProductHandler(a.Products, a.Summaries),
		Review:    handlers.NewReviewHandler(a.Reviews),
		Assistant: handlers.NewAssistantHandler(a.Assistant, a.AISearch),
		Profile:   handlers.NewProfileHandler(a.Gamification),
		Admin:     handlers.NewAdminHandler(ctx, a.Products, a.Backfill, a.Import),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: ", err)
	}
	a.Close(shutdownCtx)
	logger.Info("Server exited")
}
