// Package app wires configuration into the stores and services shared by the
// server and the admin CLI.
package app

import (
	"context"
	"fmt"

	"github.com/princeprakhar/review-catalog-backend/internal/cache"
	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"github.com/princeprakhar/review-catalog-backend/internal/database"
	"github.com/princeprakhar/review-catalog-backend/internal/events"
	"github.com/princeprakhar/review-catalog-backend/internal/services"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Store  storage.Store
	Outbox *events.Outbox

	Products     *services.ProductService
	Reviews      *services.ReviewService
	Gamification *services.GamificationService
	Assistant    *services.AssistantService
	AISearch     *services.AISearchService
	Summaries    *services.SummaryService
	Backfill     *services.BackfillService
	Import       *services.ImportService

	db    *gorm.DB
	cache cache.Client
}

// New builds the object graph. The outbox worker is started with ctx.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	var primary storage.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Init(cfg.DatabaseURL, cfg.Environment == "production")
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		a.db = db
		primary = storage.NewGormStore(db)
	} else {
		logger.Warn("DATABASE_URL not set, serving from JSON files only")
	}

	files, err := storage.OpenJSONStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open json store: %w", err)
	}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.RedisURL, "catalog:")
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, using in-memory cache")
			a.cache = cache.NewMemoryClient()
		} else {
			a.cache = rc
		}
	} else {
		a.cache = cache.NewMemoryClient()
	}

	a.Store = storage.NewCachedStore(storage.NewFallbackStore(primary, files, cfg.PrimaryStoreTimeout), a.cache, cfg.CacheTTL)

	openai := services.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	var images services.ImageStore
	if cfg.S3Enabled() {
		images = services.NewS3Service(cfg.S3Region, cfg.S3BucketName, cfg.S3AccessKey, cfg.S3SecretKey)
	}
	verifier := services.NewVerifier(openai, openai, images, cfg.OpenAIModel, cfg.OpenAIImageModel)

	weights := services.DuplicateWeights{
		BrandBoost:    cfg.DuplicateBrandBoost,
		CategoryBoost: cfg.DuplicateCategoryBoost,
		NumberPenalty: cfg.DuplicateNumberPenalty,
		Threshold:     cfg.DuplicateThreshold,
		ExactMatch:    cfg.DuplicateExactMatch,
	}

	a.Gamification = services.NewGamificationService(a.Store)
	a.Outbox = events.NewOutbox(256, a.Gamification.HandleEvent)
	a.Outbox.Start(context.WithoutCancel(ctx))

	a.Products = services.NewProductService(a.Store, verifier, weights)
	a.Reviews = services.NewReviewService(a.Store, a.Outbox)
	a.Assistant = services.NewAssistantService(a.Products,
		services.NewExternalSearcher(cfg.BestBuyAPIKey, cfg.BestBuyBaseURL, cfg.RedditBaseURL, cfg.OpenLibraryURL))
	a.AISearch = services.NewAISearchService(a.Products, openai, cfg.OpenAIModel)
	a.Summaries = services.NewSummaryService(a.Store, services.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel))

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		mailer = services.NewEmailService(cfg)
	}
	a.Backfill = services.NewBackfillService(a.Store, verifier, mailer, cfg.AdminEmail, cfg.BackfillDelay)
	a.Import = services.NewImportService(a.Store, services.DefaultImportLimits())

	return a, nil
}

// Close drains the outbox and releases connections.
func (a *App) Close(ctx context.Context) {
	if err := a.Outbox.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("outbox did not drain")
	}
	if err := a.cache.Close(); err != nil {
		logger.WithError(err).Warn("cache close failed")
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
