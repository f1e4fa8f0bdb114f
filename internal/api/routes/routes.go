package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/api/handlers"
	"github.com/princeprakhar/review-catalog-backend/internal/api/middleware"
	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Product   *handlers.ProductHandler
	Review    *handlers.ReviewHandler
	Assistant *handlers.AssistantHandler
	Profile   *handlers.ProfileHandler
	Admin     *handlers.AdminHandler
}

func SetupRoutes(router *gin.Engine, cfg *config.Config, h Handlers) {
	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RateLimitMiddleware(cfg))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
	})

	// API routes
	api := router.Group("/api/v1", middleware.Identity(cfg))

	products := api.Group("/products")
	{
		products.GET("", h.Product.GetAllProducts)
		products.GET("/categories", h.Product.GetCategories)
		products.GET("/check-duplicate", h.Product.CheckDuplicate)
		products.POST("", h.Product.CreateProduct)
		products.GET("/:product_id", h.Product.GetProduct)
		products.GET("/:product_id/reviews", h.Review.GetProductReviews)
		products.POST("/:product_id/summarize", h.Product.Summarize)
		products.POST("/:product_id/regenerate-image", middleware.AdminOnly(cfg), h.Admin.RegenerateImage)
	}

	reviews := api.Group("/reviews")
	{
		reviews.POST("", h.Review.CreateReview)
		reviews.PUT("/:review_id", h.Review.UpdateReview)
		reviews.DELETE("/:review_id", h.Review.DeleteReview)
		reviews.POST("/:review_id/helpful", h.Review.MarkHelpful)
	}

	api.POST("/assistant/chat", h.Assistant.Chat)
	api.POST("/ai-search", h.Assistant.AISearch)
	api.GET("/users/me/profile", middleware.RequireUser(), h.Profile.GetMyProfile)
	api.GET("/users/:user_id/profile", h.Profile.GetProfile)

	admin := api.Group("/admin", middleware.AdminOnly(cfg))
	{
		admin.POST("/backfill", h.Admin.StartBackfill)
		admin.GET("/backfill", h.Admin.BackfillStatus)
		admin.POST("/import", h.Admin.ImportJSONL)
	}

	logger.Info("Routes initialized successfully")
}
