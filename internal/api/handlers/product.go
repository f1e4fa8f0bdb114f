package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/api/middleware"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/services"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
)

type ProductHandler struct {
	productService *services.ProductService
	summaryService *services.SummaryService
}

func NewProductHandler(productService *services.ProductService, summaryService *services.SummaryService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		summaryService: summaryService,
	}
}

func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		logger.WithError(err).Error("list products failed")
		utils.SendInternalError(c, "Failed to retrieve products", err)
		return
	}
	utils.SendSuccess(c, "Products retrieved successfully", products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.SendNotFound(c, "Product not found")
		case errors.Is(err, services.ErrInvalidProduct):
			utils.SendValidationError(c, "Invalid product ID")
		default:
			logger.WithError(err).Error("get product failed")
			utils.SendInternalError(c, "Failed to retrieve product", err)
		}
		return
	}
	utils.SendSuccess(c, "Product retrieved successfully", product)
}

func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.GetCategories(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("list categories failed")
		utils.SendInternalError(c, "Failed to retrieve categories", err)
		return
	}
	utils.SendSuccess(c, "Categories retrieved successfully", categories)
}

func (h *ProductHandler) CheckDuplicate(c *gin.Context) {
	title := c.Query("title")
	if len(strings.TrimSpace(title)) < 2 {
		utils.SendSuccess(c, "No title or too short", gin.H{"duplicate": false})
		return
	}

	match, err := h.productService.CheckDuplicate(c.Request.Context(), title, c.Query("brand"), c.Query("category"))
	if err != nil {
		logger.WithError(err).Error("duplicate check failed")
		utils.SendInternalError(c, "Failed to check for duplicates", err)
		return
	}
	if match == nil {
		utils.SendSuccess(c, "No similar product found", gin.H{"duplicate": false})
		return
	}
	utils.SendSuccess(c, "Similar product found", gin.H{
		"duplicate":  true,
		"exact":      h.productService.IsExactMatch(match.Similarity),
		"similarity": match.Similarity,
		"breakdown":  match.Breakdown,
		"product": gin.H{
			"id":       match.Product.ID,
			"title":    match.Product.Title,
			"brand":    match.Product.Brand,
			"category": match.Product.Category,
		},
	})
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	result, err := h.productService.CreateProduct(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidProduct):
			utils.SendValidationError(c, strings.TrimPrefix(err.Error(), services.ErrInvalidProduct.Error()+": "))
		case errors.Is(err, services.ErrProductRejected):
			utils.SendError(c, http.StatusUnprocessableEntity, "Product rejected by verification", errors.New(result.Verification.Reason))
		default:
			logger.WithError(err).Error("create product failed")
			utils.SendInternalError(c, "Failed to create product", err)
		}
		return
	}

	if result.Duplicate != nil {
		utils.SendSuccess(c, "A similar product already exists", gin.H{
			"duplicate":    true,
			"productId":    result.Duplicate.Product.ID,
			"productTitle": result.Duplicate.Product.Title,
			"similarity":   result.Duplicate.Similarity,
		})
		return
	}
	utils.SendCreated(c, "Product created successfully", gin.H{
		"productId":    result.Product.ID,
		"product":      result.Product,
		"verification": result.Verification,
	})
}

func (h *ProductHandler) Summarize(c *gin.Context) {
	result, err := h.summaryService.Summarize(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.SendNotFound(c, "Product not found")
		case errors.Is(err, services.ErrNoReviews):
			utils.SendNotFound(c, "No reviews for this product")
		case errors.Is(err, services.ErrSummarizerFailure):
			utils.SendError(c, http.StatusBadGateway, "Summarize failed", nil)
		default:
			logger.WithError(err).Error("summarize failed")
			utils.SendInternalError(c, "Summarize failed", err)
		}
		return
	}
	utils.SendSuccess(c, "Summary generated successfully", result)
}
