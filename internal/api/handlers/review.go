package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/api/middleware"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/services"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
)

const clientIDHeader = "X-Client-Id"

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		h.sendError(c, err, "Failed to submit review")
		return
	}
	utils.SendCreated(c, "Review submitted successfully", review)
}

func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	reviews, err := h.reviewService.GetProductReviews(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		h.sendError(c, err, "Failed to fetch reviews")
		return
	}
	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	var req models.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), c.Param("review_id"), req)
	if err != nil {
		h.sendError(c, err, "Failed to update review")
		return
	}
	utils.SendSuccess(c, "Review updated successfully", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	if err := h.reviewService.DeleteReview(c.Request.Context(), c.Param("review_id")); err != nil {
		h.sendError(c, err, "Failed to delete review")
		return
	}
	utils.SendSuccess(c, "Review deleted successfully", nil)
}

// MarkHelpful toggles the caller's helpful vote. Callers without a user id
// vote with their client id.
func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	voter := middleware.UserID(c)
	if voter == "" {
		voter = strings.TrimSpace(c.GetHeader(clientIDHeader))
	}

	result, err := h.reviewService.ToggleHelpful(c.Request.Context(), c.Param("review_id"), voter)
	if err != nil {
		h.sendError(c, err, "Failed to mark review as helpful")
		return
	}
	utils.SendSuccess(c, "Helpful vote updated", result)
}

func (h *ReviewHandler) sendError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidReview):
		utils.SendValidationError(c, strings.TrimPrefix(err.Error(), services.ErrInvalidReview.Error()+": "))
	case errors.Is(err, services.ErrReviewNotFound):
		utils.SendNotFound(c, "Review not found")
	case errors.Is(err, services.ErrProductNotFound):
		utils.SendNotFound(c, "Product not found")
	default:
		logger.WithError(err).Error(message)
		utils.SendInternalError(c, message, err)
	}
}
