package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/api/middleware"
	"github.com/princeprakhar/review-catalog-backend/internal/services"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
)

type ProfileHandler struct {
	gamification *services.GamificationService
}

func NewProfileHandler(gamification *services.GamificationService) *ProfileHandler {
	return &ProfileHandler{gamification: gamification}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	h.sendProfile(c, c.Param("user_id"))
}

// GetMyProfile serves the caller's own profile.
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	h.sendProfile(c, middleware.UserID(c))
}

func (h *ProfileHandler) sendProfile(c *gin.Context, userID string) {
	profile, err := h.gamification.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			utils.SendNotFound(c, "User profile not found")
			return
		}
		logger.WithError(err).Error("get profile failed")
		utils.SendInternalError(c, "Failed to fetch user profile", err)
		return
	}
	utils.SendSuccess(c, "Profile retrieved successfully", profile.ToResponse())
}
