package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/services"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
)

type AssistantHandler struct {
	assistant *services.AssistantService
	search    *services.AISearchService
}

func NewAssistantHandler(assistant *services.AssistantService, search *services.AISearchService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, search: search}
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	var req services.AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	reply, err := h.assistant.Chat(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			utils.SendValidationError(c, "Missing userMessage")
			return
		}
		logger.WithError(err).Error("assistant chat failed")
		utils.SendInternalError(c, "Failed to process request", err)
		return
	}
	utils.SendSuccess(c, reply.Message, reply)
}

func (h *AssistantHandler) AISearch(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid JSON body")
		return
	}

	result, err := h.search.Search(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			utils.SendValidationError(c, "Query is required")
			return
		}
		logger.WithError(err).Error("ai search failed")
		utils.SendInternalError(c, "Search failed", err)
		return
	}
	utils.SendSuccess(c, result.Explanation, result)
}
