package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/services"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
)

type AdminHandler struct {
	productService  *services.ProductService
	backfillService *services.BackfillService
	importService   *services.ImportService
	// jobCtx outlives requests; cancelling it stops background jobs.
	jobCtx context.Context
}

func NewAdminHandler(jobCtx context.Context, productService *services.ProductService, backfillService *services.BackfillService, importService *services.ImportService) *AdminHandler {
	return &AdminHandler{
		productService:  productService,
		backfillService: backfillService,
		importService:   importService,
		jobCtx:          jobCtx,
	}
}

// StartBackfill returns as soon as the job is scheduled.
func (h *AdminHandler) StartBackfill(c *gin.Context) {
	count, err := h.backfillService.Start(h.jobCtx)
	if err != nil {
		if errors.Is(err, services.ErrBackfillRunning) {
			utils.SendConflict(c, "Backfill already running")
			return
		}
		logger.WithError(err).Error("start backfill failed")
		utils.SendInternalError(c, "Failed to start background processing", err)
		return
	}
	utils.SendAccepted(c, "Processing products in background", gin.H{
		"productsToProcess": count,
		"status":            "started",
	})
}

func (h *AdminHandler) BackfillStatus(c *gin.Context) {
	utils.SendSuccess(c, "Backfill status", gin.H{"running": h.backfillService.Running()})
}

func (h *AdminHandler) RegenerateImage(c *gin.Context) {
	product, err := h.productService.RegenerateImage(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.SendNotFound(c, "Product not found")
		case errors.Is(err, services.ErrAIUnavailable):
			utils.SendError(c, http.StatusBadGateway, "Image generation failed", nil)
		default:
			logger.WithError(err).Error("regenerate image failed")
			utils.SendInternalError(c, "Failed to regenerate image", err)
		}
		return
	}
	utils.SendSuccess(c, "Image regenerated successfully", product)
}

// ImportJSONL loads an uploaded review dump.
func (h *AdminHandler) ImportJSONL(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		utils.SendValidationError(c, "No JSONL file provided")
		return
	}
	src, err := file.Open()
	if err != nil {
		utils.SendValidationError(c, "Failed to open JSONL file")
		return
	}
	defer src.Close()

	report, err := h.importService.ImportJSONL(c.Request.Context(), src, c.PostForm("category"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Failed to import JSONL", err)
		return
	}
	utils.SendSuccess(c, "Import finished", report)
}
