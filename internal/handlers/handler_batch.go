package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contaclara/recon_backend/internal/apperrors"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/dto"
	"github.com/contaclara/recon_backend/internal/middleware"
)

// batchHandler handles HTTP requests for batch reconciliation.
type batchHandler struct {
	batchService portssvc.BatchSvcFacade
}

func newBatchHandler(bs portssvc.BatchSvcFacade) *batchHandler {
	return &batchHandler{batchService: bs}
}

// registerBatchRoutes registers routes related to batches.
func registerBatchRoutes(rg *gin.RouterGroup, batchService portssvc.BatchSvcFacade) {
	h := newBatchHandler(batchService)

	batches := rg.Group("/batches")
	{
		batches.POST("", h.submitBatch)
		batches.GET("/:batchID", h.getBatchStatus)
	}
}

// submitBatch godoc
// @Summary Submit a reconciliation batch
// @Description Accepts a list of invoice ids and processes them in the background. Returns 202 with the batch id for polling.
// @Tags batches
// @Accept json
// @Produce json
// @Param batch body dto.SubmitBatchRequest true "Invoice ids to reconcile"
// @Success 202 {object} dto.SubmitBatchResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to submit batch"
// @Router /batches [post]
func (h *batchHandler) submitBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant"})
		return
	}

	var req dto.SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SubmitBatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	batchID, err := h.batchService.SubmitBatch(c.Request.Context(), tenantID, req.SubmittedBy, req.InvoiceIDs)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to submit batch", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit batch"})
		}
		return
	}

	logger.Info("Batch submitted", slog.String("batch_id", batchID), slog.Int("invoice_count", len(req.InvoiceIDs)))
	c.JSON(http.StatusAccepted, dto.SubmitBatchResponse{BatchID: batchID})
}

// getBatchStatus godoc
// @Summary Get batch status
// @Description Returns the derived batch status with rollup counts and per-item outcomes
// @Tags batches
// @Produce json
// @Param batchID path string true "Batch ID"
// @Success 200 {object} dto.BatchSummaryResponse
// @Failure 404 {object} map[string]string "Batch not found"
// @Failure 500 {object} map[string]string "Failed to get batch status"
// @Router /batches/{batchID} [get]
func (h *batchHandler) getBatchStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant"})
		return
	}
	batchID := c.Param("batchID")

	summary, err := h.batchService.GetBatchStatus(c.Request.Context(), tenantID, batchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
		} else {
			logger.Error("Failed to get batch status", slog.String("batch_id", batchID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get batch status"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToBatchSummaryResponse(summary))
}
