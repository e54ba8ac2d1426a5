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

// matchHandler handles HTTP requests for single-invoice reconciliation.
type matchHandler struct {
	matcherService portssvc.MatcherSvcFacade
}

func newMatchHandler(ms portssvc.MatcherSvcFacade) *matchHandler {
	return &matchHandler{matcherService: ms}
}

// registerMatchRoutes registers routes related to matching.
func registerMatchRoutes(rg *gin.RouterGroup, matcherService portssvc.MatcherSvcFacade) {
	h := newMatchHandler(matcherService)

	match := rg.Group("/match")
	{
		match.POST("/:invoiceID", h.matchInvoice)
	}
}

// matchInvoice godoc
// @Summary Reconcile a single invoice
// @Description Runs the matching pipeline for one invoice and returns the decision. Idempotent: re-running an already reconciled invoice returns the prior outcome.
// @Tags match
// @Produce json
// @Param invoiceID path string true "Invoice fiscal UUID"
// @Success 200 {object} dto.MatchOutcomeResponse
// @Failure 400 {object} map[string]string "Invoice is missing required fields"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 500 {object} map[string]string "Failed to reconcile invoice"
// @Router /match/{invoiceID} [post]
func (h *matchHandler) matchInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant"})
		return
	}
	invoiceID := c.Param("invoiceID")

	outcome, err := h.matcherService.MatchInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Invoice rejected by matcher", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to reconcile invoice", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile invoice"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchOutcomeResponse(outcome))
}
