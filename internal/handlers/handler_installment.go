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

// installmentHandler handles HTTP requests for MSI plan detection.
type installmentHandler struct {
	installmentService portssvc.InstallmentSvcFacade
}

func newInstallmentHandler(is portssvc.InstallmentSvcFacade) *installmentHandler {
	return &installmentHandler{installmentService: is}
}

// registerInstallmentRoutes registers routes related to installment plans.
func registerInstallmentRoutes(rg *gin.RouterGroup, installmentService portssvc.InstallmentSvcFacade) {
	h := newInstallmentHandler(installmentService)

	installments := rg.Group("/invoices/:invoiceID/installment-plan")
	{
		installments.POST("/suggest", h.suggestPlan)
		installments.POST("/confirm", h.confirmPlan)
	}
}

// suggestPlan godoc
// @Summary Suggest an installment plan
// @Description Searches for a recurring monthly charge sequence matching the invoice total and stores the suggestion for human review
// @Tags installment-plans
// @Produce json
// @Param invoiceID path string true "Invoice fiscal UUID"
// @Success 200 {object} dto.InstallmentPlanResponse
// @Failure 400 {object} map[string]string "Invoice is not eligible for installment detection"
// @Failure 404 {object} map[string]string "Invoice not found or no plausible sequence"
// @Failure 500 {object} map[string]string "Failed to suggest installment plan"
// @Router /invoices/{invoiceID}/installment-plan/suggest [post]
func (h *installmentHandler) suggestPlan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant"})
		return
	}
	invoiceID := c.Param("invoiceID")

	plan, err := h.installmentService.SuggestPlan(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to suggest installment plan", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to suggest installment plan"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToInstallmentPlanResponse(plan))
}

// confirmPlan godoc
// @Summary Confirm or discard a suggested installment plan
// @Description Records the human decision exactly once; re-sending the same decision returns the stored plan
// @Tags installment-plans
// @Accept json
// @Produce json
// @Param invoiceID path string true "Invoice fiscal UUID"
// @Param decision body dto.ConfirmInstallmentRequest true "Confirmation or discard"
// @Success 200 {object} dto.InstallmentPlanResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "No plan suggested for the invoice"
// @Failure 409 {object} map[string]string "Plan was already decided differently"
// @Failure 500 {object} map[string]string "Failed to confirm installment plan"
// @Router /invoices/{invoiceID}/installment-plan/confirm [post]
func (h *installmentHandler) confirmPlan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant"})
		return
	}
	invoiceID := c.Param("invoiceID")

	var req dto.ConfirmInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ConfirmInstallment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	plan, err := h.installmentService.ConfirmPlan(c.Request.Context(), tenantID, invoiceID, req.DecidedBy, *req.Confirmed)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No installment plan suggested for this invoice"})
		} else if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to confirm installment plan", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm installment plan"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToInstallmentPlanResponse(plan))
}
