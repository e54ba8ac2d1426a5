package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contaclara/recon_backend/internal/apperrors"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/dto"
	"github.com/contaclara/recon_backend/internal/middleware"
)

// pendingHandler handles HTTP requests for the manual-resolution queue.
type pendingHandler struct {
	pendingService portssvc.PendingSvcFacade
}

func newPendingHandler(ps portssvc.PendingSvcFacade) *pendingHandler {
	return &pendingHandler{pendingService: ps}
}

// registerPendingRoutes registers routes related to pending assignments.
func registerPendingRoutes(rg *gin.RouterGroup, pendingService portssvc.PendingSvcFacade) {
	h := newPendingHandler(pendingService)

	pending := rg.Group("/pending-assignments")
	{
		pending.GET("", h.listPending)
		pending.POST("/:assignmentID/resolve", h.resolveAssignment)
		pending.POST("/:assignmentID/reject", h.rejectAssignment)
	}
}

// listPending godoc
// @Summary List open pending assignments
// @Description Returns the manual-resolution queue newest first with cursor pagination
// @Tags pending-assignments
// @Produce json
// @Param limit query int false "Page size (default 20)"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Success 200 {object} dto.ListPendingResponse
// @Failure 400 {object} map[string]string "Invalid cursor"
// @Failure 500 {object} map[string]string "Failed to list pending assignments"
// @Router /pending-assignments [get]
func (h *pendingHandler) listPending(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	cursor := c.Query("cursor")

	assignments, nextCursor, err := h.pendingService.ListPending(c.Request.Context(), tenantID, limit, cursor)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list pending assignments", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending assignments"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToListPendingResponse(assignments, nextCursor))
}

// resolveAssignment godoc
// @Summary Resolve a pending assignment
// @Description Links the chosen candidate expense to the assignment's invoice and closes the entry. Idempotent.
// @Tags pending-assignments
// @Accept json
// @Produce json
// @Param assignmentID path string true "Assignment ID"
// @Param resolution body dto.ResolveAssignmentRequest true "Chosen candidate"
// @Success 200 {object} dto.PendingAssignmentResponse
// @Failure 400 {object} map[string]string "Chosen expense is not a candidate"
// @Failure 404 {object} map[string]string "Assignment not found"
// @Failure 409 {object} map[string]string "Expense was linked elsewhere in the meantime"
// @Failure 500 {object} map[string]string "Failed to resolve assignment"
// @Router /pending-assignments/{assignmentID}/resolve [post]
func (h *pendingHandler) resolveAssignment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant"})
		return
	}
	assignmentID := c.Param("assignmentID")

	var req dto.ResolveAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ResolveAssignment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	assignment, err := h.pendingService.Resolve(c.Request.Context(), tenantID, assignmentID, req.ResolvedBy, req.ExpenseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to resolve assignment", slog.String("assignment_id", assignmentID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve assignment"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToPendingAssignmentResponse(assignment))
}

// rejectAssignment godoc
// @Summary Reject a pending assignment
// @Description Closes the entry and auto-creates a pre-filled expense from the invoice, as if no candidates had been found. Idempotent.
// @Tags pending-assignments
// @Accept json
// @Produce json
// @Param assignmentID path string true "Assignment ID"
// @Param rejection body dto.RejectAssignmentRequest true "Rejection reason"
// @Success 200 {object} dto.MatchOutcomeResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Assignment not found"
// @Failure 500 {object} map[string]string "Failed to reject assignment"
// @Router /pending-assignments/{assignmentID}/reject [post]
func (h *pendingHandler) rejectAssignment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant"})
		return
	}
	assignmentID := c.Param("assignmentID")

	var req dto.RejectAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RejectAssignment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	outcome, err := h.pendingService.Reject(c.Request.Context(), tenantID, assignmentID, req.ResolvedBy, req.Reason)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to reject assignment", slog.String("assignment_id", assignmentID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject assignment"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchOutcomeResponse(outcome))
}
