package repositories

import (
	"context"
	"time"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// InstallmentPlanRepository defines persistence for MSI plan suggestions.
type InstallmentPlanRepository interface {
	// SaveSuggestion upserts the suggested plan for an invoice. An already
	// decided plan is left untouched and returned as-is.
	SaveSuggestion(ctx context.Context, plan domain.InstallmentPlan) (*domain.InstallmentPlan, error)

	// FindPlanByInvoiceID returns apperrors.ErrNotFound when absent.
	FindPlanByInvoiceID(ctx context.Context, tenantID, invoiceID string) (*domain.InstallmentPlan, error)

	// DecidePlan records the human confirmation or discard, guarded by
	// confirmed IS NULL. Returns apperrors.ErrConflict when already decided.
	DecidePlan(ctx context.Context, tenantID, invoiceID string, confirmed bool, decidedBy string, now time.Time) error
}
