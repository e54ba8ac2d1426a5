package services

import (
	"context"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// InstallmentSvcFacade detects and confirms MSI (interest-free installment)
// plans. Detection only ever produces a suggestion; confirmation is a human
// action.
type InstallmentSvcFacade interface {
	SuggestPlan(ctx context.Context, tenantID, invoiceID string) (*domain.InstallmentPlan, error)
	ConfirmPlan(ctx context.Context, tenantID, invoiceID, decidedBy string, confirmed bool) (*domain.InstallmentPlan, error)
}
