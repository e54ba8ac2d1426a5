package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// ConfirmInstallmentRequest defines the human decision on a suggested plan.
// Confirmed is a pointer so "false" (discard) binds distinctly from absent.
type ConfirmInstallmentRequest struct {
	Confirmed *bool  `json:"confirmed" binding:"required"`
	DecidedBy string `json:"decidedBy" binding:"required"`
}

// InstallmentPlanResponse defines the data returned for an MSI plan.
type InstallmentPlanResponse struct {
	PlanID           string          `json:"planID"`
	InvoiceID        string          `json:"invoiceID"`
	Months           int             `json:"months"`
	MonthlyAmount    decimal.Decimal `json:"monthlyAmount"`
	CandidateCharges []string        `json:"candidateCharges"`
	Confirmed        *bool           `json:"confirmed,omitempty"`
	DecidedBy        *string         `json:"decidedBy,omitempty"`
	DecidedAt        *time.Time      `json:"decidedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ToInstallmentPlanResponse converts a domain.InstallmentPlan to its DTO
func ToInstallmentPlanResponse(p *domain.InstallmentPlan) InstallmentPlanResponse {
	return InstallmentPlanResponse{
		PlanID:           p.PlanID,
		InvoiceID:        p.InvoiceID,
		Months:           p.Months,
		MonthlyAmount:    p.MonthlyAmount,
		CandidateCharges: p.CandidateCharges,
		Confirmed:        p.Confirmed,
		DecidedBy:        p.DecidedBy,
		DecidedAt:        p.DecidedAt,
		CreatedAt:        p.CreatedAt,
	}
}
