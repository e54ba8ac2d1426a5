package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentPlan is a suggested MSI (meses sin intereses) schedule: one large
// card-paid invoice reconciled against a run of smaller recurring charges.
// CFDI carries no installment flag, so a plan is only ever a suggestion until
// a human confirms or discards it; Confirmed stays nil until then.
type InstallmentPlan struct {
	PlanID           string          `json:"planID"`
	TenantID         string          `json:"tenantID"`
	InvoiceID        string          `json:"invoiceID"`
	Months           int             `json:"months"`
	MonthlyAmount    decimal.Decimal `json:"monthlyAmount"`
	CandidateCharges []string        `json:"candidateCharges"`
	Confirmed        *bool           `json:"confirmed,omitempty"`
	DecidedBy        *string         `json:"decidedBy,omitempty"`
	DecidedAt        *time.Time      `json:"decidedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// IsDecided reports whether a human has already confirmed or discarded the plan.
func (p InstallmentPlan) IsDecided() bool {
	return p.Confirmed != nil
}
