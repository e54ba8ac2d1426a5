package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentPlan is the database model for the installment_plans table.
// Confirmed stays NULL until a human decides; candidate_charges is JSONB.
type InstallmentPlan struct {
	PlanID           string          `db:"plan_id"`
	TenantID         string          `db:"tenant_id"`
	InvoiceID        string          `db:"invoice_id"`
	Months           int             `db:"months"`
	MonthlyAmount    decimal.Decimal `db:"monthly_amount"`
	CandidateCharges []string        `db:"candidate_charges"`
	Confirmed        *bool           `db:"confirmed"`
	DecidedBy        *string         `db:"decided_by"`
	DecidedAt        *time.Time      `db:"decided_at"`
	CreatedAt        time.Time       `db:"created_at"`
}
