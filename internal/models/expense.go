package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is the database model for the expenses table.
type Expense struct {
	ExpenseID        string          `db:"expense_id"`
	TenantID         string          `db:"tenant_id"`
	CounterpartyName string          `db:"counterparty_name"`
	CounterpartyRFC  *string         `db:"counterparty_rfc"`
	Amount           decimal.Decimal `db:"amount"`
	ExpenseDate      time.Time       `db:"expense_date"`
	PaymentMethod    string          `db:"payment_method"`
	Concepts         []Concept       `db:"concepts"`
	LinkedInvoiceID  *string         `db:"linked_invoice_id"`
	Status           string          `db:"status"`
	NeedsReview      bool            `db:"needs_review"`
	CreatedAt        time.Time       `db:"created_at"`
	LastUpdatedAt    time.Time       `db:"last_updated_at"`
}
