package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus tracks the lifecycle of an expense record. Expenses are never
// deleted, only status-transitioned.
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseInvoiced ExpenseStatus = "invoiced"
	ExpenseStale    ExpenseStatus = "stale"
)

// Expense is a recorded expense or bank transaction. CounterpartyRFC may be
// absent for ticket-only captures; Concepts is nil when no ticket text was
// extracted, which is distinct from an empty concept list.
type Expense struct {
	ExpenseID        string          `json:"expenseID"`
	TenantID         string          `json:"tenantID"`
	CounterpartyName string          `json:"counterpartyName"`
	CounterpartyRFC  *string         `json:"counterpartyRFC,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	ExpenseDate      time.Time       `json:"expenseDate"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod"`
	Concepts         []Concept       `json:"concepts,omitempty"`
	LinkedInvoiceID  *string         `json:"linkedInvoiceID,omitempty"`
	Status           ExpenseStatus   `json:"status"`
	NeedsReview      bool            `json:"needsReview"`
	CreatedAt        time.Time       `json:"createdAt"`
	LastUpdatedAt    time.Time       `json:"lastUpdatedAt"`
}

// ConceptTexts returns the captured line descriptions, nil when none were captured.
func (e Expense) ConceptTexts() []string {
	if len(e.Concepts) == 0 {
		return nil
	}
	texts := make([]string, 0, len(e.Concepts))
	for _, c := range e.Concepts {
		texts = append(texts, c.Description)
	}
	return texts
}
