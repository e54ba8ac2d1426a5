package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Concept is the JSONB shape of one free-text line item.
type Concept struct {
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// Invoice is the database model for the invoices table. Concepts is stored as
// a JSONB column.
type Invoice struct {
	InvoiceID     string          `db:"invoice_id"`
	TenantID      string          `db:"tenant_id"`
	IssuerRFC     string          `db:"issuer_rfc"`
	IssuerName    string          `db:"issuer_name"`
	Total         decimal.Decimal `db:"total"`
	CurrencyCode  string          `db:"currency_code"`
	IssueDate     time.Time       `db:"issue_date"`
	PaymentMethod string          `db:"payment_method"`
	Concepts      []Concept       `db:"concepts"`
	CreatedAt     time.Time       `db:"created_at"`
}
