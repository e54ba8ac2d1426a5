package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the payment form reported on the source document.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentCash     PaymentMethod = "CASH"
	PaymentOther    PaymentMethod = "OTHER"
)

// Concept is a single free-text line item on an invoice or captured ticket.
// Quantity and UnitPrice are optional; ticket OCR frequently yields text only.
type Concept struct {
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// Invoice is the read-only mirror of a parsed CFDI. The engine never mutates
// invoices; they arrive from the XML parser and are matched against expenses.
type Invoice struct {
	InvoiceID     string          `json:"invoiceID"` // fiscal UUID from the CFDI
	TenantID      string          `json:"tenantID"`
	IssuerRFC     string          `json:"issuerRFC"`
	IssuerName    string          `json:"issuerName"`
	Total         decimal.Decimal `json:"total"`
	CurrencyCode  string          `json:"currencyCode"`
	IssueDate     time.Time       `json:"issueDate"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Concepts      []Concept       `json:"concepts"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// HasRequiredFields reports whether the invoice carries everything the matcher
// needs. Invoices failing this are rejected at the batch-item level, never
// silently skipped.
func (i Invoice) HasRequiredFields() bool {
	return i.InvoiceID != "" &&
		i.IssuerRFC != "" &&
		i.Total.IsPositive() &&
		!i.IssueDate.IsZero()
}

// ConceptTexts returns the line descriptions, or nil when the invoice carries
// no concepts at all (in which case concept scoring is skipped).
func (i Invoice) ConceptTexts() []string {
	if len(i.Concepts) == 0 {
		return nil
	}
	texts := make([]string, 0, len(i.Concepts))
	for _, c := range i.Concepts {
		texts = append(texts, c.Description)
	}
	return texts
}
