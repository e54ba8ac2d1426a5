package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// ConceptRequest is one free-text line item on an incoming document.
type ConceptRequest struct {
	Description string           `json:"description" binding:"required"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// IngestInvoiceRequest defines the data needed to mirror a parsed CFDI.
type IngestInvoiceRequest struct {
	InvoiceID     string           `json:"invoiceID" binding:"required"`
	IssuerRFC     string           `json:"issuerRFC" binding:"required"`
	IssuerName    string           `json:"issuerName" binding:"required"`
	Total         decimal.Decimal  `json:"total" binding:"required"`
	CurrencyCode  string           `json:"currencyCode" binding:"required,len=3"`
	IssueDate     time.Time        `json:"issueDate" binding:"required"`
	PaymentMethod string           `json:"paymentMethod" binding:"required,oneof=CARD TRANSFER CASH OTHER"`
	Concepts      []ConceptRequest `json:"concepts"`
}

// ToDomainInvoice converts the request into the domain invoice for the tenant.
func (r IngestInvoiceRequest) ToDomainInvoice(tenantID string) domain.Invoice {
	concepts := make([]domain.Concept, len(r.Concepts))
	for i, c := range r.Concepts {
		concepts[i] = domain.Concept{
			Description: c.Description,
			Quantity:    c.Quantity,
			UnitPrice:   c.UnitPrice,
		}
	}
	if len(concepts) == 0 {
		concepts = nil
	}
	return domain.Invoice{
		InvoiceID:     r.InvoiceID,
		TenantID:      tenantID,
		IssuerRFC:     r.IssuerRFC,
		IssuerName:    r.IssuerName,
		Total:         r.Total,
		CurrencyCode:  r.CurrencyCode,
		IssueDate:     r.IssueDate,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		Concepts:      concepts,
	}
}

// ConceptResponse mirrors ConceptRequest on the way out.
type ConceptResponse struct {
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID     string            `json:"invoiceID"`
	IssuerRFC     string            `json:"issuerRFC"`
	IssuerName    string            `json:"issuerName"`
	Total         decimal.Decimal   `json:"total"`
	CurrencyCode  string            `json:"currencyCode"`
	IssueDate     time.Time         `json:"issueDate"`
	PaymentMethod string            `json:"paymentMethod"`
	Concepts      []ConceptResponse `json:"concepts,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// ToInvoiceResponse converts a domain.Invoice to InvoiceResponse DTO
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	var concepts []ConceptResponse
	for _, c := range inv.Concepts {
		concepts = append(concepts, ConceptResponse{
			Description: c.Description,
			Quantity:    c.Quantity,
			UnitPrice:   c.UnitPrice,
		})
	}
	return InvoiceResponse{
		InvoiceID:     inv.InvoiceID,
		IssuerRFC:     inv.IssuerRFC,
		IssuerName:    inv.IssuerName,
		Total:         inv.Total,
		CurrencyCode:  inv.CurrencyCode,
		IssueDate:     inv.IssueDate,
		PaymentMethod: string(inv.PaymentMethod),
		Concepts:      concepts,
		CreatedAt:     inv.CreatedAt,
	}
}
