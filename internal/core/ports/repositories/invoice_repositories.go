package repositories

import (
	"context"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// InvoiceRepository defines persistence for the read-only invoice mirror.
type InvoiceRepository interface {
	// SaveInvoice inserts a parsed CFDI record. Invoices are immutable once
	// ingested; re-saving the same fiscal UUID is a no-op.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error

	// FindInvoiceByID returns apperrors.ErrNotFound when absent.
	FindInvoiceByID(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error)
}
