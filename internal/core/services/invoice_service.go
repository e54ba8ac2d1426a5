package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/middleware"
)

// invoiceService maintains the read-only CFDI mirror the matcher reads from.
type invoiceService struct {
	invoiceRepo portsrepo.InvoiceRepository
}

// NewInvoiceService creates the invoice ingestion service.
func NewInvoiceService(invoiceRepo portsrepo.InvoiceRepository) portssvc.InvoiceSvcFacade {
	return &invoiceService{invoiceRepo: invoiceRepo}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// IngestInvoice stores a parsed CFDI record. The fiscal UUID is the natural
// key, so re-ingesting the same document is a no-op.
func (s *invoiceService) IngestInvoice(ctx context.Context, invoice domain.Invoice) error {
	if !invoice.HasRequiredFields() {
		return fmt.Errorf("%w: invoice is missing fiscal uuid, issuer rfc, total or issue date", apperrors.ErrValidation)
	}
	if invoice.TenantID == "" {
		return fmt.Errorf("%w: invoice has no tenant", apperrors.ErrValidation)
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now().UTC()
	}

	if err := s.invoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		return err
	}
	middleware.GetLoggerFromCtx(ctx).Info("Invoice ingested",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("issuer_rfc", invoice.IssuerRFC),
	)
	return nil
}

// GetInvoice fetches one invoice scoped to the tenant.
func (s *invoiceService) GetInvoice(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error) {
	return s.invoiceRepo.FindInvoiceByID(ctx, tenantID, invoiceID)
}
