package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	"github.com/contaclara/recon_backend/internal/models"
)

type PgxInvoiceRepository struct {
	db *pgxpool.Pool
}

func newPgxInvoiceRepository(db *pgxpool.Pool) portsrepo.InvoiceRepository {
	return &PgxInvoiceRepository{db: db}
}

// Ensure PgxInvoiceRepository implements portsrepo.InvoiceRepository
var _ portsrepo.InvoiceRepository = (*PgxInvoiceRepository)(nil)

func toModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:     d.InvoiceID,
		TenantID:      d.TenantID,
		IssuerRFC:     d.IssuerRFC,
		IssuerName:    d.IssuerName,
		Total:         d.Total,
		CurrencyCode:  d.CurrencyCode,
		IssueDate:     d.IssueDate,
		PaymentMethod: string(d.PaymentMethod),
		Concepts:      toModelConcepts(d.Concepts),
		CreatedAt:     d.CreatedAt,
	}
}

func toDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID:     m.InvoiceID,
		TenantID:      m.TenantID,
		IssuerRFC:     m.IssuerRFC,
		IssuerName:    m.IssuerName,
		Total:         m.Total,
		CurrencyCode:  m.CurrencyCode,
		IssueDate:     m.IssueDate,
		PaymentMethod: domain.PaymentMethod(m.PaymentMethod),
		Concepts:      toDomainConcepts(m.Concepts),
		CreatedAt:     m.CreatedAt,
	}
}

// SaveInvoice inserts the parsed CFDI. The fiscal UUID is the natural key, so
// a duplicate ingest is a silent no-op rather than an error.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	m := toModelInvoice(invoice)
	conceptsRaw, err := conceptsToJSON(m.Concepts)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO invoices (invoice_id, tenant_id, issuer_rfc, issuer_name, total, currency_code, issue_date, payment_method, concepts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, invoice_id) DO NOTHING;
	`
	_, err = r.db.Exec(ctx, query,
		m.InvoiceID,
		m.TenantID,
		m.IssuerRFC,
		m.IssuerName,
		m.Total,
		m.CurrencyCode,
		m.IssueDate,
		m.PaymentMethod,
		conceptsRaw,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error) {
	query := `
		SELECT invoice_id, tenant_id, issuer_rfc, issuer_name, total, currency_code, issue_date, payment_method, concepts, created_at
		FROM invoices
		WHERE tenant_id = $1 AND invoice_id = $2;
	`
	var m models.Invoice
	var conceptsRaw []byte
	err := r.db.QueryRow(ctx, query, tenantID, invoiceID).Scan(
		&m.InvoiceID,
		&m.TenantID,
		&m.IssuerRFC,
		&m.IssuerName,
		&m.Total,
		&m.CurrencyCode,
		&m.IssueDate,
		&m.PaymentMethod,
		&conceptsRaw,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invoice by ID %s: %w", invoiceID, err)
	}
	m.Concepts, err = conceptsFromJSON(conceptsRaw)
	if err != nil {
		return nil, err
	}
	d := toDomainInvoice(m)
	return &d, nil
}
