package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	"github.com/contaclara/recon_backend/internal/matching"
	"github.com/contaclara/recon_backend/internal/models"
)

type PgxExpenseRepository struct {
	db *pgxpool.Pool
}

func newPgxExpenseRepository(db *pgxpool.Pool) portsrepo.ExpenseRepository {
	return &PgxExpenseRepository{db: db}
}

// Ensure PgxExpenseRepository implements portsrepo.ExpenseRepository
var _ portsrepo.ExpenseRepository = (*PgxExpenseRepository)(nil)

func toModelExpense(d domain.Expense) models.Expense {
	return models.Expense{
		ExpenseID:        d.ExpenseID,
		TenantID:         d.TenantID,
		CounterpartyName: d.CounterpartyName,
		CounterpartyRFC:  d.CounterpartyRFC,
		Amount:           d.Amount,
		ExpenseDate:      d.ExpenseDate,
		PaymentMethod:    string(d.PaymentMethod),
		Concepts:         toModelConcepts(d.Concepts),
		LinkedInvoiceID:  d.LinkedInvoiceID,
		Status:           string(d.Status),
		NeedsReview:      d.NeedsReview,
		CreatedAt:        d.CreatedAt,
		LastUpdatedAt:    d.LastUpdatedAt,
	}
}

func toDomainExpense(m models.Expense) domain.Expense {
	return domain.Expense{
		ExpenseID:        m.ExpenseID,
		TenantID:         m.TenantID,
		CounterpartyName: m.CounterpartyName,
		CounterpartyRFC:  m.CounterpartyRFC,
		Amount:           m.Amount,
		ExpenseDate:      m.ExpenseDate,
		PaymentMethod:    domain.PaymentMethod(m.PaymentMethod),
		Concepts:         toDomainConcepts(m.Concepts),
		LinkedInvoiceID:  m.LinkedInvoiceID,
		Status:           domain.ExpenseStatus(m.Status),
		NeedsReview:      m.NeedsReview,
		CreatedAt:        m.CreatedAt,
		LastUpdatedAt:    m.LastUpdatedAt,
	}
}

const expenseColumns = `expense_id, tenant_id, counterparty_name, counterparty_rfc, amount, expense_date,
	payment_method, concepts, linked_invoice_id, status, needs_review, created_at, last_updated_at`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var m models.Expense
	var conceptsRaw []byte
	err := row.Scan(
		&m.ExpenseID,
		&m.TenantID,
		&m.CounterpartyName,
		&m.CounterpartyRFC,
		&m.Amount,
		&m.ExpenseDate,
		&m.PaymentMethod,
		&conceptsRaw,
		&m.LinkedInvoiceID,
		&m.Status,
		&m.NeedsReview,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Concepts, err = conceptsFromJSON(conceptsRaw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindCandidates applies the loose identity, amount and date filters in SQL and
// returns survivors closest amount first. Stale expenses and expenses linked to
// other invoices never qualify.
func (r *PgxExpenseRepository) FindCandidates(ctx context.Context, tenantID string, invoice domain.Invoice, cfg matching.Config) ([]domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE tenant_id = $1
		  AND status <> 'stale'
		  AND (linked_invoice_id IS NULL OR linked_invoice_id = $2)
		  AND ABS(amount - $3) <= $4
		  AND expense_date BETWEEN $5 AND $6
		  AND (
		      counterparty_rfc = $7
		      OR (counterparty_rfc IS NULL AND (counterparty_name ILIKE '%' || $8 || '%' OR $8 ILIKE '%' || counterparty_name || '%'))
		  )
		ORDER BY ABS(amount - $3) ASC, expense_date ASC;
	`
	windowStart := invoice.IssueDate.AddDate(0, 0, -cfg.DateWindowDays)
	windowEnd := invoice.IssueDate.AddDate(0, 0, cfg.DateWindowDays)

	rows, err := r.db.Query(ctx, query,
		tenantID,
		invoice.InvoiceID,
		invoice.Total,
		cfg.AmountTolerance,
		windowStart,
		windowEnd,
		invoice.IssuerRFC,
		invoice.IssuerName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func collectExpenses(rows pgx.Rows) ([]domain.Expense, error) {
	expenses := []domain.Expense{}
	for rows.Next() {
		m, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, toDomainExpense(*m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", rows.Err())
	}
	return expenses, nil
}

func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, tenantID, expenseID string) (*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE tenant_id = $1 AND expense_id = $2;
	`
	m, err := scanExpense(r.db.QueryRow(ctx, query, tenantID, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID %s: %w", expenseID, err)
	}
	d := toDomainExpense(*m)
	return &d, nil
}

func (r *PgxExpenseRepository) FindByLinkedInvoiceID(ctx context.Context, tenantID, invoiceID string) (*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE tenant_id = $1 AND linked_invoice_id = $2;
	`
	m, err := scanExpense(r.db.QueryRow(ctx, query, tenantID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find expense linked to invoice %s: %w", invoiceID, err)
	}
	d := toDomainExpense(*m)
	return &d, nil
}

// LinkInvoice is the single-writer guard of the whole engine: the row is only
// updated while linked_invoice_id is still NULL. A lost race surfaces as
// ErrConflict unless the winner linked the very same invoice.
func (r *PgxExpenseRepository) LinkInvoice(ctx context.Context, tenantID, expenseID, invoiceID string) error {
	query := `
		UPDATE expenses
		SET linked_invoice_id = $1, status = 'invoiced', last_updated_at = now()
		WHERE tenant_id = $2 AND expense_id = $3 AND linked_invoice_id IS NULL;
	`
	cmdTag, err := r.db.Exec(ctx, query, invoiceID, tenantID, expenseID)
	if err != nil {
		return fmt.Errorf("failed to link invoice to expense %s: %w", expenseID, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	existing, err := r.FindExpenseByID(ctx, tenantID, expenseID)
	if err != nil {
		return err
	}
	if existing.LinkedInvoiceID != nil && *existing.LinkedInvoiceID == invoiceID {
		return nil // already linked to this invoice, idempotent success
	}
	return fmt.Errorf("%w: expense %s is already linked to another invoice", apperrors.ErrConflict, expenseID)
}

func (r *PgxExpenseRepository) CreateExpense(ctx context.Context, expense domain.Expense) error {
	m := toModelExpense(expense)
	conceptsRaw, err := conceptsToJSON(m.Concepts)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = r.db.Exec(ctx, query,
		m.ExpenseID,
		m.TenantID,
		m.CounterpartyName,
		m.CounterpartyRFC,
		m.Amount,
		m.ExpenseDate,
		m.PaymentMethod,
		conceptsRaw,
		m.LinkedInvoiceID,
		m.Status,
		m.NeedsReview,
		m.CreatedAt,
		m.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// FindRecurringCharges feeds the installment detector: unlinked charges of one
// counterparty in an amount band and date range, oldest first.
func (r *PgxExpenseRepository) FindRecurringCharges(ctx context.Context, tenantID, counterpartyRFC, counterpartyName string, minAmount, maxAmount decimal.Decimal, from, to time.Time) ([]domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE tenant_id = $1
		  AND status <> 'stale'
		  AND linked_invoice_id IS NULL
		  AND amount BETWEEN $2 AND $3
		  AND expense_date BETWEEN $4 AND $5
		  AND (
		      counterparty_rfc = $6
		      OR (counterparty_rfc IS NULL AND (counterparty_name ILIKE '%' || $7 || '%' OR $7 ILIKE '%' || counterparty_name || '%'))
		  )
		ORDER BY expense_date ASC;
	`
	rows, err := r.db.Query(ctx, query, tenantID, minAmount, maxAmount, from, to, counterpartyRFC, counterpartyName)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring charges: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}
