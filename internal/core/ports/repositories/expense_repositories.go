package repositories

import (
	"context"
	"time"

	"github.com/contaclara/recon_backend/internal/core/domain"
	"github.com/contaclara/recon_backend/internal/matching"
	"github.com/shopspring/decimal"
)

// ExpenseRepository defines the persistence operations for expense records.
type ExpenseRepository interface {
	// FindCandidates returns unlinked expenses passing the loose
	// identity/amount/date filters for the invoice, closest amount first.
	// An empty result is a normal outcome, not an error.
	FindCandidates(ctx context.Context, tenantID string, invoice domain.Invoice, cfg matching.Config) ([]domain.Expense, error)

	// FindExpenseByID returns apperrors.ErrNotFound when absent.
	FindExpenseByID(ctx context.Context, tenantID, expenseID string) (*domain.Expense, error)

	// FindByLinkedInvoiceID returns the expense already linked to the
	// invoice, or nil when none is.
	FindByLinkedInvoiceID(ctx context.Context, tenantID, invoiceID string) (*domain.Expense, error)

	// LinkInvoice sets linked_invoice_id and transitions status to invoiced,
	// guarded by linked_invoice_id IS NULL. Linking an expense already linked
	// to the same invoice is a no-op success; linked to a different invoice
	// returns apperrors.ErrConflict.
	LinkInvoice(ctx context.Context, tenantID, expenseID, invoiceID string) error

	// CreateExpense inserts a new expense record.
	CreateExpense(ctx context.Context, expense domain.Expense) error

	// FindRecurringCharges returns unlinked charges of the given counterparty
	// with amount in [minAmount, maxAmount] and expense date in [from, to],
	// ordered by date, for installment-sequence detection.
	FindRecurringCharges(ctx context.Context, tenantID, counterpartyRFC, counterpartyName string, minAmount, maxAmount decimal.Decimal, from, to time.Time) ([]domain.Expense, error)
}
