package repositories

import (
	"context"
	"time"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// PendingAssignmentRepository defines persistence for the manual-resolution queue.
type PendingAssignmentRepository interface {
	// CreateAssignment inserts a queue entry. When an open assignment for the
	// same invoice already exists it is returned instead (idempotent).
	CreateAssignment(ctx context.Context, assignment domain.PendingAssignment) (*domain.PendingAssignment, error)

	// FindAssignmentByID returns apperrors.ErrNotFound when absent.
	FindAssignmentByID(ctx context.Context, tenantID, assignmentID string) (*domain.PendingAssignment, error)

	// FindOpenByInvoiceID returns the open assignment for the invoice, or nil.
	FindOpenByInvoiceID(ctx context.Context, tenantID, invoiceID string) (*domain.PendingAssignment, error)

	// ListPending returns open assignments newest first. A zero before means
	// start from the newest; otherwise entries strictly older than the
	// (before, beforeID) keyset position, so rows sharing a created_at are
	// never skipped between pages.
	ListPending(ctx context.Context, tenantID string, limit int, before time.Time, beforeID string) ([]domain.PendingAssignment, error)

	// CloseAssignment transitions an open assignment to resolved or rejected,
	// guarded by status = needs_manual_assignment. Returns
	// apperrors.ErrConflict when the assignment was already closed.
	CloseAssignment(ctx context.Context, tenantID, assignmentID string, status domain.AssignmentStatus, chosenExpenseID *string, resolvedBy string, note *string, now time.Time) error
}
