package services

import (
	"context"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// PendingSvcFacade exposes the manual-resolution queue.
type PendingSvcFacade interface {
	// ListPending returns open assignments newest first. cursor is an opaque
	// pagination token from a previous page, empty for the first page.
	ListPending(ctx context.Context, tenantID string, limit int, cursor string) ([]domain.PendingAssignment, string, error)

	// Resolve links the chosen candidate to the assignment's invoice and
	// closes the assignment. Resolving an already-resolved assignment
	// returns the prior result.
	Resolve(ctx context.Context, tenantID, assignmentID, resolverID, chosenExpenseID string) (*domain.PendingAssignment, error)

	// Reject closes the assignment and falls back to the auto-create path,
	// as if no candidates had been found.
	Reject(ctx context.Context, tenantID, assignmentID, resolverID, reason string) (*domain.MatchOutcome, error)
}
