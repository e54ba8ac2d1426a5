package repositories

import (
	"context"
	"time"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// BatchRepository defines persistence for batches and their items, including
// the atomic claim used by the orchestrator's workers.
type BatchRepository interface {
	// CreateBatchWithItems inserts the batch and all items atomically.
	CreateBatchWithItems(ctx context.Context, batch domain.Batch, items []domain.BatchItem) error

	// FindBatchByID returns apperrors.ErrNotFound when absent.
	FindBatchByID(ctx context.Context, tenantID, batchID string) (*domain.Batch, error)

	// ClaimNextItem atomically claims one claimable item of the batch
	// (queued, or processing with an expired lease) whose attempts are below
	// maxAttempts, setting owner and lease and bumping the attempt counter.
	// Returns nil when nothing is claimable.
	ClaimNextItem(ctx context.Context, batchID, owner string, leaseUntil time.Time, maxAttempts int) (*domain.BatchItem, error)

	// CompleteItem finalizes a claimed item with its outcome.
	CompleteItem(ctx context.Context, itemID string, outcome domain.MatchOutcome) error

	// FailItem finalizes a claimed item as error with a human-readable reason.
	FailItem(ctx context.Context, itemID string, reason string) error

	// ReleaseItem returns a claimed item to queued after a transient failure
	// so another worker (or attempt) can pick it up.
	ReleaseItem(ctx context.Context, itemID string) error

	// FailExhaustedItems marks every non-terminal item of the batch that has
	// used up its attempts as error. Returns the number of items failed.
	FailExhaustedItems(ctx context.Context, batchID string, maxAttempts int, reason string) (int, error)

	// FindTerminalOutcomeByKey returns the most recent terminal item for the
	// idempotency key, or nil. Used to short-circuit resubmissions.
	FindTerminalOutcomeByKey(ctx context.Context, tenantID, idempotencyKey string) (*domain.BatchItem, error)

	// FindUnfinishedBatches returns batches that still hold non-terminal
	// items, oldest first. Used by the startup sweep to re-drive batches
	// interrupted by a crash.
	FindUnfinishedBatches(ctx context.Context) ([]domain.Batch, error)

	// ListItems returns all items of a batch in submission order.
	ListItems(ctx context.Context, tenantID, batchID string) ([]domain.BatchItem, error)
}
