package services

import (
	"context"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// BatchSvcFacade is the idempotent batch orchestrator.
type BatchSvcFacade interface {
	// SubmitBatch records the batch and starts background processing.
	SubmitBatch(ctx context.Context, tenantID, submittedBy string, invoiceIDs []string) (string, error)

	// ProcessBatch drives the worker pool over the batch's items until every
	// item is terminal or out of attempts. Safe to call again on a partially
	// processed batch (e.g. after a crash); terminal items are untouched.
	ProcessBatch(ctx context.Context, tenantID, batchID string) error

	// ResumeUnfinishedBatches re-drives every batch still holding
	// non-terminal items, so documents stranded by a process crash reach a
	// terminal state. Returns the number of batches processed.
	ResumeUnfinishedBatches(ctx context.Context) (int, error)

	// GetBatchStatus derives the batch status from its items.
	GetBatchStatus(ctx context.Context, tenantID, batchID string) (*domain.BatchSummary, error)
}
