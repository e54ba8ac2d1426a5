package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/middleware"
)

// BatchConfig holds the orchestrator's concurrency and retry knobs.
type BatchConfig struct {
	WorkerCount   int
	LeaseDuration time.Duration
	MaxAttempts   int
}

// DefaultBatchConfig returns the production defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		WorkerCount:   4,
		LeaseDuration: 2 * time.Minute,
		MaxAttempts:   3,
	}
}

// batchService drives the matcher over many documents with bounded
// concurrency. Items are pulled via an atomic claim (a single conditional
// UPDATE), never a read-then-write race.
type batchService struct {
	batchRepo portsrepo.BatchRepository
	matcher   portssvc.MatcherSvcFacade
	cfg       BatchConfig
	logger    *slog.Logger
}

// NewBatchService creates the batch orchestrator.
func NewBatchService(batchRepo portsrepo.BatchRepository, matcher portssvc.MatcherSvcFacade, cfg BatchConfig, logger *slog.Logger) portssvc.BatchSvcFacade {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultBatchConfig().WorkerCount
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = DefaultBatchConfig().LeaseDuration
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultBatchConfig().MaxAttempts
	}
	return &batchService{
		batchRepo: batchRepo,
		matcher:   matcher,
		cfg:       cfg,
		logger:    logger,
	}
}

var _ portssvc.BatchSvcFacade = (*batchService)(nil)

// SubmitBatch persists the batch and kicks off background processing.
// Duplicate invoice ids within the submission collapse to one item.
func (s *batchService) SubmitBatch(ctx context.Context, tenantID, submittedBy string, invoiceIDs []string) (string, error) {
	if len(invoiceIDs) == 0 {
		return "", fmt.Errorf("%w: batch must contain at least one invoice", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	batch := domain.Batch{
		BatchID:     uuid.NewString(),
		TenantID:    tenantID,
		SubmittedBy: submittedBy,
		CreatedAt:   now,
	}

	seen := make(map[string]struct{}, len(invoiceIDs))
	items := make([]domain.BatchItem, 0, len(invoiceIDs))
	for _, invoiceID := range invoiceIDs {
		if invoiceID == "" {
			return "", fmt.Errorf("%w: empty invoice id in batch", apperrors.ErrValidation)
		}
		if _, dup := seen[invoiceID]; dup {
			continue
		}
		seen[invoiceID] = struct{}{}
		items = append(items, domain.BatchItem{
			ItemID:         uuid.NewString(),
			BatchID:        batch.BatchID,
			TenantID:       tenantID,
			InvoiceID:      invoiceID,
			IdempotencyKey: domain.IdempotencyKey(tenantID, invoiceID),
			Status:         domain.ItemQueued,
			CreatedAt:      now,
			LastUpdatedAt:  now,
		})
	}

	if err := s.batchRepo.CreateBatchWithItems(ctx, batch, items); err != nil {
		return "", err
	}

	// Processing continues after the submit request returns. The request
	// context dies with the response, so the workers get their own.
	workerCtx := middleware.WithLogger(context.Background(), s.logger.With(
		slog.String("batch_id", batch.BatchID),
		slog.String("tenant_id", tenantID),
	))
	go func() {
		if err := s.ProcessBatch(workerCtx, tenantID, batch.BatchID); err != nil {
			s.logger.Error("Batch processing failed",
				slog.String("batch_id", batch.BatchID),
				slog.String("error", err.Error()),
			)
		}
	}()

	return batch.BatchID, nil
}

// ProcessBatch runs the worker pool until no item of the batch is claimable.
func (s *batchService) ProcessBatch(ctx context.Context, tenantID, batchID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.WorkerCount; w++ {
		wg.Add(1)
		owner := fmt.Sprintf("%s-w%d", uuid.NewString()[:8], w)
		go func() {
			defer wg.Done()
			s.workerLoop(ctx, tenantID, batchID, owner)
		}()
	}
	wg.Wait()

	// Items that burned through their attempts without reaching a terminal
	// state are surfaced as errors, never silently dropped.
	failed, err := s.batchRepo.FailExhaustedItems(ctx, batchID, s.cfg.MaxAttempts, "retry attempts exhausted")
	if err != nil {
		return err
	}
	if failed > 0 {
		logger.Warn("Batch items exhausted retries", slog.Int("count", failed))
	}

	logger.Info("Batch processing finished", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// ResumeUnfinishedBatches drains batches interrupted before reaching a
// terminal state, e.g. by a process crash mid-run. Items whose lease has not
// yet expired stay with their owner; everything claimable is processed.
func (s *batchService) ResumeUnfinishedBatches(ctx context.Context) (int, error) {
	batches, err := s.batchRepo.FindUnfinishedBatches(ctx)
	if err != nil {
		return 0, err
	}

	resumed := 0
	for _, batch := range batches {
		batchCtx := middleware.WithLogger(ctx, s.logger.With(
			slog.String("batch_id", batch.BatchID),
			slog.String("tenant_id", batch.TenantID),
		))
		middleware.GetLoggerFromCtx(batchCtx).Info("Resuming unfinished batch")
		if err := s.ProcessBatch(batchCtx, batch.TenantID, batch.BatchID); err != nil {
			s.logger.Error("Failed to resume batch",
				slog.String("batch_id", batch.BatchID),
				slog.String("error", err.Error()),
			)
			continue
		}
		resumed++
	}
	return resumed, nil
}

// workerLoop claims and processes items until the batch runs dry.
func (s *batchService) workerLoop(ctx context.Context, tenantID, batchID, owner string) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("claim_owner", owner))

	for {
		if ctx.Err() != nil {
			return
		}

		item, err := s.batchRepo.ClaimNextItem(ctx, batchID, owner, time.Now().UTC().Add(s.cfg.LeaseDuration), s.cfg.MaxAttempts)
		if err != nil {
			logger.Error("Failed to claim batch item", slog.String("error", err.Error()))
			return
		}
		if item == nil {
			return // nothing claimable left
		}

		s.processItem(ctx, tenantID, *item, logger)
	}
}

// processItem resolves one claimed item to a terminal state, short-circuiting
// through any prior terminal outcome for the same idempotency key.
func (s *batchService) processItem(ctx context.Context, tenantID string, item domain.BatchItem, logger *slog.Logger) {
	itemLogger := logger.With(slog.String("item_id", item.ItemID), slog.String("invoice_id", item.InvoiceID))

	// Resubmission of an already processed document copies the first outcome
	// instead of re-running the pipeline.
	prior, err := s.batchRepo.FindTerminalOutcomeByKey(ctx, tenantID, item.IdempotencyKey)
	if err != nil {
		itemLogger.Error("Idempotency lookup failed", slog.String("error", err.Error()))
		s.release(ctx, item, itemLogger)
		return
	}
	if prior != nil && prior.ItemID != item.ItemID && prior.Status == domain.ItemCompleted && prior.Action != nil {
		outcome := domain.MatchOutcome{
			Action:    *prior.Action,
			InvoiceID: item.InvoiceID,
		}
		if prior.ExpenseID != nil {
			outcome.ExpenseID = *prior.ExpenseID
		}
		if prior.PendingAssignmentID != nil {
			outcome.PendingAssignmentID = *prior.PendingAssignmentID
		}
		if err := s.batchRepo.CompleteItem(ctx, item.ItemID, outcome); err != nil {
			itemLogger.Error("Failed to finalize duplicate item", slog.String("error", err.Error()))
			s.release(ctx, item, itemLogger)
			return
		}
		itemLogger.Info("Duplicate submission, copied prior outcome", slog.String("action", string(outcome.Action)))
		return
	}

	outcome, err := s.matcher.MatchInvoice(ctx, tenantID, item.InvoiceID)
	switch {
	case err == nil:
		if err := s.batchRepo.CompleteItem(ctx, item.ItemID, *outcome); err != nil {
			itemLogger.Error("Failed to finalize item", slog.String("error", err.Error()))
			s.release(ctx, item, itemLogger)
			return
		}
		itemLogger.Info("Batch item completed", slog.String("action", string(outcome.Action)))
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrNotFound):
		// Malformed or unknown documents are terminal failures with a
		// human-readable reason; retrying cannot fix them.
		if ferr := s.batchRepo.FailItem(ctx, item.ItemID, err.Error()); ferr != nil {
			itemLogger.Error("Failed to mark item as error", slog.String("error", ferr.Error()))
		}
		itemLogger.Warn("Batch item rejected", slog.String("reason", err.Error()))
	default:
		// Transient failure: release for another attempt. The attempt
		// counter on the claim bounds how often this can happen.
		itemLogger.Warn("Batch item failed, releasing for retry",
			slog.Int("attempts", item.Attempts),
			slog.String("error", err.Error()),
		)
		s.release(ctx, item, itemLogger)
	}
}

func (s *batchService) release(ctx context.Context, item domain.BatchItem, logger *slog.Logger) {
	if err := s.batchRepo.ReleaseItem(ctx, item.ItemID); err != nil {
		logger.Error("Failed to release batch item", slog.String("error", err.Error()))
	}
}

// GetBatchStatus derives the batch view from its items; the batch row itself
// stores no redundant status.
func (s *batchService) GetBatchStatus(ctx context.Context, tenantID, batchID string) (*domain.BatchSummary, error) {
	if _, err := s.batchRepo.FindBatchByID(ctx, tenantID, batchID); err != nil {
		return nil, err
	}

	items, err := s.batchRepo.ListItems(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}

	summary := &domain.BatchSummary{
		BatchID: batchID,
		Total:   len(items),
		Items:   items,
	}
	allTerminal := true
	for _, item := range items {
		switch item.Status {
		case domain.ItemCompleted:
			summary.Completed++
			if item.Action != nil {
				switch *item.Action {
				case domain.ActionAutoMatched:
					summary.AutoMatched++
				case domain.ActionAutoCreated:
					summary.AutoCreated++
				case domain.ActionPendingReview:
					summary.PendingReview++
				}
			}
		case domain.ItemError:
			summary.Errored++
		default:
			allTerminal = false
		}
	}

	switch {
	case !allTerminal:
		summary.Status = domain.BatchProcessing
	case summary.Errored > 0:
		summary.Status = domain.BatchCompletedWithErrors
	default:
		summary.Status = domain.BatchCompleted
	}
	return summary, nil
}
