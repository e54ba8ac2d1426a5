package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	"github.com/contaclara/recon_backend/internal/models"
)

type PgxBatchRepository struct {
	BaseRepository
}

func newPgxBatchRepository(db *pgxpool.Pool) portsrepo.BatchRepository {
	return &PgxBatchRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxBatchRepository implements portsrepo.BatchRepository
var _ portsrepo.BatchRepository = (*PgxBatchRepository)(nil)

func toModelBatchItem(d domain.BatchItem) models.BatchItem {
	var action *string
	if d.Action != nil {
		a := string(*d.Action)
		action = &a
	}
	return models.BatchItem{
		ItemID:              d.ItemID,
		BatchID:             d.BatchID,
		TenantID:            d.TenantID,
		InvoiceID:           d.InvoiceID,
		IdempotencyKey:      d.IdempotencyKey,
		Status:              string(d.Status),
		Attempts:            d.Attempts,
		ClaimOwner:          d.ClaimOwner,
		LeaseExpiresAt:      d.LeaseExpiresAt,
		Action:              action,
		ExpenseID:           d.ExpenseID,
		PendingAssignmentID: d.PendingAssignmentID,
		ErrorReason:         d.ErrorReason,
		CreatedAt:           d.CreatedAt,
		LastUpdatedAt:       d.LastUpdatedAt,
	}
}

func toDomainBatchItem(m models.BatchItem) domain.BatchItem {
	var action *domain.MatchAction
	if m.Action != nil {
		a := domain.MatchAction(*m.Action)
		action = &a
	}
	return domain.BatchItem{
		ItemID:              m.ItemID,
		BatchID:             m.BatchID,
		TenantID:            m.TenantID,
		InvoiceID:           m.InvoiceID,
		IdempotencyKey:      m.IdempotencyKey,
		Status:              domain.BatchItemStatus(m.Status),
		Attempts:            m.Attempts,
		ClaimOwner:          m.ClaimOwner,
		LeaseExpiresAt:      m.LeaseExpiresAt,
		Action:              action,
		ExpenseID:           m.ExpenseID,
		PendingAssignmentID: m.PendingAssignmentID,
		ErrorReason:         m.ErrorReason,
		CreatedAt:           m.CreatedAt,
		LastUpdatedAt:       m.LastUpdatedAt,
	}
}

const batchItemColumns = `item_id, batch_id, tenant_id, invoice_id, idempotency_key, status, attempts,
	claim_owner, lease_expires_at, action, expense_id, pending_assignment_id, error_reason, created_at, last_updated_at`

func scanBatchItem(row pgx.Row) (*models.BatchItem, error) {
	var m models.BatchItem
	err := row.Scan(
		&m.ItemID,
		&m.BatchID,
		&m.TenantID,
		&m.InvoiceID,
		&m.IdempotencyKey,
		&m.Status,
		&m.Attempts,
		&m.ClaimOwner,
		&m.LeaseExpiresAt,
		&m.Action,
		&m.ExpenseID,
		&m.PendingAssignmentID,
		&m.ErrorReason,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateBatchWithItems inserts the batch and all items in one transaction so a
// half-created batch can never be claimed.
func (r *PgxBatchRepository) CreateBatchWithItems(ctx context.Context, batch domain.Batch, items []domain.BatchItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	batchQuery := `
		INSERT INTO batches (batch_id, tenant_id, submitted_by, created_at)
		VALUES ($1, $2, $3, $4);
	`
	if _, err := tx.Exec(ctx, batchQuery, batch.BatchID, batch.TenantID, batch.SubmittedBy, batch.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	itemQuery := `
		INSERT INTO batch_items (` + batchItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	for _, item := range items {
		m := toModelBatchItem(item)
		if _, err := tx.Exec(ctx, itemQuery,
			m.ItemID,
			m.BatchID,
			m.TenantID,
			m.InvoiceID,
			m.IdempotencyKey,
			m.Status,
			m.Attempts,
			m.ClaimOwner,
			m.LeaseExpiresAt,
			m.Action,
			m.ExpenseID,
			m.PendingAssignmentID,
			m.ErrorReason,
			m.CreatedAt,
			m.LastUpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert batch item for invoice %s: %w", item.InvoiceID, err)
		}
	}

	return r.Commit(ctx, tx)
}

func (r *PgxBatchRepository) FindBatchByID(ctx context.Context, tenantID, batchID string) (*domain.Batch, error) {
	query := `
		SELECT batch_id, tenant_id, submitted_by, created_at
		FROM batches
		WHERE tenant_id = $1 AND batch_id = $2;
	`
	var m models.Batch
	err := r.Pool.QueryRow(ctx, query, tenantID, batchID).Scan(&m.BatchID, &m.TenantID, &m.SubmittedBy, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find batch by ID %s: %w", batchID, err)
	}
	return &domain.Batch{
		BatchID:     m.BatchID,
		TenantID:    m.TenantID,
		SubmittedBy: m.SubmittedBy,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// ClaimNextItem claims one item with a single conditional UPDATE over a
// SKIP LOCKED subselect, so concurrent workers never grab the same row. An
// expired lease makes a processing item claimable again.
func (r *PgxBatchRepository) ClaimNextItem(ctx context.Context, batchID, owner string, leaseUntil time.Time, maxAttempts int) (*domain.BatchItem, error) {
	query := `
		UPDATE batch_items
		SET status = 'processing', claim_owner = $1, lease_expires_at = $2, attempts = attempts + 1, last_updated_at = now()
		WHERE item_id = (
			SELECT item_id
			FROM batch_items
			WHERE batch_id = $3
			  AND attempts < $4
			  AND (status = 'queued' OR (status = 'processing' AND lease_expires_at < now()))
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + batchItemColumns + `;
	`
	m, err := scanBatchItem(r.Pool.QueryRow(ctx, query, owner, leaseUntil, batchID, maxAttempts))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // nothing claimable
		}
		return nil, fmt.Errorf("failed to claim batch item: %w", err)
	}
	d := toDomainBatchItem(*m)
	return &d, nil
}

func (r *PgxBatchRepository) CompleteItem(ctx context.Context, itemID string, outcome domain.MatchOutcome) error {
	var expenseID, pendingID *string
	if outcome.ExpenseID != "" {
		expenseID = &outcome.ExpenseID
	}
	if outcome.PendingAssignmentID != "" {
		pendingID = &outcome.PendingAssignmentID
	}
	query := `
		UPDATE batch_items
		SET status = 'completed', action = $1, expense_id = $2, pending_assignment_id = $3,
		    claim_owner = NULL, lease_expires_at = NULL, last_updated_at = now()
		WHERE item_id = $4;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, string(outcome.Action), expenseID, pendingID, itemID)
	if err != nil {
		return fmt.Errorf("failed to complete batch item %s: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("batch item not found: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxBatchRepository) FailItem(ctx context.Context, itemID string, reason string) error {
	query := `
		UPDATE batch_items
		SET status = 'error', error_reason = $1, claim_owner = NULL, lease_expires_at = NULL, last_updated_at = now()
		WHERE item_id = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, reason, itemID)
	if err != nil {
		return fmt.Errorf("failed to mark batch item %s as error: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("batch item not found: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxBatchRepository) ReleaseItem(ctx context.Context, itemID string) error {
	query := `
		UPDATE batch_items
		SET status = 'queued', claim_owner = NULL, lease_expires_at = NULL, last_updated_at = now()
		WHERE item_id = $1 AND status = 'processing';
	`
	if _, err := r.Pool.Exec(ctx, query, itemID); err != nil {
		return fmt.Errorf("failed to release batch item %s: %w", itemID, err)
	}
	return nil
}

func (r *PgxBatchRepository) FailExhaustedItems(ctx context.Context, batchID string, maxAttempts int, reason string) (int, error) {
	query := `
		UPDATE batch_items
		SET status = 'error', error_reason = $1, claim_owner = NULL, lease_expires_at = NULL, last_updated_at = now()
		WHERE batch_id = $2
		  AND status NOT IN ('completed', 'error')
		  AND attempts >= $3;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, reason, batchID, maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("failed to fail exhausted batch items: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

// FindTerminalOutcomeByKey returns the most recent terminal item anywhere in
// the tenant's history for the idempotency key.
func (r *PgxBatchRepository) FindTerminalOutcomeByKey(ctx context.Context, tenantID, idempotencyKey string) (*domain.BatchItem, error) {
	query := `
		SELECT ` + batchItemColumns + `
		FROM batch_items
		WHERE tenant_id = $1
		  AND idempotency_key = $2
		  AND status IN ('completed', 'error')
		ORDER BY last_updated_at DESC
		LIMIT 1;
	`
	m, err := scanBatchItem(r.Pool.QueryRow(ctx, query, tenantID, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find terminal outcome for key: %w", err)
	}
	d := toDomainBatchItem(*m)
	return &d, nil
}

// FindUnfinishedBatches returns batches still holding queued or processing
// items, oldest first, so the startup sweep drains them in submission order.
func (r *PgxBatchRepository) FindUnfinishedBatches(ctx context.Context) ([]domain.Batch, error) {
	query := `
		SELECT DISTINCT b.batch_id, b.tenant_id, b.submitted_by, b.created_at
		FROM batches b
		JOIN batch_items i ON i.batch_id = b.batch_id
		WHERE i.status NOT IN ('completed', 'error')
		ORDER BY b.created_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unfinished batches: %w", err)
	}
	defer rows.Close()

	batches := []domain.Batch{}
	for rows.Next() {
		var m models.Batch
		if err := rows.Scan(&m.BatchID, &m.TenantID, &m.SubmittedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}
		batches = append(batches, domain.Batch{
			BatchID:     m.BatchID,
			TenantID:    m.TenantID,
			SubmittedBy: m.SubmittedBy,
			CreatedAt:   m.CreatedAt,
		})
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating batch rows: %w", rows.Err())
	}
	return batches, nil
}

func (r *PgxBatchRepository) ListItems(ctx context.Context, tenantID, batchID string) ([]domain.BatchItem, error) {
	query := `
		SELECT ` + batchItemColumns + `
		FROM batch_items
		WHERE tenant_id = $1 AND batch_id = $2
		ORDER BY created_at ASC, item_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch items: %w", err)
	}
	defer rows.Close()

	items := []domain.BatchItem{}
	for rows.Next() {
		m, err := scanBatchItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch item row: %w", err)
		}
		items = append(items, toDomainBatchItem(*m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating batch item rows: %w", rows.Err())
	}
	return items, nil
}
