package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	"github.com/contaclara/recon_backend/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

type PgxPendingAssignmentRepository struct {
	db *pgxpool.Pool
}

func newPgxPendingAssignmentRepository(db *pgxpool.Pool) portsrepo.PendingAssignmentRepository {
	return &PgxPendingAssignmentRepository{db: db}
}

// Ensure PgxPendingAssignmentRepository implements portsrepo.PendingAssignmentRepository
var _ portsrepo.PendingAssignmentRepository = (*PgxPendingAssignmentRepository)(nil)

func toModelAssignment(d domain.PendingAssignment) models.PendingAssignment {
	candidates := make([]models.AssignmentCandidate, len(d.Candidates))
	for i, c := range d.Candidates {
		candidates[i] = models.AssignmentCandidate{ExpenseID: c.ExpenseID, Score: c.Score}
	}
	return models.PendingAssignment{
		AssignmentID:    d.AssignmentID,
		TenantID:        d.TenantID,
		InvoiceID:       d.InvoiceID,
		Candidates:      candidates,
		Status:          string(d.Status),
		ChosenExpenseID: d.ChosenExpenseID,
		ResolvedBy:      d.ResolvedBy,
		ResolvedAt:      d.ResolvedAt,
		ResolutionNote:  d.ResolutionNote,
		CreatedAt:       d.CreatedAt,
	}
}

func toDomainAssignment(m models.PendingAssignment) domain.PendingAssignment {
	candidates := make([]domain.AssignmentCandidate, len(m.Candidates))
	for i, c := range m.Candidates {
		candidates[i] = domain.AssignmentCandidate{ExpenseID: c.ExpenseID, Score: c.Score}
	}
	return domain.PendingAssignment{
		AssignmentID:    m.AssignmentID,
		TenantID:        m.TenantID,
		InvoiceID:       m.InvoiceID,
		Candidates:      candidates,
		Status:          domain.AssignmentStatus(m.Status),
		ChosenExpenseID: m.ChosenExpenseID,
		ResolvedBy:      m.ResolvedBy,
		ResolvedAt:      m.ResolvedAt,
		ResolutionNote:  m.ResolutionNote,
		CreatedAt:       m.CreatedAt,
	}
}

const assignmentColumns = `assignment_id, tenant_id, invoice_id, candidates, status,
	chosen_expense_id, resolved_by, resolved_at, resolution_note, created_at`

func scanAssignment(row pgx.Row) (*models.PendingAssignment, error) {
	var m models.PendingAssignment
	var candidatesRaw []byte
	err := row.Scan(
		&m.AssignmentID,
		&m.TenantID,
		&m.InvoiceID,
		&candidatesRaw,
		&m.Status,
		&m.ChosenExpenseID,
		&m.ResolvedBy,
		&m.ResolvedAt,
		&m.ResolutionNote,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Candidates, err = candidatesFromJSON(candidatesRaw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateAssignment inserts the queue entry. A partial unique index allows only
// one open assignment per invoice; on violation the existing entry is returned.
func (r *PgxPendingAssignmentRepository) CreateAssignment(ctx context.Context, assignment domain.PendingAssignment) (*domain.PendingAssignment, error) {
	m := toModelAssignment(assignment)
	candidatesRaw, err := candidatesToJSON(m.Candidates)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO pending_assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = r.db.Exec(ctx, query,
		m.AssignmentID,
		m.TenantID,
		m.InvoiceID,
		candidatesRaw,
		m.Status,
		m.ChosenExpenseID,
		m.ResolvedBy,
		m.ResolvedAt,
		m.ResolutionNote,
		m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			existing, ferr := r.FindOpenByInvoiceID(ctx, assignment.TenantID, assignment.InvoiceID)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create pending assignment: %w", err)
	}

	created := toDomainAssignment(m)
	return &created, nil
}

func (r *PgxPendingAssignmentRepository) FindAssignmentByID(ctx context.Context, tenantID, assignmentID string) (*domain.PendingAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM pending_assignments
		WHERE tenant_id = $1 AND assignment_id = $2;
	`
	m, err := scanAssignment(r.db.QueryRow(ctx, query, tenantID, assignmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find assignment by ID %s: %w", assignmentID, err)
	}
	d := toDomainAssignment(*m)
	return &d, nil
}

func (r *PgxPendingAssignmentRepository) FindOpenByInvoiceID(ctx context.Context, tenantID, invoiceID string) (*domain.PendingAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM pending_assignments
		WHERE tenant_id = $1 AND invoice_id = $2 AND status = 'needs_manual_assignment';
	`
	m, err := scanAssignment(r.db.QueryRow(ctx, query, tenantID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open assignment for invoice %s: %w", invoiceID, err)
	}
	d := toDomainAssignment(*m)
	return &d, nil
}

// ListPending pages with a (created_at, assignment_id) keyset so assignments
// created in the same instant are not dropped between pages.
func (r *PgxPendingAssignmentRepository) ListPending(ctx context.Context, tenantID string, limit int, before time.Time, beforeID string) ([]domain.PendingAssignment, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT ` + assignmentColumns + `
		FROM pending_assignments
		WHERE tenant_id = $1
		  AND status = 'needs_manual_assignment'
		  AND ($2::timestamptz IS NULL OR created_at < $2 OR (created_at = $2 AND assignment_id < $3))
		ORDER BY created_at DESC, assignment_id DESC
		LIMIT $4;
	`
	var beforeArg *time.Time
	if !before.IsZero() {
		beforeArg = &before
	}
	rows, err := r.db.Query(ctx, query, tenantID, beforeArg, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending assignments: %w", err)
	}
	defer rows.Close()

	assignments := []domain.PendingAssignment{}
	for rows.Next() {
		m, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		assignments = append(assignments, toDomainAssignment(*m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating assignment rows: %w", rows.Err())
	}
	return assignments, nil
}

// CloseAssignment performs the single allowed mutation, guarded by the open
// status. A second closer gets ErrConflict, not a silent overwrite.
func (r *PgxPendingAssignmentRepository) CloseAssignment(ctx context.Context, tenantID, assignmentID string, status domain.AssignmentStatus, chosenExpenseID *string, resolvedBy string, note *string, now time.Time) error {
	query := `
		UPDATE pending_assignments
		SET status = $1, chosen_expense_id = $2, resolved_by = $3, resolution_note = $4, resolved_at = $5
		WHERE tenant_id = $6 AND assignment_id = $7 AND status = 'needs_manual_assignment';
	`
	cmdTag, err := r.db.Exec(ctx, query, string(status), chosenExpenseID, resolvedBy, note, now, tenantID, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to close assignment %s: %w", assignmentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, ferr := r.FindAssignmentByID(ctx, tenantID, assignmentID); ferr != nil {
			return ferr
		}
		return fmt.Errorf("%w: assignment %s is already closed", apperrors.ErrConflict, assignmentID)
	}
	return nil
}
