package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	"github.com/contaclara/recon_backend/internal/models"
)

type PgxMatchAuditLogRepository struct {
	db *pgxpool.Pool
}

func newPgxMatchAuditLogRepository(db *pgxpool.Pool) portsrepo.MatchAuditLogRepository {
	return &PgxMatchAuditLogRepository{db: db}
}

// Ensure PgxMatchAuditLogRepository implements portsrepo.MatchAuditLogRepository
var _ portsrepo.MatchAuditLogRepository = (*PgxMatchAuditLogRepository)(nil)

func toModelAuditLog(d domain.MatchAuditLog) models.MatchAuditLog {
	return models.MatchAuditLog{
		AuditID:        d.AuditID,
		TenantID:       d.TenantID,
		InvoiceID:      d.InvoiceID,
		ExpenseID:      d.ExpenseID,
		Action:         d.Action,
		IdentityScore:  d.IdentityScore,
		ConceptScore:   d.ConceptScore,
		ConceptMethod:  string(d.ConceptMethod),
		FinalScore:     d.FinalScore,
		CandidateCount: d.CandidateCount,
		PerformedBy:    d.PerformedBy,
		Reason:         d.Reason,
		CreatedAt:      d.CreatedAt,
	}
}

// AppendAuditLog inserts one decision record. The table is append-only; there
// are no update or delete paths.
func (r *PgxMatchAuditLogRepository) AppendAuditLog(ctx context.Context, entry domain.MatchAuditLog) error {
	m := toModelAuditLog(entry)
	query := `
		INSERT INTO match_audit_logs (audit_id, tenant_id, invoice_id, expense_id, action, identity_score,
			concept_score, concept_method, final_score, candidate_count, performed_by, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db.Exec(ctx, query,
		m.AuditID,
		m.TenantID,
		m.InvoiceID,
		m.ExpenseID,
		m.Action,
		m.IdentityScore,
		m.ConceptScore,
		m.ConceptMethod,
		m.FinalScore,
		m.CandidateCount,
		m.PerformedBy,
		m.Reason,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}
