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

type PgxInstallmentPlanRepository struct {
	db *pgxpool.Pool
}

func newPgxInstallmentPlanRepository(db *pgxpool.Pool) portsrepo.InstallmentPlanRepository {
	return &PgxInstallmentPlanRepository{db: db}
}

// Ensure PgxInstallmentPlanRepository implements portsrepo.InstallmentPlanRepository
var _ portsrepo.InstallmentPlanRepository = (*PgxInstallmentPlanRepository)(nil)

func toModelPlan(d domain.InstallmentPlan) models.InstallmentPlan {
	return models.InstallmentPlan{
		PlanID:           d.PlanID,
		TenantID:         d.TenantID,
		InvoiceID:        d.InvoiceID,
		Months:           d.Months,
		MonthlyAmount:    d.MonthlyAmount,
		CandidateCharges: d.CandidateCharges,
		Confirmed:        d.Confirmed,
		DecidedBy:        d.DecidedBy,
		DecidedAt:        d.DecidedAt,
		CreatedAt:        d.CreatedAt,
	}
}

func toDomainPlan(m models.InstallmentPlan) domain.InstallmentPlan {
	return domain.InstallmentPlan{
		PlanID:           m.PlanID,
		TenantID:         m.TenantID,
		InvoiceID:        m.InvoiceID,
		Months:           m.Months,
		MonthlyAmount:    m.MonthlyAmount,
		CandidateCharges: m.CandidateCharges,
		Confirmed:        m.Confirmed,
		DecidedBy:        m.DecidedBy,
		DecidedAt:        m.DecidedAt,
		CreatedAt:        m.CreatedAt,
	}
}

const planColumns = `plan_id, tenant_id, invoice_id, months, monthly_amount, candidate_charges,
	confirmed, decided_by, decided_at, created_at`

func scanPlan(row pgx.Row) (*models.InstallmentPlan, error) {
	var m models.InstallmentPlan
	var chargesRaw []byte
	err := row.Scan(
		&m.PlanID,
		&m.TenantID,
		&m.InvoiceID,
		&m.Months,
		&m.MonthlyAmount,
		&chargesRaw,
		&m.Confirmed,
		&m.DecidedBy,
		&m.DecidedAt,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.CandidateCharges, err = chargesFromJSON(chargesRaw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveSuggestion upserts the undecided suggestion for an invoice. The
// confirmed IS NULL guard on the update keeps decided plans untouched.
func (r *PgxInstallmentPlanRepository) SaveSuggestion(ctx context.Context, plan domain.InstallmentPlan) (*domain.InstallmentPlan, error) {
	m := toModelPlan(plan)
	chargesRaw, err := chargesToJSON(m.CandidateCharges)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO installment_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, invoice_id) DO UPDATE SET
			months = EXCLUDED.months,
			monthly_amount = EXCLUDED.monthly_amount,
			candidate_charges = EXCLUDED.candidate_charges
		WHERE installment_plans.confirmed IS NULL;
	`
	_, err = r.db.Exec(ctx, query,
		m.PlanID,
		m.TenantID,
		m.InvoiceID,
		m.Months,
		m.MonthlyAmount,
		chargesRaw,
		m.Confirmed,
		m.DecidedBy,
		m.DecidedAt,
		m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save installment plan suggestion: %w", err)
	}

	return r.FindPlanByInvoiceID(ctx, plan.TenantID, plan.InvoiceID)
}

func (r *PgxInstallmentPlanRepository) FindPlanByInvoiceID(ctx context.Context, tenantID, invoiceID string) (*domain.InstallmentPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM installment_plans
		WHERE tenant_id = $1 AND invoice_id = $2;
	`
	m, err := scanPlan(r.db.QueryRow(ctx, query, tenantID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find installment plan for invoice %s: %w", invoiceID, err)
	}
	d := toDomainPlan(*m)
	return &d, nil
}

// DecidePlan records the human decision, guarded by confirmed IS NULL.
func (r *PgxInstallmentPlanRepository) DecidePlan(ctx context.Context, tenantID, invoiceID string, confirmed bool, decidedBy string, now time.Time) error {
	query := `
		UPDATE installment_plans
		SET confirmed = $1, decided_by = $2, decided_at = $3
		WHERE tenant_id = $4 AND invoice_id = $5 AND confirmed IS NULL;
	`
	cmdTag, err := r.db.Exec(ctx, query, confirmed, decidedBy, now, tenantID, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to decide installment plan for invoice %s: %w", invoiceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, ferr := r.FindPlanByInvoiceID(ctx, tenantID, invoiceID); ferr != nil {
			return ferr
		}
		return fmt.Errorf("%w: installment plan for invoice %s is already decided", apperrors.ErrConflict, invoiceID)
	}
	return nil
}
