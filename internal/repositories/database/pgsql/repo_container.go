package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgx repository against the shared pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		InvoiceRepo:     newPgxInvoiceRepository(dbPool),
		ExpenseRepo:     newPgxExpenseRepository(dbPool),
		PendingRepo:     newPgxPendingAssignmentRepository(dbPool),
		BatchRepo:       newPgxBatchRepository(dbPool),
		AuditRepo:       newPgxMatchAuditLogRepository(dbPool),
		InstallmentRepo: newPgxInstallmentPlanRepository(dbPool),
	}
}
