package services

import (
	"log/slog"

	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/matching"
)

// NewServiceContainer wires every service with its repositories and returns
// the container handed to the handlers. comparator may be nil when no
// semantic oracle is configured.
func NewServiceContainer(
	repos *portsrepo.RepositoryProvider,
	comparator portssvc.SemanticComparator,
	matchCfg matching.Config,
	batchCfg BatchConfig,
	cacheSize int,
	logger *slog.Logger,
) *portssvc.ServiceContainer {
	scorer := NewConceptScorer(matchCfg, comparator, cacheSize)
	matcher := NewMatcherService(repos.InvoiceRepo, repos.ExpenseRepo, repos.PendingRepo, repos.AuditRepo, scorer, matchCfg)

	return &portssvc.ServiceContainer{
		Matcher:     matcher,
		Pending:     NewPendingService(repos.PendingRepo, repos.ExpenseRepo, repos.InvoiceRepo, repos.AuditRepo),
		Batch:       NewBatchService(repos.BatchRepo, matcher, batchCfg, logger),
		Installment: NewInstallmentService(repos.InvoiceRepo, repos.ExpenseRepo, repos.InstallmentRepo, repos.AuditRepo, matchCfg),
		Invoice:     NewInvoiceService(repos.InvoiceRepo),
	}
}
