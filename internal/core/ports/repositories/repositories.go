package repositories

// RepositoryProvider bundles all repository implementations for injection
// into the service container.
type RepositoryProvider struct {
	InvoiceRepo     InvoiceRepository
	ExpenseRepo     ExpenseRepository
	PendingRepo     PendingAssignmentRepository
	BatchRepo       BatchRepository
	AuditRepo       MatchAuditLogRepository
	InstallmentRepo InstallmentPlanRepository
}
