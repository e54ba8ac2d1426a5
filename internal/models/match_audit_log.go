package models

import "time"

// MatchAuditLog is the database model for the append-only match_audit_logs table.
type MatchAuditLog struct {
	AuditID        string    `db:"audit_id"`
	TenantID       string    `db:"tenant_id"`
	InvoiceID      string    `db:"invoice_id"`
	ExpenseID      *string   `db:"expense_id"`
	Action         string    `db:"action"`
	IdentityScore  int       `db:"identity_score"`
	ConceptScore   *int      `db:"concept_score"`
	ConceptMethod  string    `db:"concept_method"`
	FinalScore     int       `db:"final_score"`
	CandidateCount int       `db:"candidate_count"`
	PerformedBy    string    `db:"performed_by"`
	Reason         *string   `db:"reason"`
	CreatedAt      time.Time `db:"created_at"`
}
