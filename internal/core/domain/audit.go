package domain

import "time"

// SystemActor is recorded as the performer of automatic decisions.
const SystemActor = "system"

// MatchAuditLog is one append-only record of a reconciliation decision,
// automatic or manual, with the scores behind it. Kept for tuning and
// dispute resolution; never updated or deleted.
type MatchAuditLog struct {
	AuditID        string        `json:"auditID"`
	TenantID       string        `json:"tenantID"`
	InvoiceID      string        `json:"invoiceID"`
	ExpenseID      *string       `json:"expenseID,omitempty"`
	Action         string        `json:"action"`
	IdentityScore  int           `json:"identityScore"`
	ConceptScore   *int          `json:"conceptScore,omitempty"`
	ConceptMethod  ConceptMethod `json:"conceptMethod"`
	FinalScore     int           `json:"finalScore"`
	CandidateCount int           `json:"candidateCount"`
	PerformedBy    string        `json:"performedBy"`
	Reason         *string       `json:"reason,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}
