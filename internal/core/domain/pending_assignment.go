package domain

import "time"

// AssignmentStatus tracks a pending assignment through its single allowed
// mutation: a human resolution or rejection. Assignments are never deleted.
type AssignmentStatus string

const (
	AssignmentNeedsManual AssignmentStatus = "needs_manual_assignment"
	AssignmentResolved    AssignmentStatus = "resolved"
	AssignmentRejected    AssignmentStatus = "rejected"
)

// AssignmentCandidate is one surviving expense candidate with its combined score.
type AssignmentCandidate struct {
	ExpenseID string `json:"expenseID"`
	Score     int    `json:"score"`
}

// PendingAssignment is a durable record of an ambiguous match awaiting human
// decision. The candidate list is never empty: zero candidates is the
// auto-create path, not a queue entry.
type PendingAssignment struct {
	AssignmentID    string                `json:"assignmentID"`
	TenantID        string                `json:"tenantID"`
	InvoiceID       string                `json:"invoiceID"`
	Candidates      []AssignmentCandidate `json:"candidates"`
	Status          AssignmentStatus      `json:"status"`
	ChosenExpenseID *string               `json:"chosenExpenseID,omitempty"`
	ResolvedBy      *string               `json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time            `json:"resolvedAt,omitempty"`
	ResolutionNote  *string               `json:"resolutionNote,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// HasCandidate reports whether expenseID is in the candidate list.
func (p PendingAssignment) HasCandidate(expenseID string) bool {
	for _, c := range p.Candidates {
		if c.ExpenseID == expenseID {
			return true
		}
	}
	return false
}
