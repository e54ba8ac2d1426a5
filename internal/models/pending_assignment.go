package models

import "time"

// AssignmentCandidate is the JSONB shape of one candidate entry.
type AssignmentCandidate struct {
	ExpenseID string `json:"expenseID"`
	Score     int    `json:"score"`
}

// PendingAssignment is the database model for the pending_assignments table.
// Candidates is stored as a JSONB column.
type PendingAssignment struct {
	AssignmentID    string                `db:"assignment_id"`
	TenantID        string                `db:"tenant_id"`
	InvoiceID       string                `db:"invoice_id"`
	Candidates      []AssignmentCandidate `db:"candidates"`
	Status          string                `db:"status"`
	ChosenExpenseID *string               `db:"chosen_expense_id"`
	ResolvedBy      *string               `db:"resolved_by"`
	ResolvedAt      *time.Time            `db:"resolved_at"`
	ResolutionNote  *string               `db:"resolution_note"`
	CreatedAt       time.Time             `db:"created_at"`
}
