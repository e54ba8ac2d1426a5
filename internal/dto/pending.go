package dto

import (
	"time"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// AssignmentCandidateResponse is one scored candidate in a queue entry.
type AssignmentCandidateResponse struct {
	ExpenseID string `json:"expenseID"`
	Score     int    `json:"score"`
}

// PendingAssignmentResponse defines the data returned for a queue entry.
type PendingAssignmentResponse struct {
	AssignmentID    string                        `json:"assignmentID"`
	InvoiceID       string                        `json:"invoiceID"`
	Candidates      []AssignmentCandidateResponse `json:"candidates"`
	Status          string                        `json:"status"`
	ChosenExpenseID *string                       `json:"chosenExpenseID,omitempty"`
	ResolvedBy      *string                       `json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time                    `json:"resolvedAt,omitempty"`
	ResolutionNote  *string                       `json:"resolutionNote,omitempty"`
	CreatedAt       time.Time                     `json:"createdAt"`
}

// ListPendingResponse wraps a page of queue entries with the next cursor.
type ListPendingResponse struct {
	Assignments []PendingAssignmentResponse `json:"assignments"`
	NextCursor  string                      `json:"nextCursor,omitempty"`
}

// ResolveAssignmentRequest defines the data needed to resolve a queue entry.
type ResolveAssignmentRequest struct {
	ExpenseID  string `json:"expenseID" binding:"required"`
	ResolvedBy string `json:"resolvedBy" binding:"required"`
}

// RejectAssignmentRequest defines the data needed to reject a queue entry.
type RejectAssignmentRequest struct {
	ResolvedBy string `json:"resolvedBy" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// ToPendingAssignmentResponse converts a domain.PendingAssignment to its DTO
func ToPendingAssignmentResponse(a *domain.PendingAssignment) PendingAssignmentResponse {
	candidates := make([]AssignmentCandidateResponse, len(a.Candidates))
	for i, c := range a.Candidates {
		candidates[i] = AssignmentCandidateResponse{ExpenseID: c.ExpenseID, Score: c.Score}
	}
	return PendingAssignmentResponse{
		AssignmentID:    a.AssignmentID,
		InvoiceID:       a.InvoiceID,
		Candidates:      candidates,
		Status:          string(a.Status),
		ChosenExpenseID: a.ChosenExpenseID,
		ResolvedBy:      a.ResolvedBy,
		ResolvedAt:      a.ResolvedAt,
		ResolutionNote:  a.ResolutionNote,
		CreatedAt:       a.CreatedAt,
	}
}

// ToListPendingResponse converts a page of assignments plus cursor to the DTO
func ToListPendingResponse(assignments []domain.PendingAssignment, nextCursor string) ListPendingResponse {
	res := make([]PendingAssignmentResponse, len(assignments))
	for i, a := range assignments {
		res[i] = ToPendingAssignmentResponse(&a)
	}
	return ListPendingResponse{Assignments: res, NextCursor: nextCursor}
}
