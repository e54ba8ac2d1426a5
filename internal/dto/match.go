package dto

import "github.com/contaclara/recon_backend/internal/core/domain"

// MatchScoresResponse carries the component scores behind a decision.
type MatchScoresResponse struct {
	Identity      int    `json:"identity"`
	Concept       *int   `json:"concept,omitempty"`
	ConceptMethod string `json:"conceptMethod"`
	Final         int    `json:"final"`
}

// MatchOutcomeResponse defines the data returned for one reconciliation decision.
type MatchOutcomeResponse struct {
	Action              string              `json:"action"`
	InvoiceID           string              `json:"invoiceID"`
	ExpenseID           string              `json:"expenseID,omitempty"`
	PendingAssignmentID string              `json:"pendingAssignmentID,omitempty"`
	Scores              MatchScoresResponse `json:"scores"`
}

// ToMatchOutcomeResponse converts a domain.MatchOutcome to MatchOutcomeResponse DTO
func ToMatchOutcomeResponse(o *domain.MatchOutcome) MatchOutcomeResponse {
	return MatchOutcomeResponse{
		Action:              string(o.Action),
		InvoiceID:           o.InvoiceID,
		ExpenseID:           o.ExpenseID,
		PendingAssignmentID: o.PendingAssignmentID,
		Scores: MatchScoresResponse{
			Identity:      o.Scores.Identity,
			Concept:       o.Scores.Concept,
			ConceptMethod: string(o.Scores.ConceptMethod),
			Final:         o.Scores.Final,
		},
	}
}
