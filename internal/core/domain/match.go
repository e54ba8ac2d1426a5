package domain

import (
	"github.com/shopspring/decimal"
)

// MatchAction is the closed set of reconciliation outcomes. Callers are
// expected to switch over all three values.
type MatchAction string

const (
	ActionAutoMatched   MatchAction = "auto_matched"
	ActionAutoCreated   MatchAction = "auto_created"
	ActionPendingReview MatchAction = "pending_review"
)

// ConceptMethod records how the concept similarity score was produced.
type ConceptMethod string

const (
	// ConceptStringMatch: the cheap string score was conclusive on its own.
	ConceptStringMatch ConceptMethod = "string_match"
	// ConceptHybrid: the string score was ambiguous and the semantic oracle was blended in.
	ConceptHybrid ConceptMethod = "hybrid"
	// ConceptFallback: the oracle was needed but unavailable; the string score was used as-is.
	ConceptFallback ConceptMethod = "fallback"
	// ConceptNotApplicable: one or both sides carried no concepts; scoring was skipped.
	ConceptNotApplicable ConceptMethod = "not_applicable"
)

// MatchScores carries the component scores behind a decision. Concept is nil
// when concept scoring was not applicable.
type MatchScores struct {
	Identity      int           `json:"identity"`
	Concept       *int          `json:"concept,omitempty"`
	ConceptMethod ConceptMethod `json:"conceptMethod"`
	Final         int           `json:"final"`
}

// MatchOutcome is the result of evaluating one invoice. Exactly one of
// ExpenseID (auto_matched / auto_created) or PendingAssignmentID
// (pending_review) is populated.
type MatchOutcome struct {
	Action              MatchAction `json:"action"`
	InvoiceID           string      `json:"invoiceID"`
	ExpenseID           string      `json:"expenseID,omitempty"`
	PendingAssignmentID string      `json:"pendingAssignmentID,omitempty"`
	Scores              MatchScores `json:"scores"`
}

// MatchAttempt is the ephemeral scoring tuple for one (invoice, candidate)
// pair. Attempts are produced fresh per evaluation and only persisted as part
// of a pending assignment's candidate list or the audit trail.
type MatchAttempt struct {
	InvoiceID     string
	ExpenseID     string
	IdentityScore int
	AmountDiff    decimal.Decimal
	ConceptScore  *int
	ConceptMethod ConceptMethod
	FinalScore    int
}
