package services

import (
	"context"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// MatcherSvcFacade is the decision resolver: it evaluates one invoice against
// the expense store and produces exactly one of the three outcomes.
type MatcherSvcFacade interface {
	// MatchInvoice is idempotent: re-running an already reconciled invoice
	// returns the prior outcome instead of re-mutating state.
	MatchInvoice(ctx context.Context, tenantID, invoiceID string) (*domain.MatchOutcome, error)
}

// ConceptScorerSvc produces the hybrid concept similarity score. The method
// result tells callers whether the cheap string pass was conclusive, the
// semantic oracle was blended in, or scoring was skipped entirely.
type ConceptScorerSvc interface {
	ScoreConcepts(ctx context.Context, a, b []string) (score int, method domain.ConceptMethod)
}

// SemanticComparator rates the similarity of two already normalized concept
// texts from 0 to 100. Implementations call an external language model and
// are expected to be slow and fallible; callers must tolerate errors.
type SemanticComparator interface {
	CompareConcepts(ctx context.Context, a, b string) (int, error)
}

// InvoiceSvcFacade ingests parsed CFDI records into the read-only mirror.
type InvoiceSvcFacade interface {
	IngestInvoice(ctx context.Context, invoice domain.Invoice) error
	GetInvoice(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error)
}
