package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/matching"
	"github.com/contaclara/recon_backend/internal/middleware"
)

// Identity scores: exact tax-id equality outranks a name-only match.
const (
	identityExactRFC = 100
	identityNameOnly = 80
)

// matcherService implements the three-way decision policy over the candidate
// finder and the hybrid concept scorer.
type matcherService struct {
	invoiceRepo portsrepo.InvoiceRepository
	expenseRepo portsrepo.ExpenseRepository
	pendingRepo portsrepo.PendingAssignmentRepository
	auditRepo   portsrepo.MatchAuditLogRepository
	scorer      portssvc.ConceptScorerSvc
	cfg         matching.Config
}

// NewMatcherService creates the match decision resolver.
func NewMatcherService(
	invoiceRepo portsrepo.InvoiceRepository,
	expenseRepo portsrepo.ExpenseRepository,
	pendingRepo portsrepo.PendingAssignmentRepository,
	auditRepo portsrepo.MatchAuditLogRepository,
	scorer portssvc.ConceptScorerSvc,
	cfg matching.Config,
) portssvc.MatcherSvcFacade {
	return &matcherService{
		invoiceRepo: invoiceRepo,
		expenseRepo: expenseRepo,
		pendingRepo: pendingRepo,
		auditRepo:   auditRepo,
		scorer:      scorer,
		cfg:         cfg,
	}
}

var _ portssvc.MatcherSvcFacade = (*matcherService)(nil)

// MatchInvoice evaluates one invoice and returns exactly one of the three
// outcomes. Idempotent: an invoice that already reached an outcome returns
// that outcome again without mutating anything.
func (s *matcherService) MatchInvoice(ctx context.Context, tenantID, invoiceID string) (*domain.MatchOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("invoice_id", invoiceID))

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.HasRequiredFields() {
		return nil, fmt.Errorf("%w: invoice %s is missing issuer RFC, total or issue date", apperrors.ErrValidation, invoiceID)
	}

	// Prior outcomes short-circuit: an expense already linked to this invoice
	// or an open queue entry means the decision was already made.
	if prior, err := s.priorOutcome(ctx, tenantID, invoice); err != nil {
		return nil, err
	} else if prior != nil {
		logger.Info("Invoice already reconciled, returning prior outcome", slog.String("action", string(prior.Action)))
		return prior, nil
	}

	return s.evaluate(ctx, tenantID, *invoice, true)
}

// priorOutcome reconstructs the outcome of an earlier evaluation, or nil.
func (s *matcherService) priorOutcome(ctx context.Context, tenantID string, invoice *domain.Invoice) (*domain.MatchOutcome, error) {
	linked, err := s.expenseRepo.FindByLinkedInvoiceID(ctx, tenantID, invoice.InvoiceID)
	if err != nil {
		return nil, err
	}
	if linked != nil {
		action := domain.ActionAutoMatched
		if linked.NeedsReview {
			action = domain.ActionAutoCreated
		}
		return &domain.MatchOutcome{
			Action:    action,
			InvoiceID: invoice.InvoiceID,
			ExpenseID: linked.ExpenseID,
			Scores:    domain.MatchScores{ConceptMethod: domain.ConceptNotApplicable},
		}, nil
	}

	open, err := s.pendingRepo.FindOpenByInvoiceID(ctx, tenantID, invoice.InvoiceID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return &domain.MatchOutcome{
			Action:              domain.ActionPendingReview,
			InvoiceID:           invoice.InvoiceID,
			PendingAssignmentID: open.AssignmentID,
			Scores:              domain.MatchScores{ConceptMethod: domain.ConceptNotApplicable},
		}, nil
	}
	return nil, nil
}

// evaluate runs the candidate search and decision policy. retryOnConflict
// allows exactly one re-evaluation against current state when the
// conditional link write loses a race to a concurrent evaluation.
func (s *matcherService) evaluate(ctx context.Context, tenantID string, invoice domain.Invoice, retryOnConflict bool) (*domain.MatchOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("invoice_id", invoice.InvoiceID))

	candidates, err := s.expenseRepo.FindCandidates(ctx, tenantID, invoice, s.cfg)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return s.autoCreate(ctx, tenantID, invoice)
	}

	attempts := make([]domain.MatchAttempt, 0, len(candidates))
	for _, cand := range candidates {
		attempts = append(attempts, s.scoreCandidate(ctx, invoice, cand))
	}

	// A single candidate with a dominant score auto-links. Multiple
	// candidates always queue: ambiguity is never resolved by "take the
	// closest".
	if len(attempts) == 1 && attempts[0].FinalScore >= s.cfg.AutoLinkThreshold {
		outcome, err := s.autoLink(ctx, tenantID, invoice, attempts[0])
		if err == nil {
			return outcome, nil
		}
		if errors.Is(err, apperrors.ErrConflict) && retryOnConflict {
			// Lost the race: the expense was linked by a concurrent
			// evaluation in the interim. Re-evaluate once against the
			// now-current state.
			logger.Warn("Lost link race, re-evaluating against current state")
			return s.evaluate(ctx, tenantID, invoice, false)
		}
		return nil, err
	}

	return s.queue(ctx, tenantID, invoice, attempts)
}

// scoreCandidate combines identity, amount/date proximity (already enforced by
// the finder) and the hybrid concept score into a final confidence.
func (s *matcherService) scoreCandidate(ctx context.Context, invoice domain.Invoice, cand domain.Expense) domain.MatchAttempt {
	identity := identityNameOnly
	if cand.CounterpartyRFC != nil && *cand.CounterpartyRFC == invoice.IssuerRFC {
		identity = identityExactRFC
	}

	attempt := domain.MatchAttempt{
		InvoiceID:     invoice.InvoiceID,
		ExpenseID:     cand.ExpenseID,
		IdentityScore: identity,
		AmountDiff:    invoice.Total.Sub(cand.Amount).Abs(),
		ConceptMethod: domain.ConceptNotApplicable,
	}

	final := identity
	conceptScore, method := s.scorer.ScoreConcepts(ctx, invoice.ConceptTexts(), cand.ConceptTexts())
	if method != domain.ConceptNotApplicable {
		score := conceptScore
		attempt.ConceptScore = &score
		attempt.ConceptMethod = method
		final += conceptBoost(conceptScore)
	}
	if final > 100 {
		final = 100
	}
	if final < 0 {
		final = 0
	}
	attempt.FinalScore = final
	return attempt
}

// conceptBoost adjusts the identity score by concept similarity. A score
// below 30 is a red flag: amount and identity matched but the described
// goods/services did not, which suggests a data error.
func conceptBoost(score int) int {
	switch {
	case score >= 70:
		return 15
	case score >= 50:
		return 10
	case score >= 30:
		return 5
	default:
		return -10
	}
}

// autoLink performs the one-shot conditional link write.
func (s *matcherService) autoLink(ctx context.Context, tenantID string, invoice domain.Invoice, attempt domain.MatchAttempt) (*domain.MatchOutcome, error) {
	if err := s.expenseRepo.LinkInvoice(ctx, tenantID, attempt.ExpenseID, invoice.InvoiceID); err != nil {
		return nil, err
	}

	outcome := &domain.MatchOutcome{
		Action:    domain.ActionAutoMatched,
		InvoiceID: invoice.InvoiceID,
		ExpenseID: attempt.ExpenseID,
		Scores: domain.MatchScores{
			Identity:      attempt.IdentityScore,
			Concept:       attempt.ConceptScore,
			ConceptMethod: attempt.ConceptMethod,
			Final:         attempt.FinalScore,
		},
	}
	s.audit(ctx, tenantID, outcome, attempt, 1, domain.SystemActor, nil)
	middleware.GetLoggerFromCtx(ctx).Info("Invoice auto-linked",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("expense_id", attempt.ExpenseID),
		slog.Int("final_score", attempt.FinalScore),
	)
	return outcome, nil
}

// autoCreate spawns a new expense pre-populated from the invoice. It carries
// no human-entered provenance, so it is always flagged for review.
func (s *matcherService) autoCreate(ctx context.Context, tenantID string, invoice domain.Invoice) (*domain.MatchOutcome, error) {
	expense := newExpenseFromInvoice(tenantID, invoice, time.Now().UTC())
	if err := s.expenseRepo.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	outcome := &domain.MatchOutcome{
		Action:    domain.ActionAutoCreated,
		InvoiceID: invoice.InvoiceID,
		ExpenseID: expense.ExpenseID,
		Scores:    domain.MatchScores{ConceptMethod: domain.ConceptNotApplicable},
	}
	s.audit(ctx, tenantID, outcome, domain.MatchAttempt{InvoiceID: invoice.InvoiceID, ExpenseID: expense.ExpenseID, ConceptMethod: domain.ConceptNotApplicable}, 0, domain.SystemActor, nil)
	middleware.GetLoggerFromCtx(ctx).Info("No candidates, expense auto-created",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("expense_id", expense.ExpenseID),
	)
	return outcome, nil
}

// queue writes a pending assignment with every surviving candidate's score.
func (s *matcherService) queue(ctx context.Context, tenantID string, invoice domain.Invoice, attempts []domain.MatchAttempt) (*domain.MatchOutcome, error) {
	candidates := make([]domain.AssignmentCandidate, 0, len(attempts))
	for _, a := range attempts {
		candidates = append(candidates, domain.AssignmentCandidate{ExpenseID: a.ExpenseID, Score: a.FinalScore})
	}

	assignment, err := s.pendingRepo.CreateAssignment(ctx, domain.PendingAssignment{
		AssignmentID: uuid.NewString(),
		TenantID:     tenantID,
		InvoiceID:    invoice.InvoiceID,
		Candidates:   candidates,
		Status:       domain.AssignmentNeedsManual,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	best := attempts[0]
	for _, a := range attempts {
		if a.FinalScore > best.FinalScore {
			best = a
		}
	}
	outcome := &domain.MatchOutcome{
		Action:              domain.ActionPendingReview,
		InvoiceID:           invoice.InvoiceID,
		PendingAssignmentID: assignment.AssignmentID,
		Scores: domain.MatchScores{
			Identity:      best.IdentityScore,
			Concept:       best.ConceptScore,
			ConceptMethod: best.ConceptMethod,
			Final:         best.FinalScore,
		},
	}
	s.audit(ctx, tenantID, outcome, best, len(attempts), domain.SystemActor, nil)
	middleware.GetLoggerFromCtx(ctx).Info("Invoice queued for manual assignment",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("assignment_id", assignment.AssignmentID),
		slog.Int("candidate_count", len(attempts)),
	)
	return outcome, nil
}

// audit appends the decision trail entry. Audit failures are logged, not
// propagated: the decision already happened.
func (s *matcherService) audit(ctx context.Context, tenantID string, outcome *domain.MatchOutcome, attempt domain.MatchAttempt, candidateCount int, performedBy string, reason *string) {
	entry := domain.MatchAuditLog{
		AuditID:        uuid.NewString(),
		TenantID:       tenantID,
		InvoiceID:      outcome.InvoiceID,
		Action:         string(outcome.Action),
		IdentityScore:  attempt.IdentityScore,
		ConceptScore:   attempt.ConceptScore,
		ConceptMethod:  attempt.ConceptMethod,
		FinalScore:     attempt.FinalScore,
		CandidateCount: candidateCount,
		PerformedBy:    performedBy,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}
	if outcome.ExpenseID != "" {
		expenseID := outcome.ExpenseID
		entry.ExpenseID = &expenseID
	}
	if err := s.auditRepo.AppendAuditLog(ctx, entry); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to append match audit log",
			slog.String("invoice_id", outcome.InvoiceID),
			slog.String("error", err.Error()),
		)
	}
}

// newExpenseFromInvoice pre-populates an expense from invoice fields for the
// auto-create path.
func newExpenseFromInvoice(tenantID string, invoice domain.Invoice, now time.Time) domain.Expense {
	rfc := invoice.IssuerRFC
	invoiceID := invoice.InvoiceID
	return domain.Expense{
		ExpenseID:        uuid.NewString(),
		TenantID:         tenantID,
		CounterpartyName: invoice.IssuerName,
		CounterpartyRFC:  &rfc,
		Amount:           invoice.Total,
		ExpenseDate:      invoice.IssueDate,
		PaymentMethod:    invoice.PaymentMethod,
		Concepts:         invoice.Concepts,
		LinkedInvoiceID:  &invoiceID,
		Status:           domain.ExpensePending,
		NeedsReview:      true,
		CreatedAt:        now,
		LastUpdatedAt:    now,
	}
}
