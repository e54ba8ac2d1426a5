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
	"github.com/contaclara/recon_backend/internal/middleware"
	"github.com/contaclara/recon_backend/internal/utils/pagination"
)

const defaultPendingPageSize = 20

// pendingService exposes the manual-resolution queue: listing, resolution and
// rejection, all idempotent and audit-logged.
type pendingService struct {
	pendingRepo portsrepo.PendingAssignmentRepository
	expenseRepo portsrepo.ExpenseRepository
	invoiceRepo portsrepo.InvoiceRepository
	auditRepo   portsrepo.MatchAuditLogRepository
}

// NewPendingService creates the pending assignment queue service.
func NewPendingService(
	pendingRepo portsrepo.PendingAssignmentRepository,
	expenseRepo portsrepo.ExpenseRepository,
	invoiceRepo portsrepo.InvoiceRepository,
	auditRepo portsrepo.MatchAuditLogRepository,
) portssvc.PendingSvcFacade {
	return &pendingService{
		pendingRepo: pendingRepo,
		expenseRepo: expenseRepo,
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
	}
}

var _ portssvc.PendingSvcFacade = (*pendingService)(nil)

// ListPending returns open assignments newest first with cursor pagination.
func (s *pendingService) ListPending(ctx context.Context, tenantID string, limit int, cursor string) ([]domain.PendingAssignment, string, error) {
	if limit <= 0 {
		limit = defaultPendingPageSize
	}

	before := time.Time{}
	beforeID := ""
	if cursor != "" {
		decoded, decodedID, err := pagination.DecodeKeysetToken(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		before, beforeID = decoded, decodedID
	}

	assignments, err := s.pendingRepo.ListPending(ctx, tenantID, limit+1, before, beforeID)
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(assignments) > limit {
		assignments = assignments[:limit]
		last := assignments[limit-1]
		nextCursor = pagination.EncodeKeysetToken(last.CreatedAt, last.AssignmentID)
	}
	return assignments, nextCursor, nil
}

// Resolve links the human's chosen candidate and closes the assignment.
// Resolving an already-resolved assignment returns the prior result rather
// than re-mutating state.
func (s *pendingService) Resolve(ctx context.Context, tenantID, assignmentID, resolverID, chosenExpenseID string) (*domain.PendingAssignment, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("assignment_id", assignmentID))

	assignment, err := s.pendingRepo.FindAssignmentByID(ctx, tenantID, assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.Status != domain.AssignmentNeedsManual {
		logger.Info("Assignment already closed, returning prior result", slog.String("status", string(assignment.Status)))
		return assignment, nil
	}

	if !assignment.HasCandidate(chosenExpenseID) {
		return nil, fmt.Errorf("%w: expense %s is not a candidate of assignment %s", apperrors.ErrValidation, chosenExpenseID, assignmentID)
	}

	if err := s.expenseRepo.LinkInvoice(ctx, tenantID, chosenExpenseID, assignment.InvoiceID); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: expense %s was linked to another invoice in the meantime", apperrors.ErrConflict, chosenExpenseID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.pendingRepo.CloseAssignment(ctx, tenantID, assignmentID, domain.AssignmentResolved, &chosenExpenseID, resolverID, nil, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Another resolver closed it between our read and write; return
			// what they decided.
			logger.Info("Assignment closed concurrently, returning prior result")
			return s.pendingRepo.FindAssignmentByID(ctx, tenantID, assignmentID)
		}
		return nil, err
	}

	s.auditResolution(ctx, tenantID, assignment, "manual_resolved", &chosenExpenseID, resolverID, nil)
	logger.Info("Assignment resolved",
		slog.String("expense_id", chosenExpenseID),
		slog.String("resolver_id", resolverID),
	)

	return s.pendingRepo.FindAssignmentByID(ctx, tenantID, assignmentID)
}

// Reject closes the assignment and runs the auto-create path, as if the
// candidate finder had come back empty.
func (s *pendingService) Reject(ctx context.Context, tenantID, assignmentID, resolverID, reason string) (*domain.MatchOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("assignment_id", assignmentID))

	assignment, err := s.pendingRepo.FindAssignmentByID(ctx, tenantID, assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.Status != domain.AssignmentNeedsManual {
		// Idempotent: reconstruct the prior outcome for a repeated reject.
		logger.Info("Assignment already closed, returning prior outcome", slog.String("status", string(assignment.Status)))
		return s.outcomeForClosed(ctx, tenantID, assignment)
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, tenantID, assignment.InvoiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.pendingRepo.CloseAssignment(ctx, tenantID, assignmentID, domain.AssignmentRejected, nil, resolverID, &reason, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			refreshed, ferr := s.pendingRepo.FindAssignmentByID(ctx, tenantID, assignmentID)
			if ferr != nil {
				return nil, ferr
			}
			return s.outcomeForClosed(ctx, tenantID, refreshed)
		}
		return nil, err
	}

	expense := newExpenseFromInvoice(tenantID, *invoice, now)
	if err := s.expenseRepo.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	outcome := &domain.MatchOutcome{
		Action:    domain.ActionAutoCreated,
		InvoiceID: assignment.InvoiceID,
		ExpenseID: expense.ExpenseID,
		Scores:    domain.MatchScores{ConceptMethod: domain.ConceptNotApplicable},
	}
	s.auditResolution(ctx, tenantID, assignment, "manual_rejected", &expense.ExpenseID, resolverID, &reason)
	logger.Info("Assignment rejected, expense auto-created",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("resolver_id", resolverID),
	)
	return outcome, nil
}

// outcomeForClosed rebuilds the outcome a closed assignment produced.
func (s *pendingService) outcomeForClosed(ctx context.Context, tenantID string, assignment *domain.PendingAssignment) (*domain.MatchOutcome, error) {
	linked, err := s.expenseRepo.FindByLinkedInvoiceID(ctx, tenantID, assignment.InvoiceID)
	if err != nil {
		return nil, err
	}
	outcome := &domain.MatchOutcome{
		InvoiceID: assignment.InvoiceID,
		Scores:    domain.MatchScores{ConceptMethod: domain.ConceptNotApplicable},
	}
	switch assignment.Status {
	case domain.AssignmentResolved:
		outcome.Action = domain.ActionAutoMatched
		if assignment.ChosenExpenseID != nil {
			outcome.ExpenseID = *assignment.ChosenExpenseID
		}
	case domain.AssignmentRejected:
		outcome.Action = domain.ActionAutoCreated
		if linked != nil {
			outcome.ExpenseID = linked.ExpenseID
		}
	default:
		outcome.Action = domain.ActionPendingReview
		outcome.PendingAssignmentID = assignment.AssignmentID
	}
	return outcome, nil
}

func (s *pendingService) auditResolution(ctx context.Context, tenantID string, assignment *domain.PendingAssignment, action string, expenseID *string, performedBy string, reason *string) {
	entry := domain.MatchAuditLog{
		AuditID:        uuid.NewString(),
		TenantID:       tenantID,
		InvoiceID:      assignment.InvoiceID,
		ExpenseID:      expenseID,
		Action:         action,
		ConceptMethod:  domain.ConceptNotApplicable,
		CandidateCount: len(assignment.Candidates),
		PerformedBy:    performedBy,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.auditRepo.AppendAuditLog(ctx, entry); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to append resolution audit log",
			slog.String("assignment_id", assignment.AssignmentID),
			slog.String("error", err.Error()),
		)
	}
}
