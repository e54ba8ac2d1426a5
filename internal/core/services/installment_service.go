package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portsrepo "github.com/contaclara/recon_backend/internal/core/ports/repositories"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/matching"
	"github.com/contaclara/recon_backend/internal/middleware"
)

// Terms offered by Mexican card issuers for MSI plans.
var installmentTerms = []int{3, 6, 9, 12, 18, 24}

// dayOfMonthSlack allows the recurring charge to post a few days off the
// invoice's day (weekends, cut-off dates).
const dayOfMonthSlack = 3

// graceMonths extends the search window past the nominal term; issuers
// sometimes post the first charge a cycle late.
const graceMonths = 1

// minChargesForSuggestion: a single charge is indistinguishable from an
// ordinary payment; at least two recurring charges are needed to suggest a plan.
const minChargesForSuggestion = 2

// installmentService detects MSI plans: one large card-paid invoice settled
// by a run of equal monthly charges. Detection reuses the candidate-finder
// primitives but never links anything; a human confirms or discards.
type installmentService struct {
	invoiceRepo     portsrepo.InvoiceRepository
	expenseRepo     portsrepo.ExpenseRepository
	installmentRepo portsrepo.InstallmentPlanRepository
	auditRepo       portsrepo.MatchAuditLogRepository
	cfg             matching.Config
}

// NewInstallmentService creates the MSI detector.
func NewInstallmentService(
	invoiceRepo portsrepo.InvoiceRepository,
	expenseRepo portsrepo.ExpenseRepository,
	installmentRepo portsrepo.InstallmentPlanRepository,
	auditRepo portsrepo.MatchAuditLogRepository,
	cfg matching.Config,
) portssvc.InstallmentSvcFacade {
	return &installmentService{
		invoiceRepo:     invoiceRepo,
		expenseRepo:     expenseRepo,
		installmentRepo: installmentRepo,
		auditRepo:       auditRepo,
		cfg:             cfg,
	}
}

var _ portssvc.InstallmentSvcFacade = (*installmentService)(nil)

// SuggestPlan searches for a recurring-charge sequence approximating the
// invoice total. Returns ErrNotFound when no plausible term is found.
func (s *installmentService) SuggestPlan(ctx context.Context, tenantID, invoiceID string) (*domain.InstallmentPlan, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("invoice_id", invoiceID))

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.PaymentMethod != domain.PaymentCard {
		return nil, fmt.Errorf("%w: installment detection applies to card-paid invoices only", apperrors.ErrValidation)
	}
	if invoice.Total.LessThan(s.cfg.MinInstallmentTotal) {
		return nil, fmt.Errorf("%w: invoice total %s is below the installment floor", apperrors.ErrValidation, invoice.Total.String())
	}

	// An already decided plan is sticky; re-suggesting would discard the
	// human's decision.
	if existing, err := s.installmentRepo.FindPlanByInvoiceID(ctx, tenantID, invoiceID); err == nil && existing.IsDecided() {
		return existing, nil
	}

	best := s.bestTerm(ctx, tenantID, *invoice)
	if best == nil {
		return nil, fmt.Errorf("%w: no recurring charge sequence found for invoice %s", apperrors.ErrNotFound, invoiceID)
	}

	plan, err := s.installmentRepo.SaveSuggestion(ctx, *best)
	if err != nil {
		return nil, err
	}
	logger.Info("Installment plan suggested",
		slog.Int("months", plan.Months),
		slog.String("monthly_amount", plan.MonthlyAmount.String()),
		slog.Int("charges_found", len(plan.CandidateCharges)),
	)
	return plan, nil
}

// bestTerm evaluates every offered term and keeps the one covering the most
// months of the schedule.
func (s *installmentService) bestTerm(ctx context.Context, tenantID string, invoice domain.Invoice) *domain.InstallmentPlan {
	logger := middleware.GetLoggerFromCtx(ctx)

	var best *domain.InstallmentPlan
	bestCoverage := 0.0

	for _, term := range installmentTerms {
		monthly := invoice.Total.DivRound(decimal.NewFromInt(int64(term)), 2)
		from := invoice.IssueDate.AddDate(0, 0, -dayOfMonthSlack)
		to := invoice.IssueDate.AddDate(0, term+graceMonths, dayOfMonthSlack)

		charges, err := s.expenseRepo.FindRecurringCharges(ctx, tenantID,
			invoice.IssuerRFC, invoice.IssuerName,
			monthly.Sub(s.cfg.AmountTolerance), monthly.Add(s.cfg.AmountTolerance),
			from, to)
		if err != nil {
			logger.Error("Recurring charge search failed", slog.Int("term", term), slog.String("error", err.Error()))
			continue
		}

		sequence := monthlySequence(invoice.IssueDate, term, charges)
		if len(sequence) < minChargesForSuggestion {
			continue
		}

		coverage := float64(len(sequence)) / float64(term)
		if coverage > bestCoverage {
			bestCoverage = coverage
			ids := make([]string, 0, len(sequence))
			for _, c := range sequence {
				ids = append(ids, c.ExpenseID)
			}
			best = &domain.InstallmentPlan{
				PlanID:           uuid.NewString(),
				TenantID:         tenantID,
				InvoiceID:        invoice.InvoiceID,
				Months:           term,
				MonthlyAmount:    monthly,
				CandidateCharges: ids,
				CreatedAt:        time.Now().UTC(),
			}
		}
	}
	return best
}

// monthlySequence picks at most one charge per schedule month, preferring the
// one closest to the invoice's day of month within the allowed slack.
func monthlySequence(issueDate time.Time, term int, charges []domain.Expense) []domain.Expense {
	var sequence []domain.Expense
	for month := 0; month < term+graceMonths; month++ {
		expected := issueDate.AddDate(0, month, 0)

		var pick *domain.Expense
		bestOffset := dayOfMonthSlack + 1
		for i := range charges {
			offset := daysApart(charges[i].ExpenseDate, expected)
			if offset <= dayOfMonthSlack && offset < bestOffset {
				pick = &charges[i]
				bestOffset = offset
			}
		}
		if pick != nil {
			sequence = append(sequence, *pick)
		}
		if len(sequence) == term {
			break
		}
	}
	return sequence
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// ConfirmPlan records the human decision exactly once. Re-sending the same
// decision returns the stored plan; a conflicting decision is rejected.
func (s *installmentService) ConfirmPlan(ctx context.Context, tenantID, invoiceID, decidedBy string, confirmed bool) (*domain.InstallmentPlan, error) {
	plan, err := s.installmentRepo.FindPlanByInvoiceID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if plan.IsDecided() {
		if *plan.Confirmed == confirmed {
			return plan, nil
		}
		return nil, fmt.Errorf("%w: plan for invoice %s was already decided differently", apperrors.ErrConflict, invoiceID)
	}

	now := time.Now().UTC()
	if err := s.installmentRepo.DecidePlan(ctx, tenantID, invoiceID, confirmed, decidedBy, now); err != nil {
		return nil, err
	}

	action := "installment_discarded"
	if confirmed {
		action = "installment_confirmed"
	}
	entry := domain.MatchAuditLog{
		AuditID:        uuid.NewString(),
		TenantID:       tenantID,
		InvoiceID:      invoiceID,
		Action:         action,
		ConceptMethod:  domain.ConceptNotApplicable,
		CandidateCount: len(plan.CandidateCharges),
		PerformedBy:    decidedBy,
		CreatedAt:      now,
	}
	if err := s.auditRepo.AppendAuditLog(ctx, entry); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to append installment audit log",
			slog.String("invoice_id", invoiceID),
			slog.String("error", err.Error()),
		)
	}

	return s.installmentRepo.FindPlanByInvoiceID(ctx, tenantID, invoiceID)
}
