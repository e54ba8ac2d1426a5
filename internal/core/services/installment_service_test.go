package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/core/services"
	"github.com/contaclara/recon_backend/internal/matching"
)

// MockInstallmentPlanRepository is a mock type for the InstallmentPlanRepository interface
type MockInstallmentPlanRepository struct {
	mock.Mock
}

func (m *MockInstallmentPlanRepository) SaveSuggestion(ctx context.Context, plan domain.InstallmentPlan) (*domain.InstallmentPlan, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentPlan), args.Error(1)
}

func (m *MockInstallmentPlanRepository) FindPlanByInvoiceID(ctx context.Context, tenantID, invoiceID string) (*domain.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentPlan), args.Error(1)
}

func (m *MockInstallmentPlanRepository) DecidePlan(ctx context.Context, tenantID, invoiceID string, confirmed bool, decidedBy string, now time.Time) error {
	args := m.Called(ctx, tenantID, invoiceID, confirmed, decidedBy, now)
	return args.Error(0)
}

type InstallmentServiceTestSuite struct {
	suite.Suite
	mockInvoiceRepo     *MockInvoiceRepository
	mockExpenseRepo     *MockExpenseRepository
	mockInstallmentRepo *MockInstallmentPlanRepository
	mockAuditRepo       *MockAuditLogRepository
	service             portssvc.InstallmentSvcFacade
	ctx                 context.Context
	tenantID            string
	invoice             domain.Invoice
}

func (suite *InstallmentServiceTestSuite) SetupTest() {
	suite.mockInvoiceRepo = new(MockInvoiceRepository)
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockInstallmentRepo = new(MockInstallmentPlanRepository)
	suite.mockAuditRepo = new(MockAuditLogRepository)
	suite.service = services.NewInstallmentService(
		suite.mockInvoiceRepo,
		suite.mockExpenseRepo,
		suite.mockInstallmentRepo,
		suite.mockAuditRepo,
		matching.DefaultConfig(),
	)
	suite.ctx = context.Background()
	suite.tenantID = "tenant-1"
	suite.invoice = domain.Invoice{
		InvoiceID:     "inv-msi",
		TenantID:      suite.tenantID,
		IssuerRFC:     "LIV920417AS8",
		IssuerName:    "LIVERPOOL",
		Total:         decimal.NewFromInt(12000),
		IssueDate:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PaymentMethod: domain.PaymentCard,
	}
}

// monthlyCharges builds a run of equal charges posting on the invoice's day.
func (suite *InstallmentServiceTestSuite) monthlyCharges(amount decimal.Decimal, months int) []domain.Expense {
	rfc := suite.invoice.IssuerRFC
	charges := make([]domain.Expense, 0, months)
	for i := 0; i < months; i++ {
		charges = append(charges, domain.Expense{
			ExpenseID:        "charge-" + string(rune('a'+i)),
			TenantID:         suite.tenantID,
			CounterpartyName: suite.invoice.IssuerName,
			CounterpartyRFC:  &rfc,
			Amount:           amount,
			ExpenseDate:      suite.invoice.IssueDate.AddDate(0, i, 0),
			PaymentMethod:    domain.PaymentCard,
			Status:           domain.ExpensePending,
		})
	}
	return charges
}

func (suite *InstallmentServiceTestSuite) TestSuggestPlan_NonCardInvoice() {
	transfer := suite.invoice
	transfer.PaymentMethod = domain.PaymentTransfer
	suite.mockInvoiceRepo.On("FindInvoiceByID", suite.ctx, suite.tenantID, "inv-msi").Return(&transfer, nil)

	plan, err := suite.service.SuggestPlan(suite.ctx, suite.tenantID, "inv-msi")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(plan)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "FindRecurringCharges", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InstallmentServiceTestSuite) TestSuggestPlan_BelowTotalFloor() {
	small := suite.invoice
	small.Total = decimal.NewFromInt(1500)
	suite.mockInvoiceRepo.On("FindInvoiceByID", suite.ctx, suite.tenantID, "inv-msi").Return(&small, nil)

	plan, err := suite.service.SuggestPlan(suite.ctx, suite.tenantID, "inv-msi")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(plan)
}

func (suite *InstallmentServiceTestSuite) TestSuggestPlan_FindsBestTerm() {
	suite.mockInvoiceRepo.On("FindInvoiceByID", suite.ctx, suite.tenantID, "inv-msi").Return(&suite.invoice, nil)
	suite.mockInstallmentRepo.On("FindPlanByInvoiceID", suite.ctx, suite.tenantID, "inv-msi").Return(nil, apperrors.ErrNotFound).Once()

	// Terms are probed in ascending order; only the 12-month window
	// (monthly 1000.00) turns up a charge run.
	monthly := decimal.NewFromInt(1000)
	none := []domain.Expense{}
	suite.mockExpenseRepo.On("FindRecurringCharges", suite.ctx, suite.tenantID, suite.invoice.IssuerRFC, suite.invoice.IssuerName, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(none, nil).Once() // 3
	suite.mockExpenseRepo.On("FindRecurringCharges", suite.ctx, suite.tenantID, suite.invoice.IssuerRFC, suite.invoice.IssuerName, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(none, nil).Once() // 6
	suite.mockExpenseRepo.On("FindRecurringCharges", suite.ctx, suite.tenantID, suite.invoice.IssuerRFC, suite.invoice.IssuerName, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(none, nil).Once() // 9
	suite.mockExpenseRepo.On("FindRecurringCharges", suite.ctx, suite.tenantID, suite.invoice.IssuerRFC, suite.invoice.IssuerName, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(suite.monthlyCharges(monthly, 6), nil).Once() // 12
	suite.mockExpenseRepo.On("FindRecurringCharges", suite.ctx, suite.tenantID, suite.invoice.IssuerRFC, suite.invoice.IssuerName, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(none, nil).Once() // 18
	suite.mockExpenseRepo.On("FindRecurringCharges", suite.ctx, suite.tenantID, suite.invoice.IssuerRFC, suite.invoice.IssuerName, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(none, nil).Once() // 24

	var saved *domain.InstallmentPlan
	suite.mockInstallmentRepo.On("SaveSuggestion", suite.ctx, mock.AnythingOfType("domain.InstallmentPlan")).
		Run(func(args mock.Arguments) {
			plan := args.Get(1).(domain.InstallmentPlan)
			saved = &plan
		}).
		Return(&domain.InstallmentPlan{}, nil)

	_, err := suite.service.SuggestPlan(suite.ctx, suite.tenantID, "inv-msi")

	suite.Require().NoError(err)
	suite.Require().NotNil(saved)
	suite.Equal(12, saved.Months)
	suite.True(saved.MonthlyAmount.Equal(monthly))
	suite.Len(saved.CandidateCharges, 6)
	suite.Nil(saved.Confirmed, "a fresh suggestion is undecided")
	suite.NotEmpty(saved.PlanID)
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *InstallmentServiceTestSuite) TestSuggestPlan_NoSequenceFound() {
	suite.mockInvoiceRepo.On("FindInvoiceByID", suite.ctx, suite.tenantID, "inv-msi").Return(&suite.invoice, nil)
	suite.mockInstallmentRepo.On("FindPlanByInvoiceID", suite.ctx, suite.tenantID, "inv-msi").Return(nil, apperrors.ErrNotFound)
	suite.mockExpenseRepo.On("FindRecurringCharges", suite.ctx, suite.tenantID, suite.invoice.IssuerRFC, suite.invoice.IssuerName, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Expense{}, nil)

	plan, err := suite.service.SuggestPlan(suite.ctx, suite.tenantID, "inv-msi")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(plan)
	suite.mockInstallmentRepo.AssertNotCalled(suite.T(), "SaveSuggestion", mock.Anything, mock.Anything)
}

func (suite *InstallmentServiceTestSuite) TestSuggestPlan_SingleChargeIsNotASequence() {
	suite.mockInvoiceRepo.On("FindInvoiceByID", suite.ctx, suite.tenantID, "inv-msi").Return(&suite.invoice, nil)
	suite.mockInstallmentRepo.On("FindPlanByInvoiceID", suite.ctx, suite.tenantID, "inv-msi").Return(nil, apperrors.ErrNotFound)
	suite.mockExpenseRepo.On("FindRecurringCharges", suite.ctx, suite.tenantID, suite.invoice.IssuerRFC, suite.invoice.IssuerName, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(suite.monthlyCharges(decimal.NewFromInt(1000), 1), nil)

	plan, err := suite.service.SuggestPlan(suite.ctx, suite.tenantID, "inv-msi")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(plan)
}

func (suite *InstallmentServiceTestSuite) TestSuggestPlan_DecidedPlanIsSticky() {
	confirmed := true
	decided := domain.InstallmentPlan{
		PlanID:    "plan-1",
		TenantID:  suite.tenantID,
		InvoiceID: "inv-msi",
		Months:    12,
		Confirmed: &confirmed,
	}
	suite.mockInvoiceRepo.On("FindInvoiceByID", suite.ctx, suite.tenantID, "inv-msi").Return(&suite.invoice, nil)
	suite.mockInstallmentRepo.On("FindPlanByInvoiceID", suite.ctx, suite.tenantID, "inv-msi").Return(&decided, nil)

	plan, err := suite.service.SuggestPlan(suite.ctx, suite.tenantID, "inv-msi")

	suite.Require().NoError(err)
	suite.Equal("plan-1", plan.PlanID)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "FindRecurringCharges", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockInstallmentRepo.AssertNotCalled(suite.T(), "SaveSuggestion", mock.Anything, mock.Anything)
}

func (suite *InstallmentServiceTestSuite) TestConfirmPlan_RecordsDecision() {
	undecided := domain.InstallmentPlan{
		PlanID:           "plan-1",
		TenantID:         suite.tenantID,
		InvoiceID:        "inv-msi",
		Months:           12,
		CandidateCharges: []string{"charge-a", "charge-b"},
	}
	confirmed := true
	decided := undecided
	decided.Confirmed = &confirmed

	suite.mockInstallmentRepo.On("FindPlanByInvoiceID", suite.ctx, suite.tenantID, "inv-msi").Return(&undecided, nil).Once()
	suite.mockInstallmentRepo.On("DecidePlan", suite.ctx, suite.tenantID, "inv-msi", true, "user-7", mock.AnythingOfType("time.Time")).Return(nil)

	var audited domain.MatchAuditLog
	suite.mockAuditRepo.On("AppendAuditLog", suite.ctx, mock.AnythingOfType("domain.MatchAuditLog")).
		Run(func(args mock.Arguments) { audited = args.Get(1).(domain.MatchAuditLog) }).
		Return(nil)
	suite.mockInstallmentRepo.On("FindPlanByInvoiceID", suite.ctx, suite.tenantID, "inv-msi").Return(&decided, nil).Once()

	plan, err := suite.service.ConfirmPlan(suite.ctx, suite.tenantID, "inv-msi", "user-7", true)

	suite.Require().NoError(err)
	suite.Require().NotNil(plan.Confirmed)
	suite.True(*plan.Confirmed)
	suite.Equal("installment_confirmed", audited.Action)
	suite.Equal("user-7", audited.PerformedBy)
	suite.Equal(2, audited.CandidateCount)
	suite.mockInstallmentRepo.AssertExpectations(suite.T())
}

func (suite *InstallmentServiceTestSuite) TestConfirmPlan_SameDecisionIsIdempotent() {
	confirmed := true
	decided := domain.InstallmentPlan{PlanID: "plan-1", InvoiceID: "inv-msi", Confirmed: &confirmed}
	suite.mockInstallmentRepo.On("FindPlanByInvoiceID", suite.ctx, suite.tenantID, "inv-msi").Return(&decided, nil)

	plan, err := suite.service.ConfirmPlan(suite.ctx, suite.tenantID, "inv-msi", "user-7", true)

	suite.Require().NoError(err)
	suite.Equal("plan-1", plan.PlanID)
	suite.mockInstallmentRepo.AssertNotCalled(suite.T(), "DecidePlan", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockAuditRepo.AssertNotCalled(suite.T(), "AppendAuditLog", mock.Anything, mock.Anything)
}

func (suite *InstallmentServiceTestSuite) TestConfirmPlan_ConflictingDecision() {
	confirmed := true
	decided := domain.InstallmentPlan{PlanID: "plan-1", InvoiceID: "inv-msi", Confirmed: &confirmed}
	suite.mockInstallmentRepo.On("FindPlanByInvoiceID", suite.ctx, suite.tenantID, "inv-msi").Return(&decided, nil)

	plan, err := suite.service.ConfirmPlan(suite.ctx, suite.tenantID, "inv-msi", "user-7", false)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Nil(plan)
}

func TestInstallmentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InstallmentServiceTestSuite))
}
