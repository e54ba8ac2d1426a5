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
	"github.com/contaclara/recon_backend/internal/utils/pagination"
)

type PendingServiceTestSuite struct {
	suite.Suite
	mockPendingRepo *MockPendingAssignmentRepository
	mockExpenseRepo *MockExpenseRepository
	mockInvoiceRepo *MockInvoiceRepository
	mockAuditRepo   *MockAuditLogRepository
	service         portssvc.PendingSvcFacade
	ctx             context.Context
	tenantID        string
	assignment      domain.PendingAssignment
}

func (suite *PendingServiceTestSuite) SetupTest() {
	suite.mockPendingRepo = new(MockPendingAssignmentRepository)
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockInvoiceRepo = new(MockInvoiceRepository)
	suite.mockAuditRepo = new(MockAuditLogRepository)
	suite.service = services.NewPendingService(
		suite.mockPendingRepo,
		suite.mockExpenseRepo,
		suite.mockInvoiceRepo,
		suite.mockAuditRepo,
	)
	suite.ctx = context.Background()
	suite.tenantID = "tenant-1"
	suite.assignment = domain.PendingAssignment{
		AssignmentID: "asg-1",
		TenantID:     suite.tenantID,
		InvoiceID:    "inv-1",
		Candidates: []domain.AssignmentCandidate{
			{ExpenseID: "exp-1", Score: 92},
			{ExpenseID: "exp-2", Score: 88},
		},
		Status:    domain.AssignmentNeedsManual,
		CreatedAt: time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
	}
}

func (suite *PendingServiceTestSuite) TestResolve_Success() {
	open := suite.assignment
	chosen := "exp-1"
	resolved := suite.assignment
	resolved.Status = domain.AssignmentResolved
	resolved.ChosenExpenseID = &chosen

	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&open, nil).Once()
	suite.mockExpenseRepo.On("LinkInvoice", suite.ctx, suite.tenantID, "exp-1", "inv-1").Return(nil)
	suite.mockPendingRepo.On("CloseAssignment", suite.ctx, suite.tenantID, "asg-1", domain.AssignmentResolved, &chosen, "user-7", (*string)(nil), mock.AnythingOfType("time.Time")).Return(nil)
	suite.mockAuditRepo.On("AppendAuditLog", suite.ctx, mock.AnythingOfType("domain.MatchAuditLog")).Return(nil)
	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&resolved, nil).Once()

	got, err := suite.service.Resolve(suite.ctx, suite.tenantID, "asg-1", "user-7", "exp-1")

	suite.Require().NoError(err)
	suite.Equal(domain.AssignmentResolved, got.Status)
	suite.Require().NotNil(got.ChosenExpenseID)
	suite.Equal("exp-1", *got.ChosenExpenseID)
	suite.mockPendingRepo.AssertExpectations(suite.T())
	suite.mockAuditRepo.AssertExpectations(suite.T())
}

func (suite *PendingServiceTestSuite) TestResolve_AlreadyClosed_ReturnsPriorResult() {
	chosen := "exp-2"
	closed := suite.assignment
	closed.Status = domain.AssignmentResolved
	closed.ChosenExpenseID = &chosen

	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&closed, nil)

	got, err := suite.service.Resolve(suite.ctx, suite.tenantID, "asg-1", "user-7", "exp-1")

	suite.Require().NoError(err)
	suite.Equal(domain.AssignmentResolved, got.Status)
	suite.Equal("exp-2", *got.ChosenExpenseID, "the earlier decision wins")
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "LinkInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockPendingRepo.AssertNotCalled(suite.T(), "CloseAssignment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PendingServiceTestSuite) TestResolve_NonCandidateExpense_Rejected() {
	open := suite.assignment
	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&open, nil)

	got, err := suite.service.Resolve(suite.ctx, suite.tenantID, "asg-1", "user-7", "exp-99")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(got)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "LinkInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PendingServiceTestSuite) TestResolve_ExpenseTakenMeanwhile_Conflict() {
	open := suite.assignment
	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&open, nil)
	suite.mockExpenseRepo.On("LinkInvoice", suite.ctx, suite.tenantID, "exp-1", "inv-1").Return(apperrors.ErrConflict)

	got, err := suite.service.Resolve(suite.ctx, suite.tenantID, "asg-1", "user-7", "exp-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Nil(got)
}

func (suite *PendingServiceTestSuite) TestResolve_ClosedConcurrently_ReturnsOtherDecision() {
	open := suite.assignment
	chosen := "exp-1"
	otherChoice := "exp-2"
	closedByOther := suite.assignment
	closedByOther.Status = domain.AssignmentResolved
	closedByOther.ChosenExpenseID = &otherChoice

	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&open, nil).Once()
	suite.mockExpenseRepo.On("LinkInvoice", suite.ctx, suite.tenantID, "exp-1", "inv-1").Return(nil)
	suite.mockPendingRepo.On("CloseAssignment", suite.ctx, suite.tenantID, "asg-1", domain.AssignmentResolved, &chosen, "user-7", (*string)(nil), mock.AnythingOfType("time.Time")).Return(apperrors.ErrConflict)
	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&closedByOther, nil).Once()

	got, err := suite.service.Resolve(suite.ctx, suite.tenantID, "asg-1", "user-7", "exp-1")

	suite.Require().NoError(err)
	suite.Equal("exp-2", *got.ChosenExpenseID)
}

func (suite *PendingServiceTestSuite) TestReject_AutoCreatesExpense() {
	open := suite.assignment
	invoice := domain.Invoice{
		InvoiceID:     "inv-1",
		TenantID:      suite.tenantID,
		IssuerRFC:     "XAXX010101000",
		IssuerName:    "PROVEEDOR GENERICO",
		Total:         decimal.NewFromInt(800),
		IssueDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: domain.PaymentTransfer,
	}
	reason := "none of these is the right charge"

	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&open, nil)
	suite.mockInvoiceRepo.On("FindInvoiceByID", suite.ctx, suite.tenantID, "inv-1").Return(&invoice, nil)
	suite.mockPendingRepo.On("CloseAssignment", suite.ctx, suite.tenantID, "asg-1", domain.AssignmentRejected, (*string)(nil), "user-7", &reason, mock.AnythingOfType("time.Time")).Return(nil)

	var created domain.Expense
	suite.mockExpenseRepo.On("CreateExpense", suite.ctx, mock.AnythingOfType("domain.Expense")).
		Run(func(args mock.Arguments) { created = args.Get(1).(domain.Expense) }).
		Return(nil)

	var audited domain.MatchAuditLog
	suite.mockAuditRepo.On("AppendAuditLog", suite.ctx, mock.AnythingOfType("domain.MatchAuditLog")).
		Run(func(args mock.Arguments) { audited = args.Get(1).(domain.MatchAuditLog) }).
		Return(nil)

	outcome, err := suite.service.Reject(suite.ctx, suite.tenantID, "asg-1", "user-7", reason)

	suite.Require().NoError(err)
	suite.Equal(domain.ActionAutoCreated, outcome.Action)
	suite.Equal(created.ExpenseID, outcome.ExpenseID)
	suite.True(created.NeedsReview)
	suite.Equal("user-7", audited.PerformedBy)
	suite.Require().NotNil(audited.Reason)
	suite.Equal(reason, *audited.Reason)
	suite.mockPendingRepo.AssertExpectations(suite.T())
}

func (suite *PendingServiceTestSuite) TestReject_AlreadyRejected_ReturnsPriorOutcome() {
	closed := suite.assignment
	closed.Status = domain.AssignmentRejected
	invoiceID := "inv-1"
	priorExpense := domain.Expense{ExpenseID: "exp-created", LinkedInvoiceID: &invoiceID, NeedsReview: true}

	suite.mockPendingRepo.On("FindAssignmentByID", suite.ctx, suite.tenantID, "asg-1").Return(&closed, nil)
	suite.mockExpenseRepo.On("FindByLinkedInvoiceID", suite.ctx, suite.tenantID, "inv-1").Return(&priorExpense, nil)

	outcome, err := suite.service.Reject(suite.ctx, suite.tenantID, "asg-1", "user-7", "again")

	suite.Require().NoError(err)
	suite.Equal(domain.ActionAutoCreated, outcome.Action)
	suite.Equal("exp-created", outcome.ExpenseID)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "CreateExpense", mock.Anything, mock.Anything)
	suite.mockPendingRepo.AssertNotCalled(suite.T(), "CloseAssignment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PendingServiceTestSuite) TestListPending_PaginatesWithCursor() {
	base := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	page := make([]domain.PendingAssignment, 3)
	for i := range page {
		page[i] = suite.assignment
		page[i].AssignmentID = string(rune('a' + i))
		page[i].CreatedAt = base.Add(-time.Duration(i) * time.Hour)
	}

	// limit 2, repo asked for limit+1 to detect the next page
	suite.mockPendingRepo.On("ListPending", suite.ctx, suite.tenantID, 3, time.Time{}, "").Return(page, nil)

	got, next, err := suite.service.ListPending(suite.ctx, suite.tenantID, 2, "")

	suite.Require().NoError(err)
	suite.Len(got, 2)
	suite.NotEmpty(next)

	decoded, decodedID, derr := pagination.DecodeKeysetToken(next)
	suite.Require().NoError(derr)
	suite.True(decoded.Equal(got[1].CreatedAt), "cursor must point at the last returned entry")
	suite.Equal(got[1].AssignmentID, decodedID)
}

func (suite *PendingServiceTestSuite) TestListPending_TiedTimestampsAreNotSkipped() {
	// A batch run can queue many assignments in the same instant; the cursor
	// must carry the row id so the tied rows land on the next page.
	createdAt := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	page := make([]domain.PendingAssignment, 3)
	for i := range page {
		page[i] = suite.assignment
		page[i].AssignmentID = string(rune('a' + i))
		page[i].CreatedAt = createdAt
	}

	suite.mockPendingRepo.On("ListPending", suite.ctx, suite.tenantID, 3, time.Time{}, "").Return(page, nil)

	got, next, err := suite.service.ListPending(suite.ctx, suite.tenantID, 2, "")

	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Require().NotEmpty(next)

	// The second page resumes from (created_at, id) of the last returned row.
	suite.mockPendingRepo.On("ListPending", suite.ctx, suite.tenantID, 3, createdAt, got[1].AssignmentID).
		Return([]domain.PendingAssignment{page[2]}, nil)

	rest, last, err := suite.service.ListPending(suite.ctx, suite.tenantID, 2, next)

	suite.Require().NoError(err)
	suite.Require().Len(rest, 1)
	suite.Equal(page[2].AssignmentID, rest[0].AssignmentID)
	suite.Empty(last)
	suite.mockPendingRepo.AssertExpectations(suite.T())
}

func (suite *PendingServiceTestSuite) TestListPending_LastPageHasNoCursor() {
	suite.mockPendingRepo.On("ListPending", suite.ctx, suite.tenantID, 3, time.Time{}, "").Return([]domain.PendingAssignment{suite.assignment}, nil)

	got, next, err := suite.service.ListPending(suite.ctx, suite.tenantID, 2, "")

	suite.Require().NoError(err)
	suite.Len(got, 1)
	suite.Empty(next)
}

func (suite *PendingServiceTestSuite) TestListPending_InvalidCursor() {
	got, next, err := suite.service.ListPending(suite.ctx, suite.tenantID, 2, "not-a-token")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(got)
	suite.Empty(next)
	suite.mockPendingRepo.AssertNotCalled(suite.T(), "ListPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPendingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PendingServiceTestSuite))
}
