package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/contaclara/recon_backend/internal/apperrors"
	"github.com/contaclara/recon_backend/internal/core/domain"
	"github.com/contaclara/recon_backend/internal/core/services"
)

func validInvoice() domain.Invoice {
	return domain.Invoice{
		InvoiceID:     "a1b2c3d4-0000-0000-0000-000000000001",
		TenantID:      "tenant-1",
		IssuerRFC:     "PEP970814SF3",
		IssuerName:    "PEMEX ESTACION 4421",
		Total:         decimal.NewFromFloat(1250.50),
		CurrencyCode:  "MXN",
		IssueDate:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		PaymentMethod: domain.PaymentCard,
	}
}

func TestIngestInvoice_Success(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	svc := services.NewInvoiceService(mockRepo)

	var saved domain.Invoice
	mockRepo.On("SaveInvoice", mock.Anything, mock.AnythingOfType("domain.Invoice")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Invoice) }).
		Return(nil)

	err := svc.IngestInvoice(context.Background(), validInvoice())

	assert.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero(), "ingestion must stamp a creation time")
	mockRepo.AssertExpectations(t)
}

func TestIngestInvoice_MissingFields(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	svc := services.NewInvoiceService(mockRepo)

	broken := validInvoice()
	broken.Total = decimal.Zero

	err := svc.IngestInvoice(context.Background(), broken)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockRepo.AssertNotCalled(t, "SaveInvoice", mock.Anything, mock.Anything)
}

func TestIngestInvoice_MissingTenant(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	svc := services.NewInvoiceService(mockRepo)

	broken := validInvoice()
	broken.TenantID = ""

	err := svc.IngestInvoice(context.Background(), broken)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockRepo.AssertNotCalled(t, "SaveInvoice", mock.Anything, mock.Anything)
}

func TestGetInvoice_NotFound(t *testing.T) {
	mockRepo := new(MockInvoiceRepository)
	svc := services.NewInvoiceService(mockRepo)

	mockRepo.On("FindInvoiceByID", mock.Anything, "tenant-1", "missing").Return(nil, apperrors.ErrNotFound)

	invoice, err := svc.GetInvoice(context.Background(), "tenant-1", "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, invoice)
}
