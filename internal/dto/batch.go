package dto

import (
	"time"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// SubmitBatchRequest defines the data needed to submit a reconciliation batch.
type SubmitBatchRequest struct {
	InvoiceIDs  []string `json:"invoiceIDs" binding:"required,min=1"`
	SubmittedBy string   `json:"submittedBy" binding:"required"`
}

// SubmitBatchResponse returns the identifier of the accepted batch.
type SubmitBatchResponse struct {
	BatchID string `json:"batchID"`
}

// BatchItemResponse defines the data returned for one document in a batch.
type BatchItemResponse struct {
	ItemID              string     `json:"itemID"`
	InvoiceID           string     `json:"invoiceID"`
	Status              string     `json:"status"`
	Attempts            int        `json:"attempts"`
	Action              *string    `json:"action,omitempty"`
	ExpenseID           *string    `json:"expenseID,omitempty"`
	PendingAssignmentID *string    `json:"pendingAssignmentID,omitempty"`
	ErrorReason         *string    `json:"errorReason,omitempty"`
	LastUpdatedAt       time.Time  `json:"lastUpdatedAt"`
}

// BatchSummaryResponse defines the derived batch view.
type BatchSummaryResponse struct {
	BatchID       string              `json:"batchID"`
	Status        string              `json:"status"`
	Total         int                 `json:"total"`
	Completed     int                 `json:"completed"`
	Errored       int                 `json:"errored"`
	AutoMatched   int                 `json:"autoMatched"`
	AutoCreated   int                 `json:"autoCreated"`
	PendingReview int                 `json:"pendingReview"`
	Items         []BatchItemResponse `json:"items"`
}

// ToBatchSummaryResponse converts a domain.BatchSummary to its DTO
func ToBatchSummaryResponse(s *domain.BatchSummary) BatchSummaryResponse {
	items := make([]BatchItemResponse, len(s.Items))
	for i, item := range s.Items {
		var action *string
		if item.Action != nil {
			a := string(*item.Action)
			action = &a
		}
		items[i] = BatchItemResponse{
			ItemID:              item.ItemID,
			InvoiceID:           item.InvoiceID,
			Status:              string(item.Status),
			Attempts:            item.Attempts,
			Action:              action,
			ExpenseID:           item.ExpenseID,
			PendingAssignmentID: item.PendingAssignmentID,
			ErrorReason:         item.ErrorReason,
			LastUpdatedAt:       item.LastUpdatedAt,
		}
	}
	return BatchSummaryResponse{
		BatchID:       s.BatchID,
		Status:        string(s.Status),
		Total:         s.Total,
		Completed:     s.Completed,
		Errored:       s.Errored,
		AutoMatched:   s.AutoMatched,
		AutoCreated:   s.AutoCreated,
		PendingReview: s.PendingReview,
		Items:         items,
	}
}
