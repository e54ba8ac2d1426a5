package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// BatchItemStatus is the per-document processing state within a batch.
type BatchItemStatus string

const (
	ItemQueued     BatchItemStatus = "queued"
	ItemProcessing BatchItemStatus = "processing"
	ItemCompleted  BatchItemStatus = "completed"
	ItemError      BatchItemStatus = "error"
)

// BatchStatus is derived from item statuses, never stored redundantly.
type BatchStatus string

const (
	BatchProcessing          BatchStatus = "processing"
	BatchCompleted           BatchStatus = "completed"
	BatchCompletedWithErrors BatchStatus = "completed_with_errors"
)

// Batch groups invoices submitted together for reconciliation.
type Batch struct {
	BatchID     string    `json:"batchID"`
	TenantID    string    `json:"tenantID"`
	SubmittedBy string    `json:"submittedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BatchItem is one document within a batch. The idempotency key is a stable
// hash of the source document, so resubmission collapses onto the first
// outcome instead of re-running the pipeline.
type BatchItem struct {
	ItemID              string          `json:"itemID"`
	BatchID             string          `json:"batchID"`
	TenantID            string          `json:"tenantID"`
	InvoiceID           string          `json:"invoiceID"`
	IdempotencyKey      string          `json:"idempotencyKey"`
	Status              BatchItemStatus `json:"status"`
	Attempts            int             `json:"attempts"`
	ClaimOwner          *string         `json:"claimOwner,omitempty"`
	LeaseExpiresAt      *time.Time      `json:"leaseExpiresAt,omitempty"`
	Action              *MatchAction    `json:"action,omitempty"`
	ExpenseID           *string         `json:"expenseID,omitempty"`
	PendingAssignmentID *string         `json:"pendingAssignmentID,omitempty"`
	ErrorReason         *string         `json:"errorReason,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	LastUpdatedAt       time.Time       `json:"lastUpdatedAt"`
}

// IsTerminal reports whether the item has reached a final state.
func (i BatchItem) IsTerminal() bool {
	return i.Status == ItemCompleted || i.Status == ItemError
}

// BatchSummary is the derived batch view: rollup counts plus per-item detail.
type BatchSummary struct {
	BatchID       string      `json:"batchID"`
	Status        BatchStatus `json:"status"`
	Total         int         `json:"total"`
	Completed     int         `json:"completed"`
	Errored       int         `json:"errored"`
	AutoMatched   int         `json:"autoMatched"`
	AutoCreated   int         `json:"autoCreated"`
	PendingReview int         `json:"pendingReview"`
	Items         []BatchItem `json:"items"`
}

// IdempotencyKey derives the stable per-document key used to detect
// resubmissions within and across batches.
func IdempotencyKey(tenantID, invoiceID string) string {
	sum := sha256.Sum256([]byte(tenantID + "|" + invoiceID))
	return hex.EncodeToString(sum[:])
}
