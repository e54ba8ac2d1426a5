package models

import "time"

// Batch is the database model for the batches table.
type Batch struct {
	BatchID     string    `db:"batch_id"`
	TenantID    string    `db:"tenant_id"`
	SubmittedBy string    `db:"submitted_by"`
	CreatedAt   time.Time `db:"created_at"`
}

// BatchItem is the database model for the batch_items table. The claim columns
// (claim_owner, lease_expires_at, attempts) implement the atomic claim; the
// outcome columns are populated only on completion.
type BatchItem struct {
	ItemID              string     `db:"item_id"`
	BatchID             string     `db:"batch_id"`
	TenantID            string     `db:"tenant_id"`
	InvoiceID           string     `db:"invoice_id"`
	IdempotencyKey      string     `db:"idempotency_key"`
	Status              string     `db:"status"`
	Attempts            int        `db:"attempts"`
	ClaimOwner          *string    `db:"claim_owner"`
	LeaseExpiresAt      *time.Time `db:"lease_expires_at"`
	Action              *string    `db:"action"`
	ExpenseID           *string    `db:"expense_id"`
	PendingAssignmentID *string    `db:"pending_assignment_id"`
	ErrorReason         *string    `db:"error_reason"`
	CreatedAt           time.Time  `db:"created_at"`
	LastUpdatedAt       time.Time  `db:"last_updated_at"`
}
