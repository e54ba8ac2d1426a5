package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager is implemented by repositories whose writes must happen
// atomically, such as creating a batch together with its items or linking an
// expense while closing an assignment.
type TransactionManager interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction.
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction. Rolling back a finished transaction
	// must not be treated as an error.
	Rollback(ctx context.Context, tx pgx.Tx) error
}
