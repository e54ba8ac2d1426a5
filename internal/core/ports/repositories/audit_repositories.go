package repositories

import (
	"context"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

// MatchAuditLogRepository defines the append-only decision trail.
type MatchAuditLogRepository interface {
	AppendAuditLog(ctx context.Context, entry domain.MatchAuditLog) error
}
