package port

import (
	"context"

	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

// PositionSource is the read-only view onto the external order-management
// subsystem. The pricing core never creates or mutates positions.
type PositionSource interface {
	Positions(ctx context.Context) ([]domain.Position, error)
}
