package monitor

import (
	"context"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

type Repository = port.Repository

// StaticPositions serves a fixed set of positions, standing in for the
// external order-management subsystem.
type StaticPositions struct {
	positions []domain.Position
}

func NewStaticPositions(positions []domain.Position) *StaticPositions {
	return &StaticPositions{positions: positions}
}

func (s *StaticPositions) Positions(ctx context.Context) ([]domain.Position, error) {
	out := make([]domain.Position, len(s.positions))
	copy(out, s.positions)
	return out, nil
}

var _ port.PositionSource = (*StaticPositions)(nil)
