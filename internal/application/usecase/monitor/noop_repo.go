package monitor

import (
	"context"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
)

type noopRepo struct{}

func NewNoopRepo() port.Repository { return &noopRepo{} }

func (n *noopRepo) UpsertLatestQuote(ctx context.Context, symbol string, bid, ask float64, ts int64) error {
	return nil
}
func (n *noopRepo) UpsertPnlSample(ctx context.Context, scope string, value float64, ts int64) error {
	return nil
}
func (n *noopRepo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	return nil
}
func (n *noopRepo) Close() error { return nil }
