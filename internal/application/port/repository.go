package port

import "context"

type Repository interface {
	// Quote operations
	UpsertLatestQuote(ctx context.Context, symbol string, bid, ask float64, ts int64) error

	// P&L operations; scope is "total" or a symbol
	UpsertPnlSample(ctx context.Context, scope string, value float64, ts int64) error

	// Snapshot operations
	InsertSnapshot(ctx context.Context, ts int64, payload string) error

	// Connection management
	Close() error
}
