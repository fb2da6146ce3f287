package port

import (
	"context"

	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

// Feed is one upstream market-data connection. Subscribe starts the
// connection loop and returns the normalized tick stream; the channel is
// closed when ctx is cancelled. Each feed reconnects on its own with
// bounded exponential backoff, so a dead channel always means shutdown.
type Feed interface {
	Name() string
	Subscribe(ctx context.Context) (<-chan domain.Tick, error)
}

// StaleMarker lets a feed flag every symbol it last served as stale the
// moment its transport drops, without waiting for the staleness window.
type StaleMarker interface {
	MarkFeedStale(feed string)
}
