package feed

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/config"
)

// ErrNoFeedsEnabled means the config enables no price source at all.
var ErrNoFeedsEnabled = errors.New("no feeds enabled")

// Manager owns the feed connections for the process: one connection per
// source, shared by every consumer through the subscription manager. It is
// constructed once at startup and passed by reference — no package-level
// singleton sockets.
type Manager struct {
	feeds map[string]port.Feed
}

func NewManager() *Manager {
	return &Manager{feeds: make(map[string]port.Feed)}
}

// Initialize builds the enabled feed adapters from config. A single source
// failing to build does not stop the others; only all of them failing is
// an error.
func (m *Manager) Initialize(cfg *config.Config, deps Deps) error {
	sources := []struct {
		kind string
		conf config.FeedConfig
	}{
		{"ticker", cfg.Feeds.Ticker},
		{"kline", cfg.Feeds.Kline},
		{"pushquote", cfg.Feeds.PushQuote},
	}

	var failed []string
	enabled := 0
	for _, src := range sources {
		if !src.conf.Enabled {
			continue
		}
		enabled++
		factory, ok := Get(src.kind)
		if !ok {
			log.Error().Str("feed", src.kind).Msg("feed factory not registered")
			failed = append(failed, src.kind)
			continue
		}
		m.feeds[src.kind] = factory(src.conf.WsURL, deps)
		log.Info().Str("feed", src.kind).Msg("feed initialized")
	}

	if enabled == 0 {
		return ErrNoFeedsEnabled
	}
	if len(failed) == enabled {
		return fmt.Errorf("failed to initialize all feeds: %v", failed)
	}
	if len(failed) > 0 {
		log.Warn().Strs("failed_feeds", failed).Msg("some feeds failed to initialize, but others succeeded")
	}
	return nil
}

// Feeds returns the initialized adapters.
func (m *Manager) Feeds() []port.Feed {
	out := make([]port.Feed, 0, len(m.feeds))
	for _, f := range m.feeds {
		out = append(out, f)
	}
	return out
}

// Get returns one adapter by kind.
func (m *Manager) Get(kind string) port.Feed {
	return m.feeds[kind]
}
