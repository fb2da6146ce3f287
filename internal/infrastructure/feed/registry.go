package feed

import (
	"github.com/rs/zerolog/log"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
	"github.com/hmzsumon/cp-client-sub000/internal/application/subscription"
)

// Deps is everything an adapter needs besides its URL: the subscription
// set to filter against and the store to flag stale on disconnect.
type Deps struct {
	Subs  *subscription.Manager
	Stale port.StaleMarker
}

// Factory builds a feed adapter for a websocket URL.
type Factory func(wsURL string, deps Deps) port.Feed

// registry maps feed kinds to their factories
var registry = make(map[string]Factory)

// Register adds a feed factory for a kind. Called from each adapter
// package's init().
func Register(kind string, factory Factory) {
	if factory == nil {
		log.Warn().Str("feed", kind).Msg("invalid feed factory")
		return
	}
	if _, exists := registry[kind]; exists {
		log.Warn().Str("feed", kind).Msg("feed factory already registered, overwriting")
	}
	registry[kind] = factory
	log.Debug().Str("feed", kind).Msg("feed factory registered")
}

// Get returns the registered factory for a feed kind.
func Get(kind string) (Factory, bool) {
	factory, ok := registry[kind]
	return factory, ok
}
