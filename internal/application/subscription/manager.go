package subscription

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Upstream is the control surface a feed exposes for per-symbol
// subscriptions. Feeds that subscribe via URL at connect time implement it
// as a no-op and instead rebuild their stream list from Active() on
// reconnect.
type Upstream interface {
	Name() string
	SubscribeSymbol(symbol string) error
	UnsubscribeSymbol(symbol string) error
}

// Canonical maps any spelling of a pair onto the canonical uppercase USDT
// form used as map key everywhere ("xyzusd" -> "XYZUSDT"). Spot-style USD
// pairs and margin-style USDT pairs are the same instrument here.
func Canonical(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return ""
	}
	if strings.HasSuffix(s, "USD") {
		return s + "T"
	}
	return s
}

// Manager owns the lifetime of interest in a symbol across many consumers.
// It is reference-counted: only the 0->1 and 1->0 transitions reach the
// upstream feeds. Errors from upstreams are logged and swallowed; the
// refcount is the source of truth and Resubscribe replays it on reconnect.
type Manager struct {
	mu        sync.Mutex
	refs      map[string]int
	upstreams []Upstream
}

func NewManager() *Manager {
	return &Manager{refs: make(map[string]int)}
}

// RegisterUpstream adds a feed to be driven by future 0->1 / 1->0
// transitions. Already-active symbols are replayed to it immediately.
func (m *Manager) RegisterUpstream(u Upstream) {
	m.mu.Lock()
	m.upstreams = append(m.upstreams, u)
	active := m.activeLocked()
	m.mu.Unlock()

	for _, sym := range active {
		if err := u.SubscribeSymbol(sym); err != nil {
			log.Error().Err(err).Str("upstream", u.Name()).Str("symbol", sym).Msg("subscribe failed")
		}
	}
}

// Acquire registers one consumer's interest in a symbol and returns a
// guard whose Release is safe to defer on every exit path. Releasing twice
// is a no-op.
func (m *Manager) Acquire(symbol string) *Lease {
	sym := Canonical(symbol)
	if sym == "" {
		return &Lease{}
	}

	m.mu.Lock()
	m.refs[sym]++
	first := m.refs[sym] == 1
	ups := append([]Upstream(nil), m.upstreams...)
	m.mu.Unlock()

	if first {
		for _, u := range ups {
			if err := u.SubscribeSymbol(sym); err != nil {
				log.Error().Err(err).Str("upstream", u.Name()).Str("symbol", sym).Msg("subscribe failed")
			}
		}
	}
	return &Lease{m: m, symbol: sym}
}

// Release drops one consumer's interest. On the 1->0 transition the symbol
// leaves the active set synchronously, so late ticks are filtered out even
// before the upstream unsubscribe round-trips.
func (m *Manager) Release(symbol string) {
	sym := Canonical(symbol)
	if sym == "" {
		return
	}

	m.mu.Lock()
	n, ok := m.refs[sym]
	if !ok {
		m.mu.Unlock()
		return
	}
	n--
	last := n <= 0
	if last {
		delete(m.refs, sym)
	} else {
		m.refs[sym] = n
	}
	ups := append([]Upstream(nil), m.upstreams...)
	m.mu.Unlock()

	if last {
		for _, u := range ups {
			if err := u.UnsubscribeSymbol(sym); err != nil {
				log.Error().Err(err).Str("upstream", u.Name()).Str("symbol", sym).Msg("unsubscribe failed")
			}
		}
	}
}

// Contains reports whether any consumer currently holds the symbol. Feed
// adapters call this on every inbound message to bound work by the tracked
// set, whatever the upstream broadcasts.
func (m *Manager) Contains(symbol string) bool {
	sym := Canonical(symbol)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs[sym] > 0
}

// Active returns the sorted set of symbols with refcount > 0.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked()
}

func (m *Manager) activeLocked() []string {
	out := make([]string, 0, len(m.refs))
	for sym := range m.refs {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Resubscribe replays every active symbol to one upstream. Feeds call this
// after a reconnect, before reporting themselves ready: subscriptions are
// not assumed to survive the transport.
func (m *Manager) Resubscribe(u Upstream) {
	for _, sym := range m.Active() {
		if err := u.SubscribeSymbol(sym); err != nil {
			log.Error().Err(err).Str("upstream", u.Name()).Str("symbol", sym).Msg("resubscribe failed")
		}
	}
}

// Lease is an RAII-style guard for one consumer's interest in a symbol.
type Lease struct {
	m      *Manager
	symbol string
	once   sync.Once
}

func (l *Lease) Symbol() string { return l.symbol }

func (l *Lease) Release() {
	if l.m == nil {
		return
	}
	l.once.Do(func() { l.m.Release(l.symbol) })
}
