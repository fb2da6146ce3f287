package service

import (
	"sync"
	"time"

	"github.com/hmzsumon/cp-client-sub000/internal/application/subscription"
	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

// SpreadConfigFn resolves the spread configuration for a symbol.
type SpreadConfigFn func(symbol string) domain.SpreadConfig

const quoteKeyPrefix = "quote:"

type quoteEntry struct {
	quote     domain.Quote
	feed      string
	updatedAt time.Time
	stale     bool
}

// QuoteStore holds the latest quote per symbol. Writes come from the feed
// path only; reads come from UI callbacks and the P&L engine. Last write
// wins per symbol, with the tick's own timestamp used only for staleness,
// never for ordering across feeds.
type QuoteStore struct {
	mu         sync.Mutex
	entries    map[string]*quoteEntry
	subs       map[string][]chan domain.Quote
	spreadFor  SpreadConfigFn
	notifier   *Notifier
	staleAfter time.Duration
	now        func() time.Time
	buffer     int
}

func NewQuoteStore(spreadFor SpreadConfigFn, notifier *Notifier, staleAfter time.Duration, now func() time.Time) *QuoteStore {
	if now == nil {
		now = time.Now
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Second
	}
	return &QuoteStore{
		entries:    make(map[string]*quoteEntry),
		subs:       make(map[string][]chan domain.Quote),
		spreadFor:  spreadFor,
		notifier:   notifier,
		staleAfter: staleAfter,
		now:        now,
		buffer:     64,
	}
}

// Apply folds one tick into the store and reports whether the resulting
// quote differed from the previous one. A tick carrying a genuine
// top-of-book pair is used directly; otherwise its anchor price runs
// through spread synthesis. An identical re-delivered price refreshes the
// staleness clock but does not fan out.
func (s *QuoteStore) Apply(t domain.Tick) bool {
	sym := subscription.Canonical(t.Symbol)
	if sym == "" {
		return false
	}

	var q domain.Quote
	if t.HasBook() {
		spread := t.Ask - t.Bid
		mid := (t.Bid + t.Ask) / 2
		q = domain.Quote{
			Symbol:         sym,
			Bid:            t.Bid,
			Ask:            t.Ask,
			Mid:            mid,
			SpreadAbs:      spread,
			SpreadPerMille: spread / mid * 1000,
			Ts:             t.Ts,
		}
	} else {
		q = domain.Synthesize(sym, t.Anchor(), s.spreadFor(sym), t.Ts)
	}
	if !q.Valid() {
		return false
	}

	s.mu.Lock()
	e := s.entries[sym]
	if e == nil {
		e = &quoteEntry{}
		s.entries[sym] = e
	}
	prev := e.quote
	hadPrev := prev.Symbol != ""
	e.feed = t.Feed
	e.updatedAt = s.now()
	e.stale = false
	if hadPrev && prev.SamePrice(q) {
		e.quote.Ts = q.Ts
		s.mu.Unlock()
		return false
	}
	e.quote = q
	subs := append([]chan domain.Quote(nil), s.subs[sym]...)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- q:
		default:
		}
	}
	if s.notifier != nil {
		s.notifier.Publish(quoteKeyPrefix+sym, q.Mid, q.Ts)
	}
	return true
}

// Get returns the current quote for a symbol; ok is false when no quote
// has arrived yet or the last one has gone stale.
func (s *QuoteStore) Get(symbol string) (domain.Quote, bool) {
	q, stale, ok := s.Peek(symbol)
	if !ok || stale {
		return domain.InvalidQuote(subscription.Canonical(symbol)), false
	}
	return q, true
}

// Peek returns the latest quote along with its staleness, for callers that
// render stale values dimmed instead of hiding them. Staleness is a lazy
// clock check, not a timer per symbol.
func (s *QuoteStore) Peek(symbol string) (q domain.Quote, stale, ok bool) {
	sym := subscription.Canonical(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[sym]
	if e == nil || e.quote.Symbol == "" {
		return domain.InvalidQuote(sym), false, false
	}
	stale = e.stale || s.now().Sub(e.updatedAt) > s.staleAfter
	return e.quote, stale, true
}

// Subscribe returns a channel of future quote changes for a symbol and a
// cancel func. Only material changes arrive: no-op feed churn is filtered
// in Apply.
func (s *QuoteStore) Subscribe(symbol string) (<-chan domain.Quote, func()) {
	sym := subscription.Canonical(symbol)

	s.mu.Lock()
	ch := make(chan domain.Quote, s.buffer)
	s.subs[sym] = append(s.subs[sym], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.subs[sym]
		for i, c := range list {
			if c == ch {
				s.subs[sym] = append(list[:i], list[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, cancel
}

// MarkFeedStale flags every symbol last served by the named feed. Called by
// a feed adapter the moment its transport drops; freshness returns with the
// first post-reconnect tick.
func (s *QuoteStore) MarkFeedStale(feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.feed == feed {
			e.stale = true
		}
	}
}

// Tone returns the flash direction of a symbol's mid price.
func (s *QuoteStore) Tone(symbol string) domain.Direction {
	if s.notifier == nil {
		return domain.DirectionSame
	}
	return s.notifier.Tone(quoteKeyPrefix + subscription.Canonical(symbol))
}

// StaleCount returns how many tracked symbols currently have no fresh
// quote, for metrics.
func (s *QuoteStore) StaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for _, e := range s.entries {
		if e.stale || now.Sub(e.updatedAt) > s.staleAfter {
			n++
		}
	}
	return n
}
