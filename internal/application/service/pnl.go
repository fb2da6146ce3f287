package service

import (
	"math"
	"sync"
	"time"

	"github.com/hmzsumon/cp-client-sub000/internal/application/subscription"
	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

// ScopeTotal is the aggregate scope covering the whole account.
const ScopeTotal = "total"

const pnlKeyPrefix = "pnl:"

// Quotes is the price lookup the aggregator values positions against.
type Quotes interface {
	Get(symbol string) (domain.Quote, bool)
}

// Aggregate is the externally visible state of one P&L scope.
type Aggregate struct {
	Value   float64
	Loading bool
	Tone    domain.Direction
}

type symbolTotal struct {
	value float64
	ready bool
}

// PnlAggregator groups open positions by symbol, sums their live P&L and
// derives total equity. A scope is "loading", never zero, until every
// member position has a computable P&L; a missing quote therefore can not
// flash an incorrectly low equity at the UI.
type PnlAggregator struct {
	mu          sync.Mutex
	quotes      Quotes
	notifier    *Notifier
	baseBalance float64
	now         func() time.Time

	perSymbol   map[string]symbolTotal
	positionPnl map[string]float64
	total       float64
	totalReady  bool
	computed    bool
}

func NewPnlAggregator(quotes Quotes, notifier *Notifier, baseBalance float64, now func() time.Time) *PnlAggregator {
	if now == nil {
		now = time.Now
	}
	return &PnlAggregator{
		quotes:      quotes,
		notifier:    notifier,
		baseBalance: baseBalance,
		now:         now,
		perSymbol:   make(map[string]symbolTotal),
		positionPnl: make(map[string]float64),
	}
}

// Recompute revalues every position against current quotes and publishes a
// change notification for each aggregate that moved. Closed positions keep
// their frozen realized value and are excluded from the open aggregates.
func (a *PnlAggregator) Recompute(positions []domain.Position) {
	perSymbol := make(map[string]symbolTotal)
	positionPnl := make(map[string]float64, len(positions))

	for _, p := range positions {
		sym := subscription.Canonical(p.Symbol)
		if p.Status == domain.Closed {
			positionPnl[p.ID] = p.RealizedPnl
			continue
		}

		q, _ := a.quotes.Get(sym)
		pnl := domain.UnrealizedPnl(p, q)
		positionPnl[p.ID] = pnl

		st, seen := perSymbol[sym]
		if !seen {
			st = symbolTotal{ready: true}
		}
		if math.IsNaN(pnl) {
			st.ready = false
		} else {
			st.value += pnl
		}
		perSymbol[sym] = st
	}

	total := a.baseBalance
	totalReady := true
	for _, st := range perSymbol {
		if !st.ready {
			totalReady = false
			continue
		}
		total += st.value
	}

	ts := a.now().UnixMilli()

	a.mu.Lock()
	a.perSymbol = perSymbol
	a.positionPnl = positionPnl
	a.total = total
	a.totalReady = totalReady
	a.computed = true
	a.mu.Unlock()

	if a.notifier != nil {
		for sym, st := range perSymbol {
			if st.ready {
				a.notifier.Publish(pnlKeyPrefix+sym, st.value, ts)
			}
		}
		if totalReady {
			a.notifier.Publish(pnlKeyPrefix+ScopeTotal, total, ts)
		}
	}
}

// GetAggregate returns the latest value, readiness and flash tone for a
// scope: ScopeTotal or a symbol. Unknown scopes report loading.
func (a *PnlAggregator) GetAggregate(scope string) Aggregate {
	a.mu.Lock()
	var value float64
	var ready bool
	key := scope
	if scope == ScopeTotal {
		value, ready = a.total, a.computed && a.totalReady
	} else {
		key = subscription.Canonical(scope)
		st, ok := a.perSymbol[key]
		value, ready = st.value, ok && st.ready
	}
	a.mu.Unlock()

	agg := Aggregate{Value: value, Loading: !ready}
	if a.notifier != nil && ready {
		agg.Tone = a.notifier.Tone(pnlKeyPrefix + key)
	}
	return agg
}

// GetPositionPnl returns the latest computed P&L for one position, NaN
// when it is not computable or the position is unknown.
func (a *PnlAggregator) GetPositionPnl(id string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	pnl, ok := a.positionPnl[id]
	if !ok {
		return math.NaN()
	}
	return pnl
}

// Total returns total equity and whether it is ready.
func (a *PnlAggregator) Total() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total, a.computed && a.totalReady
}
