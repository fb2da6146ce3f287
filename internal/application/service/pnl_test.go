package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

type stubQuotes map[string]domain.Quote

func (s stubQuotes) Get(symbol string) (domain.Quote, bool) {
	q, ok := s[symbol]
	if !ok {
		return domain.InvalidQuote(symbol), false
	}
	return q, true
}

func book(symbol string, bid, ask float64) domain.Quote {
	return domain.Quote{Symbol: symbol, Bid: bid, Ask: ask, Mid: (bid + ask) / 2, SpreadAbs: ask - bid}
}

func TestRecomputeAggregatesPerSymbol(t *testing.T) {
	quotes := stubQuotes{"BTCUSDT": book("BTCUSDT", 110, 111)}
	a := NewPnlAggregator(quotes, nil, 0, nil)

	// two buys: 1@100 -> +10, 2@105 -> +10
	a.Recompute([]domain.Position{
		{ID: "p1", Symbol: "BTCUSDT", Side: domain.Buy, Size: 1, EntryPrice: 100, ContractMultiplier: 1},
		{ID: "p2", Symbol: "BTCUSDT", Side: domain.Buy, Size: 2, EntryPrice: 105, ContractMultiplier: 1},
	})

	agg := a.GetAggregate("BTCUSDT")
	require.False(t, agg.Loading)
	assert.InDelta(t, 20, agg.Value, 1e-9)
	assert.InDelta(t, 10, a.GetPositionPnl("p1"), 1e-9)
	assert.InDelta(t, 10, a.GetPositionPnl("p2"), 1e-9)
}

func TestSymbolLoadingUntilEveryMemberComputable(t *testing.T) {
	quotes := stubQuotes{"BTCUSDT": book("BTCUSDT", 110, 111)}
	a := NewPnlAggregator(quotes, nil, 1000, nil)

	// second symbol has no quote: its aggregate and the total stay loading
	a.Recompute([]domain.Position{
		{ID: "p1", Symbol: "BTCUSDT", Side: domain.Buy, Size: 1, EntryPrice: 100, ContractMultiplier: 1},
		{ID: "p2", Symbol: "ETHUSDT", Side: domain.Buy, Size: 1, EntryPrice: 3000, ContractMultiplier: 1},
	})

	assert.False(t, a.GetAggregate("BTCUSDT").Loading)
	assert.True(t, a.GetAggregate("ETHUSDT").Loading)
	assert.True(t, a.GetAggregate(ScopeTotal).Loading)
	assert.True(t, math.IsNaN(a.GetPositionPnl("p2")))
	_, ready := a.Total()
	assert.False(t, ready)

	// quote arrives: everything settles
	quotes["ETHUSDT"] = book("ETHUSDT", 3100, 3101)
	a.Recompute([]domain.Position{
		{ID: "p1", Symbol: "BTCUSDT", Side: domain.Buy, Size: 1, EntryPrice: 100, ContractMultiplier: 1},
		{ID: "p2", Symbol: "ETHUSDT", Side: domain.Buy, Size: 1, EntryPrice: 3000, ContractMultiplier: 1},
	})

	total, ready := a.Total()
	require.True(t, ready)
	assert.InDelta(t, 1000+10+100, total, 1e-9)
}

func TestTotalEquityIncludesBaseBalance(t *testing.T) {
	quotes := stubQuotes{"BTCUSDT": book("BTCUSDT", 95, 96)}
	a := NewPnlAggregator(quotes, nil, 500, nil)

	a.Recompute([]domain.Position{
		{ID: "p1", Symbol: "BTCUSDT", Side: domain.Buy, Size: 1, EntryPrice: 100, ContractMultiplier: 1},
	})

	total, ready := a.Total()
	require.True(t, ready)
	assert.InDelta(t, 495, total, 1e-9) // 500 base - 5 loss
}

func TestClosedPositionsStayFrozen(t *testing.T) {
	quotes := stubQuotes{"BTCUSDT": book("BTCUSDT", 200, 201)}
	a := NewPnlAggregator(quotes, nil, 0, nil)

	a.Recompute([]domain.Position{
		{ID: "open", Symbol: "BTCUSDT", Side: domain.Buy, Size: 1, EntryPrice: 100, ContractMultiplier: 1},
		{ID: "closed", Symbol: "BTCUSDT", Side: domain.Buy, Size: 1, EntryPrice: 100, ContractMultiplier: 1, Status: domain.Closed, RealizedPnl: 42},
	})

	// the closed position keeps its realized value and stays out of the
	// open-symbol aggregate
	assert.InDelta(t, 42, a.GetPositionPnl("closed"), 1e-9)
	assert.InDelta(t, 100, a.GetAggregate("BTCUSDT").Value, 1e-9)
}

func TestUnknownScopesAndPositions(t *testing.T) {
	a := NewPnlAggregator(stubQuotes{}, nil, 0, nil)

	assert.True(t, a.GetAggregate("NOPEUSDT").Loading)
	assert.True(t, a.GetAggregate(ScopeTotal).Loading, "total is loading before the first recompute")
	assert.True(t, math.IsNaN(a.GetPositionPnl("missing")))
}

func TestRecomputePublishesOnlyReadyScopes(t *testing.T) {
	clk := newFakeClock()
	n := NewNotifier(700*time.Millisecond, clk.Now)
	quotes := stubQuotes{"BTCUSDT": book("BTCUSDT", 110, 111)}
	a := NewPnlAggregator(quotes, n, 100, clk.Now)

	symCh, cancelSym := n.Subscribe("pnl:BTCUSDT")
	defer cancelSym()
	totalCh, cancelTotal := n.Subscribe("pnl:total")
	defer cancelTotal()

	positions := []domain.Position{
		{ID: "p1", Symbol: "BTCUSDT", Side: domain.Buy, Size: 1, EntryPrice: 100, ContractMultiplier: 1},
		{ID: "p2", Symbol: "ETHUSDT", Side: domain.Buy, Size: 1, EntryPrice: 3000, ContractMultiplier: 1},
	}
	a.Recompute(positions)

	assert.Equal(t, 1, len(symCh), "ready symbol publishes")
	assert.Equal(t, 0, len(totalCh), "loading total must not publish")

	// unchanged recompute publishes nothing new
	a.Recompute(positions)
	assert.Equal(t, 1, len(symCh))

	// total flips ready once the missing quote arrives
	quotes["ETHUSDT"] = book("ETHUSDT", 3000, 3001)
	a.Recompute(positions)
	require.Equal(t, 1, len(totalCh))
	u := <-totalCh
	assert.InDelta(t, 110, u.Value, 1e-9) // 100 base + 10 btc + 0 eth
}
