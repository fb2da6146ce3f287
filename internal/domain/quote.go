package domain

import "math"

// Quote is the latest consistent bid/ask pair for one symbol, either taken
// directly from a feed's top of book or synthesized from an anchor price.
type Quote struct {
	Symbol         string
	Bid            float64
	Ask            float64
	Mid            float64
	SpreadAbs      float64
	SpreadPerMille float64
	Ts             int64 // unix ms
}

// InvalidQuote is the "no price yet" sentinel. All price fields are NaN so
// a consumer can never mistake it for a zero-spread quote.
func InvalidQuote(symbol string) Quote {
	nan := math.NaN()
	return Quote{Symbol: symbol, Bid: nan, Ask: nan, Mid: nan, SpreadAbs: nan, SpreadPerMille: nan}
}

// Valid reports whether the quote carries a usable price.
func (q Quote) Valid() bool {
	if math.IsNaN(q.Bid) || math.IsNaN(q.Ask) {
		return false
	}
	return q.Bid > 0 && q.Ask >= q.Bid && !math.IsInf(q.Ask, 0)
}

// SamePrice reports exact bid/ask equality with another quote. Feed churn
// that re-delivers an identical price must not fan out to subscribers.
func (q Quote) SamePrice(o Quote) bool {
	return q.Bid == o.Bid && q.Ask == o.Ask
}
