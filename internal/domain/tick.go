package domain

// Tick is one normalized market-data update produced by a feed adapter.
// A zero price field means "absent"; at least one of Bid/Ask/Last is set
// on any tick that leaves an adapter.
type Tick struct {
	Feed   string // source feed name, e.g. "ticker", "kline", "pushquote"
	Symbol string // canonical pair, e.g. "BTCUSDT"
	Bid    float64
	Ask    float64
	Last   float64
	Ts     int64 // unix ms; arrival time when the wire carries no timestamp
}

// HasBook reports whether the tick carries a genuine top-of-book pair.
func (t Tick) HasBook() bool {
	return t.Bid > 0 && t.Ask > t.Bid
}

// Anchor returns the single reference price used to synthesize a quote
// when no genuine order book is available.
func (t Tick) Anchor() float64 {
	if t.Last > 0 {
		return t.Last
	}
	return t.Bid
}
