package domain

import "math"

// SpreadConfig controls how a bid/ask pair is manufactured from a single
// anchor price for symbols without a genuine order book.
type SpreadConfig struct {
	PerMille     float64 // spread in thousandths of the anchor
	TickSize     float64 // rounding granularity for bid/ask
	TargetAbsUSD float64 // when > 0, overrides PerMille by solving for it
	PerMilleStep float64 // rounding step when deriving from TargetAbsUSD
}

const defaultPerMilleStep = 0.01

// RoundToTick rounds a price to the nearest tick, half up.
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Floor(price/tick+0.5) * tick
}

// DerivePerMille solves for the per-mille spread that realizes at least
// target absolute USD at the given anchor. The result is ceiled to step so
// rounding never undershoots the target.
func DerivePerMille(target, anchor, step float64) float64 {
	if target <= 0 || anchor <= 0 {
		return 0
	}
	if step <= 0 {
		step = defaultPerMilleStep
	}
	raw := target / anchor * 1000
	return math.Ceil(raw/step) * step
}

// Synthesize manufactures a quote from a single anchor price under cfg,
// splitting the spread symmetrically around the anchor. An anchor that is
// zero, negative or non-finite yields the invalid-quote sentinel instead
// of an error: callers treat it as "no price yet".
func Synthesize(symbol string, anchor float64, cfg SpreadConfig, ts int64) Quote {
	if !(anchor > 0) || math.IsInf(anchor, 0) {
		return InvalidQuote(symbol)
	}

	perMille := cfg.PerMille
	if cfg.TargetAbsUSD > 0 {
		perMille = DerivePerMille(cfg.TargetAbsUSD, anchor, cfg.PerMilleStep)
	}
	if perMille < 0 || math.IsNaN(perMille) {
		return InvalidQuote(symbol)
	}

	spread := anchor * perMille / 1000
	bid := RoundToTick(anchor-spread/2, cfg.TickSize)
	ask := RoundToTick(anchor+spread/2, cfg.TickSize)
	if ask < bid {
		ask = bid
	}

	return Quote{
		Symbol:         symbol,
		Bid:            bid,
		Ask:            ask,
		Mid:            (bid + ask) / 2,
		SpreadAbs:      ask - bid,
		SpreadPerMille: perMille,
		Ts:             ts,
	}
}
