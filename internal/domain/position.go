package domain

import "math"

// Side is the direction a position was opened in.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Status tells whether a position is still live.
type Status int

const (
	Open Status = iota
	Closed
)

// Position is an open or closed trade owned by the external order-management
// layer. The pricing core only reads it.
type Position struct {
	ID                 string
	Symbol             string
	Side               Side
	Size               float64
	EntryPrice         float64
	ContractMultiplier float64
	Status             Status
	RealizedPnl        float64 // frozen at close time; only meaningful when Closed
}

// UnrealizedPnl values a position against the current quote. A position is
// closed at the side opposite to how it was opened: buyers exit at the bid,
// sellers at the ask. Returns NaN when no usable price is available so that
// "unknown" can never read as flat, and the frozen realized value once the
// position is closed.
func UnrealizedPnl(p Position, q Quote) float64 {
	if p.Status == Closed {
		return p.RealizedPnl
	}
	if !q.Valid() {
		return math.NaN()
	}

	closing := q.Bid
	diff := closing - p.EntryPrice
	if p.Side == Sell {
		closing = q.Ask
		diff = p.EntryPrice - closing
	}
	return diff * p.ContractMultiplier * p.Size
}
