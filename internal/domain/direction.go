package domain

import "time"

// Direction represents the price movement direction
type Direction int

const (
	DirectionSame Direction = 0
	DirectionUp   Direction = +1
	DirectionDown Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "flat"
	}
}

// ToneState tracks the last emitted value of a metric and the directional
// "flash" shown against it. The flash is not cleared by a timer: it simply
// expires once now passes FlashUntil, checked lazily on read.
type ToneState struct {
	Value      float64
	HasValue   bool
	Dir        Direction
	FlashUntil time.Time
}

// Update applies a new value and reports whether it differs from the last
// emitted one. The first value ever seen counts as a change but carries no
// flash direction.
func (ts *ToneState) Update(v float64, now time.Time, flashWindow time.Duration) bool {
	if ts.HasValue && v == ts.Value {
		return false
	}
	if !ts.HasValue {
		ts.HasValue = true
		ts.Value = v
		ts.Dir = DirectionSame
		return true
	}

	switch {
	case v > ts.Value:
		ts.Dir = DirectionUp
	case v < ts.Value:
		ts.Dir = DirectionDown
	default:
		ts.Dir = DirectionSame
	}
	ts.Value = v
	ts.FlashUntil = now.Add(flashWindow)
	return true
}

// Tone returns the flash direction still in effect at now, flat once the
// window has passed.
func (ts *ToneState) Tone(now time.Time) Direction {
	if ts.Dir == DirectionSame || now.After(ts.FlashUntil) {
		return DirectionSame
	}
	return ts.Dir
}
