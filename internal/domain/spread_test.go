package domain

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestRoundToTickHalfUp(t *testing.T) {
	cases := []struct {
		price, tick, want float64
	}{
		{99.994, 0.01, 99.99},
		{99.995, 0.01, 100.00},
		{99.996, 0.01, 100.00},
		{102.5, 5, 105},
		{1.23456, 0, 1.23456}, // no tick, passthrough
	}
	for _, c := range cases {
		got := RoundToTick(c.price, c.tick)
		if !almostEqual(got, c.want) {
			t.Errorf("RoundToTick(%v, %v) = %v, want %v", c.price, c.tick, got, c.want)
		}
	}
}

func TestSynthesizePerMille(t *testing.T) {
	// anchor=100000, perMille=10, tick=0.01 -> spread 1000, 99500/100500
	q := Synthesize("BTCUSDT", 100000, SpreadConfig{PerMille: 10, TickSize: 0.01}, 123)

	if !q.Valid() {
		t.Fatal("quote should be valid")
	}
	if !almostEqual(q.Bid, 99500.00) || !almostEqual(q.Ask, 100500.00) {
		t.Errorf("bid/ask = %v/%v, want 99500/100500", q.Bid, q.Ask)
	}
	if !almostEqual(q.SpreadAbs, 1000) {
		t.Errorf("spreadAbs = %v, want 1000", q.SpreadAbs)
	}
	if q.Ts != 123 {
		t.Errorf("ts = %d, want 123", q.Ts)
	}
}

func TestSynthesizeTargetAbsolute(t *testing.T) {
	// anchor=65000, target=12 USD -> perMille ceiled to 0.19, spread >= 12
	cfg := SpreadConfig{PerMille: 1, TickSize: 0.01, TargetAbsUSD: 12, PerMilleStep: 0.01}
	q := Synthesize("BTCUSDT", 65000, cfg, 0)

	if !q.Valid() {
		t.Fatal("quote should be valid")
	}
	if !almostEqual(q.SpreadPerMille, 0.19) {
		t.Errorf("perMille = %v, want 0.19", q.SpreadPerMille)
	}
	if q.SpreadAbs < 12 {
		t.Errorf("spreadAbs = %v, must never undershoot the 12 USD target", q.SpreadAbs)
	}
}

func TestSynthesizeTargetNeverUndershoots(t *testing.T) {
	anchors := []float64{0.5, 3.17, 120, 1999.99, 65000, 104999.37}
	targets := []float64{0.01, 0.25, 3, 12}
	for _, anchor := range anchors {
		for _, target := range targets {
			cfg := SpreadConfig{TickSize: 0.01, TargetAbsUSD: target, PerMilleStep: 0.01}
			q := Synthesize("X", anchor, cfg, 0)
			if !q.Valid() {
				t.Fatalf("anchor=%v target=%v: invalid quote", anchor, target)
			}
			if q.SpreadAbs < target-eps {
				t.Errorf("anchor=%v target=%v: spreadAbs=%v undershoots", anchor, target, q.SpreadAbs)
			}
		}
	}
}

func TestSynthesizeInvariants(t *testing.T) {
	anchors := []float64{0.001, 1, 42.42, 65000, 1e7}
	for _, anchor := range anchors {
		cfg := SpreadConfig{PerMille: 2.5, TickSize: 0.01}
		q := Synthesize("X", anchor, cfg, 0)
		if !q.Valid() {
			t.Fatalf("anchor=%v: invalid quote", anchor)
		}
		if q.Ask < q.Bid {
			t.Errorf("anchor=%v: ask %v < bid %v", anchor, q.Ask, q.Bid)
		}
		// both sides are exact tick multiples
		if !almostEqual(RoundToTick(q.Bid, cfg.TickSize), q.Bid) {
			t.Errorf("anchor=%v: bid %v not a tick multiple", anchor, q.Bid)
		}
		if !almostEqual(RoundToTick(q.Ask, cfg.TickSize), q.Ask) {
			t.Errorf("anchor=%v: ask %v not a tick multiple", anchor, q.Ask)
		}
		if !almostEqual(q.SpreadAbs, q.Ask-q.Bid) {
			t.Errorf("anchor=%v: spreadAbs %v != ask-bid", anchor, q.SpreadAbs)
		}
	}
}

func TestSynthesizeInvalidAnchor(t *testing.T) {
	for _, anchor := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		q := Synthesize("X", anchor, SpreadConfig{PerMille: 1, TickSize: 0.01}, 0)
		if q.Valid() {
			t.Errorf("anchor=%v: expected invalid quote sentinel", anchor)
		}
		if !math.IsNaN(q.Bid) || !math.IsNaN(q.Ask) {
			t.Errorf("anchor=%v: sentinel must be NaN, got %v/%v", anchor, q.Bid, q.Ask)
		}
	}
}
