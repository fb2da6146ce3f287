package service

import (
	"testing"
	"time"

	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestNotifierSuppressesEqualValues(t *testing.T) {
	clk := newFakeClock()
	n := NewNotifier(700*time.Millisecond, clk.Now)

	ch, cancel := n.Subscribe("pnl:total")
	defer cancel()

	if !n.Publish("pnl:total", 100, 1) {
		t.Fatal("first value must notify")
	}
	if n.Publish("pnl:total", 100, 2) {
		t.Fatal("equal value must be suppressed")
	}
	if !n.Publish("pnl:total", 101, 3) {
		t.Fatal("changed value must notify")
	}

	if got := len(ch); got != 2 {
		t.Fatalf("subscriber received %d updates, want 2", got)
	}
	first := <-ch
	if first.Value != 100 || first.Tone != domain.DirectionSame {
		t.Errorf("first update = %+v, want value 100 with flat tone", first)
	}
	second := <-ch
	if second.Value != 101 || second.Tone != domain.DirectionUp {
		t.Errorf("second update = %+v, want value 101 with up tone", second)
	}
}

func TestNotifierFlashExpires(t *testing.T) {
	clk := newFakeClock()
	n := NewNotifier(700*time.Millisecond, clk.Now)

	n.Publish("quote:BTCUSDT", 100, 1)
	n.Publish("quote:BTCUSDT", 99, 2)

	if got := n.Tone("quote:BTCUSDT"); got != domain.DirectionDown {
		t.Fatalf("tone right after a drop = %v, want down", got)
	}

	clk.Advance(500 * time.Millisecond)
	if got := n.Tone("quote:BTCUSDT"); got != domain.DirectionDown {
		t.Fatalf("tone within the window = %v, want still down", got)
	}

	// no further publishes: the flash decays on its own
	clk.Advance(300 * time.Millisecond)
	if got := n.Tone("quote:BTCUSDT"); got != domain.DirectionSame {
		t.Fatalf("tone after the window = %v, want flat", got)
	}
}

func TestNotifierCancelClosesChannel(t *testing.T) {
	n := NewNotifier(700*time.Millisecond, nil)

	ch, cancel := n.Subscribe("k")
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("cancel must close the subscriber channel")
	}
	// publishing after cancel must not panic or deliver
	n.Publish("k", 1, 1)
}

func TestNotifierLast(t *testing.T) {
	n := NewNotifier(700*time.Millisecond, nil)

	if _, ok := n.Last("k"); ok {
		t.Fatal("Last before any publish must report not-found")
	}
	n.Publish("k", 3.5, 1)
	v, ok := n.Last("k")
	if !ok || v != 3.5 {
		t.Fatalf("Last = %v/%v, want 3.5/true", v, ok)
	}
}
