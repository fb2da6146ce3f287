package service

import (
	"sync"
	"time"

	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

// Update is one change event pushed to subscribers of a key.
type Update struct {
	Key   string
	Value float64
	Tone  domain.Direction
	Ts    int64
}

// Notifier fans changed values out to per-key subscriber channels and
// tracks the directional tone of each key for UI flash effects. A value
// equal to the last emitted one is suppressed entirely. Sends are
// non-blocking: a slow subscriber misses intermediate values rather than
// stalling the feed path.
type Notifier struct {
	mu          sync.Mutex
	subs        map[string][]chan Update
	tones       map[string]*domain.ToneState
	flashWindow time.Duration
	now         func() time.Time
	buffer      int
}

func NewNotifier(flashWindow time.Duration, now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{
		subs:        make(map[string][]chan Update),
		tones:       make(map[string]*domain.ToneState),
		flashWindow: flashWindow,
		now:         now,
		buffer:      64,
	}
}

// Subscribe returns a channel receiving future changes for key and a
// cancel func that removes and closes it.
func (n *Notifier) Subscribe(key string) (<-chan Update, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Update, n.buffer)
	n.subs[key] = append(n.subs[key], ch)

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		list := n.subs[key]
		for i, c := range list {
			if c == ch {
				n.subs[key] = append(list[:i], list[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, cancel
}

// Publish emits value under key if it differs from the last emitted value.
// Returns whether subscribers were notified.
func (n *Notifier) Publish(key string, value float64, ts int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	tone := n.tones[key]
	if tone == nil {
		tone = &domain.ToneState{}
		n.tones[key] = tone
	}
	now := n.now()
	if !tone.Update(value, now, n.flashWindow) {
		return false
	}

	u := Update{Key: key, Value: value, Tone: tone.Tone(now), Ts: ts}
	for _, ch := range n.subs[key] {
		select {
		case ch <- u:
		default:
			// subscriber is slow, drop
		}
	}
	return true
}

// Tone returns the flash direction currently in effect for key. The flash
// expires on its own after the configured window, no further ticks needed.
func (n *Notifier) Tone(key string) domain.Direction {
	n.mu.Lock()
	defer n.mu.Unlock()
	tone := n.tones[key]
	if tone == nil {
		return domain.DirectionSame
	}
	return tone.Tone(n.now())
}

// Last returns the last emitted value for key.
func (n *Notifier) Last(key string) (float64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tone := n.tones[key]
	if tone == nil || !tone.HasValue {
		return 0, false
	}
	return tone.Value, true
}
