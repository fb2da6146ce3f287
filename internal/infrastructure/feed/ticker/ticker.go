// Package ticker consumes the exchange ticker stream: JSON array frames of
// per-symbol last prices, broadcast for many more symbols than we track.
package ticker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
	"github.com/hmzsumon/cp-client-sub000/internal/application/subscription"
	"github.com/hmzsumon/cp-client-sub000/internal/domain"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/feed"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/metrics"
)

const name = "ticker"

func init() {
	feed.Register(name, New)
}

type Feed struct {
	wsURL string
	subs  *subscription.Manager
	stale port.StaleMarker
}

func New(wsURL string, deps feed.Deps) port.Feed {
	return &Feed{
		wsURL: strings.TrimSpace(wsURL),
		subs:  deps.Subs,
		stale: deps.Stale,
	}
}

func (f *Feed) Name() string { return name }

// frame item: {"s":"BTCUSDT","c":"65000.10","o":"64000.00","v":"1234.5"}
type tickerItem struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
	Open   string `json:"o"`
	Volume string `json:"v"`
}

func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.Tick, error) {
	if f.wsURL == "" {
		return nil, errors.New("ticker ws_url empty")
	}
	out := make(chan domain.Tick, 1024)
	go f.run(ctx, out)
	return out, nil
}

func (f *Feed) run(ctx context.Context, out chan<- domain.Tick) {
	defer close(out)

	backoff := feed.InitialBackoff()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Warn().Str("feed", name).Str("url", f.wsURL).Msg("ws connecting")
		conn, err := feed.Dial(ctx, f.wsURL)
		if err != nil {
			log.Error().Str("feed", name).Err(err).Msg("ws dial failed")
			time.Sleep(backoff)
			backoff = feed.NextBackoff(backoff)
			continue
		}

		backoff = feed.InitialBackoff()
		log.Info().Str("feed", name).Msg("ws connected")

		err = feed.ReadLoop(ctx, conn, func(b []byte) {
			for _, t := range parseFrame(b, time.Now().UnixMilli()) {
				if !f.subs.Contains(t.Symbol) {
					continue
				}
				t.Symbol = subscription.Canonical(t.Symbol)
				out <- t
				metrics.TicksTotal.WithLabelValues(name).Inc()
			}
		})

		_ = conn.Close()
		f.stale.MarkFeedStale(name)

		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("feed", name).Err(err).Msg("ws disconnected, reconnecting")
		time.Sleep(backoff)
		backoff = feed.NextBackoff(backoff)
	}
}

// parseFrame normalizes one array frame. Anything unparsable is skipped,
// never surfaced as an error: one bad item must not poison the frame.
func parseFrame(b []byte, nowMs int64) []domain.Tick {
	var items []tickerItem
	if err := json.Unmarshal(b, &items); err != nil {
		log.Debug().Str("feed", name).Err(err).Msg("bad ticker frame")
		return nil
	}

	out := make([]domain.Tick, 0, len(items))
	for _, it := range items {
		sym := strings.TrimSpace(it.Symbol)
		if sym == "" {
			continue
		}
		px, err := strconv.ParseFloat(strings.TrimSpace(it.Close), 64)
		if err != nil || px <= 0 {
			continue
		}
		out = append(out, domain.Tick{Feed: name, Symbol: sym, Last: px, Ts: nowMs})
	}
	return out
}
