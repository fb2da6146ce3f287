// Package kline consumes the candle stream: one JSON object per frame with
// the candle nested under "k". Only the close price feeds quoting; a candle
// close is a perfectly good anchor when no ticker is available.
package kline

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

const name = "kline"

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

// frame: {"s":"BTCUSDT","E":1700000000123,"k":{"t":1700000000000,"o":"..","h":"..","l":"..","c":".."}}
type klineFrame struct {
	Symbol    string `json:"s"`
	EventTime int64  `json:"E"`
	K         struct {
		OpenTime int64  `json:"t"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
	} `json:"k"`
}

func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.Tick, error) {
	if f.wsURL == "" {
		return nil, errors.New("kline ws_url empty")
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
			t, ok := parseFrame(b, time.Now().UnixMilli())
			if !ok || !f.subs.Contains(t.Symbol) {
				return
			}
			t.Symbol = subscription.Canonical(t.Symbol)
			out <- t
			metrics.TicksTotal.WithLabelValues(name).Inc()
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

// parseFrame extracts a close-price tick from one candle frame. The source
// event time is preserved when present; otherwise the candle open time,
// otherwise arrival time.
func parseFrame(b []byte, nowMs int64) (domain.Tick, bool) {
	var fr klineFrame
	if err := json.Unmarshal(b, &fr); err != nil {
		log.Debug().Str("feed", name).Err(err).Msg("bad kline frame")
		return domain.Tick{}, false
	}

	sym := strings.TrimSpace(fr.Symbol)
	if sym == "" {
		return domain.Tick{}, false
	}
	px, err := strconv.ParseFloat(strings.TrimSpace(fr.K.Close), 64)
	if err != nil || px <= 0 {
		return domain.Tick{}, false
	}

	ts := fr.EventTime
	if ts == 0 {
		ts = fr.K.OpenTime
	}
	if ts == 0 {
		ts = nowMs
	}
	return domain.Tick{Feed: name, Symbol: sym, Last: px, Ts: ts}, true
}
