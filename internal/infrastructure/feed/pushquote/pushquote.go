// Package pushquote consumes the privately pushed quote channel: event
// style messages "quote:<SYMBOL>" carrying a real bid/ask pair, with
// explicit subscribe/unsubscribe control frames sent upstream. Unlike the
// broadcast streams, this source only sends what we ask for, so the
// adapter doubles as a subscription.Upstream.
package pushquote

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
	"github.com/hmzsumon/cp-client-sub000/internal/application/subscription"
	"github.com/hmzsumon/cp-client-sub000/internal/domain"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/feed"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/metrics"
)

const name = "pushquote"

const eventPrefix = "quote:"

func init() {
	feed.Register(name, New)
}

type Feed struct {
	wsURL string
	subs  *subscription.Manager
	stale port.StaleMarker

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(wsURL string, deps feed.Deps) port.Feed {
	f := &Feed{
		wsURL: strings.TrimSpace(wsURL),
		subs:  deps.Subs,
		stale: deps.Stale,
	}
	// From now on 0->1 / 1->0 refcount transitions reach this channel as
	// control frames. While disconnected they are no-ops; the connect path
	// replays the whole active set anyway.
	deps.Subs.RegisterUpstream(f)
	return f
}

func (f *Feed) Name() string { return name }

type controlFrame struct {
	Event string `json:"event"`
	Data  struct {
		Symbol string `json:"symbol"`
	} `json:"data"`
}

type quoteFrame struct {
	Event string `json:"event"`
	Data  struct {
		Symbol string  `json:"symbol"`
		Bid    float64 `json:"bid"`
		Ask    float64 `json:"ask"`
		Ts     int64   `json:"ts"`
	} `json:"data"`
}

// SubscribeSymbol sends a subscribe control frame if connected.
func (f *Feed) SubscribeSymbol(symbol string) error {
	return f.sendControl("subscribe", symbol)
}

// UnsubscribeSymbol sends an unsubscribe control frame if connected.
func (f *Feed) UnsubscribeSymbol(symbol string) error {
	return f.sendControl("unsubscribe", symbol)
}

func (f *Feed) sendControl(event, symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	var fr controlFrame
	fr.Event = event
	fr.Data.Symbol = symbol
	return f.conn.WriteJSON(fr)
}

func (f *Feed) setConn(c *websocket.Conn) {
	f.mu.Lock()
	f.conn = c
	f.mu.Unlock()
}

func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.Tick, error) {
	if f.wsURL == "" {
		return nil, errors.New("pushquote ws_url empty")
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

		f.setConn(conn)
		// replay every active symbol before the feed counts as ready;
		// upstream subscriptions do not survive the transport
		f.subs.Resubscribe(f)

		backoff = feed.InitialBackoff()
		log.Info().Str("feed", name).Msg("ws connected & resubscribed")

		err = feed.ReadLoop(ctx, conn, func(b []byte) {
			t, ok := parseFrame(b, time.Now().UnixMilli())
			if !ok || !f.subs.Contains(t.Symbol) {
				return
			}
			t.Symbol = subscription.Canonical(t.Symbol)
			out <- t
			metrics.TicksTotal.WithLabelValues(name).Inc()
		})

		f.setConn(nil)
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

// parseFrame extracts a bid/ask tick from one "quote:<SYMBOL>" event.
// Control acks and unknown events are ignored.
func parseFrame(b []byte, nowMs int64) (domain.Tick, bool) {
	var fr quoteFrame
	if err := json.Unmarshal(b, &fr); err != nil {
		log.Debug().Str("feed", name).Err(err).Msg("bad pushquote frame")
		return domain.Tick{}, false
	}
	if !strings.HasPrefix(fr.Event, eventPrefix) {
		return domain.Tick{}, false
	}

	sym := strings.TrimSpace(fr.Data.Symbol)
	if sym == "" {
		sym = strings.TrimPrefix(fr.Event, eventPrefix)
	}
	if sym == "" || fr.Data.Bid <= 0 || fr.Data.Ask <= 0 {
		return domain.Tick{}, false
	}

	ts := fr.Data.Ts
	if ts == 0 {
		ts = nowMs
	}
	return domain.Tick{Feed: name, Symbol: sym, Bid: fr.Data.Bid, Ask: fr.Data.Ask, Ts: ts}, true
}
