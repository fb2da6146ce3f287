package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
)

type Repo struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	keyQuotes string // prefix + ":quotes"
	pnlStream string
	pnlChan   string
}

type LatestQuote struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Ts     int64   `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "pricecore"
	}
	return &Repo{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		keyQuotes: prefix + ":quotes",
		pnlStream: prefix + ":pnl",
		pnlChan:   prefix + ":pnl:pub",
	}
}

func (r *Repo) UpsertLatestQuote(ctx context.Context, symbol string, bid, ask float64, ts int64) error {
	if bid <= 0 || ask <= 0 {
		return nil
	}
	lq := LatestQuote{Symbol: symbol, Bid: bid, Ask: ask, Ts: ts}
	b, _ := json.Marshal(lq)

	// Hash: field = "BTCUSDT" -> json
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyQuotes, symbol, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyQuotes, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) UpsertPnlSample(ctx context.Context, scope string, value float64, ts int64) error {
	// 1) Stream: XADD <stream> * ts scope value
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.pnlStream,
		Values: map[string]any{
			"ts_ms": ts,
			"scope": scope,
			"value": value,
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json, plain JSON for consumers
	msg := fmt.Sprintf(`{"ts_ms":%d,"scope":"%s","value":%.8f}`, ts, scope, value)
	return r.rdb.Publish(ctx, r.pnlChan, msg).Err()
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	// snapshots live in sqlite/postgres; nothing to do here
	return nil
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.Repository = (*Repo)(nil)
