package config

import (
	"errors"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hmzsumon/cp-client-sub000/internal/application/subscription"
	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

type FeedConfig struct {
	Enabled bool   `toml:"enabled"`
	WsURL   string `toml:"ws_url"`
}

type SpreadOverride struct {
	PerMille     float64 `toml:"per_mille"`
	TickSize     float64 `toml:"tick_size"`
	TargetAbsUSD float64 `toml:"target_abs_usd"`
}

type PositionConfig struct {
	ID         string  `toml:"id"`
	Symbol     string  `toml:"symbol"`
	Side       string  `toml:"side"` // "buy" | "sell"
	Size       float64 `toml:"size"`
	EntryPrice float64 `toml:"entry_price"`
	Multiplier float64 `toml:"multiplier"`
}

type Config struct {
	App struct {
		StaleWindowMs    int     `toml:"stale_window_ms"`
		FlashWindowMs    int     `toml:"flash_window_ms"`
		SnapshotEverySec int     `toml:"snapshot_every_sec"`
		BaseBalance      float64 `toml:"base_balance"`
	} `toml:"app"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Spread struct {
		PerMille     float64                   `toml:"per_mille"`
		TickSize     float64                   `toml:"tick_size"`
		PerMilleStep float64                   `toml:"per_mille_step"`
		TargetAbsUSD float64                   `toml:"target_abs_usd"`
		Symbols      map[string]SpreadOverride `toml:"symbols"`
	} `toml:"spread"`

	Feeds struct {
		Ticker    FeedConfig `toml:"ticker"`
		Kline     FeedConfig `toml:"kline"`
		PushQuote FeedConfig `toml:"pushquote"`
	} `toml:"feeds"`

	Storage struct {
		SQLitePath  string `toml:"sqlite_path"`
		RedisAddr   string `toml:"redis_addr"`
		RedisPrefix string `toml:"redis_prefix"`
		PostgresDSN string `toml:"postgres_dsn"`
	} `toml:"storage"`

	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`

	Positions []PositionConfig `toml:"positions"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.StaleWindowMs <= 0 {
		cfg.App.StaleWindowMs = 10000
	}
	if cfg.App.FlashWindowMs <= 0 {
		cfg.App.FlashWindowMs = 700
	}
	if cfg.App.SnapshotEverySec <= 0 {
		cfg.App.SnapshotEverySec = 300
	}
	if cfg.Spread.PerMille <= 0 {
		cfg.Spread.PerMille = 1.0
	}
	if cfg.Spread.TickSize <= 0 {
		cfg.Spread.TickSize = 0.01
	}
	if cfg.Spread.PerMilleStep <= 0 {
		cfg.Spread.PerMilleStep = 0.01
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = "pricecore"
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}

	if cfg.Feeds.Ticker.Enabled && strings.TrimSpace(cfg.Feeds.Ticker.WsURL) == "" {
		return errors.New("feeds.ticker.ws_url empty but enabled")
	}
	if cfg.Feeds.Kline.Enabled && strings.TrimSpace(cfg.Feeds.Kline.WsURL) == "" {
		return errors.New("feeds.kline.ws_url empty but enabled")
	}
	if cfg.Feeds.PushQuote.Enabled && strings.TrimSpace(cfg.Feeds.PushQuote.WsURL) == "" {
		return errors.New("feeds.pushquote.ws_url empty but enabled")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := subscription.Canonical(s)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// SpreadFor resolves the effective spread configuration for a symbol,
// merging the per-symbol override over the global defaults.
func (cfg *Config) SpreadFor(symbol string) domain.SpreadConfig {
	out := domain.SpreadConfig{
		PerMille:     cfg.Spread.PerMille,
		TickSize:     cfg.Spread.TickSize,
		PerMilleStep: cfg.Spread.PerMilleStep,
		TargetAbsUSD: cfg.Spread.TargetAbsUSD,
	}
	ov, ok := cfg.Spread.Symbols[subscription.Canonical(symbol)]
	if !ok {
		return out
	}
	if ov.PerMille > 0 {
		out.PerMille = ov.PerMille
	}
	if ov.TickSize > 0 {
		out.TickSize = ov.TickSize
	}
	if ov.TargetAbsUSD > 0 {
		out.TargetAbsUSD = ov.TargetAbsUSD
	}
	return out
}

// StaleWindow returns the quote staleness window.
func (cfg *Config) StaleWindow() time.Duration {
	return time.Duration(cfg.App.StaleWindowMs) * time.Millisecond
}

// FlashWindow returns how long a directional flash stays visible.
func (cfg *Config) FlashWindow() time.Duration {
	return time.Duration(cfg.App.FlashWindowMs) * time.Millisecond
}

// DomainPositions converts configured demo positions to domain positions.
func (cfg *Config) DomainPositions() []domain.Position {
	out := make([]domain.Position, 0, len(cfg.Positions))
	for _, p := range cfg.Positions {
		side := domain.Buy
		if strings.EqualFold(p.Side, "sell") {
			side = domain.Sell
		}
		mult := p.Multiplier
		if mult <= 0 {
			mult = 1
		}
		out = append(out, domain.Position{
			ID:                 p.ID,
			Symbol:             subscription.Canonical(p.Symbol),
			Side:               side,
			Size:               p.Size,
			EntryPrice:         p.EntryPrice,
			ContractMultiplier: mult,
		})
	}
	return out
}
