package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[symbols]
list = ["btcusdt"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.StaleWindow() != 10*time.Second {
		t.Errorf("stale window = %v, want 10s default", cfg.StaleWindow())
	}
	if cfg.FlashWindow() != 700*time.Millisecond {
		t.Errorf("flash window = %v, want 700ms default", cfg.FlashWindow())
	}
	if cfg.Spread.PerMille != 1.0 || cfg.Spread.TickSize != 0.01 || cfg.Spread.PerMilleStep != 0.01 {
		t.Errorf("spread defaults = %+v", cfg.Spread)
	}
	if cfg.Storage.RedisPrefix != "pricecore" {
		t.Errorf("redis prefix = %q, want pricecore default", cfg.Storage.RedisPrefix)
	}
}

func TestLoadNormalizesSymbols(t *testing.T) {
	path := writeConfig(t, `
[symbols]
list = ["btcusd", "BTCUSDT", "ethusdt", " ", "ethUSDT"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	// btcusd and BTCUSDT are the same instrument; dupes and blanks dropped
	want := []string{"BTCUSDT", "ETHUSDT"}
	if len(cfg.Symbols.List) != len(want) {
		t.Fatalf("symbols = %v, want %v", cfg.Symbols.List, want)
	}
	for i := range want {
		if cfg.Symbols.List[i] != want[i] {
			t.Fatalf("symbols = %v, want %v", cfg.Symbols.List, want)
		}
	}
}

func TestLoadRejectsEmptySymbols(t *testing.T) {
	path := writeConfig(t, `
[symbols]
list = []
`)
	if _, err := Load(path); err == nil {
		t.Fatal("empty symbol list must fail validation")
	}
}

func TestLoadRejectsEnabledFeedWithoutURL(t *testing.T) {
	path := writeConfig(t, `
[symbols]
list = ["btcusdt"]

[feeds.ticker]
enabled = true
ws_url = ""
`)
	if _, err := Load(path); err == nil {
		t.Fatal("enabled feed without ws_url must fail validation")
	}
}

func TestSpreadForMergesOverride(t *testing.T) {
	path := writeConfig(t, `
[symbols]
list = ["btcusdt", "goldusdt"]

[spread]
per_mille = 1.0
tick_size = 0.01

[spread.symbols.BTCUSDT]
target_abs_usd = 12.0

[spread.symbols.GOLDUSDT]
per_mille = 10.0
tick_size = 0.1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	btc := cfg.SpreadFor("btcusd") // any spelling resolves the override
	if btc.TargetAbsUSD != 12.0 {
		t.Errorf("btc target = %v, want 12 from override", btc.TargetAbsUSD)
	}
	if btc.PerMille != 1.0 {
		t.Errorf("btc per_mille = %v, want global 1.0", btc.PerMille)
	}

	gold := cfg.SpreadFor("GOLDUSDT")
	if gold.PerMille != 10.0 || gold.TickSize != 0.1 {
		t.Errorf("gold = %+v, want per_mille 10 tick 0.1", gold)
	}

	other := cfg.SpreadFor("ETHUSDT")
	if other.PerMille != 1.0 || other.TargetAbsUSD != 0 {
		t.Errorf("unlisted symbol = %+v, want globals only", other)
	}
}

func TestDomainPositions(t *testing.T) {
	path := writeConfig(t, `
[symbols]
list = ["btcusdt"]

[[positions]]
id = "p1"
symbol = "btcusd"
side = "SELL"
size = 2.0
entry_price = 65000.0

[[positions]]
id = "p2"
symbol = "btcusdt"
side = "buy"
size = 1.0
entry_price = 64000.0
multiplier = 100.0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	ps := cfg.DomainPositions()
	if len(ps) != 2 {
		t.Fatalf("positions = %d, want 2", len(ps))
	}
	if ps[0].Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q, want canonical BTCUSDT", ps[0].Symbol)
	}
	if ps[0].Side.String() != "sell" {
		t.Errorf("side = %v, want sell (case-insensitive)", ps[0].Side)
	}
	if ps[0].ContractMultiplier != 1 {
		t.Errorf("multiplier = %v, want default 1", ps[0].ContractMultiplier)
	}
	if ps[1].ContractMultiplier != 100 {
		t.Errorf("multiplier = %v, want 100", ps[1].ContractMultiplier)
	}
}
