package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
	"github.com/hmzsumon/cp-client-sub000/internal/application/service"
	"github.com/hmzsumon/cp-client-sub000/internal/application/subscription"
	"github.com/hmzsumon/cp-client-sub000/internal/application/usecase/monitor"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/config"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/feed"
	_ "github.com/hmzsumon/cp-client-sub000/internal/infrastructure/feed/kline"
	_ "github.com/hmzsumon/cp-client-sub000/internal/infrastructure/feed/pushquote"
	_ "github.com/hmzsumon/cp-client-sub000/internal/infrastructure/feed/ticker"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/logger"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/metrics"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/storage/composite"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/storage/postgres"
	redisrepo "github.com/hmzsumon/cp-client-sub000/internal/infrastructure/storage/redis"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/storage/sqlite"
	"github.com/hmzsumon/cp-client-sub000/internal/interfaces/console"
)

func main() {
	_ = godotenv.Load()
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	// endpoint overrides from the environment (.env in dev)
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := buildRepository(cfg)
	defer repo.Close()

	subs := subscription.NewManager()
	notifier := service.NewNotifier(cfg.FlashWindow(), nil)
	store := service.NewQuoteStore(cfg.SpreadFor, notifier, cfg.StaleWindow(), nil)
	pnl := service.NewPnlAggregator(store, notifier, cfg.App.BaseBalance, nil)

	feeds := feed.NewManager()
	if err := feeds.Initialize(cfg, feed.Deps{Subs: subs, Stale: store}); err != nil {
		log.Fatal().Err(err).Msg("feed initialization failed")
	}

	if cfg.Metrics.Addr != "" {
		metrics.Serve(cfg.Metrics.Addr)
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listening")
	}

	svc := monitor.NewService(monitor.ServiceDeps{
		Feeds:         feeds.Feeds(),
		Subs:          subs,
		Store:         store,
		Pnl:           pnl,
		Positions:     monitor.NewStaticPositions(cfg.DomainPositions()),
		Symbols:       cfg.Symbols.List,
		Sink:          console.NewSink(),
		Repo:          repo,
		SnapshotEvery: time.Duration(cfg.App.SnapshotEverySec) * time.Second,
	})

	log.Info().
		Str("config", *configPath).
		Int("symbols", len(cfg.Symbols.List)).
		Int("positions", len(cfg.Positions)).
		Float64("base_balance", cfg.App.BaseBalance).
		Msg("pricecore started")

	if err := svc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("monitor service exited")
	}
}

func buildRepository(cfg *config.Config) port.Repository {
	var repos []port.Repository

	if cfg.Storage.SQLitePath != "" {
		r, err := sqlite.New(cfg.Storage.SQLitePath)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.Storage.SQLitePath).Msg("sqlite unavailable")
		} else {
			repos = append(repos, r)
		}
	}
	if cfg.Storage.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Storage.RedisAddr})
		repos = append(repos, redisrepo.New(rdb, cfg.Storage.RedisPrefix, time.Hour))
	}
	if cfg.Storage.PostgresDSN != "" {
		r, err := postgres.New(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Error().Err(err).Msg("postgres unavailable")
		} else {
			repos = append(repos, r)
		}
	}

	switch len(repos) {
	case 0:
		return monitor.NewNoopRepo()
	case 1:
		return repos[0]
	default:
		return composite.New(repos...)
	}
}
