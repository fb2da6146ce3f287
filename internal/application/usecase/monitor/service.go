package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
	"github.com/hmzsumon/cp-client-sub000/internal/application/service"
	"github.com/hmzsumon/cp-client-sub000/internal/application/subscription"
	"github.com/hmzsumon/cp-client-sub000/internal/domain"
	"github.com/hmzsumon/cp-client-sub000/internal/infrastructure/metrics"
)

type ServiceDeps struct {
	Feeds         []port.Feed
	Subs          *subscription.Manager
	Store         *service.QuoteStore
	Pnl           *service.PnlAggregator
	Positions     port.PositionSource
	Symbols       []string
	Sink          port.Sink
	Repo          port.Repository
	SnapshotEvery time.Duration
	RenderEvery   time.Duration
}

// Service is the live board loop: it merges the feed channels, drives the
// quote store and the P&L aggregator, and renders one console line the way
// the trading UI would.
type Service struct {
	deps ServiceDeps
	fmt  *Formatter
}

func NewService(deps ServiceDeps) *Service {
	if deps.RenderEvery <= 0 {
		deps.RenderEvery = 250 * time.Millisecond
	}
	if deps.SnapshotEvery <= 0 {
		deps.SnapshotEvery = 5 * time.Minute
	}
	return &Service{deps: deps, fmt: NewFormatter()}
}

func (s *Service) Run(ctx context.Context) error {
	if len(s.deps.Feeds) == 0 {
		return errors.New("no feeds")
	}

	// the board holds interest in every configured symbol for as long as
	// it runs; the guards release on every exit path
	for _, sym := range s.deps.Symbols {
		lease := s.deps.Subs.Acquire(sym)
		defer lease.Release()
	}

	merged := make(chan domain.Tick, 1024)

	// start feeds
	for _, f := range s.deps.Feeds {
		ch, err := f.Subscribe(ctx)
		if err != nil {
			return err
		}
		go func(in <-chan domain.Tick) {
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-in:
					if !ok {
						return
					}
					merged <- t
				}
			}
		}(ch)

		log.Info().Str("feed", f.Name()).Msg("feed started")
	}

	snapTicker := time.NewTicker(s.deps.SnapshotEvery)
	defer snapTicker.Stop()

	// periodic re-render keeps flash decay and staleness visible without
	// needing further price ticks
	renderTicker := time.NewTicker(s.deps.RenderEvery)
	defer renderTicker.Stop()

	// initial live line
	_ = s.deps.Sink.WriteLive(s.render(RenderLive))

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case now := <-snapTicker.C:
			line := s.render(RenderSnapshot)
			_ = s.deps.Sink.WriteSnapshot(now, line)
			_ = s.deps.Repo.InsertSnapshot(ctx, now.UnixMilli(), line)

		case <-renderTicker.C:
			metrics.StaleSymbols.Set(float64(s.deps.Store.StaleCount()))
			_ = s.deps.Sink.WriteLive(s.render(RenderLive))

		case t := <-merged:
			s.handleTick(ctx, t)
		}
	}
}

// handleTick folds one tick into the store and, when it moved a quote,
// recomputes P&L and persists the new state.
func (s *Service) handleTick(ctx context.Context, t domain.Tick) {
	// a symbol released between feed filter and here is dropped, so a
	// late tick can not resurrect dead state
	if !s.deps.Subs.Contains(t.Symbol) {
		return
	}

	changed := s.deps.Store.Apply(t)
	if !changed {
		return
	}
	metrics.QuoteUpdatesTotal.WithLabelValues(t.Symbol).Inc()

	positions, err := s.deps.Positions.Positions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("position source failed")
		return
	}
	s.deps.Pnl.Recompute(positions)
	metrics.PnlRecomputesTotal.Inc()

	if q, ok := s.deps.Store.Get(t.Symbol); ok {
		_ = s.deps.Repo.UpsertLatestQuote(ctx, q.Symbol, q.Bid, q.Ask, q.Ts)
	}
	if total, ready := s.deps.Pnl.Total(); ready {
		_ = s.deps.Repo.UpsertPnlSample(ctx, service.ScopeTotal, total, t.Ts)
	}

	_ = s.deps.Sink.WriteLive(s.render(RenderLive))
}

func (s *Service) render(mode RenderMode) string {
	return s.fmt.Render(s.deps.Symbols, s.deps.Store, s.deps.Pnl, mode)
}
