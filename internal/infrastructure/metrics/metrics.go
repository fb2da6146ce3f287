package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricecore_ticks_total", Help: "Normalized ticks emitted per feed"},
		[]string{"feed"},
	)
	QuoteUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricecore_quote_updates_total", Help: "Material quote changes per symbol"},
		[]string{"symbol"},
	)
	PnlRecomputesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pricecore_pnl_recomputes_total", Help: "Full P&L recomputations"},
	)
	StaleSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "pricecore_stale_symbols", Help: "Tracked symbols without a fresh quote"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, QuoteUpdatesTotal, PnlRecomputesTotal, StaleSymbols)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
