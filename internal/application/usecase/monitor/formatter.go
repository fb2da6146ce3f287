package monitor

import (
	"fmt"
	"strings"

	"github.com/hmzsumon/cp-client-sub000/internal/application/service"
	"github.com/hmzsumon/cp-client-sub000/internal/domain"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

func toneColor(d domain.Direction) string {
	switch d {
	case domain.DirectionUp:
		return ansiGreen
	case domain.DirectionDown:
		return ansiRed
	default:
		return ansiYellow
	}
}

type Formatter struct{}

func NewFormatter() *Formatter { return &Formatter{} }

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

func (f *Formatter) Render(symbols []string, store *service.QuoteStore, pnl *service.PnlAggregator, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(colorize("[PRICE] ", ansiDim))

	for i, sym := range symbols {
		if i > 0 {
			sb.WriteString(colorize("  ||  ", ansiDim))
		}

		quoteStr := "--/--"
		quoteCol := ansiYellow
		q, stale, ok := store.Peek(sym)
		if ok {
			quoteStr = fmt.Sprintf("%.2f/%.2f", q.Bid, q.Ask)
			quoteCol = toneColor(store.Tone(sym))
			if stale {
				quoteCol = ansiDim
			}
		}

		pnlStr := "P&L=…"
		pnlCol := ansiYellow
		agg := pnl.GetAggregate(sym)
		if !agg.Loading {
			pnlStr = fmt.Sprintf("P&L=%+.2f", agg.Value)
			pnlCol = toneColor(agg.Tone)
		}

		sb.WriteString(sym)
		sb.WriteString(" ")
		sb.WriteString(colorize(quoteStr, quoteCol))
		sb.WriteString(" ")
		sb.WriteString(colorize(pnlStr, pnlCol))
	}

	total := pnl.GetAggregate(service.ScopeTotal)
	totalStr := "equity=…"
	totalCol := ansiYellow
	if !total.Loading {
		totalStr = fmt.Sprintf("equity=%.2f", total.Value)
		totalCol = toneColor(total.Tone)
	}
	sb.WriteString(colorize("  ||  ", ansiDim))
	sb.WriteString(colorize(totalStr, totalCol))

	if mode == RenderLive {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}
