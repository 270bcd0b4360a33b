// Package policy turns per-bar model probabilities and indicator filters into entry/exit flags.
package policy

import (
	"fmt"

	"github.com/laurin2323/eth-ml-bot/internal/series"
)

// Threshold is the long-only policy: enter on a confident up-probability
// inside a volatility band above trend, exit when overbought or confidence fades.
type Threshold struct {
	entry   float64
	exit    float64
	atrMin  float64
	atrMax  float64
	rsiExit float64
}

// NewThreshold builds the long-only policy. Non-positive filter bounds fall back to defaults.
func NewThreshold(entry, exit, atrMin, atrMax, rsiExit float64) *Threshold {
	if entry <= 0 {
		entry = DefaultEntryThreshold
	}
	if atrMin <= 0 {
		atrMin = DefaultATRMin
	}
	if atrMax <= 0 {
		atrMax = DefaultATRMax
	}
	if rsiExit <= 0 {
		rsiExit = DefaultRSIExit
	}
	return &Threshold{entry: entry, exit: exit, atrMin: atrMin, atrMax: atrMax, rsiExit: rsiExit}
}

// Name returns the configured identifier for logging.
func (p *Threshold) Name() string {
	return fmt.Sprintf("threshold(entry=%.2f,exit=%.2f)", p.entry, p.exit)
}

// Evaluate decides the long-only flags for one bar.
func (p *Threshold) Evaluate(bar series.Bar, f series.Features) series.Signal {
	entry := f.PUp > p.entry && p.inBand(f.ATRPct) && bar.Close > f.EMA50
	exit := f.RSI14 > p.rsiExit || f.PUp < p.exit
	return series.Signal{EntryLong: entry, ExitLong: exit}
}

func (p *Threshold) inBand(atrPct float64) bool {
	return atrPct >= p.atrMin && atrPct <= p.atrMax
}
