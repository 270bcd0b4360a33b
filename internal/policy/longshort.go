package policy

import (
	"fmt"

	"github.com/laurin2323/eth-ml-bot/internal/series"
)

// LongShort keeps the book always invested: bullish probability goes long,
// bearish goes short, anything in between holds the current side.
type LongShort struct {
	longThr    float64
	shortThr   float64
	useFilters bool
	atrMin     float64
	atrMax     float64
}

// NewLongShort builds the long/short policy.
func NewLongShort(longThr, shortThr float64, useFilters bool, atrMin, atrMax float64) *LongShort {
	if longThr <= 0 {
		longThr = DefaultLongThreshold
	}
	if shortThr <= 0 {
		shortThr = DefaultShortThreshold
	}
	if atrMin <= 0 {
		atrMin = DefaultATRMin
	}
	if atrMax <= 0 {
		atrMax = DefaultATRMax
	}
	return &LongShort{longThr: longThr, shortThr: shortThr, useFilters: useFilters, atrMin: atrMin, atrMax: atrMax}
}

// Name returns the configured identifier for logging.
func (p *LongShort) Name() string {
	return fmt.Sprintf("long_short(long=%.2f,short=%.2f,filters=%t)", p.longThr, p.shortThr, p.useFilters)
}

// Evaluate decides the four flags for one bar. Exiting one side is the same
// decision as entering the other.
func (p *LongShort) Evaluate(bar series.Bar, f series.Features) series.Signal {
	long := f.PUp > p.longThr
	short := f.PUp < p.shortThr
	if p.useFilters {
		band := f.ATRPct >= p.atrMin && f.ATRPct <= p.atrMax
		long = long && band && bar.Close > f.EMA50
		short = short && band && bar.Close < f.EMA50
	}
	return series.Signal{
		EntryLong:  long,
		EntryShort: short,
		ExitLong:   short,
		ExitShort:  long,
	}
}
