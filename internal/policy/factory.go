package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/laurin2323/eth-ml-bot/internal/series"
)

const (
	DefaultEntryThreshold = 0.55
	DefaultExitThreshold  = 0.10
	DefaultLongThreshold  = 0.55
	DefaultShortThreshold = 0.45
	DefaultATRMin         = 0.8
	DefaultATRMax         = 6.0
	DefaultRSIExit        = 55
)

var ErrUnknownPolicy = errors.New("unknown policy")

// Policy maps one bar's close and features to decision flags.
type Policy interface {
	Evaluate(bar series.Bar, f series.Features) series.Signal
	Name() string
}

// Params expresses tunable knobs required by policy constructors.
type Params struct {
	EntryThreshold float64
	ExitThreshold  float64
	LongThreshold  float64
	ShortThreshold float64
	UseFilters     bool
	ATRMin         float64
	ATRMax         float64
	RSIExit        float64
}

// DefaultParams mirrors the thresholds the pipeline shipped with.
func DefaultParams() Params {
	return Params{
		EntryThreshold: DefaultEntryThreshold,
		ExitThreshold:  DefaultExitThreshold,
		LongThreshold:  DefaultLongThreshold,
		ShortThreshold: DefaultShortThreshold,
		ATRMin:         DefaultATRMin,
		ATRMax:         DefaultATRMax,
		RSIExit:        DefaultRSIExit,
	}
}

// CheckMode reports whether Build recognizes mode.
func CheckMode(mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "threshold", "long", "long_only", "long_short", "longshort", "ls":
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownPolicy, mode)
}

// Build returns a policy implementation matching the configured mode.
// Unrecognized modes fall back to the long-only threshold policy; config
// validation rejects them before a run gets here.
func Build(mode string, params Params) Policy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "long_short", "longshort", "ls":
		return NewLongShort(params.LongThreshold, params.ShortThreshold, params.UseFilters, params.ATRMin, params.ATRMax)
	default:
		return NewThreshold(params.EntryThreshold, params.ExitThreshold, params.ATRMin, params.ATRMax, params.RSIExit)
	}
}

// Apply returns a copy of rows with each Signal produced by p from that row's features.
func Apply(p Policy, rows []series.Row) []series.Row {
	out := series.Clone(rows)
	for i := range out {
		out[i].Signal = p.Evaluate(out[i].Bar, out[i].Features)
	}
	return out
}

// Entries counts bars that raise any entry flag.
func Entries(rows []series.Row) int {
	n := 0
	for _, r := range rows {
		if r.Signal.EntryLong || r.Signal.EntryShort {
			n++
		}
	}
	return n
}
