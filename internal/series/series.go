// Package series defines the per-bar records shared by the loaders, the signal policy and the engine.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNoOverlap means the inner join of two tables produced no rows.
	ErrNoOverlap = errors.New("no overlapping timestamps")
	// ErrDuplicateTime means a table repeats a timestamp.
	ErrDuplicateTime = errors.New("duplicate timestamp")
)

// Bar is one daily OHLCV observation. High, Low and Volume are carried for
// upstream consumers; the engine only reads Open and Close.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Signal holds the decision flags evaluated at a bar's close.
type Signal struct {
	EntryLong  bool
	ExitLong   bool
	EntryShort bool
	ExitShort  bool
}

// Any reports whether at least one flag is set.
func (s Signal) Any() bool {
	return s.EntryLong || s.ExitLong || s.EntryShort || s.ExitShort
}

// Features are the enriched inputs a policy reads: model up-probability plus indicator filters.
type Features struct {
	PUp    float64
	ATRPct float64
	EMA50  float64
	RSI14  float64
}

// SignalRow is a timestamped signal as read from a signal table.
type SignalRow struct {
	Time time.Time
	Signal
}

// FeatureRow is a timestamped feature set as read from a feature table.
type FeatureRow struct {
	Time time.Time
	Features
}

// Row is the fixed per-bar record the engine folds over.
type Row struct {
	Bar
	Signal   Signal
	Features Features
}

// Align inner-joins bars and signals on timestamp and returns rows in ascending time order.
func Align(bars []Bar, signals []SignalRow) ([]Row, error) {
	return join(bars, signals, func(s SignalRow) time.Time { return s.Time }, func(r *Row, s SignalRow) {
		r.Signal = s.Signal
	})
}

// AlignFeatures inner-joins bars and features; the resulting rows carry no signal until a policy fills it in.
func AlignFeatures(bars []Bar, features []FeatureRow) ([]Row, error) {
	return join(bars, features, func(f FeatureRow) time.Time { return f.Time }, func(r *Row, f FeatureRow) {
		r.Features = f.Features
	})
}

// MergeSignals overlays a signal table onto already aligned rows, dropping rows without a signal.
func MergeSignals(rows []Row, signals []SignalRow) ([]Row, error) {
	bars := make([]Bar, len(rows))
	feats := make(map[int64]Features, len(rows))
	for i, r := range rows {
		bars[i] = r.Bar
		feats[key(r.Time)] = r.Features
	}
	out, err := Align(bars, signals)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Features = feats[key(out[i].Time)]
	}
	return out, nil
}

func join[T any](bars []Bar, items []T, timeOf func(T) time.Time, apply func(*Row, T)) ([]Row, error) {
	index := make(map[int64]T, len(items))
	for _, item := range items {
		k := key(timeOf(item))
		if _, dup := index[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTime, timeOf(item).Format(time.RFC3339))
		}
		index[k] = item
	}

	seen := make(map[int64]struct{}, len(bars))
	rows := make([]Row, 0, len(bars))
	for _, b := range bars {
		k := key(b.Time)
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTime, b.Time.Format(time.RFC3339))
		}
		seen[k] = struct{}{}
		item, ok := index[k]
		if !ok {
			continue
		}
		row := Row{Bar: b}
		apply(&row, item)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoOverlap
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows, nil
}

func key(t time.Time) int64 { return t.UTC().UnixNano() }

// Bars strips rows back to their price bars.
func Bars(rows []Row) []Bar {
	out := make([]Bar, len(rows))
	for i, r := range rows {
		out[i] = r.Bar
	}
	return out
}

// Clone copies rows so a caller can rewrite signals without touching shared input.
func Clone(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}
