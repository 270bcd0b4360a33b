// Package backtest replays aligned price and signal rows through a position
// state machine and produces the equity curve.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/laurin2323/eth-ml-bot/internal/execution"
	"github.com/laurin2323/eth-ml-bot/internal/metrics"
	"github.com/laurin2323/eth-ml-bot/internal/series"
)

// Mode selects the engine variant.
type Mode string

const (
	// LongOnly enters on entry_long and leaves on exit_long.
	LongOnly Mode = "long_only"
	// LongShort is always invested once the first entry fires and flips between sides.
	LongShort Mode = "long_short"
)

var (
	ErrUnknownMode = errors.New("unknown engine mode")
	ErrInvalidLag  = errors.New("execution lag must be at least one bar")
	ErrEmptySeries = errors.New("empty series")
	ErrMisaligned  = errors.New("rows are not strictly ascending in time")
	ErrBadBar      = errors.New("bar has non-positive or non-finite open/close")
)

// ParseMode accepts the config spellings of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "long", "long_only", "longonly":
		return LongOnly, nil
	case "long_short", "longshort", "ls":
		return LongShort, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// FillRecorder receives every simulated fill as it happens.
type FillRecorder interface {
	Record(execution.Fill)
}

// Engine runs one strategy variant under a fixed cost model. It holds no
// per-run state, so concurrent Run calls are safe as long as the recorder is.
type Engine struct {
	mode     Mode
	costs    execution.Costs
	lag      int
	recorder FillRecorder
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLag sets how many bars separate a signal from its execution.
func WithLag(bars int) Option {
	return func(e *Engine) { e.lag = bars }
}

// WithRecorder streams fills to r.
func WithRecorder(r FillRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger attaches a logger for fill and run events.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New validates the configuration and builds an engine.
func New(mode Mode, costs execution.Costs, opts ...Option) (*Engine, error) {
	if mode != LongOnly && mode != LongShort {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err := costs.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{mode: mode, costs: costs, lag: 1, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.lag < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLag, e.lag)
	}
	return e, nil
}

// Mode returns the configured variant.
func (e *Engine) Mode() Mode { return e.mode }

// Costs returns the configured cost model.
func (e *Engine) Costs() execution.Costs { return e.costs }

// Lag returns the execution lag in bars.
func (e *Engine) Lag() int { return e.lag }

// Result is the outcome of one run. Equity has one value per input row and starts at 1.
type Result struct {
	Mode   Mode
	Times  []time.Time
	Equity []float64
	Fills  []execution.Fill
	// Final is the position left open after the last bar; it is marked, never force-closed.
	Final Position
}

// FinalEquity returns the last value of the curve.
func (r Result) FinalEquity() float64 {
	if len(r.Equity) == 0 {
		return 0
	}
	return r.Equity[len(r.Equity)-1]
}

// fold is the accumulator carried from bar to bar.
type fold struct {
	pos    Position
	equity float64
	fills  []execution.Fill
}

// Run replays rows bar by bar. Input is validated up front; the loop itself
// cannot fail.
func (e *Engine) Run(rows []series.Row) (Result, error) {
	if err := Validate(rows); err != nil {
		return Result{}, err
	}

	res := Result{
		Mode:   e.mode,
		Times:  make([]time.Time, len(rows)),
		Equity: make([]float64, len(rows)),
	}
	acc := fold{equity: 1.0}
	res.Times[0] = rows[0].Time
	res.Equity[0] = acc.equity

	for i := 1; i < len(rows); i++ {
		res.Times[i] = rows[i].Time
		if i >= e.lag {
			prev := rows[i-e.lag].Signal
			if e.mode == LongShort {
				e.stepLongShort(&acc, i, rows[i].Bar, prev)
			} else {
				e.stepLongOnly(&acc, i, rows[i].Bar, prev)
			}
		}
		res.Equity[i] = acc.equity
	}

	res.Fills = acc.fills
	res.Final = acc.pos

	mode := string(e.mode)
	metrics.RunsTotal.WithLabelValues(mode).Inc()
	metrics.BarsTotal.WithLabelValues(mode).Add(float64(len(rows)))
	metrics.FinalEquity.WithLabelValues(mode).Set(res.FinalEquity())
	e.log.Debug().
		Str("mode", mode).
		Int("bars", len(rows)).
		Int("fills", len(res.Fills)).
		Str("open_side", acc.pos.Side.String()).
		Float64("final_equity", res.FinalEquity()).
		Msg("backtest finished")
	return res, nil
}

func (e *Engine) stepLongOnly(acc *fold, i int, bar series.Bar, sig series.Signal) {
	if acc.pos.Side == Flat && sig.EntryLong {
		e.open(acc, i, bar, Long, acc.equity)
	}
	if acc.pos.Side != Long {
		return
	}
	if sig.ExitLong {
		exit := e.costs.SellPrice(bar.Open)
		acc.equity = acc.pos.EquityAtEntry * (exit / acc.pos.EntryPrice)
		e.record(acc, i, bar, execution.CloseLong, exit, acc.equity)
		acc.pos = Position{}
		return
	}
	acc.equity = acc.pos.Mark(bar.Close, acc.equity)
}

func (e *Engine) stepLongShort(acc *fold, i int, bar series.Bar, sig series.Signal) {
	if sig.EntryLong && sig.EntryShort {
		e.log.Debug().Int("bar", i).Time("ts", bar.Time).Msg("both entry flags set, long takes precedence")
	}
	switch {
	case acc.pos.Side != Long && sig.EntryLong:
		basis := acc.equity
		if acc.pos.Side == Short {
			basis = e.close(acc, i, bar)
		}
		e.open(acc, i, bar, Long, basis)
	case acc.pos.Side != Short && sig.EntryShort:
		basis := acc.equity
		if acc.pos.Side == Long {
			basis = e.close(acc, i, bar)
		}
		e.open(acc, i, bar, Short, basis)
	}
	acc.equity = acc.pos.Mark(bar.Close, acc.equity)
}

// open starts a position at bar's open with the given equity basis.
func (e *Engine) open(acc *fold, i int, bar series.Bar, side Side, basis float64) {
	action := execution.OpenLong
	if side == Short {
		action = execution.OpenShort
	}
	price := e.costs.Price(action.Side(), bar.Open)
	acc.pos = Position{Side: side, EntryPrice: price, EquityAtEntry: basis}
	e.record(acc, i, bar, action, price, basis)
}

// close realizes the open position at bar's open and returns the carried equity basis.
func (e *Engine) close(acc *fold, i int, bar series.Bar) float64 {
	action := execution.CloseLong
	if acc.pos.Side == Short {
		action = execution.CloseShort
	}
	exit := e.costs.Price(action.Side(), bar.Open)
	basis := acc.pos.EquityAtEntry * (1 + acc.pos.pnlAt(exit))
	e.record(acc, i, bar, action, exit, basis)
	acc.pos = Position{}
	return basis
}

func (e *Engine) record(acc *fold, i int, bar series.Bar, action execution.Action, price, equity float64) {
	fill := execution.Fill{
		Time:     bar.Time,
		Bar:      i,
		Action:   action,
		Side:     action.Side(),
		RefPrice: bar.Open,
		Price:    price,
		Equity:   equity,
	}
	acc.fills = append(acc.fills, fill)
	metrics.FillsTotal.WithLabelValues(string(e.mode), string(fill.Side)).Inc()
	if e.recorder != nil {
		e.recorder.Record(fill)
	}
	e.log.Trace().
		Int("bar", i).
		Str("action", string(action)).
		Float64("ref", bar.Open).
		Float64("px", price).
		Float64("equity", equity).
		Msg("fill")
}

// Validate checks the preconditions of a run: at least one row, strictly
// ascending timestamps and usable open/close prices.
func Validate(rows []series.Row) error {
	if len(rows) == 0 {
		return ErrEmptySeries
	}
	for i, r := range rows {
		if !usable(r.Open) || !usable(r.Close) {
			return fmt.Errorf("%w: row %d (%s) open=%g close=%g", ErrBadBar, i, r.Time.Format(time.DateOnly), r.Open, r.Close)
		}
		if i > 0 && !rows[i-1].Time.Before(r.Time) {
			return fmt.Errorf("%w: row %d (%s) follows %s", ErrMisaligned, i, r.Time.Format(time.DateOnly), rows[i-1].Time.Format(time.DateOnly))
		}
	}
	return nil
}

func usable(px float64) bool {
	return px > 0 && !math.IsInf(px, 0) && !math.IsNaN(px)
}
