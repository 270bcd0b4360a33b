// Package sweep grid-searches long-only policy thresholds over a fixed price history.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/laurin2323/eth-ml-bot/internal/backtest"
	"github.com/laurin2323/eth-ml-bot/internal/eval"
	"github.com/laurin2323/eth-ml-bot/internal/execution"
	"github.com/laurin2323/eth-ml-bot/internal/metrics"
	"github.com/laurin2323/eth-ml-bot/internal/policy"
	"github.com/laurin2323/eth-ml-bot/internal/series"
)

// Penalty replaces the Sharpe of grid points that barely trade.
const Penalty = -1e9

var ErrEmptyGrid = errors.New("sweep: empty grid")

// Grid enumerates entry thresholds From..To (inclusive) in Step increments,
// each paired with every exit threshold.
type Grid struct {
	EntryFrom float64   `yaml:"entry_from"`
	EntryTo   float64   `yaml:"entry_to"`
	EntryStep float64   `yaml:"entry_step"`
	Exits     []float64 `yaml:"exits"`
}

// DefaultGrid is 0.30..0.70 by 0.02 against exits {0.2, 0.3, 0.4}.
func DefaultGrid() Grid {
	return Grid{EntryFrom: 0.30, EntryTo: 0.70, EntryStep: 0.02, Exits: []float64{0.2, 0.3, 0.4}}
}

// Point is one (entry, exit) threshold pair.
type Point struct {
	Entry float64
	Exit  float64
}

// Entries lists the entry thresholds, rounded to absorb float step drift.
func (g Grid) Entries() []float64 {
	if g.EntryStep <= 0 || g.EntryTo < g.EntryFrom {
		return nil
	}
	n := int(math.Round((g.EntryTo-g.EntryFrom)/g.EntryStep)) + 1
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, round(g.EntryFrom+float64(i)*g.EntryStep))
	}
	return out
}

// Points is the cartesian product of entries and exits.
func (g Grid) Points() []Point {
	var pts []Point
	for _, e := range g.Entries() {
		for _, x := range g.Exits {
			pts = append(pts, Point{Entry: e, Exit: x})
		}
	}
	return pts
}

func round(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// Options configures the per-point runs.
type Options struct {
	Costs      execution.Costs
	Lag        int
	Params     policy.Params
	MinEntries int
	Workers    int
	Periods    int
	RiskFree   float64
	Log        zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Periods <= 0 {
		o.Periods = eval.TradingDays
	}
	if o.Lag <= 0 {
		o.Lag = 1
	}
	if o.MinEntries < 0 {
		o.MinEntries = 0
	}
	return o
}

// Result is the score of one grid point.
type Result struct {
	EntryThreshold float64 `json:"p_entry_thr"`
	ExitThreshold  float64 `json:"p_exit_thr"`
	Sharpe         float64 `json:"sharpe"`
	MaxDrawdown    float64 `json:"maxdd"`
	CAGR           float64 `json:"cagr"`
	FinalEquity    float64 `json:"final_equity"`
	Entries        int     `json:"entries"`
}

// Run scores every grid point and returns results best Sharpe first.
// rows must carry features; their signals are ignored.
func Run(ctx context.Context, rows []series.Row, grid Grid, opts Options) ([]Result, error) {
	pts := grid.Points()
	if len(pts) == 0 {
		return nil, ErrEmptyGrid
	}
	if err := backtest.Validate(rows); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	workers := opts.Workers
	if workers > len(pts) {
		workers = len(pts)
	}

	results := make([]Result, len(pts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pt := range pts {
		if gctx.Err() != nil {
			break
		}
		i, pt := i, pt
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := evaluate(rows, pt, opts)
			if err != nil {
				return fmt.Errorf("sweep point entry=%.2f exit=%.2f: %w", pt.Entry, pt.Exit, err)
			}
			results[i] = res
			metrics.SweepPointsTotal.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	Sort(results)
	opts.Log.Debug().Int("points", len(results)).Int("workers", workers).Msg("sweep complete")
	return results, nil
}

// Sort orders by Sharpe descending, then entry threshold ascending.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Sharpe != results[j].Sharpe {
			return results[i].Sharpe > results[j].Sharpe
		}
		return results[i].EntryThreshold < results[j].EntryThreshold
	})
}

func evaluate(rows []series.Row, pt Point, opts Options) (Result, error) {
	params := opts.Params
	params.EntryThreshold = pt.Entry
	params.ExitThreshold = pt.Exit
	signalled := policy.Apply(policy.NewThreshold(params.EntryThreshold, params.ExitThreshold, params.ATRMin, params.ATRMax, params.RSIExit), rows)

	eng, err := backtest.New(backtest.LongOnly, opts.Costs, backtest.WithLag(opts.Lag))
	if err != nil {
		return Result{}, err
	}
	res, err := eng.Run(signalled)
	if err != nil {
		return Result{}, err
	}

	entries := policy.Entries(signalled)
	sharpe := eval.Sharpe(eval.Returns(res.Equity), opts.Periods, opts.RiskFree)
	if entries < opts.MinEntries {
		sharpe = Penalty
	}
	return Result{
		EntryThreshold: pt.Entry,
		ExitThreshold:  pt.Exit,
		Sharpe:         sharpe,
		MaxDrawdown:    eval.MaxDrawdown(res.Equity),
		CAGR:           eval.CAGR(res.Equity, opts.Periods),
		FinalEquity:    res.FinalEquity(),
		Entries:        entries,
	}, nil
}
