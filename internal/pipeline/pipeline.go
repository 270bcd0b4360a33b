// Package pipeline wires loaders, policy, engine, evaluation and reports into one backtest run.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/laurin2323/eth-ml-bot/internal/backtest"
	"github.com/laurin2323/eth-ml-bot/internal/config"
	"github.com/laurin2323/eth-ml-bot/internal/eval"
	"github.com/laurin2323/eth-ml-bot/internal/execution"
	"github.com/laurin2323/eth-ml-bot/internal/ledger"
	"github.com/laurin2323/eth-ml-bot/internal/policy"
	"github.com/laurin2323/eth-ml-bot/internal/report"
	"github.com/laurin2323/eth-ml-bot/internal/series"
	"github.com/laurin2323/eth-ml-bot/internal/trades"
)

var ErrNoInputs = errors.New("pipeline: prices plus signals or features required")

// LoadRows reads prices and joins them with either a signals file or a
// features file. Features are turned into signals by pol (a nil pol leaves
// the signals empty); when both files are given the explicit signals win and
// features ride along.
func LoadRows(data config.Data, pol policy.Policy) ([]series.Row, error) {
	if data.Prices == "" || (data.Signals == "" && data.Features == "") {
		return nil, ErrNoInputs
	}
	bars, err := series.LoadBars(data.Prices)
	if err != nil {
		return nil, err
	}

	var rows []series.Row
	if data.Features != "" {
		feats, err := series.LoadFeatures(data.Features)
		if err != nil {
			return nil, err
		}
		if rows, err = series.AlignFeatures(bars, feats); err != nil {
			return nil, fmt.Errorf("align features: %w", err)
		}
		if data.Signals == "" {
			if pol == nil {
				return rows, nil
			}
			return policy.Apply(pol, rows), nil
		}
	}

	sigs, err := series.LoadSignals(data.Signals)
	if err != nil {
		return nil, err
	}
	if rows != nil {
		if rows, err = series.MergeSignals(rows, sigs); err != nil {
			return nil, fmt.Errorf("merge signals: %w", err)
		}
		return rows, nil
	}
	if rows, err = series.Align(bars, sigs); err != nil {
		return nil, fmt.Errorf("align signals: %w", err)
	}
	return rows, nil
}

// Outcome is everything one run produces.
type Outcome struct {
	Result       backtest.Result
	Fills        []execution.Fill
	Trades       []trades.Trade
	SignalTrades []trades.Trade
	BuyHoldCurve []float64
	Summary      Summary
}

// Summary is the JSON report of a run.
type Summary struct {
	Mode     backtest.Mode `json:"mode"`
	FeeBps   float64       `json:"fee_bps"`
	SlipBps  float64       `json:"slippage_bps"`
	Lag      int           `json:"lag"`
	Strategy eval.Summary  `json:"strategy"`
	BuyHold  eval.Summary  `json:"buy_hold"`
	Trades   trades.Stats  `json:"trades"`
	Signals  trades.Stats  `json:"signal_trades"`
	Fills    int           `json:"fills"`
}

// Run executes the configured engine over rows and evaluates the result
// against buy and hold. Extra recorders receive every fill as it happens.
func Run(rows []series.Row, cfg *config.Config, log zerolog.Logger, recorders ...backtest.FillRecorder) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	book := ledger.NewLedger(len(rows) / 2)
	fan := ledger.Multi{book}
	for _, r := range recorders {
		fan = append(fan, r)
	}

	eng, err := backtest.New(cfg.Mode(), cfg.ExecutionCosts(),
		backtest.WithLag(cfg.Engine.Lag),
		backtest.WithRecorder(fan),
		backtest.WithLogger(log),
	)
	if err != nil {
		return Outcome{}, err
	}
	res, err := eng.Run(rows)
	if err != nil {
		return Outcome{}, err
	}

	fills := book.Snapshot()
	list := trades.FromFills(fills)
	bySignal := trades.Reconstruct(rows, eng.Lag())
	periods, rf := cfg.Eval.PeriodsPerYear, cfg.Eval.RiskFree
	bh := eval.BuyAndHold(series.Bars(rows), eng.Costs().FeeRate)

	out := Outcome{
		Result:       res,
		Fills:        fills,
		Trades:       list,
		SignalTrades: bySignal,
		BuyHoldCurve: bh,
		Summary: Summary{
			Mode:     res.Mode,
			FeeBps:   cfg.Costs.FeeBps,
			SlipBps:  cfg.Costs.SlippageBps,
			Lag:      eng.Lag(),
			Strategy: eval.Summarize(res.Equity, periods, rf),
			BuyHold:  eval.Summarize(bh, periods, rf),
			Trades:   trades.Summarize(list),
			Signals:  trades.Summarize(bySignal),
			Fills:    len(fills),
		},
	}
	log.Info().
		Str("mode", string(res.Mode)).
		Int("bars", len(rows)).
		Int("fills", len(fills)).
		Float64("final_equity", out.Summary.Strategy.FinalEquity).
		Float64("sharpe", out.Summary.Strategy.Sharpe).
		Float64("buy_hold", out.Summary.BuyHold.FinalEquity).
		Msg("backtest complete")
	return out, nil
}

// WriteReports writes every artifact whose path is set.
func WriteReports(out Outcome, paths config.Report) error {
	if paths.Equity != "" {
		err := report.WriteEquityCSV(paths.Equity, out.Result.Times,
			report.Column{Name: "equity", Values: out.Result.Equity},
			report.Column{Name: "buy_hold", Values: out.BuyHoldCurve},
		)
		if err != nil {
			return err
		}
	}
	if paths.Trades != "" {
		if err := report.WriteTradesCSV(paths.Trades, out.Trades); err != nil {
			return err
		}
	}
	if paths.SignalTrades != "" {
		if err := report.WriteTradesCSV(paths.SignalTrades, out.SignalTrades); err != nil {
			return err
		}
	}
	if paths.Summary != "" {
		if err := report.WriteSummaryJSON(paths.Summary, out.Summary); err != nil {
			return err
		}
	}
	return nil
}
