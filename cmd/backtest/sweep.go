package main

import (
	"github.com/spf13/cobra"

	"github.com/laurin2323/eth-ml-bot/internal/pipeline"
	"github.com/laurin2323/eth-ml-bot/internal/report"
	"github.com/laurin2323/eth-ml-bot/internal/sweep"
)

func newSweepCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Grid-search long-only entry/exit thresholds on the features file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			data := cfg.Data
			data.Signals = ""
			rows, err := pipeline.LoadRows(data, nil)
			if err != nil {
				return err
			}

			results, err := sweep.Run(cmd.Context(), rows, cfg.Sweep.Grid, sweep.Options{
				Costs:      cfg.ExecutionCosts(),
				Lag:        cfg.Engine.Lag,
				Params:     cfg.PolicyParams(),
				MinEntries: cfg.Sweep.MinEntries,
				Workers:    cfg.Sweep.Workers,
				Periods:    cfg.Eval.PeriodsPerYear,
				RiskFree:   cfg.Eval.RiskFree,
				Log:        a.log,
			})
			if err != nil {
				return err
			}
			for i, r := range results {
				if i >= top {
					break
				}
				a.log.Info().
					Int("rank", i+1).
					Float64("p_entry_thr", r.EntryThreshold).
					Float64("p_exit_thr", r.ExitThreshold).
					Float64("sharpe", r.Sharpe).
					Float64("maxdd", r.MaxDrawdown).
					Float64("cagr", r.CAGR).
					Int("entries", r.Entries).
					Msg("sweep result")
			}
			if cfg.Report.Sweep == "" {
				return nil
			}
			return report.WriteSweepCSV(cfg.Report.Sweep, results)
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "number of best grid points to log")
	return cmd
}
