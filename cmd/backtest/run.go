package main

import (
	"github.com/spf13/cobra"

	"github.com/laurin2323/eth-ml-bot/internal/backtest"
	"github.com/laurin2323/eth-ml-bot/internal/ledger"
	"github.com/laurin2323/eth-ml-bot/internal/pipeline"
	"github.com/laurin2323/eth-ml-bot/internal/policy"
)

func newRunCmd(a *app) *cobra.Command {
	var noReports bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one backtest and write equity, trades, fills and summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			pol := policy.Build(cfg.Policy.Mode, cfg.PolicyParams())
			rows, err := pipeline.LoadRows(cfg.Data, pol)
			if err != nil {
				return err
			}
			a.log.Info().Str("policy", pol.Name()).Int("rows", len(rows)).Msg("inputs loaded")

			var recorders []backtest.FillRecorder
			if cfg.Report.Fills != "" && !noReports {
				rec, err := ledger.NewJSONLRecorder(cfg.Report.Fills, a.log)
				if err != nil {
					return err
				}
				defer rec.Close()
				recorders = append(recorders, rec)
			}

			out, err := pipeline.Run(rows, cfg, a.log, recorders...)
			if err != nil {
				return err
			}
			if noReports {
				return nil
			}
			return pipeline.WriteReports(out, cfg.Report)
		},
	}
	cmd.Flags().BoolVar(&noReports, "no-reports", false, "skip writing report files")
	return cmd
}
