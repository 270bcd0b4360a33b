package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/laurin2323/eth-ml-bot/internal/pipeline"
	"github.com/laurin2323/eth-ml-bot/internal/policy"
)

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Print the strategy against buy and hold",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			rows, err := pipeline.LoadRows(cfg.Data, policy.Build(cfg.Policy.Mode, cfg.PolicyParams()))
			if err != nil {
				return err
			}
			out, err := pipeline.Run(rows, cfg, a.log)
			if err != nil {
				return err
			}
			printComparison(cmd.OutOrStdout(), out.Summary)
			return nil
		},
	}
}

func printComparison(w io.Writer, s pipeline.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "metric\tstrategy\tbuy & hold\tdelta\t")
	row := func(name string, strat, bh float64) {
		fmt.Fprintf(tw, "%s\t%.2f%%\t%.2f%%\t%+.2f%%\t\n", name, strat*100, bh*100, (strat-bh)*100)
	}
	row("total return", s.Strategy.TotalReturn, s.BuyHold.TotalReturn)
	row("cagr", s.Strategy.CAGR, s.BuyHold.CAGR)
	row("max drawdown", s.Strategy.MaxDrawdown, s.BuyHold.MaxDrawdown)
	fmt.Fprintf(tw, "sharpe\t%.2f\t%.2f\t%+.2f\t\n", s.Strategy.Sharpe, s.BuyHold.Sharpe, s.Strategy.Sharpe-s.BuyHold.Sharpe)
	fmt.Fprintf(tw, "trades\t%d\t1\t%+d\t\n", s.Trades.Count, s.Trades.Count-1)
	_ = tw.Flush()
}
