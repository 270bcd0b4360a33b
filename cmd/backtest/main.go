package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/laurin2323/eth-ml-bot/internal/config"
	"github.com/laurin2323/eth-ml-bot/internal/metrics"
	"github.com/laurin2323/eth-ml-bot/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

// app is the state every subcommand shares after the root pre-run.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	mode       string

	cfg *config.Config
	log zerolog.Logger
}

func main() {
	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{log: util.NewConsoleLogger("info")}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		a.log.Error().Err(err).Msg("backtest failed")
		cancel()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "backtest",
		Short:         "Replay model signals over daily bars with costs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath, "YAML config path (missing file uses defaults)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with BT_* overrides")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override app.log_level")
	root.PersistentFlags().StringVar(&a.mode, "mode", "", "override engine and policy mode (long_only|long_short)")

	root.AddCommand(newRunCmd(a), newSweepCmd(a), newCompareCmd(a))
	return root
}

func (a *app) setup() error {
	cfg := config.Default()
	if _, err := os.Stat(a.configPath); err == nil {
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(a.envFile); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.App.LogLevel = a.logLevel
	}
	if a.mode != "" {
		cfg.Engine.Mode = a.mode
		cfg.Policy.Mode = a.mode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.App.PrettyLogs {
		a.log = util.NewConsoleLogger(cfg.App.LogLevel)
	} else {
		a.log = util.NewLogger(cfg.App.LogLevel)
	}
	if srv := metrics.Serve(cfg.App.MetricsAddr); srv != nil {
		a.log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}
	a.log.Debug().
		Str("config", a.configPath).
		Str("mode", cfg.Engine.Mode).
		Float64("fee_bps", cfg.Costs.FeeBps).
		Float64("slippage_bps", cfg.Costs.SlippageBps).
		Msg("config loaded")
	return nil
}
