// Package config exposes strongly typed backtest configuration loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/laurin2323/eth-ml-bot/internal/backtest"
	"github.com/laurin2323/eth-ml-bot/internal/execution"
	"github.com/laurin2323/eth-ml-bot/internal/policy"
	"github.com/laurin2323/eth-ml-bot/internal/sweep"
)

var ErrInvalid = errors.New("invalid config")

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
	PrettyLogs  bool   `yaml:"pretty_logs"`
}

// Data points at the CSV inputs. Signals and features are alternatives.
type Data struct {
	Prices      string `yaml:"prices"`
	Signals     string `yaml:"signals"`
	Features    string `yaml:"features"`
	BarInterval string `yaml:"bar_interval"`
}

// Costs are expressed in basis points of notional per fill.
type Costs struct {
	FeeBps      float64 `yaml:"fee_bps"`
	SlippageBps float64 `yaml:"slippage_bps"`
}

// Engine selects the position state machine.
type Engine struct {
	Mode string `yaml:"mode"`
	Lag  int    `yaml:"lag"`
}

// Policy holds the thresholds that turn features into signals.
type Policy struct {
	Mode           string  `yaml:"mode"`
	EntryThreshold float64 `yaml:"entry_threshold"`
	ExitThreshold  float64 `yaml:"exit_threshold"`
	LongThreshold  float64 `yaml:"long_threshold"`
	ShortThreshold float64 `yaml:"short_threshold"`
	UseFilters     bool    `yaml:"use_filters"`
	ATRMin         float64 `yaml:"atr_min"`
	ATRMax         float64 `yaml:"atr_max"`
	RSIExit        float64 `yaml:"rsi_exit"`
}

// Sweep configures the threshold grid search.
type Sweep struct {
	Grid       sweep.Grid `yaml:"grid"`
	MinEntries int        `yaml:"min_entries"`
	Workers    int        `yaml:"workers"`
}

// Report lists output artifact paths. Empty paths are skipped.
type Report struct {
	Equity  string `yaml:"equity"`
	Trades  string `yaml:"trades"`
	Fills   string `yaml:"fills"`
	Sweep   string `yaml:"sweep"`
	Summary string `yaml:"summary"`
	// SignalTrades lists long-only round trips replayed from signals at closes.
	SignalTrades string `yaml:"signal_trades"`
}

// Eval sets the annualization used by the statistics.
type Eval struct {
	PeriodsPerYear int     `yaml:"periods_per_year"`
	RiskFree       float64 `yaml:"risk_free"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App    App    `yaml:"app"`
	Data   Data   `yaml:"data"`
	Costs  Costs  `yaml:"costs"`
	Engine Engine `yaml:"engine"`
	Policy Policy `yaml:"policy"`
	Sweep  Sweep  `yaml:"sweep"`
	Report Report `yaml:"report"`
	Eval   Eval   `yaml:"eval"`
}

// Default returns the configuration the pipeline runs with when no file overrides it.
func Default() *Config {
	p := policy.DefaultParams()
	return &Config{
		App:    App{Name: "eth-ml-bot", Env: "dev", LogLevel: "info"},
		Data:   Data{Prices: "data/prices.csv", Features: "data/features.csv", BarInterval: "1d"},
		Costs:  Costs{FeeBps: 20, SlippageBps: 5},
		Engine: Engine{Mode: string(backtest.LongOnly), Lag: 1},
		Policy: Policy{
			Mode:           "threshold",
			EntryThreshold: p.EntryThreshold,
			ExitThreshold:  p.ExitThreshold,
			LongThreshold:  p.LongThreshold,
			ShortThreshold: p.ShortThreshold,
			ATRMin:         p.ATRMin,
			ATRMax:         p.ATRMax,
			RSIExit:        p.RSIExit,
		},
		Sweep: Sweep{Grid: sweep.DefaultGrid(), MinEntries: 5},
		Report: Report{
			Equity:  "reports/equity.csv",
			Trades:  "reports/trades.csv",
			Fills:   "reports/fills.jsonl",
			Sweep:   "reports/sweep.csv",
			Summary: "reports/summary.json",

			SignalTrades: "reports/signal_trades.csv",
		},
		Eval: Eval{PeriodsPerYear: 252},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv loads envFiles (best-effort; a missing .env is fine) and overrides
// selected keys from BT_* variables.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := envFloat("BT_FEE_BPS", &c.Costs.FeeBps); err != nil {
		return err
	}
	if err := envFloat("BT_SLIPPAGE_BPS", &c.Costs.SlippageBps); err != nil {
		return err
	}
	envString("BT_MODE", &c.Engine.Mode)
	envString("BT_LOG_LEVEL", &c.App.LogLevel)
	envString("BT_METRICS_ADDR", &c.App.MetricsAddr)
	return nil
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envFloat(key string, dst *float64) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// Validate rejects configurations the engine would refuse.
func (c *Config) Validate() error {
	if _, err := backtest.ParseMode(c.Engine.Mode); err != nil {
		return fmt.Errorf("%w: engine.mode: %w", ErrInvalid, err)
	}
	if err := policy.CheckMode(c.Policy.Mode); err != nil {
		return fmt.Errorf("%w: policy.mode: %w", ErrInvalid, err)
	}
	if c.Engine.Lag < 1 {
		return fmt.Errorf("%w: engine.lag must be >= 1, got %d", ErrInvalid, c.Engine.Lag)
	}
	if err := c.ExecutionCosts().Validate(); err != nil {
		return fmt.Errorf("%w: costs: %w", ErrInvalid, err)
	}
	if c.Eval.PeriodsPerYear <= 0 {
		return fmt.Errorf("%w: eval.periods_per_year must be positive", ErrInvalid)
	}
	if c.Data.Signals == "" && c.Data.Features == "" {
		return fmt.Errorf("%w: data needs signals or features", ErrInvalid)
	}
	return nil
}

// Mode returns the parsed engine mode. Call Validate first.
func (c *Config) Mode() backtest.Mode {
	m, _ := backtest.ParseMode(c.Engine.Mode)
	return m
}

// ExecutionCosts converts the bps settings into fractional rates.
func (c *Config) ExecutionCosts() execution.Costs {
	return execution.FromBps(c.Costs.FeeBps, c.Costs.SlippageBps)
}

// PolicyParams converts the policy section for policy.Build.
func (c *Config) PolicyParams() policy.Params {
	return policy.Params{
		EntryThreshold: c.Policy.EntryThreshold,
		ExitThreshold:  c.Policy.ExitThreshold,
		LongThreshold:  c.Policy.LongThreshold,
		ShortThreshold: c.Policy.ShortThreshold,
		UseFilters:     c.Policy.UseFilters,
		ATRMin:         c.Policy.ATRMin,
		ATRMax:         c.Policy.ATRMax,
		RSIExit:        c.Policy.RSIExit,
	}
}
