package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/laurin2323/eth-ml-bot/internal/config"
	"github.com/laurin2323/eth-ml-bot/internal/ledger"
)

const fixtures = "../../internal/integration/testdata"

func writeConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.App.LogLevel = "error"
	cfg.Data = config.Data{
		Prices:   filepath.Join(fixtures, "prices.csv"),
		Features: filepath.Join(fixtures, "features.csv"),
	}
	cfg.Report = config.Report{
		Equity:  filepath.Join(dir, "out", "equity.csv"),
		Trades:  filepath.Join(dir, "out", "trades.csv"),
		Fills:   filepath.Join(dir, "out", "fills.jsonl"),
		Sweep:   filepath.Join(dir, "out", "sweep.csv"),
		Summary: filepath.Join(dir, "out", "summary.json"),
	}
	path := filepath.Join(dir, "config.yaml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path, cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{log: zerolog.Nop()}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := root.Execute()
	return out.String(), err
}

func TestRunWritesArtifacts(t *testing.T) {
	path, cfg := writeConfig(t)
	if _, err := execute(t, "run", "--config", path); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, p := range []string{cfg.Report.Equity, cfg.Report.Trades, cfg.Report.Summary} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing artifact %s: %v", p, err)
		}
	}
	fills, err := ledger.ReadJSONL(cfg.Report.Fills)
	if err != nil {
		t.Fatalf("read fills: %v", err)
	}
	if len(fills) == 0 {
		t.Fatalf("expected fills to be logged")
	}
}

func TestRunNoReports(t *testing.T) {
	path, cfg := writeConfig(t)
	if _, err := execute(t, "run", "--config", path, "--no-reports"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(cfg.Report.Equity); !os.IsNotExist(err) {
		t.Fatalf("expected no equity report, got %v", err)
	}
}

func TestCompareLongShortPrintsTable(t *testing.T) {
	path, _ := writeConfig(t)
	out, err := execute(t, "compare", "--config", path, "--mode", "long_short")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, want := range []string{"total return", "buy & hold", "sharpe", "trades"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSweepWritesTable(t *testing.T) {
	path, cfg := writeConfig(t)
	if _, err := execute(t, "sweep", "--config", path, "--top", "3"); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	data, err := os.ReadFile(cfg.Report.Sweep)
	if err != nil {
		t.Fatalf("read sweep: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 64 {
		t.Fatalf("expected header plus 63 rows, got %d lines", lines)
	}
}

func TestUnknownModeFails(t *testing.T) {
	path, _ := writeConfig(t)
	if _, err := execute(t, "run", "--config", path, "--mode", "martingale"); err == nil {
		t.Fatalf("expected validation error")
	}
}
