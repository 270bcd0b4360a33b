package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/laurin2323/eth-ml-bot/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Backtest Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit costs and engine")
		fmt.Println("3) Edit policy thresholds")
		fmt.Println("4) Edit sweep grid")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch backtest run")
		fmt.Println("7) Launch threshold sweep")
		fmt.Println("8) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editEngine(reader, cfg)
		case "3":
			editPolicy(reader, cfg)
		case "4":
			editSweep(reader, cfg)
		case "5":
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "not saved: %v\n", err)
			} else if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launch(reader, "run")
		case "7":
			launch(reader, "sweep")
		case "8":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Prices: %s\n", cfg.Data.Prices)
	fmt.Printf("Signals: %s | Features: %s\n", orNone(cfg.Data.Signals), orNone(cfg.Data.Features))
	fmt.Printf("Engine: %s (lag %d)\n", cfg.Engine.Mode, cfg.Engine.Lag)
	fmt.Printf("Costs: fee %.1f bps, slippage %.1f bps\n", cfg.Costs.FeeBps, cfg.Costs.SlippageBps)
	p := cfg.Policy
	fmt.Printf("Policy: %s entry>%.2f exit<%.2f long>%.2f short<%.2f filters=%t\n",
		p.Mode, p.EntryThreshold, p.ExitThreshold, p.LongThreshold, p.ShortThreshold, p.UseFilters)
	fmt.Printf("ATR band: [%.2f, %.2f]%% | RSI exit: %.0f\n", p.ATRMin, p.ATRMax, p.RSIExit)
	g := cfg.Sweep.Grid
	fmt.Printf("Sweep: entry %.2f..%.2f step %.2f, exits %v (%d points, min entries %d)\n",
		g.EntryFrom, g.EntryTo, g.EntryStep, g.Exits, len(g.Points()), cfg.Sweep.MinEntries)
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func editEngine(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Costs / Engine ---")
	cfg.Costs.FeeBps = promptFloat(reader, "Fee (bps)", cfg.Costs.FeeBps)
	cfg.Costs.SlippageBps = promptFloat(reader, "Slippage (bps)", cfg.Costs.SlippageBps)
	cfg.Engine.Mode = promptString(reader, "Mode (long_only|long_short)", cfg.Engine.Mode)
	cfg.Engine.Lag = int(promptFloat(reader, "Execution lag (bars)", float64(cfg.Engine.Lag)))
}

func editPolicy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Policy ---")
	p := &cfg.Policy
	p.Mode = promptString(reader, "Policy (threshold|long_short)", p.Mode)
	p.EntryThreshold = promptFloat(reader, "Entry threshold", p.EntryThreshold)
	p.ExitThreshold = promptFloat(reader, "Exit threshold", p.ExitThreshold)
	p.LongThreshold = promptFloat(reader, "Long threshold", p.LongThreshold)
	p.ShortThreshold = promptFloat(reader, "Short threshold", p.ShortThreshold)
	p.ATRMin = promptFloat(reader, "ATR min (%)", p.ATRMin)
	p.ATRMax = promptFloat(reader, "ATR max (%)", p.ATRMax)
	p.RSIExit = promptFloat(reader, "RSI exit level", p.RSIExit)
	p.UseFilters = promptBool(reader, "Use filters for long/short", p.UseFilters)
}

func editSweep(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Sweep ---")
	g := &cfg.Sweep.Grid
	g.EntryFrom = promptFloat(reader, "Entry from", g.EntryFrom)
	g.EntryTo = promptFloat(reader, "Entry to", g.EntryTo)
	g.EntryStep = promptFloat(reader, "Entry step", g.EntryStep)
	fmt.Printf("Current exits: %v\n", g.Exits)
	fmt.Print("Enter exits comma-separated (blank to keep): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		var exits []float64
		for _, part := range strings.Split(strings.TrimSpace(line), ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				fmt.Printf("invalid exit %q, keeping %v\n", part, g.Exits)
				exits = nil
				break
			}
			exits = append(exits, v)
		}
		if exits != nil {
			g.Exits = exits
		}
	}
	cfg.Sweep.MinEntries = int(promptFloat(reader, "Min entries", float64(cfg.Sweep.MinEntries)))
	cfg.Sweep.Workers = int(promptFloat(reader, "Workers (0 = all cores)", float64(cfg.Sweep.Workers)))
}

func launch(reader *bufio.Reader, sub string) {
	fmt.Printf("Launching backtest %s (Ctrl+C to stop)...\n", sub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/backtest", sub, "--config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	done := make(chan struct{})
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start backtest: %v\n", err)
		return
	}
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Minute):
		fmt.Println("backtest timed out")
		cancel()
		<-done
	}
	fmt.Print("\nPress ENTER to return to menu...")
	_, _ = reader.ReadString('\n')
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return current
	}
	return line
}

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	fmt.Printf("%s [%t]: ", label, current)
	line, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "true", "1":
		return true
	case "n", "no", "false", "0":
		return false
	default:
		return current
	}
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	path := locateConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	return filepath.Clean(defaultConfigPath)
}
