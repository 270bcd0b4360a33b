// Package report writes run artifacts: equity curves, trades, sweep tables and summaries.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/laurin2323/eth-ml-bot/internal/sweep"
	"github.com/laurin2323/eth-ml-bot/internal/trades"
)

var ErrLengthMismatch = errors.New("report: column lengths differ")

// Column is a named value series written alongside the timestamps.
type Column struct {
	Name   string
	Values []float64
}

// WriteEquityCSV writes one row per bar: the date then each column's value.
func WriteEquityCSV(path string, times []time.Time, cols ...Column) error {
	for _, c := range cols {
		if len(c.Values) != len(times) {
			return fmt.Errorf("%w: %s has %d values for %d bars", ErrLengthMismatch, c.Name, len(c.Values), len(times))
		}
	}
	header := []string{"date"}
	for _, c := range cols {
		header = append(header, c.Name)
	}
	records := make([][]string, 0, len(times))
	for i, ts := range times {
		rec := []string{formatTime(ts)}
		for _, c := range cols {
			rec = append(rec, formatF(c.Values[i]))
		}
		records = append(records, rec)
	}
	return writeCSV(path, header, records)
}

// WriteTradesCSV writes closed round trips.
func WriteTradesCSV(path string, list []trades.Trade) error {
	header := []string{"direction", "entry_time", "entry_price", "exit_time", "exit_price", "return"}
	records := make([][]string, 0, len(list))
	for _, t := range list {
		records = append(records, []string{
			string(t.Direction),
			formatTime(t.EntryTime), formatF(t.EntryPrice),
			formatTime(t.ExitTime), formatF(t.ExitPrice),
			formatF(t.Return),
		})
	}
	return writeCSV(path, header, records)
}

// WriteSweepCSV writes grid results in the order given.
func WriteSweepCSV(path string, results []sweep.Result) error {
	header := []string{"p_entry_thr", "p_exit_thr", "sharpe", "maxdd", "cagr", "final_equity", "entries"}
	records := make([][]string, 0, len(results))
	for _, r := range results {
		records = append(records, []string{
			formatF(r.EntryThreshold), formatF(r.ExitThreshold),
			formatF(r.Sharpe), formatF(r.MaxDrawdown), formatF(r.CAGR),
			formatF(r.FinalEquity), strconv.Itoa(r.Entries),
		})
	}
	return writeCSV(path, header, records)
}

// WriteSummaryJSON writes v as indented JSON.
func WriteSummaryJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
