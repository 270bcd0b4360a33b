package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing column")

var timeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
}

// LoadBars reads an OHLCV table. Rows are returned sorted by time.
func LoadBars(path string) ([]Bar, error) {
	var bars []Bar
	err := readTable(path, []string{"open", "close"}, func(rec record) error {
		b := Bar{Time: rec.time}
		var err error
		if b.Open, err = rec.float("open"); err != nil {
			return err
		}
		if b.Close, err = rec.float("close"); err != nil {
			return err
		}
		if b.High, err = rec.optFloat("high", b.Close); err != nil {
			return err
		}
		if b.Low, err = rec.optFloat("low", b.Close); err != nil {
			return err
		}
		if b.Volume, err = rec.optFloat("volume", 0); err != nil {
			return err
		}
		bars = append(bars, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// LoadSignals reads a signal table. Short flags are optional so long-only tables load too.
func LoadSignals(path string) ([]SignalRow, error) {
	var out []SignalRow
	err := readTable(path, []string{"entry_long", "exit_long"}, func(rec record) error {
		s := SignalRow{Time: rec.time}
		var err error
		if s.EntryLong, err = rec.bool("entry_long"); err != nil {
			return err
		}
		if s.ExitLong, err = rec.bool("exit_long"); err != nil {
			return err
		}
		if s.EntryShort, err = rec.optBool("entry_short"); err != nil {
			return err
		}
		if s.ExitShort, err = rec.optBool("exit_short"); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// LoadFeatures reads the enriched per-bar inputs for the policy layer.
func LoadFeatures(path string) ([]FeatureRow, error) {
	var out []FeatureRow
	err := readTable(path, []string{"p_up"}, func(rec record) error {
		f := FeatureRow{Time: rec.time}
		var err error
		if f.PUp, err = rec.float("p_up"); err != nil {
			return err
		}
		if f.ATRPct, err = rec.optFloat("atr_pct", 0); err != nil {
			return err
		}
		if f.EMA50, err = rec.optFloat("ema50", 0); err != nil {
			return err
		}
		if f.RSI14, err = rec.optFloat("rsi14", 0); err != nil {
			return err
		}
		out = append(out, f)
		return nil
	})
	return out, err
}

type record struct {
	line   int
	time   time.Time
	fields []string
	cols   map[string]int
}

func (r record) raw(name string) (string, bool) {
	idx, ok := r.cols[name]
	if !ok || idx >= len(r.fields) {
		return "", false
	}
	return strings.TrimSpace(r.fields[idx]), true
}

func (r record) float(name string) (float64, error) {
	v, ok := r.raw(name)
	if !ok || v == "" {
		return 0, fmt.Errorf("line %d: %w: %s is empty", r.line, ErrMissingColumn, name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: parse %s: %w", r.line, name, err)
	}
	return f, nil
}

func (r record) optFloat(name string, def float64) (float64, error) {
	if v, ok := r.raw(name); !ok || v == "" {
		return def, nil
	}
	return r.float(name)
}

func (r record) bool(name string) (bool, error) {
	v, ok := r.raw(name)
	if !ok || v == "" {
		return false, fmt.Errorf("line %d: %w: %s is empty", r.line, ErrMissingColumn, name)
	}
	b, err := parseBool(v)
	if err != nil {
		return false, fmt.Errorf("line %d: parse %s: %w", r.line, name, err)
	}
	return b, nil
}

func (r record) optBool(name string) (bool, error) {
	if v, ok := r.raw(name); !ok || v == "" {
		return false, nil
	}
	return r.bool(name)
}

func readTable(path string, required []string, fn func(record) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	if err := decodeTable(file, required, fn); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func decodeTable(r io.Reader, required []string, fn func(record) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeColumn(h)] = i
	}
	timeCol, ok := timeColumn(cols)
	if !ok {
		return fmt.Errorf("%w: date", ErrMissingColumn)
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if len(fields) == 0 || (len(fields) == 1 && strings.TrimSpace(fields[0]) == "") {
			continue
		}
		if timeCol >= len(fields) {
			return fmt.Errorf("line %d: %w: date", line, ErrMissingColumn)
		}
		ts, err := ParseTime(fields[timeCol])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(record{line: line, time: ts, fields: fields, cols: cols}); err != nil {
			return err
		}
	}
}

func normalizeColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.ReplaceAll(h, " ", "_")
}

func timeColumn(cols map[string]int) (int, bool) {
	for _, name := range []string{"date", "time", "timestamp", "datetime"} {
		if idx, ok := cols[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

// ParseTime accepts plain dates, RFC3339 and pandas-style datetimes.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "t", "yes", "1.0":
		return true, nil
	case "0", "false", "f", "no", "0.0":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool %q", s)
}
