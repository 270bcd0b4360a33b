package series

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func day(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }

func TestAlignInnerJoin(t *testing.T) {
	bars := []Bar{
		{Time: day(1), Open: 1, Close: 1},
		{Time: day(2), Open: 2, Close: 2},
		{Time: day(3), Open: 3, Close: 3},
	}
	signals := []SignalRow{
		{Time: day(3), Signal: Signal{ExitLong: true}},
		{Time: day(1), Signal: Signal{EntryLong: true}},
		{Time: day(9), Signal: Signal{EntryLong: true}},
	}

	rows, err := Align(bars, signals)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 joined rows, got %d", len(rows))
	}
	if !rows[0].Time.Equal(day(1)) || !rows[0].Signal.EntryLong {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if !rows[1].Time.Equal(day(3)) || !rows[1].Signal.ExitLong || rows[1].Close != 3 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestAlignSortsAscending(t *testing.T) {
	bars := []Bar{{Time: day(2)}, {Time: day(1)}}
	signals := []SignalRow{{Time: day(1)}, {Time: day(2)}}
	rows, err := Align(bars, signals)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if !rows[0].Time.Before(rows[1].Time) {
		t.Fatalf("rows not ascending: %v %v", rows[0].Time, rows[1].Time)
	}
}

func TestAlignMatchesAcrossLocations(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	bars := []Bar{{Time: day(1)}}
	signals := []SignalRow{{Time: day(1).In(loc), Signal: Signal{EntryLong: true}}}
	rows, err := Align(bars, signals)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected same instant to join, got rows=%d err=%v", len(rows), err)
	}
}

func TestAlignErrors(t *testing.T) {
	if _, err := Align([]Bar{{Time: day(1)}}, []SignalRow{{Time: day(2)}}); !errors.Is(err, ErrNoOverlap) {
		t.Fatalf("expected ErrNoOverlap, got %v", err)
	}
	if _, err := Align([]Bar{{Time: day(1)}, {Time: day(1)}}, []SignalRow{{Time: day(1)}}); !errors.Is(err, ErrDuplicateTime) {
		t.Fatalf("expected ErrDuplicateTime for bars, got %v", err)
	}
	if _, err := Align([]Bar{{Time: day(1)}}, []SignalRow{{Time: day(1)}, {Time: day(1)}}); !errors.Is(err, ErrDuplicateTime) {
		t.Fatalf("expected ErrDuplicateTime for signals, got %v", err)
	}
}

func TestMergeSignalsKeepsFeatures(t *testing.T) {
	rows, err := AlignFeatures(
		[]Bar{{Time: day(1)}, {Time: day(2)}},
		[]FeatureRow{{Time: day(1), Features: Features{PUp: 0.7}}, {Time: day(2), Features: Features{PUp: 0.3}}},
	)
	if err != nil {
		t.Fatalf("AlignFeatures returned error: %v", err)
	}
	merged, err := MergeSignals(rows, []SignalRow{{Time: day(2), Signal: Signal{EntryShort: true}}})
	if err != nil {
		t.Fatalf("MergeSignals returned error: %v", err)
	}
	if len(merged) != 1 || merged[0].Features.PUp != 0.3 || !merged[0].Signal.EntryShort {
		t.Fatalf("unexpected merged rows: %+v", merged)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rows := []Row{{Bar: Bar{Time: day(1)}}}
	cp := Clone(rows)
	cp[0].Signal.EntryLong = true
	if rows[0].Signal.EntryLong {
		t.Fatalf("Clone shares backing array")
	}
}

func TestLoadBars(t *testing.T) {
	bars, err := LoadBars(filepath.Join("testdata", "prices.csv"))
	if err != nil {
		t.Fatalf("LoadBars returned error: %v", err)
	}
	if len(bars) != 5 {
		t.Fatalf("expected 5 bars, got %d", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Time.Before(bars[i].Time) {
			t.Fatalf("bars not sorted at %d", i)
		}
	}
	if bars[0].Close != 100 || bars[0].High != 102 || bars[0].Volume != 1000 {
		t.Fatalf("unexpected first bar: %+v", bars[0])
	}
}

func TestLoadSignals(t *testing.T) {
	rows, err := LoadSignals(filepath.Join("testdata", "signals.csv"))
	if err != nil {
		t.Fatalf("LoadSignals returned error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 signal rows, got %d", len(rows))
	}
	if !rows[0].EntryLong || !rows[0].ExitShort || rows[0].ExitLong {
		t.Fatalf("unexpected first signal: %+v", rows[0])
	}
	if !rows[2].ExitLong || !rows[2].EntryShort {
		t.Fatalf("unexpected third signal: %+v", rows[2])
	}
}

func TestLoadFeatures(t *testing.T) {
	rows, err := LoadFeatures(filepath.Join("testdata", "features.csv"))
	if err != nil {
		t.Fatalf("LoadFeatures returned error: %v", err)
	}
	if len(rows) != 5 || rows[0].PUp != 0.61 || rows[3].ATRPct != 7.0 {
		t.Fatalf("unexpected features: %+v", rows)
	}
}

func TestLoadFixturesJoin(t *testing.T) {
	bars, err := LoadBars(filepath.Join("testdata", "prices.csv"))
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	signals, err := LoadSignals(filepath.Join("testdata", "signals.csv"))
	if err != nil {
		t.Fatalf("LoadSignals: %v", err)
	}
	rows, err := Align(bars, signals)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 overlapping rows, got %d", len(rows))
	}
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeCSV(t, "date,open\n2023-01-01,100\n")
	if _, err := LoadBars(path); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}

	path = writeCSV(t, "open,close\n100,100\n")
	if _, err := LoadBars(path); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn for date, got %v", err)
	}

	path = writeCSV(t, "date,open,close\n2023-01-01,100,\n")
	if _, err := LoadBars(path); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn for empty close, got %v", err)
	}
}

func TestLoadBadValues(t *testing.T) {
	path := writeCSV(t, "date,entry_long,exit_long\n2023-01-01,maybe,0\n")
	if _, err := LoadSignals(path); err == nil {
		t.Fatalf("expected bool parse error")
	}
	path = writeCSV(t, "date,open,close\nyesterday,1,1\n")
	if _, err := LoadBars(path); err == nil {
		t.Fatalf("expected timestamp parse error")
	}
}

func TestLoadBarsRejectsBadOptionalColumns(t *testing.T) {
	for _, body := range []string{
		"date,open,high,low,close\n2023-01-01,1,abc,1,1\n",
		"date,open,high,low,close\n2023-01-01,1,1,n/a,1\n",
		"date,open,close,volume\n2023-01-01,1,1,lots\n",
	} {
		if _, err := LoadBars(writeCSV(t, body)); err == nil {
			t.Fatalf("expected parse error for %q", body)
		}
	}
	bars, err := LoadBars(writeCSV(t, "date,open,high,low,close,volume\n2023-01-01,1,,,2,\n"))
	if err != nil {
		t.Fatalf("empty optional cells should load: %v", err)
	}
	if bars[0].High != 2 || bars[0].Low != 2 || bars[0].Volume != 0 {
		t.Fatalf("unexpected defaults %+v", bars[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadBars(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseTime(t *testing.T) {
	cases := []string{
		"2023-01-01",
		"2023-01-01T00:00:00Z",
		"2023-01-01 00:00:00",
		"2023-01-01 00:00:00+00:00",
	}
	for _, in := range cases {
		ts, err := ParseTime(in)
		if err != nil {
			t.Fatalf("ParseTime(%q) error: %v", in, err)
		}
		if !ts.Equal(day(1)) {
			t.Fatalf("ParseTime(%q) = %v", in, ts)
		}
	}
}
