// Package trades rebuilds discrete round trips from signals or engine fills.
package trades

import (
	"time"

	"github.com/laurin2323/eth-ml-bot/internal/execution"
	"github.com/laurin2323/eth-ml-bot/internal/series"
)

// Direction of a round trip.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Trade is one closed round trip.
type Trade struct {
	Direction  Direction `json:"direction"`
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitTime   time.Time `json:"exit_time"`
	ExitPrice  float64   `json:"exit_price"`
	Return     float64   `json:"return"`
}

// Holding is the time between entry and exit.
func (t Trade) Holding() time.Duration { return t.ExitTime.Sub(t.EntryTime) }

// Reconstruct replays long-only signals with the given lag and pairs entries
// with exits at the execution bar's close. An exit cannot fire on the bar
// that entered, and a position still open at the end is not reported.
func Reconstruct(rows []series.Row, lag int) []Trade {
	if lag < 1 {
		lag = 1
	}
	var (
		out   []Trade
		open  bool
		entry Trade
	)
	for i := lag; i < len(rows); i++ {
		prev, cur := rows[i-lag].Signal, rows[i]
		switch {
		case !open && prev.EntryLong:
			open = true
			entry = Trade{Direction: Long, EntryTime: cur.Time, EntryPrice: cur.Close}
		case open && prev.ExitLong:
			entry.ExitTime = cur.Time
			entry.ExitPrice = cur.Close
			entry.Return = entry.ExitPrice/entry.EntryPrice - 1
			out = append(out, entry)
			open = false
		}
	}
	return out
}

// FromFills pairs engine fills into trades at their cost-adjusted prices.
// Short returns are positive when the cover price is below the entry.
func FromFills(fills []execution.Fill) []Trade {
	var (
		out     []Trade
		pending *execution.Fill
	)
	for i := range fills {
		f := fills[i]
		if f.Action.Opens() {
			pending = &fills[i]
			continue
		}
		if pending == nil {
			continue
		}
		t := Trade{
			Direction:  Long,
			EntryTime:  pending.Time,
			EntryPrice: pending.Price,
			ExitTime:   f.Time,
			ExitPrice:  f.Price,
		}
		if pending.Action == execution.OpenShort {
			t.Direction = Short
			t.Return = (t.EntryPrice - t.ExitPrice) / t.EntryPrice
		} else {
			t.Return = t.ExitPrice/t.EntryPrice - 1
		}
		out = append(out, t)
		pending = nil
	}
	return out
}

// Stats summarizes a trade list.
type Stats struct {
	Count     int     `json:"count"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	WinRate   float64 `json:"win_rate"`
	AvgReturn float64 `json:"avg_return"`
	Best      float64 `json:"best"`
	Worst     float64 `json:"worst"`
}

// Summarize counts wins and losses and averages returns.
func Summarize(list []Trade) Stats {
	s := Stats{Count: len(list)}
	if len(list) == 0 {
		return s
	}
	var sum float64
	s.Best, s.Worst = list[0].Return, list[0].Return
	for _, t := range list {
		sum += t.Return
		if t.Return > 0 {
			s.Wins++
		} else {
			s.Losses++
		}
		if t.Return > s.Best {
			s.Best = t.Return
		}
		if t.Return < s.Worst {
			s.Worst = t.Return
		}
	}
	s.WinRate = float64(s.Wins) / float64(s.Count)
	s.AvgReturn = sum / float64(s.Count)
	return s
}
