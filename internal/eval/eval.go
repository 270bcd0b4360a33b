// Package eval turns equity curves into performance statistics.
package eval

import (
	"math"

	"github.com/laurin2323/eth-ml-bot/internal/series"
)

// TradingDays is the default annualization factor for daily bars.
const TradingDays = 252

// Returns is the bar-over-bar percentage change of values; the first return is 0.
func Returns(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i]/values[i-1] - 1
	}
	return out
}

// Sharpe annualizes mean excess return over its population standard deviation.
// A flat return series has Sharpe 0.
func Sharpe(returns []float64, periods int, rf float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean, std := meanStd(returns)
	if std == 0 {
		return 0
	}
	return (mean - rf) / std * math.Sqrt(float64(periods))
}

// MaxDrawdown is the deepest fall from a running peak, as a non-positive fraction.
func MaxDrawdown(values []float64) float64 {
	var worst, peak float64
	for i, v := range values {
		if i == 0 || v > peak {
			peak = v
		}
		if dd := v/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// CAGR annualizes the total return assuming one value per period.
// Fewer than two points yields 0.
func CAGR(values []float64, periods int) float64 {
	if len(values) < 2 {
		return 0
	}
	years := float64(len(values)) / float64(periods)
	if years <= 0 {
		return 0
	}
	total := values[len(values)-1] / values[0]
	return math.Pow(total, 1/years) - 1
}

// BuyAndHold is the baseline curve of buying the first close (plus fee) and holding.
func BuyAndHold(bars []series.Bar, feeRate float64) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}
	entry := bars[0].Close * (1 + feeRate)
	for i, b := range bars {
		out[i] = b.Close / entry
	}
	return out
}

// Summary bundles the headline statistics of one curve.
type Summary struct {
	Bars        int     `json:"bars"`
	FinalEquity float64 `json:"final_equity"`
	TotalReturn float64 `json:"total_return"`
	Sharpe      float64 `json:"sharpe"`
	CAGR        float64 `json:"cagr"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// Summarize computes every statistic for values.
func Summarize(values []float64, periods int, rf float64) Summary {
	s := Summary{Bars: len(values)}
	if len(values) == 0 {
		return s
	}
	s.FinalEquity = values[len(values)-1]
	s.TotalReturn = s.FinalEquity/values[0] - 1
	s.Sharpe = Sharpe(Returns(values), periods, rf)
	s.CAGR = CAGR(values, periods)
	s.MaxDrawdown = MaxDrawdown(values)
	return s
}

func meanStd(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
