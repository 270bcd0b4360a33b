package eval

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/laurin2323/eth-ml-bot/internal/series"
)

func TestReturns(t *testing.T) {
	got := Returns([]float64{1, 1.1, 0.99, 0.99})
	assert.InDeltaSlice(t, []float64{0, 0.1, -0.1, 0}, got, 1e-12)
	assert.Empty(t, Returns(nil))
}

func TestSharpeZeroVariance(t *testing.T) {
	assert.Equal(t, 0.0, Sharpe([]float64{0, 0, 0}, TradingDays, 0))
	assert.Equal(t, 0.0, Sharpe([]float64{0.01, 0.01}, TradingDays, 0))
	assert.Equal(t, 0.0, Sharpe(nil, TradingDays, 0))
}

func TestSharpeValue(t *testing.T) {
	r := []float64{0.01, -0.01, 0.02, 0.0}
	// mean 0.005, population std sqrt(0.000125)
	want := 0.005 / math.Sqrt(0.000125) * math.Sqrt(252)
	assert.InDelta(t, want, Sharpe(r, 252, 0), 1e-9)
	assert.Less(t, Sharpe(r, 252, 0.001), Sharpe(r, 252, 0))
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, -0.2, MaxDrawdown([]float64{1, 1.2, 0.96, 1.1, 1.0}), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 1.1, 1.2}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

func TestCAGR(t *testing.T) {
	assert.Equal(t, 0.0, CAGR([]float64{1}, TradingDays))
	assert.Equal(t, 0.0, CAGR(nil, TradingDays))

	values := make([]float64, 252)
	for i := range values {
		values[i] = 1
	}
	values[len(values)-1] = 1.21
	assert.InDelta(t, 0.21, CAGR(values, 252), 1e-12)

	half := []float64{1, 1.21}
	assert.InDelta(t, math.Pow(1.21, 1.0/(2.0/2.0))-1, CAGR(half, 2), 1e-12)
}

func TestBuyAndHold(t *testing.T) {
	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []series.Bar{
		{Time: day, Close: 100},
		{Time: day.AddDate(0, 0, 1), Close: 110},
	}
	got := BuyAndHold(bars, 0.0025)
	assert.InDelta(t, 100/100.25, got[0], 1e-12)
	assert.InDelta(t, 110/100.25, got[1], 1e-12)
	assert.Empty(t, BuyAndHold(nil, 0.0025))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 1.1, 0.99, 1.2}, TradingDays, 0)
	assert.Equal(t, 4, s.Bars)
	assert.InDelta(t, 1.2, s.FinalEquity, 1e-12)
	assert.InDelta(t, 0.2, s.TotalReturn, 1e-12)
	assert.InDelta(t, -0.1, s.MaxDrawdown, 1e-12)
	assert.Greater(t, s.Sharpe, 0.0)
	assert.Greater(t, s.CAGR, 0.0)

	assert.Equal(t, Summary{}, Summarize(nil, TradingDays, 0))
}
