// Package metrics exposes Prometheus collectors for backtest runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_runs_total", Help: "Completed backtest runs"},
		[]string{"mode"},
	)
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_bars_total", Help: "Bars replayed by the engine"},
		[]string{"mode"},
	)
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_fills_total", Help: "Simulated fills"},
		[]string{"mode", "side"},
	)
	FinalEquity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "backtest_final_equity", Help: "Last equity value of the most recent run"},
		[]string{"mode"},
	)
	SweepPointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sweep_points_total", Help: "Threshold grid points evaluated"},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal, BarsTotal, FillsTotal, FinalEquity, SweepPointsTotal)
}

// Serve starts a /metrics endpoint in the background. An empty addr disables it.
func Serve(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
