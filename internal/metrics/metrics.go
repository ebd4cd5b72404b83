package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EpochsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nastrain_epochs_total",
		Help: "Total training epochs performed",
	})
	Accuracy = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nastrain_accuracy",
		Help: "Held-out accuracy of the latest epoch",
	})
	BestAccuracy = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nastrain_best_accuracy",
		Help: "Best held-out accuracy seen in the current run",
	})
	EpochDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nastrain_epoch_duration_seconds",
		Help:    "Duration of one fit-and-evaluate epoch",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
	Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nastrain_runs_total",
		Help: "Training runs by outcome",
	}, []string{"outcome"})
	ModelLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nastrain_model_loads_total",
		Help: "Model state loads by source (fresh or reloaded)",
	}, []string{"source"})
	StageRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nastrain_stage_runs_total",
		Help: "Pipeline stage executions",
	}, []string{"stage"})
	StageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nastrain_stage_errors_total",
		Help: "Pipeline stage failures",
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(EpochsTotal, Accuracy, BestAccuracy, EpochDuration, Runs, ModelLoads, StageRuns, StageErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveEpoch records one finished epoch.
func ObserveEpoch(start time.Time, accuracy, best float64) {
	EpochsTotal.Inc()
	Accuracy.Set(accuracy)
	BestAccuracy.Set(best)
	EpochDuration.Observe(time.Since(start).Seconds())
}

func IncRun(outcome string)      { Runs.WithLabelValues(outcome).Inc() }
func IncModelLoad(source string) { ModelLoads.WithLabelValues(source).Inc() }
func IncStageRun(stage string)   { StageRuns.WithLabelValues(stage).Inc() }
func IncStageError(stage string) { StageErrors.WithLabelValues(stage).Inc() }
