package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExposure(t *testing.T) {
	ObserveEpoch(time.Now().Add(-20*time.Millisecond), 0.9, 0.93)
	IncRun("stopped_early")
	IncModelLoad("fresh")
	IncStageRun("train")
	IncStageError("persist")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"nastrain_epochs_total",
		"nastrain_accuracy",
		"nastrain_best_accuracy",
		"nastrain_epoch_duration_seconds",
		"nastrain_runs_total",
		"nastrain_model_loads_total",
		"nastrain_stage_runs_total",
		"nastrain_stage_errors_total",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
}

func TestObserveEpochSetsGauges(t *testing.T) {
	ObserveEpoch(time.Now(), 0.5, 0.75)
	if got := testutil.ToFloat64(Accuracy); got != 0.5 {
		t.Fatalf("accuracy gauge: %v", got)
	}
	if got := testutil.ToFloat64(BestAccuracy); got != 0.75 {
		t.Fatalf("best accuracy gauge: %v", got)
	}
}
