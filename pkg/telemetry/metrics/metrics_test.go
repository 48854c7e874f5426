package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"curator-hq/curator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)
	if collector.registry != registry {
		t.Error("Collector registry not set correctly")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want default", cfg.Namespace)
	}

	if NewCollector(nil, nil).Registry() == nil {
		t.Error("NewCollector(nil, nil) has no registry")
	}
}

func TestCollector_RecordEvaluation(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordEvaluation("old-movies", StatusSuccess, 2*time.Second, 12)
	collector.RecordEvaluation("old-movies", StatusError, time.Second, 0)

	if got := testutil.ToFloat64(collector.ruleMetrics.evaluationsTotal.WithLabelValues("old-movies", StatusSuccess)); got != 1 {
		t.Errorf("success evaluations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ruleMetrics.evaluationsTotal.WithLabelValues("old-movies", StatusError)); got != 1 {
		t.Errorf("error evaluations = %v, want 1", got)
	}
	// A failed evaluation keeps the last successful count.
	if got := testutil.ToFloat64(collector.ruleMetrics.matchedItems.WithLabelValues("old-movies")); got != 12 {
		t.Errorf("matched items = %v, want 12", got)
	}
	if got := testutil.CollectAndCount(collector.ruleMetrics.evaluationDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestCollector_RecordCollectionChange(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordCollectionChange("Old Movies", ChangeAdded, 3)
	collector.RecordCollectionChange("Old Movies", ChangeAdded, 2)
	collector.RecordCollectionChange("Old Movies", ChangeRemoved, 0)

	if got := testutil.ToFloat64(collector.ruleMetrics.collectionChanges.WithLabelValues("Old Movies", ChangeAdded)); got != 5 {
		t.Errorf("added = %v, want 5", got)
	}
	if got := testutil.CollectAndCount(collector.ruleMetrics.collectionChanges); got != 1 {
		t.Errorf("series = %d, want 1 (zero changes are not recorded)", got)
	}
}

func TestCollector_WorkerMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordExpired("Old Movies", 2)
	collector.RecordRemovalStep("manager", StatusSuccess)
	collector.RecordRemovalStep("manager", StatusError)
	collector.RecordRemovalStep("requests", StatusSkipped)

	if got := testutil.ToFloat64(collector.workerMetrics.expiredTotal.WithLabelValues("Old Movies")); got != 2 {
		t.Errorf("expired = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.workerMetrics.stepsTotal.WithLabelValues("manager", StatusError)); got != 1 {
		t.Errorf("manager errors = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.workerMetrics.stepsTotal); got != 3 {
		t.Errorf("step series = %d, want 3", got)
	}
}

func TestCollector_JobMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.JobStarted("rule-handler")
	if got := testutil.ToFloat64(collector.jobMetrics.running.WithLabelValues("rule-handler")); got != 1 {
		t.Errorf("running = %v, want 1", got)
	}

	collector.JobFinished("rule-handler", StatusSuccess, 3*time.Second)
	if got := testutil.ToFloat64(collector.jobMetrics.running.WithLabelValues("rule-handler")); got != 0 {
		t.Errorf("running = %v, want 0", got)
	}
	if got := testutil.ToFloat64(collector.jobMetrics.runsTotal.WithLabelValues("rule-handler", StatusSuccess)); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
}

func TestCollector_ObserveRequest(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveRequest("radarr", 200, 40*time.Millisecond)
	collector.ObserveRequest("radarr", 0, time.Second)

	if got := testutil.ToFloat64(collector.clientMetrics.requestsTotal.WithLabelValues("radarr", "200")); got != 1 {
		t.Errorf("200 requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.clientMetrics.requestsTotal.WithLabelValues("radarr", "error")); got != 1 {
		t.Errorf("transport errors = %v, want 1", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordEvaluation("g", StatusSuccess, time.Second, 1)
	collector.RecordRemovalStep("store", StatusSuccess)
	collector.JobStarted("rule-handler")
	collector.ObserveRequest("plex", 200, time.Millisecond)

	if got := testutil.CollectAndCount(collector.ruleMetrics.evaluationsTotal); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}

	var nilCollector *Collector
	nilCollector.RecordEvaluation("g", StatusSuccess, time.Second, 1)
	nilCollector.RecordCollectionChange("c", ChangeAdded, 1)
	nilCollector.RecordExpired("c", 1)
	nilCollector.JobFinished("j", StatusError, time.Second)
}

func TestCollector_CardinalityFallsBackToOther(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordEvaluation("first", StatusSuccess, time.Second, 1)
	collector.RecordEvaluation("second", StatusSuccess, time.Second, 1)

	if got := testutil.ToFloat64(collector.ruleMetrics.evaluationsTotal.WithLabelValues("other", StatusSuccess)); got != 1 {
		t.Errorf("other = %v, want 1", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(2)

	if !limiter.Allow("a") || !limiter.Allow("b") {
		t.Fatal("limiter rejected label sets under the limit")
	}
	if !limiter.Allow("a") {
		t.Error("limiter rejected a known label set")
	}
	if limiter.Allow("c") {
		t.Error("limiter accepted a label set over the limit")
	}
	if limiter.Count() != 2 {
		t.Errorf("Count() = %d, want 2", limiter.Count())
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			collector.RecordRemovalStep("store", StatusSuccess)
		})
	}
	wg.Wait()

	if got := testutil.ToFloat64(collector.workerMetrics.stepsTotal.WithLabelValues("store", StatusSuccess)); got != 50 {
		t.Errorf("steps = %v, want 50", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordEvaluation("old-movies", StatusSuccess, time.Second, 4)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `test_rules_matched_items{group="old-movies"} 4`) {
		t.Errorf("body does not contain the matched items gauge:\n%s", body)
	}
}
