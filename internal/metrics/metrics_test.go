package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// Register is process-wide, so every test shares one registry.
var (
	registerOnce sync.Once
	testReg      = prometheus.NewRegistry()
)

func registered(t *testing.T) *prometheus.Registry {
	t.Helper()
	var err error
	registerOnce.Do(func() { err = Register(testReg) })
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return testReg
}

func TestRegisterIdempotentAndCountersWork(t *testing.T) {
	reg := registered(t)
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	IncResolve("file")
	IncResolve("registry")
	IncPersist(true)
	IncPersist(false)
	IncLaunch(ResultSuccess)
	IncSpawned()
	IncSpawnFailure()
	ObserveLaunchDuration(0.25)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	wantNames := map[string]bool{
		"vrchime_config_resolve_total":           false,
		"vrchime_config_persist_total":           false,
		"vrchime_launch_requests_total":          false,
		"vrchime_launch_instances_spawned_total": false,
		"vrchime_launch_spawn_failures_total":    false,
		"vrchime_launch_duration_seconds":        false,
	}
	for _, mf := range mfs {
		n := mf.GetName()
		if _, ok := wantNames[n]; ok {
			wantNames[n] = true
			if len(mf.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", n)
			}
		}
	}
	for n, ok := range wantNames {
		if !ok {
			t.Fatalf("expected to find metric %s", n)
		}
	}
}

func TestHandlerForServesMetrics(t *testing.T) {
	reg := registered(t)
	IncLaunch(ResultLaunchFailed)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `vrchime_launch_requests_total{result="launch_failed"}`) {
		t.Fatalf("launch_failed sample missing from output:\n%s", body)
	}
}
