package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	Init(reg, true) // second registration is tolerated

	ObserveHTTP("GET", "/v1/cell", 200, 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Fatalf("metrics payload did not contain http_requests_total; got:\n%s", rr.Body.String())
	}
}

func TestQueryAndCacheMetrics_Labels(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	SetBackend("h3")
	t.Cleanup(func() { SetBackend("") })

	ObserveQuery("ok", 0.0002)
	ObserveQuery("invalid_coordinate", 0.0001)
	ObserveQuerySizes(61, 5, 3)
	IncCacheHit("ring")
	AddCacheMisses("ring", 2)
	AddCacheMisses("ring", 0)
	ObserveCacheOp("get", errors.New("boom"), 0.001)
	SetHotKeysGauge("origin", 7)
	IncQueryEvent("dropped")

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("metrics scrape: %v", err)
	}
	t.Cleanup(func() {
		if cerr := resp.Body.Close(); cerr != nil {
			t.Fatalf("close body: %v", cerr)
		}
	})
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	out := string(b)

	for _, want := range []string{
		`proximity_queries_total{backend="h3",outcome="invalid_coordinate"} 1`,
		`proximity_ring_cells_count{backend="h3"}`,
		`cache_results_total{backend="h3",outcome="hit",tier="ring"} 1`,
		`cache_results_total{backend="h3",outcome="miss",tier="ring"} 2`,
		`redis_operation_duration_seconds_count{op="get",status="error"} 1`,
		`hot_origins{backend="h3",tier="origin"} 7`,
		`query_events_total{result="dropped"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics; got:\n%s", want, out)
		}
	}
}

func TestInit_DisabledRegistersNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, false)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 0 {
		t.Fatalf("expected empty registry, got %d families", len(mfs))
	}
}
