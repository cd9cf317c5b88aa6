package metricswrap

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/hexproximity/internal/core/observability"
	"github.com/mohammed-shakir/hexproximity/internal/hotness/expdecay"
	"github.com/mohammed-shakir/hexproximity/internal/metrics"
)

func Test_HotnessGauge_Updates(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	observability.Init(p.Registerer(), true)

	tr := expdecay.New(30 * time.Second)
	w := New(tr, "origin")

	w.Inc("cellA")
	w.Inc("cellB")
	w.Reset("cellA")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	body := rr.Body.String()

	if !strings.Contains(body, `hot_origins{backend="hex",tier="origin"} 1`) {
		t.Fatalf("expected hot_origins gauge == 1, got:\n%s", body)
	}
	if top := w.Top(5); len(top) != 1 || top[0].Cell != "cellB" {
		t.Fatalf("Top=%+v", top)
	}
}

func Test_ThresholdLogging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	now := time.Unix(1_700_000_000, 0)
	tr := expdecay.New(time.Minute, expdecay.WithClock(func() time.Time { return now }))
	w := New(tr, "origin", WithThreshold(2, 1), WithLogger(log))

	w.Inc("c")
	if buf.Len() != 0 {
		t.Fatalf("logged below threshold: %s", buf.String())
	}
	w.Inc("c")
	if !strings.Contains(buf.String(), `"event":"hotness_threshold"`) {
		t.Fatalf("expected threshold log line, got %q", buf.String())
	}
	if strings.Contains(buf.String(), `"c"`) {
		t.Fatalf("cell id must be hashed in logs: %s", buf.String())
	}
}

func Test_ThresholdLogging_ToleratesDecayBetweenQueries(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	now := time.Unix(1_700_000_000, 0)
	tr := expdecay.New(time.Minute, expdecay.WithClock(func() time.Time { return now }))
	w := New(tr, "origin", WithThreshold(3, 1), WithLogger(log))

	for range 3 {
		w.Inc("c")
		now = now.Add(20 * time.Millisecond)
	}
	if !strings.Contains(buf.String(), `"event":"hotness_threshold"`) {
		t.Fatalf("third query in quick succession should reach threshold 3, got %q", buf.String())
	}

	buf.Reset()
	w.Reset("c")
	w.Inc("c")
	now = now.Add(time.Minute)
	w.Inc("c")
	now = now.Add(time.Minute)
	w.Inc("c")
	if buf.Len() != 0 {
		t.Fatalf("queries a half-life apart must stay below threshold: %s", buf.String())
	}
}

func Test_ShouldLogSampling(t *testing.T) {
	if shouldLog(0, "k") || !shouldLog(1, "k") {
		t.Fatalf("sampling edges wrong")
	}
	if shouldLog(0.3, "stable") != shouldLog(0.3, "stable") {
		t.Fatalf("sampling must be deterministic per key")
	}
}
