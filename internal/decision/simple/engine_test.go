package simple

import (
	"sync"
	"testing"

	"github.com/mohammed-shakir/hexproximity/internal/hotness"
)

type fakeHot struct {
	mu sync.Mutex
	m  map[string]float64
}

func newFakeHot() *fakeHot { return &fakeHot{m: make(map[string]float64)} }

func (f *fakeHot) Inc(cell string) {
	f.mu.Lock()
	f.m[cell]++
	f.mu.Unlock()
}

func (f *fakeHot) Score(cell string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[cell]
}

func (f *fakeHot) Reset(cells ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cells {
		delete(f.m, c)
	}
}

var _ hotness.Interface = (*fakeHot)(nil)

func TestShouldCache_OriginCrossesThreshold(t *testing.T) {
	h := newFakeHot()
	e := &Engine{Hot: h, Threshold: 2.0}
	origin := "1c00a4b2000a3c01"

	h.m[origin] = 1.9
	if e.ShouldCache(origin, 4) {
		t.Fatalf("expected ShouldCache=false below threshold")
	}
	h.m[origin] = 2.0
	if !e.ShouldCache(origin, 4) {
		t.Fatalf("expected ShouldCache=true at threshold")
	}
	if e.ShouldCache("1c00a4b2000a3c02", 4) {
		t.Fatalf("another origin's score must not count")
	}
}

func TestShouldCache_Edges(t *testing.T) {
	h := newFakeHot()
	h.m["o"] = 10

	for _, tc := range []struct {
		name   string
		e      *Engine
		origin string
		k      int
		want   bool
	}{
		{"zero threshold caches all", &Engine{}, "o", 3, true},
		{"empty origin", &Engine{}, "", 3, false},
		{"negative k", &Engine{}, "o", -1, false},
		{"k above cap", &Engine{Hot: h, Threshold: 1, MaxK: 5}, "o", 6, false},
		{"k at cap", &Engine{Hot: h, Threshold: 1, MaxK: 5}, "o", 5, true},
		{"no tracker", &Engine{Threshold: 1}, "o", 1, false},
	} {
		if got := tc.e.ShouldCache(tc.origin, tc.k); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestShouldCache_ToleratesDecayJustBelowThreshold(t *testing.T) {
	h := newFakeHot()
	e := &Engine{Hot: h, Threshold: 3}

	h.m["o"] = 2.9995 // three back-to-back queries after decay
	if !e.ShouldCache("o", 4) {
		t.Fatalf("score a hair under the threshold should count as reached")
	}
	h.m["o"] = 2.5
	if e.ShouldCache("o", 4) {
		t.Fatalf("score well under the threshold must not cache")
	}
}
