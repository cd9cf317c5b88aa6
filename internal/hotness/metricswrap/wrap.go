// Package metricswrap publishes hotness tracker size and logs origins that
// cross the hot threshold.
package metricswrap

import (
	"context"
	"fmt"
	"log/slog"

	xx "github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/hexproximity/internal/core/observability"
	"github.com/mohammed-shakir/hexproximity/internal/hotness"
)

type Sizer interface{ Size() int }

type Option func(*WithMetrics)

// WithThreshold logs a sample of increments whose score reaches th, as
// decided by hotness.Reached.
func WithThreshold(th, sample float64) Option {
	return func(w *WithMetrics) {
		w.threshold = th
		w.sample = sample
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *WithMetrics) { w.log = l }
}

type WithMetrics struct {
	inner     hotness.Interface
	tier      string
	threshold float64
	sample    float64
	log       *slog.Logger
}

var _ hotness.Interface = (*WithMetrics)(nil)

func New(inner hotness.Interface, tier string, opts ...Option) *WithMetrics {
	if tier == "" {
		tier = "origin"
	}
	w := &WithMetrics{inner: inner, tier: tier, sample: 0.01}
	for _, o := range opts {
		o(w)
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	return w
}

func (w *WithMetrics) Inc(cell string) {
	w.inner.Inc(cell)
	if w.threshold > 0 {
		score := w.inner.Score(cell)
		if hotness.Reached(score, w.threshold) && shouldLog(w.sample, cell) {
			w.log.LogAttrs(context.Background(), slog.LevelInfo, "hot origin above threshold",
				slog.String("event", "hotness_threshold"),
				slog.Float64("score", score),
				slog.String("tier", w.tier),
				slog.String("cell_hash", fmt.Sprintf("%08x", uint32(xx.Sum64String(cell)))))
		}
	}
	w.publishSize()
}

func (w *WithMetrics) Score(cell string) float64 {
	return w.inner.Score(cell)
}

func (w *WithMetrics) Reset(cells ...string) {
	w.inner.Reset(cells...)
	w.publishSize()
}

// Top forwards to the inner tracker when it can rank.
func (w *WithMetrics) Top(n int) []hotness.Scored {
	if r, ok := w.inner.(hotness.Ranker); ok {
		return r.Top(n)
	}
	return nil
}

func (w *WithMetrics) publishSize() {
	if s, ok := w.inner.(Sizer); ok {
		observability.SetHotKeysGauge(w.tier, s.Size())
	}
}

// shouldLog samples deterministically per key so that one hot origin is
// either always or never logged.
func shouldLog(sample float64, key string) bool {
	if sample <= 0 {
		return false
	}
	if sample >= 1 {
		return true
	}
	const denom = 10000 // 0.01 => 100/10000
	threshold := uint64(sample*denom + 0.5)
	if threshold == 0 {
		return false
	}
	return xx.Sum64String(key)%denom < threshold
}
