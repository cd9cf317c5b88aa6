package simple

import (
	"github.com/mohammed-shakir/hexproximity/internal/decision"
	"github.com/mohammed-shakir/hexproximity/internal/hotness"
)

// Engine caches the ring sets of origins whose hotness reached Threshold
// (see hotness.Reached).
// A zero Threshold caches every origin; MaxK > 0 skips larger radii.
type Engine struct {
	Hot       hotness.Interface
	Threshold float64
	MaxK      int
}

var _ decision.Interface = (*Engine)(nil)

func (e *Engine) ShouldCache(origin string, k int) bool {
	if origin == "" || k < 0 {
		return false
	}
	if e.MaxK > 0 && k > e.MaxK {
		return false
	}
	if e.Threshold <= 0 {
		return true
	}
	if e.Hot == nil {
		return false
	}
	return hotness.Reached(e.Hot.Score(origin), e.Threshold)
}
