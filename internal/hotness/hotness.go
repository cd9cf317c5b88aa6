// Package hotness tracks how often query origins are seen, with scores that
// decay over time.
package hotness

type Interface interface {
	Inc(cell string)
	Score(cell string) float64
	Reset(cells ...string)
}

// Scored is one entry of a ranking.
type Scored struct {
	Cell  string  `json:"cell"`
	Score float64 `json:"score"`
}

// Ranker is implemented by trackers that can list their hottest cells.
type Ranker interface {
	Top(n int) []Scored
}

// reachTolerance is relative to the threshold. Scores decay between
// increments, so N queries in quick succession score slightly under N.
const reachTolerance = 1e-3

// Reached reports whether score has reached threshold, counting scores within
// 0.1% below it as reached. With a one minute half-life, N queries arriving
// within about a tenth of a second therefore reach a threshold of N.
func Reached(score, threshold float64) bool {
	return score >= threshold*(1-reachTolerance)
}
