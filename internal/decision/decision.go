// Package decision decides which computed ring sets are worth sharing
// through the ring cache.
package decision

type Interface interface {
	ShouldCache(origin string, k int) bool
}
