// Package keys builds Redis keys for cached ring sets.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// encodingVersion changes whenever the cached value layout changes.
const encodingVersion = "rings/v1"

// RingKey returns the key of the ring set of radius k around cell on grid.
// The g= segment fingerprints the grid name and value layout so that keys
// written under another layout never collide with current ones.
func RingKey(prefix, grid, cell string, k int) string {
	return fmt.Sprintf("%s%s:k:%d", gridPrefix(prefix, grid), strings.ToLower(sanitize(cell)), k)
}

// RingPattern matches every ring key of grid under prefix.
func RingPattern(prefix, grid string) string {
	return gridPrefix(prefix, grid) + "*"
}

func gridPrefix(prefix, grid string) string {
	p := sanitize(strings.TrimSpace(prefix))
	if p == "" {
		p = "ring"
	}
	g := sanitize(strings.ToLower(strings.TrimSpace(grid)))
	sum := xxhash.Sum64String(g + "|" + encodingVersion)
	return fmt.Sprintf("%s:%s:g=%08x:", p, g, uint32(sum))
}

// sanitize keeps ASCII letters, digits, '_' and '-'; runs of anything else
// collapse to a single '-'.
func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := r
		if !isAlphaNum(r) && r != '_' && r != '-' {
			out = '-'
		}
		if out == '-' && prev == '-' {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
