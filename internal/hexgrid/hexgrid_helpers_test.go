package hexgrid

import (
	"math"
	"math/rand/v2"
	"testing"
)

// allCells enumerates every cell at res by walking each face lattice.
func allCells(t *testing.T, res int) []Cell {
	t.Helper()
	n := frequency(res)
	seen := make(map[Cell]struct{})
	var out []Cell
	for f := range numFaces {
		for a := 0; a <= n; a++ {
			for b := 0; a+b <= n; b++ {
				c := canonical(res, f, [3]int{a, b, n - a - b}).cell()
				if _, ok := seen[c]; ok {
					continue
				}
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	return out
}

// randomPoints returns points uniformly distributed over the sphere.
func randomPoints(seed uint64, count int) []LatLng {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]LatLng, count)
	for i := range out {
		z := r.Float64()*2 - 1
		lng := r.Float64()*360 - 180
		out[i] = LatLng{Lat: math.Asin(z) * 180 / math.Pi, Lng: lng}
	}
	return out
}

func mustCell(t *testing.T, p LatLng, res int) Cell {
	t.Helper()
	c, err := LatLngToCell(p, res)
	if err != nil {
		t.Fatalf("LatLngToCell(%v, %d): %v", p, res, err)
	}
	return c
}
