package hexgrid

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// LatLngToCell returns the cell containing p at res.
func LatLngToCell(p LatLng, res int) (Cell, error) {
	if err := validateRes(res); err != nil {
		return 0, err
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return locate(toVector(p), res).cell(), nil
}

// CellToLatLng returns the center of c.
func CellToLatLng(c Cell) (LatLng, error) {
	if !c.IsValid() {
		return LatLng{}, fmt.Errorf("%w: %s", ErrInvalidCell, c)
	}
	return fromVector(c.lattice().center()), nil
}

// locate finds the cell whose center is nearest to the unit vector p.
// It starts from the lattice point nearest to p in the gnomonic plane of the
// containing face and walks to closer neighbors until none is closer.
func locate(p r3.Vector, res int) lattice {
	face := nearestFace(p)
	v := icoFaces[face]
	va, vb, vc := icoVerts[v[0]], icoVerts[v[1]], icoVerts[v[2]]

	// barycentric weights of the ray through p (scale invariant)
	alpha := p.Dot(vb.Cross(vc))
	beta := va.Dot(p.Cross(vc))
	gamma := va.Dot(vb.Cross(p))
	sum := alpha + beta + gamma

	n := frequency(res)
	a := clamp(int(math.Round(alpha/sum*float64(n))), 0, n)
	b := clamp(int(math.Round(beta/sum*float64(n))), 0, n-a)

	cur := canonical(res, face, [3]int{a, b, n - a - b})
	best := p.Dot(cur.center())
	for {
		next := cur
		for _, nb := range cur.neighbors() {
			if d := p.Dot(nb.center()); d > best {
				best, next = d, nb
			}
		}
		if next == cur {
			return cur
		}
		cur = next
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
