package hexgrid

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// CellToBoundary returns the polygon outline of c, counter-clockwise.
// Vertices are the circumcenters of c's center and each pair of consecutive
// neighbor centers.
func CellToBoundary(c Cell) ([]LatLng, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCell, c)
	}
	verts := boundaryVectors(c.lattice())
	out := make([]LatLng, len(verts))
	for i, v := range verts {
		out[i] = fromVector(v)
	}
	return out, nil
}

func boundaryVectors(l lattice) []r3.Vector {
	center := l.center()
	nbs := l.neighbors()

	// tangent frame at center; e1 x e2 == center
	ref := r3.Vector{Z: 1}
	if math.Abs(center.Z) > 0.9 {
		ref = r3.Vector{X: 1}
	}
	e1 := ref.Cross(center).Normalize()
	e2 := center.Cross(e1)

	type around struct {
		d     r3.Vector
		angle float64
	}
	pts := make([]around, len(nbs))
	for i, nb := range nbs {
		d := nb.center().Sub(center)
		pts[i] = around{d: d, angle: math.Atan2(d.Dot(e2), d.Dot(e1))}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].angle < pts[j].angle })

	out := make([]r3.Vector, len(pts))
	for i := range pts {
		v := pts[i].d.Cross(pts[(i+1)%len(pts)].d).Normalize()
		if v.Dot(center) < 0 {
			v = v.Mul(-1)
		}
		out[i] = v
	}
	return out
}
