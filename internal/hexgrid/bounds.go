package hexgrid

import (
	"errors"
	"fmt"
	"slices"
)

var ErrTooManyCells = errors.New("too many cells")

// CellsInBounds returns, sorted ascending, the cells at res whose centers lie
// inside the latitude/longitude rectangle spanned by lo and hi. The result is
// capped at limit cells (limit <= 0 disables the cap).
func CellsInBounds(lo, hi LatLng, res, limit int) ([]Cell, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	if err := lo.Validate(); err != nil {
		return nil, err
	}
	if err := hi.Validate(); err != nil {
		return nil, err
	}
	if lo.Lat > hi.Lat || lo.Lng > hi.Lng {
		return nil, fmt.Errorf("%w: bounds %v..%v are inverted", ErrInvalidCoordinate, lo, hi)
	}

	within := func(l lattice) bool {
		p := fromVector(l.center())
		return p.Lat >= lo.Lat && p.Lat <= hi.Lat && p.Lng >= lo.Lng && p.Lng <= hi.Lng
	}

	mid := LatLng{Lat: (lo.Lat + hi.Lat) / 2, Lng: (lo.Lng + hi.Lng) / 2}
	seed := locate(toVector(mid), res)

	// flood fill through cells whose centers are inside; the seed is always
	// expanded so that a box smaller than one cell still finds its neighbors
	seen := map[lattice]struct{}{seed: {}}
	stack := []lattice{seed}
	var out []Cell
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		in := within(cur)
		if in {
			out = append(out, cur.cell())
			if limit > 0 && len(out) > limit {
				return nil, fmt.Errorf("%w: more than %d cells at resolution %d", ErrTooManyCells, limit, res)
			}
		}
		if !in && cur != seed {
			continue
		}
		for _, nb := range cur.neighbors() {
			if _, ok := seen[nb]; ok {
				continue
			}
			seen[nb] = struct{}{}
			stack = append(stack, nb)
		}
	}
	slices.Sort(out)
	return out, nil
}
