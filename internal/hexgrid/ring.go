package hexgrid

import "fmt"

// Neighbors returns the cells sharing an edge with c: six for hexagons,
// five for pentagons.
func Neighbors(c Cell) ([]Cell, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCell, c)
	}
	nbs := c.lattice().neighbors()
	out := make([]Cell, len(nbs))
	for i, nb := range nbs {
		out[i] = nb.cell()
	}
	return out, nil
}

// GridDisk returns every cell within k grid steps of origin, origin first
// and then ring by ring. k == 0 yields only origin.
func GridDisk(origin Cell, k int) ([]Cell, error) {
	rings, err := GridDiskDistances(origin, k)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, r := range rings {
		n += len(r)
	}
	out := make([]Cell, 0, n)
	for _, r := range rings {
		out = append(out, r...)
	}
	return out, nil
}

// GridDiskDistances runs the same traversal as GridDisk and groups the cells
// by distance: rings[d] holds the cells exactly d steps from origin. When the
// disk already covers the whole sphere the trailing empty rings are omitted.
func GridDiskDistances(origin Cell, k int) ([][]Cell, error) {
	if !origin.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCell, origin)
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: k=%d must be >= 0", ErrInvalidRadius, k)
	}

	seen := map[Cell]struct{}{origin: {}}
	rings := make([][]Cell, 1, k+1)
	rings[0] = []Cell{origin}
	frontier := []lattice{origin.lattice()}

	for d := 1; d <= k; d++ {
		var next []lattice
		var ring []Cell
		for _, l := range frontier {
			for _, nb := range l.neighbors() {
				c := nb.cell()
				if _, ok := seen[c]; ok {
					continue
				}
				seen[c] = struct{}{}
				ring = append(ring, c)
				next = append(next, nb)
			}
		}
		if len(ring) == 0 {
			break
		}
		rings = append(rings, ring)
		frontier = next
	}
	return rings, nil
}

// GridDistance returns the number of grid steps between a and b, searching
// at most maxSteps rings out from a.
func GridDistance(a, b Cell, maxSteps int) (int, error) {
	if !a.IsValid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCell, a)
	}
	if !b.IsValid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCell, b)
	}
	if a.Resolution() != b.Resolution() {
		return 0, fmt.Errorf("%w: %d vs %d", ErrResolutionMismatch, a.Resolution(), b.Resolution())
	}
	if maxSteps < 0 {
		return 0, fmt.Errorf("%w: max=%d must be >= 0", ErrInvalidRadius, maxSteps)
	}
	if a == b {
		return 0, nil
	}

	seen := map[Cell]struct{}{a: {}}
	frontier := []lattice{a.lattice()}
	for d := 1; d <= maxSteps && len(frontier) > 0; d++ {
		var next []lattice
		for _, l := range frontier {
			for _, nb := range l.neighbors() {
				c := nb.cell()
				if c == b {
					return d, nil
				}
				if _, ok := seen[c]; ok {
					continue
				}
				seen[c] = struct{}{}
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return 0, fmt.Errorf("%w: %s -> %s beyond %d steps", ErrNotReachable, a, b, maxSteps)
}
