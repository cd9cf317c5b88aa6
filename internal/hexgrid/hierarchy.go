package hexgrid

import (
	"fmt"
	"slices"
)

// Parent returns the cell at the coarser resolution res that contains the
// center of c.
func Parent(c Cell, res int) (Cell, error) {
	if !c.IsValid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCell, c)
	}
	if err := validateRes(res); err != nil {
		return 0, err
	}
	if cr := c.Resolution(); res >= cr {
		return 0, fmt.Errorf("%w: parent resolution %d must be coarser than cell resolution %d",
			ErrInvalidResolution, res, cr)
	}
	return c.lattice().parent(res).cell(), nil
}

// Children returns, sorted ascending, every cell at the finer resolution res
// whose parent at c's resolution is c.
func Children(c Cell, res int) ([]Cell, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCell, c)
	}
	if err := validateRes(res); err != nil {
		return nil, err
	}
	cr := c.Resolution()
	if res <= cr {
		return nil, fmt.Errorf("%w: child resolution %d must be finer than cell resolution %d",
			ErrInvalidResolution, res, cr)
	}

	l := c.lattice()
	// centers nest across resolutions: scaling the weights keeps the same
	// point and the same canonical face
	shift := uint(res - cr)
	start := lattice{res: res, face: l.face, a: l.a << shift, b: l.b << shift}

	seen := map[lattice]struct{}{start: {}}
	stack := []lattice{start}
	var out []Cell
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.cell())
		for _, nb := range cur.neighbors() {
			if _, ok := seen[nb]; ok {
				continue
			}
			seen[nb] = struct{}{}
			if nb.parent(cr) == l {
				stack = append(stack, nb)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

func (l lattice) parent(res int) lattice {
	return locate(l.center(), res)
}
