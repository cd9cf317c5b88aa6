package h3mapper

import (
	"fmt"
	"sort"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
)

// ToParent returns the parent at parentRes; the same resolution returns cell.
func (m *Mapper) ToParent(cell string, parentRes int) (string, error) {
	if err := validateRes(parentRes); err != nil {
		return "", err
	}
	c, err := parse(cell)
	if err != nil {
		return "", err
	}
	curRes := c.Resolution()
	if parentRes > curRes {
		return "", fmt.Errorf("%w: parentRes %d must be <= cell resolution %d",
			hexgrid.ErrInvalidResolution, parentRes, curRes)
	}
	if parentRes == curRes {
		return cell, nil
	}

	p, err := c.Parent(parentRes)
	if err != nil {
		return "", fmt.Errorf("h3 parent: %w", err)
	}
	return p.String(), nil
}

// ToChildren returns the sorted children at childRes; the same resolution
// returns the cell itself. The child count is bounded by maxCells.
func (m *Mapper) ToChildren(cell string, childRes int) ([]string, error) {
	if err := validateRes(childRes); err != nil {
		return nil, err
	}
	c, err := parse(cell)
	if err != nil {
		return nil, err
	}
	curRes := c.Resolution()
	if childRes < curRes {
		return nil, fmt.Errorf("%w: childRes %d must be >= cell resolution %d",
			hexgrid.ErrInvalidResolution, childRes, curRes)
	}
	if childRes == curRes {
		return []string{cell}, nil
	}
	if n := childBound(childRes - curRes); n > int64(m.maxCells) {
		return nil, fmt.Errorf("%w: up to %d children at resolution %d, limit %d",
			hexgrid.ErrTooManyCells, n, childRes, m.maxCells)
	}

	kids, err := c.Children(childRes)
	if err != nil {
		return nil, fmt.Errorf("h3 children: %w", err)
	}
	out := make([]string, 0, len(kids))
	for _, k := range kids {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out, nil
}

// childBound is 7^levels, the child count of a hexagon levels resolutions down.
func childBound(levels int) int64 {
	n := int64(1)
	for range levels {
		n *= 7
	}
	return n
}
