// Package hexmapper exposes the native hexagonal grid through string cell ids.
package hexmapper

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
)

// DefaultMaxCells bounds bbox and polygon coverage when no limit is given.
const DefaultMaxCells = 250_000

type Mapper struct {
	maxCells int
}

func New(maxCells int) *Mapper {
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	return &Mapper{maxCells: maxCells}
}

func (m *Mapper) Name() string { return "hex" }

func (m *Mapper) PointToCell(p hexgrid.LatLng, res int) (string, error) {
	c, err := hexgrid.LatLngToCell(p, res)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func (m *Mapper) CellCenter(cell string) (hexgrid.LatLng, error) {
	c, err := hexgrid.ParseCell(cell)
	if err != nil {
		return hexgrid.LatLng{}, err
	}
	return hexgrid.CellToLatLng(c)
}

func (m *Mapper) Resolution(cell string) (int, error) {
	c, err := hexgrid.ParseCell(cell)
	if err != nil {
		return 0, err
	}
	return c.Resolution(), nil
}

func (m *Mapper) IsPentagon(cell string) (bool, error) {
	c, err := hexgrid.ParseCell(cell)
	if err != nil {
		return false, err
	}
	return c.IsPentagon(), nil
}

func (m *Mapper) GridDisk(cell string, k int) ([]string, error) {
	c, err := hexgrid.ParseCell(cell)
	if err != nil {
		return nil, err
	}
	disk, err := hexgrid.GridDisk(c, k)
	if err != nil {
		return nil, err
	}
	return toStrings(disk), nil
}

func (m *Mapper) GridDiskDistances(cell string, k int) ([][]string, error) {
	c, err := hexgrid.ParseCell(cell)
	if err != nil {
		return nil, err
	}
	rings, err := hexgrid.GridDiskDistances(c, k)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(rings))
	for i, r := range rings {
		out[i] = toStrings(r)
	}
	return out, nil
}

func (m *Mapper) Boundary(cell string) ([]hexgrid.LatLng, error) {
	c, err := hexgrid.ParseCell(cell)
	if err != nil {
		return nil, err
	}
	return hexgrid.CellToBoundary(c)
}

// ToParent returns the parent at parentRes; the same resolution returns cell.
func (m *Mapper) ToParent(cell string, parentRes int) (string, error) {
	c, err := hexgrid.ParseCell(cell)
	if err != nil {
		return "", err
	}
	if parentRes == c.Resolution() {
		return cell, nil
	}
	p, err := hexgrid.Parent(c, parentRes)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// ToChildren returns the sorted children at childRes; the same resolution
// returns the cell itself. Requests that could exceed the mapper's cell limit
// fail with ErrTooManyCells before any child is computed.
func (m *Mapper) ToChildren(cell string, childRes int) ([]string, error) {
	c, err := hexgrid.ParseCell(cell)
	if err != nil {
		return nil, err
	}
	if childRes == c.Resolution() {
		return []string{cell}, nil
	}
	if childRes > c.Resolution() && childRes <= hexgrid.MaxResolution {
		// aperture 4: at most 4^d descendants d levels down
		if n := int64(1) << (2 * (childRes - c.Resolution())); n > int64(m.maxCells) {
			return nil, fmt.Errorf("%w: up to %d children at resolution %d, limit %d",
				hexgrid.ErrTooManyCells, n, childRes, m.maxCells)
		}
	}
	kids, err := hexgrid.Children(c, childRes)
	if err != nil {
		return nil, err
	}
	return toStrings(kids), nil
}

// CellsForBBox returns the sorted cells whose centers fall inside bb
// (x = longitude, y = latitude).
func (m *Mapper) CellsForBBox(bb orb.Bound, res int) ([]string, error) {
	cells, err := m.cellsInBound(bb, res)
	if err != nil {
		return nil, err
	}
	return toStrings(cells), nil
}

// CellsForPolygon returns the sorted cells whose centers fall inside a
// Polygon or MultiPolygon. Holes are honored.
func (m *Mapper) CellsForPolygon(g orb.Geometry, res int) ([]string, error) {
	var contains func(orb.Point) bool
	switch geom := g.(type) {
	case orb.Polygon:
		if err := checkPolygon(geom); err != nil {
			return nil, err
		}
		contains = func(p orb.Point) bool { return planar.PolygonContains(geom, p) }
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return nil, fmt.Errorf("%w: empty multipolygon", hexgrid.ErrInvalidCoordinate)
		}
		for i, poly := range geom {
			if err := checkPolygon(poly); err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
		}
		contains = func(p orb.Point) bool { return planar.MultiPolygonContains(geom, p) }
	default:
		return nil, fmt.Errorf("%w: unsupported geometry %T", hexgrid.ErrInvalidCoordinate, g)
	}

	candidates, err := m.cellsInBound(g.Bound(), res)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		center, err := hexgrid.CellToLatLng(c)
		if err != nil {
			return nil, err
		}
		if contains(orb.Point{center.Lng, center.Lat}) {
			out = append(out, c.String())
		}
	}
	return out, nil
}

func (m *Mapper) cellsInBound(bb orb.Bound, res int) ([]hexgrid.Cell, error) {
	lo := hexgrid.LatLng{Lat: bb.Min.Lat(), Lng: bb.Min.Lon()}
	hi := hexgrid.LatLng{Lat: bb.Max.Lat(), Lng: bb.Max.Lon()}
	return hexgrid.CellsInBounds(lo, hi, res, m.maxCells)
}

func checkPolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty polygon", hexgrid.ErrInvalidCoordinate)
	}
	if len(p[0]) < 4 {
		return fmt.Errorf("%w: outer ring has < 4 vertices", hexgrid.ErrInvalidCoordinate)
	}
	for i, hole := range p[1:] {
		if len(hole) < 4 {
			return fmt.Errorf("%w: hole %d has < 4 vertices", hexgrid.ErrInvalidCoordinate, i)
		}
	}
	return nil
}

func toStrings(cells []hexgrid.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}
