package hexmapper

import (
	"errors"
	"slices"
	"sort"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
)

var stockholm = hexgrid.LatLng{Lat: 59.3293, Lng: 18.0686}

func TestBBox_HappyPath_SortedUnique(t *testing.T) {
	m := New(0)
	bb := orb.Bound{Min: orb.Point{17.95, 59.30}, Max: orb.Point{18.15, 59.40}}

	cells, err := m.CellsForBBox(bb, 8)
	if err != nil {
		t.Fatalf("CellsForBBox err: %v", err)
	}
	if len(cells) == 0 {
		t.Fatalf("expected non-empty cells for bbox")
	}
	if !sort.StringsAreSorted(cells) {
		t.Fatalf("cells must be sorted")
	}
	if hasDups(cells) {
		t.Fatalf("cells must be de-duplicated")
	}
}

func TestBBox_TooManyCells(t *testing.T) {
	m := New(100)
	bb := orb.Bound{Min: orb.Point{10, 50}, Max: orb.Point{20, 60}}
	if _, err := m.CellsForBBox(bb, 9); !errors.Is(err, hexgrid.ErrTooManyCells) {
		t.Fatalf("want ErrTooManyCells, got %v", err)
	}
}

func TestPolygon_SubsetOfBBoxAndHoles(t *testing.T) {
	m := New(0)
	res := 9
	outer := orb.Ring{{18.00, 59.32}, {18.12, 59.32}, {18.12, 59.38}, {18.00, 59.38}, {18.00, 59.32}}
	hole := orb.Ring{{18.04, 59.34}, {18.08, 59.34}, {18.08, 59.36}, {18.04, 59.36}, {18.04, 59.34}}

	solid, err := m.CellsForPolygon(orb.Polygon{outer}, res)
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	box, err := m.CellsForBBox(orb.Polygon{outer}.Bound(), res)
	if err != nil {
		t.Fatalf("bbox: %v", err)
	}
	if len(solid) == 0 || len(solid) > len(box) {
		t.Fatalf("polygon coverage %d vs bbox %d", len(solid), len(box))
	}
	if !sort.StringsAreSorted(solid) {
		t.Fatalf("polygon cells must be sorted")
	}

	holed, err := m.CellsForPolygon(orb.Polygon{outer, hole}, res)
	if err != nil {
		t.Fatalf("polygon with hole: %v", err)
	}
	if len(holed) >= len(solid) {
		t.Fatalf("hole removed nothing: %d vs %d", len(holed), len(solid))
	}
	for _, c := range holed {
		if !slices.Contains(solid, c) {
			t.Fatalf("cell %s not in the solid polygon coverage", c)
		}
	}

	multi, err := m.CellsForPolygon(orb.MultiPolygon{{outer}}, res)
	if err != nil {
		t.Fatalf("multipolygon: %v", err)
	}
	if !slices.Equal(multi, solid) {
		t.Fatalf("single-member multipolygon differs from polygon")
	}
}

func TestPolygon_Rejects(t *testing.T) {
	m := New(0)
	if _, err := m.CellsForPolygon(orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}, 5); !errors.Is(err, hexgrid.ErrInvalidCoordinate) {
		t.Fatalf("degenerate ring: got %v", err)
	}
	if _, err := m.CellsForPolygon(orb.Point{1, 2}, 5); err == nil {
		t.Fatalf("expected error for a point geometry")
	}
}

func TestHierarchy_SameResolutionAndRoundTrip(t *testing.T) {
	m := New(0)
	cell, err := m.PointToCell(stockholm, 8)
	if err != nil {
		t.Fatalf("PointToCell: %v", err)
	}

	p, err := m.ToParent(cell, 8)
	if err != nil || p != cell {
		t.Fatalf("same-res ToParent = %q, %v", p, err)
	}
	kids, err := m.ToChildren(cell, 8)
	if err != nil || len(kids) != 1 || kids[0] != cell {
		t.Fatalf("same-res ToChildren = %v, %v", kids, err)
	}

	parent, err := m.ToParent(cell, 7)
	if err != nil {
		t.Fatalf("ToParent: %v", err)
	}
	children, err := m.ToChildren(parent, 8)
	if err != nil {
		t.Fatalf("ToChildren: %v", err)
	}
	if !slices.Contains(children, cell) {
		t.Fatalf("children of %s do not include %s", parent, cell)
	}

	if _, err := m.ToParent(cell, 9); !errors.Is(err, hexgrid.ErrInvalidResolution) {
		t.Fatalf("finer parent: got %v", err)
	}
	if _, err := m.ToChildren(cell, 7); !errors.Is(err, hexgrid.ErrInvalidResolution) {
		t.Fatalf("coarser children: got %v", err)
	}
}

func TestCellQueries(t *testing.T) {
	m := New(0)
	cell, err := m.PointToCell(stockholm, 10)
	if err != nil {
		t.Fatalf("PointToCell: %v", err)
	}
	if res, err := m.Resolution(cell); err != nil || res != 10 {
		t.Fatalf("Resolution = %d, %v", res, err)
	}
	if pent, err := m.IsPentagon(cell); err != nil || pent {
		t.Fatalf("IsPentagon = %v, %v", pent, err)
	}
	b, err := m.Boundary(cell)
	if err != nil || len(b) != 6 {
		t.Fatalf("Boundary = %d vertices, %v", len(b), err)
	}

	disk, err := m.GridDisk(cell, 2)
	if err != nil || len(disk) != 19 || disk[0] != cell {
		t.Fatalf("GridDisk = %v, %v", disk, err)
	}
	rings, err := m.GridDiskDistances(cell, 2)
	if err != nil || len(rings) != 3 || len(rings[1]) != 6 || len(rings[2]) != 12 {
		t.Fatalf("GridDiskDistances = %v, %v", rings, err)
	}

	if _, err := m.GridDisk("not-a-cell", 1); !errors.Is(err, hexgrid.ErrInvalidCell) {
		t.Fatalf("bad cell: got %v", err)
	}
}

func hasDups(s []string) bool {
	seen := map[string]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

func TestChildren_CellLimit(t *testing.T) {
	m := New(100)
	c, err := m.PointToCell(stockholm, 0)
	if err != nil {
		t.Fatalf("PointToCell: %v", err)
	}
	kids, err := m.ToChildren(c, 3)
	if err != nil || len(kids) == 0 || len(kids) > 64 {
		t.Fatalf("res 0 -> 3 under limit: %d cells, err=%v", len(kids), err)
	}
	if _, err := m.ToChildren(c, 4); !errors.Is(err, hexgrid.ErrTooManyCells) {
		t.Fatalf("res 0 -> 4: want ErrTooManyCells, got %v", err)
	}
	if _, err := New(0).ToChildren(c, 15); !errors.Is(err, hexgrid.ErrTooManyCells) {
		t.Fatalf("res 0 -> 15 with default limit: want ErrTooManyCells, got %v", err)
	}
	if _, err := m.ToChildren(c, 16); !errors.Is(err, hexgrid.ErrInvalidResolution) {
		t.Fatalf("res 16: want ErrInvalidResolution, got %v", err)
	}
}
