// Package h3mapper exposes Uber's H3 grid through the same string-keyed
// operations as the native grid, mapping H3 failures onto hexgrid errors.
package h3mapper

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
)

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

func (m *Mapper) Name() string { return "h3" }

func (m *Mapper) PointToCell(p hexgrid.LatLng, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lng}, res)
	if err != nil {
		return "", fmt.Errorf("h3 latlng to cell: %w", err)
	}
	return c.String(), nil
}

func (m *Mapper) CellCenter(cell string) (hexgrid.LatLng, error) {
	c, err := parse(cell)
	if err != nil {
		return hexgrid.LatLng{}, err
	}
	ll, err := h3.CellToLatLng(c)
	if err != nil {
		return hexgrid.LatLng{}, fmt.Errorf("h3 cell to latlng: %w", err)
	}
	return hexgrid.LatLng{Lat: ll.Lat, Lng: ll.Lng}, nil
}

func (m *Mapper) Resolution(cell string) (int, error) {
	c, err := parse(cell)
	if err != nil {
		return 0, err
	}
	return c.Resolution(), nil
}

func (m *Mapper) IsPentagon(cell string) (bool, error) {
	c, err := parse(cell)
	if err != nil {
		return false, err
	}
	return c.IsPentagon(), nil
}

// GridDisk returns the disk origin first, ring by ring.
func (m *Mapper) GridDisk(cell string, k int) ([]string, error) {
	rings, err := m.GridDiskDistances(cell, k)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range rings {
		out = append(out, r...)
	}
	return out, nil
}

func (m *Mapper) GridDiskDistances(cell string, k int) ([][]string, error) {
	c, err := parse(cell)
	if err != nil {
		return nil, err
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: k=%d", hexgrid.ErrInvalidRadius, k)
	}
	rings, err := h3.GridDiskDistances(c, k)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}
	out := make([][]string, 0, len(rings))
	for _, r := range rings {
		if len(r) == 0 {
			break
		}
		s := make([]string, 0, len(r))
		for _, rc := range r {
			if rc != 0 {
				s = append(s, rc.String())
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Mapper) Boundary(cell string) ([]hexgrid.LatLng, error) {
	c, err := parse(cell)
	if err != nil {
		return nil, err
	}
	b, err := h3.CellToBoundary(c)
	if err != nil {
		return nil, fmt.Errorf("h3 boundary: %w", err)
	}
	out := make([]hexgrid.LatLng, len(b))
	for i, v := range b {
		out[i] = hexgrid.LatLng{Lat: v.Lat, Lng: v.Lng}
	}
	return out, nil
}

func (m *Mapper) CellsForBBox(bb orb.Bound, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	// v4 wants degrees, lat/lng order
	outer := h3.GeoLoop{
		{Lat: bb.Min.Lat(), Lng: bb.Min.Lon()},
		{Lat: bb.Min.Lat(), Lng: bb.Max.Lon()},
		{Lat: bb.Max.Lat(), Lng: bb.Max.Lon()},
		{Lat: bb.Max.Lat(), Lng: bb.Min.Lon()},
	}
	return m.polyfill([]h3.GeoPolygon{{GeoLoop: outer}}, res)
}

// CellsForPolygon covers a Polygon or MultiPolygon (lon/lat rings, holes
// honored).
func (m *Mapper) CellsForPolygon(g orb.Geometry, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	var polys []orb.Polygon
	switch geom := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{geom}
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return nil, fmt.Errorf("%w: empty multipolygon", hexgrid.ErrInvalidCoordinate)
		}
		polys = geom
	default:
		return nil, fmt.Errorf("%w: unsupported geometry %T", hexgrid.ErrInvalidCoordinate, g)
	}

	geo := make([]h3.GeoPolygon, 0, len(polys))
	for pi, p := range polys {
		if len(p) == 0 {
			return nil, fmt.Errorf("%w: polygon %d is empty", hexgrid.ErrInvalidCoordinate, pi)
		}
		outer := toLoop(p[0])
		if len(outer) < 3 {
			return nil, fmt.Errorf("%w: polygon %d outer ring has < 4 vertices", hexgrid.ErrInvalidCoordinate, pi)
		}
		var holes []h3.GeoLoop
		for i, r := range p[1:] {
			h := toLoop(r)
			if len(h) < 3 {
				return nil, fmt.Errorf("%w: polygon %d hole %d has < 4 vertices", hexgrid.ErrInvalidCoordinate, pi, i)
			}
			holes = append(holes, h)
		}
		geo = append(geo, h3.GeoPolygon{GeoLoop: outer, Holes: holes})
	}
	return m.polyfill(geo, res)
}

// toLoop converts a lon/lat ring to an h3.GeoLoop, dropping the closing
// vertex when the ring is explicitly closed.
func toLoop(r orb.Ring) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(r))
	for _, p := range r {
		loop = append(loop, h3.LatLng{Lat: p.Lat(), Lng: p.Lon()})
	}
	if len(loop) >= 2 && loop[0] == loop[len(loop)-1] {
		loop = loop[:len(loop)-1]
	}
	return loop
}

// polyfill returns the unique cells of all polygons, sorted for determinism.
func (m *Mapper) polyfill(polys []h3.GeoPolygon, res int) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range polys {
		indexes, err := h3.PolygonToCells(p, res)
		if err != nil {
			return nil, fmt.Errorf("h3 polyfill: %w", err)
		}
		for _, idx := range indexes {
			s := idx.String()
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
		if len(out) > m.maxCells {
			return nil, fmt.Errorf("%w: more than %d cells at resolution %d", hexgrid.ErrTooManyCells, m.maxCells, res)
		}
	}
	sort.Strings(out)
	return out, nil
}

func validateRes(res int) error {
	if res < hexgrid.MinResolution || res > hexgrid.MaxResolution {
		return fmt.Errorf("%w: %d (must be %d..%d)", hexgrid.ErrInvalidResolution, res,
			hexgrid.MinResolution, hexgrid.MaxResolution)
	}
	return nil
}

func parse(cell string) (h3.Cell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return 0, fmt.Errorf("%w: %q", hexgrid.ErrInvalidCell, cell)
	}
	if !c.IsValid() {
		return 0, fmt.Errorf("%w: %q", hexgrid.ErrInvalidCell, cell)
	}
	return c, nil
}
