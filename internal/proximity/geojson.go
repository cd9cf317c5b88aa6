package proximity

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
)

// CellPolygon closes a cell boundary into a polygon with x = longitude.
func CellPolygon(b []hexgrid.LatLng) orb.Polygon {
	ring := make(orb.Ring, 0, len(b)+1)
	for _, p := range b {
		ring = append(ring, orb.Point{p.Lng, p.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// FeatureCollection renders res as map data: one polygon per disk cell,
// tagged with its ring distance, then one point per candidate.
func (e *Engine) FeatureCollection(ctx context.Context, res *Result) (*geojson.FeatureCollection, error) {
	cells := res.Cells()
	polys, err := e.DiskBoundaries(ctx, cells)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	i := 0
	for d, ring := range res.Rings {
		for _, c := range ring {
			f := geojson.NewFeature(CellPolygon(polys[i]))
			f.ID = c
			f.Properties["kind"] = "cell"
			f.Properties["cell"] = c
			f.Properties["ring"] = d
			f.Properties["origin"] = c == res.Origin
			fc.Append(f)
			i++
		}
	}
	for _, ent := range res.Entities {
		f := geojson.NewFeature(orb.Point{ent.Position.Lng, ent.Position.Lat})
		f.ID = ent.ID
		f.Properties["kind"] = "entity"
		f.Properties["cell"] = ent.Cell
		f.Properties["distance"] = ent.Distance
		f.Properties["nearby"] = ent.Nearby
		fc.Append(f)
	}
	return fc, nil
}
