package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
	"github.com/mohammed-shakir/hexproximity/internal/proximity"
)

type entityJSON struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type nearbyRequest struct {
	Lat      float64      `json:"lat"`
	Lng      float64      `json:"lng"`
	Res      *int         `json:"res,omitempty"`
	K        *int         `json:"k,omitempty"`
	Entities []entityJSON `json:"entities"`
	Classify bool         `json:"classify,omitempty"`
	GeoJSON  bool         `json:"geojson,omitempty"`
}

type classifiedJSON struct {
	entityJSON
	Cell     string `json:"cell"`
	Distance int    `json:"distance"`
	Nearby   bool   `json:"nearby"`
}

type nearbyResponse struct {
	Origin   string                     `json:"origin"`
	Nearby   []entityJSON               `json:"nearby"`
	Entities []classifiedJSON           `json:"entities,omitempty"`
	Rings    [][]string                 `json:"rings,omitempty"`
	GeoJSON  *geojson.FeatureCollection `json:"geojson,omitempty"`
}

func (a *api) nearby(w http.ResponseWriter, r *http.Request) {
	var req nearbyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large", Kind: "bad_request"})
			return
		}
		badRequest(w, "invalid json: "+err.Error())
		return
	}

	q := proximity.Query{
		Point:      hexgrid.LatLng{Lat: req.Lat, Lng: req.Lng},
		Resolution: a.cfg.DefaultRes,
		K:          a.cfg.DefaultK,
	}
	if req.Res != nil {
		q.Resolution = *req.Res
	}
	if req.K != nil {
		q.K = *req.K
	}
	if q.K > a.cfg.MaxK {
		badRequest(w, fmt.Sprintf("k=%d exceeds the limit of %d", q.K, a.cfg.MaxK))
		return
	}
	if len(req.Entities) > a.cfg.MaxEntities {
		badRequest(w, fmt.Sprintf("%d entities exceed the limit of %d", len(req.Entities), a.cfg.MaxEntities))
		return
	}

	ents := make([]proximity.Entity, len(req.Entities))
	for i, e := range req.Entities {
		ents[i] = proximity.Entity{ID: e.ID, Position: hexgrid.LatLng{Lat: e.Lat, Lng: e.Lng}}
	}

	res, err := a.deps.Engine.Classify(r.Context(), q, ents)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := nearbyResponse{Origin: res.Origin, Nearby: make([]entityJSON, 0, len(res.Entities))}
	for _, c := range res.Entities {
		if c.Nearby {
			out.Nearby = append(out.Nearby, toEntityJSON(c.Entity))
		}
	}
	if req.Classify {
		out.Rings = res.Rings
		out.Entities = make([]classifiedJSON, len(res.Entities))
		for i, c := range res.Entities {
			out.Entities[i] = classifiedJSON{entityJSON: toEntityJSON(c.Entity), Cell: c.Cell, Distance: c.Distance, Nearby: c.Nearby}
		}
	}
	if req.GeoJSON {
		fc, err := a.deps.Engine.FeatureCollection(r.Context(), res)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		out.GeoJSON = fc
	}
	writeJSON(w, http.StatusOK, out)
}

func toEntityJSON(e proximity.Entity) entityJSON {
	return entityJSON{ID: e.ID, Lat: e.Position.Lat, Lng: e.Position.Lng}
}
