package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
	"github.com/mohammed-shakir/hexproximity/internal/proximity"
)

type cellResponse struct {
	Cell       string         `json:"cell"`
	Resolution int            `json:"resolution"`
	Center     hexgrid.LatLng `json:"center"`
	Pentagon   bool           `json:"pentagon"`
}

func (a *api) describe(cell string) (cellResponse, error) {
	res, err := a.deps.Grid.Resolution(cell)
	if err != nil {
		return cellResponse{}, err
	}
	center, err := a.deps.Grid.CellCenter(cell)
	if err != nil {
		return cellResponse{}, err
	}
	pent, err := a.deps.Grid.IsPentagon(cell)
	if err != nil {
		return cellResponse{}, err
	}
	return cellResponse{Cell: cell, Resolution: res, Center: center, Pentagon: pent}, nil
}

func (a *api) cell(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	lng, err := queryFloat(r, "lng")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := queryInt(r, "res", a.cfg.DefaultRes)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := a.deps.Grid.PointToCell(hexgrid.LatLng{Lat: lat, Lng: lng}, res)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.describe(c)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) disk(w http.ResponseWriter, r *http.Request) {
	c, err := queryCell(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	k, err := queryInt(r, "k", a.cfg.DefaultK)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if k > a.cfg.MaxK {
		badRequest(w, fmt.Sprintf("k=%d exceeds the limit of %d", k, a.cfg.MaxK))
		return
	}
	cells, err := a.deps.Grid.GridDisk(c, k)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"origin": c, "k": k, "cells": cells})
}

func (a *api) boundary(w http.ResponseWriter, r *http.Request) {
	c, err := queryCell(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := a.deps.Grid.Boundary(c)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	f := geojson.NewFeature(proximity.CellPolygon(b))
	f.ID = c
	f.Properties["cell"] = c
	writeJSON(w, http.StatusOK, f)
}

func (a *api) parent(w http.ResponseWriter, r *http.Request) {
	c, err := queryCell(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := queryInt(r, "res", -1)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := a.deps.Grid.ToParent(c, res)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cell": c, "resolution": res, "parent": p})
}

func (a *api) children(w http.ResponseWriter, r *http.Request) {
	c, err := queryCell(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := queryInt(r, "res", -1)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	kids, err := a.deps.Grid.ToChildren(c, res)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cell": c, "resolution": res, "children": kids})
}

func (a *api) bbox(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("bbox"))
	if raw == "" {
		badRequest(w, "missing required parameter: bbox")
		return
	}
	bb, err := parseBBox(raw)
	if err != nil {
		badRequest(w, "invalid bbox: "+err.Error())
		return
	}
	res, err := queryInt(r, "res", a.cfg.DefaultRes)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	cells, err := a.deps.Grid.CellsForBBox(bb, res)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resolution": res, "cells": cells})
}

func (a *api) polyfill(w http.ResponseWriter, r *http.Request) {
	res, err := queryInt(r, "res", a.cfg.DefaultRes)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		badRequest(w, "read body: "+err.Error())
		return
	}
	g, err := parseGeometry(r.Header.Get("Content-Type"), body)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	cells, err := a.deps.Grid.CellsForPolygon(g, res)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resolution": res, "cells": cells})
}

// parseGeometry decodes WKT for text/plain bodies and GeoJSON (a bare
// geometry or a Feature) otherwise.
func parseGeometry(contentType string, body []byte) (orb.Geometry, error) {
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt == "text/plain" {
		g, err := wkt.Unmarshal(strings.TrimSpace(string(body)))
		if err != nil {
			return nil, fmt.Errorf("invalid wkt: %w", err)
		}
		return g, nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	switch head.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(body)
		if err != nil {
			return nil, fmt.Errorf("invalid feature: %w", err)
		}
		if f.Geometry == nil {
			return nil, errors.New("feature has no geometry")
		}
		return f.Geometry, nil
	case "Polygon", "MultiPolygon":
		g, err := geojson.UnmarshalGeometry(body)
		if err != nil {
			return nil, fmt.Errorf("invalid geometry: %w", err)
		}
		return g.Geometry(), nil
	default:
		return nil, fmt.Errorf(`unsupported GeoJSON "type": %q (must be Polygon, MultiPolygon or Feature)`, head.Type)
	}
}
