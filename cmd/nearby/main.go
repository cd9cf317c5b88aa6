// Command nearby runs one proximity query against a JSON file of entities
// and prints the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/hexproximity/internal/core/config"
	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
	"github.com/mohammed-shakir/hexproximity/internal/logger"
	"github.com/mohammed-shakir/hexproximity/internal/mapper"
	"github.com/mohammed-shakir/hexproximity/internal/proximity"
)

type entityJSON struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type output struct {
	Origin   string                     `json:"origin"`
	Nearby   []entityJSON               `json:"nearby"`
	Entities []proximity.Classified     `json:"entities,omitempty"`
	Rings    [][]string                 `json:"rings,omitempty"`
	GeoJSON  *geojson.FeatureCollection `json:"geojson,omitempty"`
}

type options struct {
	lat, lng  float64
	res, k    int
	entities  string
	backend   string
	classify  bool
	geojson   bool
	geojsonFC bool
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	var o options
	flag.Float64Var(&o.lat, "lat", 0, "query latitude")
	flag.Float64Var(&o.lng, "lng", 0, "query longitude")
	flag.IntVar(&o.res, "res", cfg.DefaultRes, "grid resolution")
	flag.IntVar(&o.k, "k", cfg.DefaultK, "radius in grid steps")
	flag.StringVar(&o.entities, "entities", "-", "JSON array of {id,lat,lng}; - reads stdin")
	flag.StringVar(&o.backend, "backend", cfg.GridBackend, "grid backend: hex|h3")
	flag.BoolVar(&o.classify, "classify", false, "include every candidate with its cell and distance")
	flag.BoolVar(&o.geojson, "geojson", false, "include a FeatureCollection of the disk and the candidates")
	flag.BoolVar(&o.geojsonFC, "geojson-only", false, "print only the FeatureCollection")
	flag.Parse()

	zl := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Component: "nearby"}, os.Stderr)
	log := logger.NewSlog(&zl)

	if err := run(context.Background(), o, os.Stdin, os.Stdout); err != nil {
		var ee *proximity.EntityError
		if errors.As(err, &ee) {
			log.Error("query failed", "entity_id", ee.ID, "index", ee.Index, "kind", hexgrid.Kind(err), "err", err)
		} else {
			log.Error("query failed", "kind", hexgrid.Kind(err), "err", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, stdin io.Reader, stdout io.Writer) error {
	ents, err := readEntities(o.entities, stdin)
	if err != nil {
		return err
	}
	grid, err := mapper.New(o.backend, 0)
	if err != nil {
		return err
	}
	eng := proximity.New(grid)

	res, err := eng.Classify(ctx, proximity.Query{
		Point:      hexgrid.LatLng{Lat: o.lat, Lng: o.lng},
		Resolution: o.res,
		K:          o.k,
	}, ents)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if o.geojson || o.geojsonFC {
		fc, err := eng.FeatureCollection(ctx, res)
		if err != nil {
			return err
		}
		if o.geojsonFC {
			return enc.Encode(fc)
		}
		return enc.Encode(build(o, res, fc))
	}
	return enc.Encode(build(o, res, nil))
}

func build(o options, res *proximity.Result, fc *geojson.FeatureCollection) output {
	out := output{Origin: res.Origin, Nearby: []entityJSON{}, GeoJSON: fc}
	for _, e := range res.Nearby() {
		out.Nearby = append(out.Nearby, entityJSON{ID: e.ID, Lat: e.Position.Lat, Lng: e.Position.Lng})
	}
	if o.classify {
		out.Entities = res.Entities
		out.Rings = res.Rings
	}
	return out
}

func readEntities(path string, stdin io.Reader) ([]proximity.Entity, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open entities: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	var raw []entityJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	out := make([]proximity.Entity, len(raw))
	for i, e := range raw {
		out[i] = proximity.Entity{ID: e.ID, Position: hexgrid.LatLng{Lat: e.Lat, Lng: e.Lng}}
	}
	return out, nil
}
