// Package proximity answers "which entities lie within k grid steps of a
// point" on a hierarchical hexagonal grid.
//
// A query projects its point to an origin cell, expands the disk of radius k
// around it and keeps every entity whose own cell at the same resolution is
// in that disk. Results keep the input order of the candidates.
package proximity

import (
	"context"
	"fmt"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
	hexmapper "github.com/mohammed-shakir/hexproximity/internal/mapper/hex"
)

// Entity is a caller-owned candidate, such as a driver.
type Entity struct {
	ID       string         `json:"id"`
	Position hexgrid.LatLng `json:"position"`
}

type Query struct {
	Point      hexgrid.LatLng `json:"point"`
	Resolution int            `json:"resolution"`
	K          int            `json:"k"`
}

// EntityError attributes a failure to one candidate. It unwraps to the
// underlying hexgrid error.
type EntityError struct {
	ID    string
	Index int
	Err   error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("entity %q at index %d: %v", e.ID, e.Index, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

// Classified is one candidate with its cell and ring distance. Distance is -1
// when the entity is outside the disk.
type Classified struct {
	Entity
	Cell     string `json:"cell"`
	Distance int    `json:"distance"`
	Nearby   bool   `json:"nearby"`
}

type Result struct {
	Origin   string       `json:"origin"`
	Rings    [][]string   `json:"rings"`
	Entities []Classified `json:"entities"`
}

// Nearby returns the entities inside the disk, in input order.
func (r *Result) Nearby() []Entity {
	out := make([]Entity, 0, len(r.Entities))
	for _, c := range r.Entities {
		if c.Nearby {
			out = append(out, c.Entity)
		}
	}
	return out
}

// Cells flattens the ring set, origin first.
func (r *Result) Cells() []string {
	n := 0
	for _, ring := range r.Rings {
		n += len(ring)
	}
	out := make([]string, 0, n)
	for _, ring := range r.Rings {
		out = append(out, ring...)
	}
	return out
}

// FindNearby runs q over entities on the native grid, with no caching,
// events or hotness tracking.
func FindNearby(q Query, entities []Entity) ([]Entity, error) {
	return New(hexmapper.New(0)).FindNearby(context.Background(), q, entities)
}
