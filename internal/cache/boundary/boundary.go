// Package boundary memoizes cell polygons in process.
package boundary

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/hexproximity/internal/core/observability"
	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
)

const tier = "boundary"

// Source computes a boundary on a miss.
type Source interface {
	Boundary(cell string) ([]hexgrid.LatLng, error)
}

// Cache is a read-through LRU in front of a Source. It is safe for
// concurrent use. Returned slices are shared and must not be modified.
type Cache struct {
	src Source
	lru *lru.Cache[string, []hexgrid.LatLng]
}

func New(src Source, size int) (*Cache, error) {
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[string, []hexgrid.LatLng](size)
	if err != nil {
		return nil, fmt.Errorf("boundary lru: %w", err)
	}
	return &Cache{src: src, lru: c}, nil
}

func (c *Cache) Boundary(cell string) ([]hexgrid.LatLng, error) {
	if b, ok := c.lru.Get(cell); ok {
		observability.IncCacheHit(tier)
		return b, nil
	}
	observability.IncCacheMiss(tier)
	b, err := c.src.Boundary(cell)
	if err != nil {
		return nil, err
	}
	c.lru.Add(cell, b)
	return b, nil
}

func (c *Cache) Len() int { return c.lru.Len() }
