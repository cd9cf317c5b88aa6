package proximity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/hexproximity/internal/core/observability"
	"github.com/mohammed-shakir/hexproximity/internal/decision"
	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
	"github.com/mohammed-shakir/hexproximity/internal/hotness"
	"github.com/mohammed-shakir/hexproximity/internal/logger"
	"github.com/mohammed-shakir/hexproximity/internal/queryevents"
)

// Grid is the part of a grid mapper the engine needs.
type Grid interface {
	Name() string
	PointToCell(p hexgrid.LatLng, res int) (string, error)
	GridDiskDistances(cell string, k int) ([][]string, error)
	Boundary(cell string) ([]hexgrid.LatLng, error)
}

// RingCache shares ring sets between queries and replicas.
type RingCache interface {
	Get(ctx context.Context, origin string, k int) ([][]string, bool, error)
	Set(ctx context.Context, origin string, k int, rings [][]string) error
}

type BoundarySource interface {
	Boundary(cell string) ([]hexgrid.LatLng, error)
}

type EventPublisher interface {
	Publish(ev queryevents.Event)
}

type Option func(*Engine)

func WithRingCache(c RingCache) Option { return func(e *Engine) { e.ringCache = c } }

func WithBoundaries(b BoundarySource) Option { return func(e *Engine) { e.boundaries = b } }

func WithHotness(h hotness.Interface) Option { return func(e *Engine) { e.hot = h } }

// WithDecider limits which ring sets are written to the ring cache.
func WithDecider(d decision.Interface) Option { return func(e *Engine) { e.decider = d } }

func WithEvents(p EventPublisher) Option { return func(e *Engine) { e.events = p } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithParallelism projects candidate sets of at least threshold entities on
// up to workers goroutines. A threshold <= 0 disables it.
func WithParallelism(threshold, workers int) Option {
	return func(e *Engine) {
		e.parallelThreshold = threshold
		if workers > 0 {
			e.workers = workers
		}
	}
}

// Engine is safe for concurrent use. Its optional collaborators never change
// a query's result.
type Engine struct {
	grid       Grid
	boundaries BoundarySource
	ringCache  RingCache
	hot        hotness.Interface
	decider    decision.Interface
	events     EventPublisher
	log        *slog.Logger

	parallelThreshold int
	workers           int
}

func New(grid Grid, opts ...Option) *Engine {
	e := &Engine{
		grid:              grid,
		boundaries:        grid,
		parallelThreshold: 2048,
		workers:           runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

func (e *Engine) Grid() Grid { return e.grid }

// FindNearby returns the entities within q.K grid steps of q.Point, in input
// order. An invalid candidate fails the whole query with an *EntityError for
// the first offending entity.
func (e *Engine) FindNearby(ctx context.Context, q Query, entities []Entity) ([]Entity, error) {
	res, err := e.Classify(ctx, q, entities)
	if err != nil {
		return nil, err
	}
	return res.Nearby(), nil
}

// Classify is FindNearby keeping every candidate with its cell and distance.
func (e *Engine) Classify(ctx context.Context, q Query, entities []Entity) (*Result, error) {
	start := time.Now()
	res, err := e.classify(ctx, q, entities)
	observability.ObserveQuery(outcome(err), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	matched := 0
	for _, c := range res.Entities {
		if c.Nearby {
			matched++
		}
	}
	ringCells := 0
	for _, r := range res.Rings {
		ringCells += len(r)
	}
	observability.ObserveQuerySizes(ringCells, len(entities), matched)

	if e.events != nil {
		e.events.Publish(queryevents.Event{
			RequestID:  logger.RequestID(ctx),
			Backend:    e.grid.Name(),
			Origin:     res.Origin,
			Resolution: q.Resolution,
			K:          q.K,
			RingCells:  ringCells,
			Candidates: len(entities),
			Matched:    matched,
		})
	}
	e.log.DebugContext(logger.WithOrigin(ctx, res.Origin), "proximity query",
		"res", q.Resolution, "k", q.K, "candidates", len(entities),
		"matched", matched, "ring_cells", ringCells)
	return res, nil
}

func (e *Engine) classify(ctx context.Context, q Query, entities []Entity) (*Result, error) {
	if q.K < 0 {
		return nil, fmt.Errorf("%w: k=%d", hexgrid.ErrInvalidRadius, q.K)
	}
	origin, err := e.grid.PointToCell(q.Point, q.Resolution)
	if err != nil {
		return nil, fmt.Errorf("query point: %w", err)
	}
	rings, err := e.rings(ctx, origin, q.K)
	if err != nil {
		return nil, err
	}
	cells, err := e.project(ctx, entities, q.Resolution)
	if err != nil {
		return nil, err
	}

	dist := make(map[string]int)
	for d, ring := range rings {
		for _, c := range ring {
			dist[c] = d
		}
	}
	out := make([]Classified, len(entities))
	for i, ent := range entities {
		d, ok := dist[cells[i]]
		if !ok {
			d = -1
		}
		out[i] = Classified{Entity: ent, Cell: cells[i], Distance: d, Nearby: ok}
	}
	return &Result{Origin: origin, Rings: rings, Entities: out}, nil
}

func (e *Engine) rings(ctx context.Context, origin string, k int) ([][]string, error) {
	if e.hot != nil {
		e.hot.Inc(origin)
	}
	if e.ringCache != nil {
		cached, ok, err := e.ringCache.Get(ctx, origin, k)
		if err != nil {
			e.log.WarnContext(ctx, "ring cache get failed, expanding", "origin", origin, "k", k, "err", err)
			observability.IncCacheError("ring")
		} else if ok {
			return cached, nil
		}
	}

	rings, err := e.grid.GridDiskDistances(origin, k)
	if err != nil {
		return nil, fmt.Errorf("expand rings: %w", err)
	}

	if e.ringCache != nil && (e.decider == nil || e.decider.ShouldCache(origin, k)) {
		if err := e.ringCache.Set(ctx, origin, k, rings); err != nil {
			e.log.WarnContext(ctx, "ring cache set failed", "origin", origin, "k", k, "err", err)
			observability.IncCacheError("ring")
		}
	}
	return rings, nil
}

// project maps every entity to its cell at res. The reported error is always
// the one of the lowest-index invalid entity, also on the parallel path.
func (e *Engine) project(ctx context.Context, entities []Entity, res int) ([]string, error) {
	cells := make([]string, len(entities))
	if e.parallelThreshold <= 0 || len(entities) < e.parallelThreshold || e.workers <= 1 {
		if err := e.projectRange(ctx, entities, res, cells, 0, len(entities)); err != nil {
			return nil, err
		}
		return cells, nil
	}

	chunk := (len(entities) + e.workers - 1) / e.workers
	errs := make([]error, (len(entities)+chunk-1)/chunk)
	var g errgroup.Group
	g.SetLimit(e.workers)
	for ci := range errs {
		lo := ci * chunk
		hi := min(lo+chunk, len(entities))
		g.Go(func() error {
			// entity errors stay per chunk so that no chunk is cut short
			errs[ci] = e.projectRange(ctx, entities, res, cells, lo, hi)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return cells, nil
}

func (e *Engine) projectRange(ctx context.Context, entities []Entity, res int, cells []string, lo, hi int) error {
	for i := lo; i < hi; i++ {
		if (i-lo)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		c, err := e.grid.PointToCell(entities[i].Position, res)
		if err != nil {
			return &EntityError{ID: entities[i].ID, Index: i, Err: err}
		}
		cells[i] = c
	}
	return nil
}

// DiskBoundaries returns the polygon of every cell, in order.
func (e *Engine) DiskBoundaries(ctx context.Context, cells []string) ([][]hexgrid.LatLng, error) {
	out := make([][]hexgrid.LatLng, len(cells))
	for i, c := range cells {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b, err := e.boundaries.Boundary(c)
		if err != nil {
			return nil, fmt.Errorf("boundary of %s: %w", c, err)
		}
		out[i] = b
	}
	return out, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case ctxErr(err):
		return "canceled"
	default:
		return hexgrid.Kind(err)
	}
}

func ctxErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
