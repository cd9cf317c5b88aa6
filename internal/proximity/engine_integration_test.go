package proximity

import (
	"context"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/hexproximity/internal/cache/redisstore"
	"github.com/mohammed-shakir/hexproximity/internal/cache/ringcache"
	"github.com/mohammed-shakir/hexproximity/internal/decision/simple"
	"github.com/mohammed-shakir/hexproximity/internal/hotness/expdecay"
	hexmapper "github.com/mohammed-shakir/hexproximity/internal/mapper/hex"
)

func TestEngine_RedisRingCacheOnlyForHotOrigins(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc, err := redisstore.New(ctx, mr.Addr(), "ring")
	if err != nil {
		t.Fatalf("redisstore: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })

	grid := &countingGrid{Grid: hexmapper.New(0)}
	rings := ringcache.New(rc, grid.Name(), time.Minute)
	hot := expdecay.New(time.Hour)
	e := New(grid,
		WithRingCache(rings),
		WithHotness(hot),
		WithDecider(&simple.Engine{Hot: hot, Threshold: 1.5, MaxK: 10}),
		WithLogger(quiet()),
	)
	q := Query{Point: ahmedabad, Resolution: 12, K: 4}

	// first query: cold origin, nothing stored
	want, err := e.FindNearby(ctx, q, drivers())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if n := len(mr.Keys()); n != 0 {
		t.Fatalf("cold origin cached %d keys", n)
	}

	// second query crosses the threshold and stores the rings
	if _, err := e.FindNearby(ctx, q, drivers()); err != nil {
		t.Fatalf("second: %v", err)
	}
	if n := len(mr.Keys()); n != 1 {
		t.Fatalf("hot origin cached %d keys, want 1", n)
	}
	if grid.disks.Load() != 2 {
		t.Fatalf("disks=%d want 2", grid.disks.Load())
	}

	// third query is served from redis
	got, err := e.FindNearby(ctx, q, drivers())
	if err != nil {
		t.Fatalf("third: %v", err)
	}
	if grid.disks.Load() != 2 {
		t.Fatalf("cache hit still expanded the disk")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("cached answer %v differs from %v", ids(got), ids(want))
	}

	// redis going away must not change answers
	mr.Close()
	got, err = e.FindNearby(ctx, q, drivers())
	if err != nil {
		t.Fatalf("after redis loss: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("answer changed after redis loss")
	}
}
