package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/hexproximity/internal/cache/boundary"
	"github.com/mohammed-shakir/hexproximity/internal/cache/redisstore"
	"github.com/mohammed-shakir/hexproximity/internal/cache/ringcache"
	"github.com/mohammed-shakir/hexproximity/internal/core/config"
	"github.com/mohammed-shakir/hexproximity/internal/core/health"
	"github.com/mohammed-shakir/hexproximity/internal/core/observability"
	"github.com/mohammed-shakir/hexproximity/internal/core/router"
	"github.com/mohammed-shakir/hexproximity/internal/core/server"
	"github.com/mohammed-shakir/hexproximity/internal/decision/simple"
	"github.com/mohammed-shakir/hexproximity/internal/hotness/expdecay"
	"github.com/mohammed-shakir/hexproximity/internal/hotness/metricswrap"
	"github.com/mohammed-shakir/hexproximity/internal/logger"
	"github.com/mohammed-shakir/hexproximity/internal/mapper"
	"github.com/mohammed-shakir/hexproximity/internal/metrics"
	"github.com/mohammed-shakir/hexproximity/internal/proximity"
	"github.com/mohammed-shakir/hexproximity/internal/queryevents"
)

var Version = "dev"

// hotness scores below this are forgotten by the periodic prune
const pruneBelow = 0.05

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Backend:   cfg.GridBackend,
		Component: "proximityd",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	p := metrics.Init(metrics.Config{
		Enabled: cfg.MetricsEnabled,
		Addr:    cfg.MetricsAddr,
		Path:    cfg.MetricsPath,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	observability.Init(p.Registerer(), cfg.MetricsEnabled)
	observability.SetBackend(cfg.GridBackend)

	grid, err := mapper.New(cfg.GridBackend, cfg.MaxBBoxCells)
	if err != nil {
		appLog.Error("grid setup failed", "err", err)
		return 1
	}
	bounds, err := boundary.New(grid, cfg.BoundaryCacheSize)
	if err != nil {
		appLog.Error("boundary cache setup failed", "err", err)
		return 1
	}

	tracker := expdecay.New(cfg.HotHalfLife)
	hot := metricswrap.New(tracker, "origin",
		metricswrap.WithThreshold(cfg.HotThreshold, 0.01),
		metricswrap.WithLogger(appLog))

	opts := []proximity.Option{
		proximity.WithBoundaries(bounds),
		proximity.WithHotness(hot),
		proximity.WithParallelism(cfg.ParallelThreshold, cfg.ParallelWorkers),
		proximity.WithLogger(appLog),
	}
	srvOpts := server.Options{Metrics: p, Ready: map[string]health.Pinger{}}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rings *ringcache.Store
	if cfg.RingCache.Enabled {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := redisstore.New(dialCtx, cfg.RingCache.RedisAddr, "ring")
		cancel()
		if err != nil {
			appLog.Error("redis setup failed", "addr", cfg.RingCache.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()

		rings = ringcache.New(rc, grid.Name(), cfg.RingCache.TTL,
			ringcache.WithPrefix(cfg.RingCache.Prefix),
			ringcache.WithOpTimeout(cfg.RingCache.OpTimeout),
			ringcache.WithTTLFunc(func(origin string) time.Duration {
				res, err := grid.Resolution(origin)
				if err != nil {
					return cfg.RingCache.TTL
				}
				return cfg.RingCache.RingTTL(res)
			}))
		opts = append(opts,
			proximity.WithRingCache(rings),
			proximity.WithDecider(&simple.Engine{Hot: hot, Threshold: cfg.HotThreshold, MaxK: cfg.MaxK}))
		srvOpts.Ready["redis"] = rc
	}

	if cfg.QueryEvents.Enabled {
		pub, err := queryevents.NewPublisher(cfg.QueryEvents.Brokers, cfg.QueryEvents.Topic, cfg.QueryEvents.Queue, appLog)
		if err != nil {
			appLog.Error("query events setup failed", "brokers", cfg.QueryEvents.Brokers, "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("query events close", "err", err)
			}
			appLog.Info("query events stopped", "dropped", pub.Dropped())
		}()
		opts = append(opts, proximity.WithEvents(pub))
	}

	srvOpts.Deps = router.Deps{
		Grid:   grid,
		Engine: proximity.New(grid, opts...),
		Hot:    hot,
	}
	if rings != nil {
		srvOpts.Deps.Rings = rings
	}

	appLog.Info("starting proximityd",
		"addr", cfg.Addr,
		"version", Version,
		"backend", grid.Name(),
		"default_res", cfg.DefaultRes,
		"default_k", cfg.DefaultK,
		"ring_cache", cfg.RingCache.Enabled,
		"query_events", cfg.QueryEvents.Enabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Serve(gctx, appLog) })
	g.Go(func() error {
		t := time.NewTicker(max(cfg.HotHalfLife, time.Second))
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := tracker.Prune(pruneBelow); n > 0 {
					appLog.Debug("pruned cold origins", "count", n)
				}
			}
		}
	})
	g.Go(func() error { return server.Run(gctx, cfg, appLog, srvOpts) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
