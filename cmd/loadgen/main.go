// Command loadgen drives POST /v1/nearby with Zipf-distributed origins and
// random candidate sets, then writes per-request samples and a summary.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TargetURL       string
	Concurrency     int
	Duration        time.Duration
	QPS             float64
	ZipfS           float64
	ZipfV           float64
	Origins         int
	Entities        int
	Spread          float64
	Res             int
	K               int
	OutputPrefix    string
	RequestTimeout  time.Duration
	AppendTimestamp bool
	TimestampFormat string
}

func loadConfig() Config {
	_ = godotenv.Load()
	def := os.Getenv("LOADGEN_URL")
	if def == "" {
		def = "http://localhost:8090/v1/nearby"
	}

	var cfg Config
	flag.StringVar(&cfg.TargetURL, "url", def, "nearby endpoint URL")
	flag.IntVar(&cfg.Concurrency, "concurrency", 32, "Concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 60*time.Second, "Test duration")
	flag.Float64Var(&cfg.QPS, "qps", 0, "Total request rate (0 = as fast as possible)")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.Origins, "origins", 128, "Distinct query origins in pool")
	flag.IntVar(&cfg.Entities, "n", 200, "Entities per request")
	flag.Float64Var(&cfg.Spread, "spread", 0.02, "Entity scatter around the origin (degrees)")
	flag.IntVar(&cfg.Res, "res", 12, "Grid resolution")
	flag.IntVar(&cfg.K, "k", 4, "Radius in grid steps")
	flag.StringVar(&cfg.OutputPrefix, "out", "results/nearby", "Output file prefix (JSON/CSV)")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.BoolVar(&cfg.AppendTimestamp, "append-ts", true, "Append timestamp to output prefix")
	flag.StringVar(&cfg.TimestampFormat, "ts-format", "iso", "Timestamp format: iso|unix|none")
	flag.Parse()
	return cfg
}

// request result (one sample per request)
type sample struct {
	Timestamp   time.Time
	Latency     time.Duration
	Status      int
	ErrorMsg    string
	OriginIndex int
}

type summary struct {
	StartTime     time.Time      `json:"start"`
	EndTime       time.Time      `json:"end"`
	DurationSec   float64        `json:"duration_sec"`
	TotalRequests int64          `json:"total"`
	SuccessCount  int64          `json:"success"`
	ErrorCount    int64          `json:"errors"`
	StatusCounts  map[string]int `json:"status_counts"`
	ThroughputRPS float64        `json:"throughput_rps"`
	P50Ms         float64        `json:"p50_ms"`
	P95Ms         float64        `json:"p95_ms"`
	P99Ms         float64        `json:"p99_ms"`
	Concurrency   int            `json:"concurrency"`
	QPS           float64        `json:"qps"`
	ZipfS         float64        `json:"zipf_s"`
	ZipfV         float64        `json:"zipf_v"`
	Origins       int            `json:"origins"`
	Entities      int            `json:"entities"`
	Res           int            `json:"res"`
	K             int            `json:"k"`
	TargetURL     string         `json:"target"`
}

type aggregatedResult struct {
	total    int64
	success  int64
	errors   int64
	statuses map[string]int
	latMs    []float64
}

func main() {
	cfg := loadConfig()
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0o750); err != nil {
		log.Fatalf("mkdir results: %v", err)
	}

	prefix := cfg.OutputPrefix
	if cfg.AppendTimestamp {
		switch strings.ToLower(cfg.TimestampFormat) {
		case "none":
		case "unix":
			prefix = fmt.Sprintf("%s_%d", prefix, time.Now().Unix())
		default: // "iso"
			prefix = fmt.Sprintf("%s_%s", prefix, time.Now().UTC().Format("20060102_150405Z"))
		}
	}

	seed := time.Now().UnixNano()
	origins := makeOrigins(cfg.Origins, rand.New(rand.NewSource(seed)))
	if len(origins) == 0 {
		log.Fatalf("no origins generated")
	}
	imax := uint64(len(origins)) - 1

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 4 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:          1024,
			MaxIdleConnsPerHost:   256,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   4 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: cfg.RequestTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	// shared pacing for -qps
	var tick <-chan time.Time
	if cfg.QPS > 0 {
		t := time.NewTicker(time.Duration(float64(time.Second) / cfg.QPS))
		defer t.Stop()
		tick = t.C
	}

	csvPath := prefix + "_samples.csv"
	jsonPath := prefix + "_summary.json"
	csvFile, err := os.Create(filepath.Clean(csvPath))
	if err != nil {
		log.Printf("open csv: %v", err)
		return
	}
	defer func() { _ = csvFile.Close() }()
	csvWriter := csv.NewWriter(csvFile)

	// Collects results asynchronously
	samplesChan := make(chan sample, 4096)
	resultsChan := make(chan aggregatedResult, 1)
	go func() {
		_ = csvWriter.Write([]string{"timestamp", "latency_ms", "status", "error", "origin_idx"})
		agg := aggregatedResult{statuses: map[string]int{}, latMs: make([]float64, 0, 1<<20)}
		for s := range samplesChan {
			agg.total++
			key := fmt.Sprintf("%d", s.Status)
			if s.Status == 0 {
				key = "transport_error"
			}
			agg.statuses[key]++
			if s.ErrorMsg == "" && s.Status >= 200 && s.Status < 300 {
				agg.success++
				agg.latMs = append(agg.latMs, float64(s.Latency.Microseconds())/1000.0)
			} else {
				agg.errors++
			}
			_ = csvWriter.Write([]string{
				s.Timestamp.UTC().Format(time.RFC3339Nano),
				fmt.Sprintf("%.3f", float64(s.Latency.Microseconds())/1000.0),
				fmt.Sprintf("%d", s.Status),
				s.ErrorMsg,
				fmt.Sprintf("%d", s.OriginIndex),
			})
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			log.Printf("csv flush error: %v", err)
		}
		resultsChan <- agg
	}()

	startTime := time.Now()
	log.Printf("loadgen start target=%s dur=%s conc=%d qps=%.1f zipf(s=%.2f,v=%.2f) origins=%d n=%d res=%d k=%d",
		cfg.TargetURL, cfg.Duration, cfg.Concurrency, cfg.QPS, cfg.ZipfS, cfg.ZipfV, len(origins), cfg.Entities, cfg.Res, cfg.K)

	var wg sync.WaitGroup
	wg.Add(cfg.Concurrency)

	for workerID := range cfg.Concurrency {
		go func(id int) {
			defer wg.Done()

			rWorker := rand.New(rand.NewSource(seed + int64(id) + 1))
			zipfDist := rand.NewZipf(rWorker, cfg.ZipfS, cfg.ZipfV, imax)
			for {
				if tick != nil {
					select {
					case <-ctx.Done():
						return
					case <-tick:
					}
				} else {
					select {
					case <-ctx.Done():
						return
					default:
					}
				}

				v := zipfDist.Uint64()
				if v > uint64(math.MaxInt) || int(v) >= len(origins) {
					continue
				}
				idx := int(v)
				body, err := makeBody(origins[idx], cfg.Res, cfg.K, cfg.Entities, cfg.Spread, rWorker)
				if err != nil {
					log.Printf("worker %d: %v", id, err)
					return
				}

				startReq := time.Now()
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TargetURL, bytes.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				resp, err := httpClient.Do(req)
				result := sample{Timestamp: startReq, Latency: time.Since(startReq), OriginIndex: idx}

				if err != nil {
					if ctx.Err() != nil {
						return
					}
					result.ErrorMsg = err.Error()
				} else {
					result.Status = resp.StatusCode
					_, _ = io.Copy(io.Discard, resp.Body)
					_ = resp.Body.Close()
					if resp.StatusCode < 200 || resp.StatusCode >= 300 {
						result.ErrorMsg = fmt.Sprintf("status=%d", resp.StatusCode)
					}
				}

				select {
				case samplesChan <- result:
				case <-ctx.Done():
					return
				}
			}
		}(workerID)
	}

	// close samples channel
	go func() {
		<-ctx.Done()
		wg.Wait()
		close(samplesChan)
	}()

	aggResult := <-resultsChan
	endTime := time.Now()
	elapsed := endTime.Sub(startTime).Seconds()

	sort.Float64s(aggResult.latMs)
	p50 := percentile(aggResult.latMs, 50)
	p95 := percentile(aggResult.latMs, 95)
	p99 := percentile(aggResult.latMs, 99)

	runSummary := summary{
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		DurationSec:   elapsed,
		TotalRequests: aggResult.total,
		SuccessCount:  aggResult.success,
		ErrorCount:    aggResult.errors,
		StatusCounts:  aggResult.statuses,
		ThroughputRPS: float64(aggResult.total) / elapsed,
		P50Ms:         p50,
		P95Ms:         p95,
		P99Ms:         p99,
		Concurrency:   cfg.Concurrency,
		QPS:           cfg.QPS,
		ZipfS:         cfg.ZipfS,
		ZipfV:         cfg.ZipfV,
		Origins:       len(origins),
		Entities:      cfg.Entities,
		Res:           cfg.Res,
		K:             cfg.K,
		TargetURL:     cfg.TargetURL,
	}

	jsonFile, err := os.Create(filepath.Clean(jsonPath))
	if err == nil {
		enc := json.NewEncoder(jsonFile)
		enc.SetIndent("", "  ")
		_ = enc.Encode(runSummary)
		_ = jsonFile.Close()
	}

	log.Printf("done: total=%d succ=%d err=%d statuses=%v thr=%.2f rps p50=%.1fms p95=%.1fms p99=%.1fms",
		aggResult.total, aggResult.success, aggResult.errors, aggResult.statuses, runSummary.ThroughputRPS, p50, p95, p99)
	log.Printf("wrote %s and %s", jsonPath, csvPath)
}
