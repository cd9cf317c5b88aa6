package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type RingCacheCfg struct {
	Enabled      bool
	RedisAddr    string
	TTL          time.Duration
	TTLOverrides map[int]time.Duration // by resolution
	OpTimeout    time.Duration
	Prefix       string
}

type QueryEventsCfg struct {
	Enabled bool
	Brokers []string
	Topic   string
	Queue   int
}

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool
	LogSampleN int

	GridBackend  string
	DefaultRes   int
	DefaultK     int
	MaxK         int
	MaxEntities  int
	MaxBBoxCells int

	BoundaryCacheSize int
	ParallelThreshold int
	ParallelWorkers   int

	HotThreshold float64
	HotHalfLife  time.Duration

	RingCache   RingCacheCfg
	QueryEvents QueryEventsCfg

	MetricsEnabled bool
	MetricsAddr    string
	MetricsPath    string
}

func FromEnv() Config {
	res := getint("DEFAULT_RES", 12)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}
	maxK := getint("MAX_K", 50)
	if maxK < 0 {
		maxK = 0
	}
	k := getint("DEFAULT_K", 4)
	if k < 0 {
		k = 0
	}
	if k > maxK {
		k = maxK
	}

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),

		GridBackend:  strings.ToLower(getenv("GRID_BACKEND", "hex")),
		DefaultRes:   res,
		DefaultK:     k,
		MaxK:         maxK,
		MaxEntities:  getint("MAX_ENTITIES", 10000),
		MaxBBoxCells: getint("MAX_BBOX_CELLS", 250000),

		BoundaryCacheSize: getint("BOUNDARY_CACHE_SIZE", 4096),
		ParallelThreshold: getint("PARALLEL_THRESHOLD", 2048),
		ParallelWorkers:   getint("PARALLEL_WORKERS", 0),

		HotThreshold: getfloat("HOT_THRESHOLD", 3.0),
		HotHalfLife:  getduration("HOT_HALF_LIFE", time.Minute),

		RingCache: RingCacheCfg{
			Enabled:      getbool("RING_CACHE_ENABLED", false),
			RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
			TTL:          getduration("RING_CACHE_TTL", 10*time.Minute),
			TTLOverrides: parseDurationMap(getenv("RING_CACHE_TTL_OVERRIDES", "")),
			OpTimeout:    getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			Prefix:       getenv("RING_CACHE_PREFIX", "ring"),
		},
		QueryEvents: QueryEventsCfg{
			Enabled: getbool("QUERY_EVENTS_ENABLED", false),
			Brokers: splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getenv("QUERY_EVENTS_TOPIC", "proximity-queries"),
			Queue:   getint("QUERY_EVENTS_QUEUE", 1024),
		},

		MetricsEnabled: getbool("METRICS_ENABLED", true),
		MetricsAddr:    getenv("METRICS_ADDR", ""),
		MetricsPath:    getenv("METRICS_PATH", "/metrics"),
	}
}

// RingTTL returns the ring cache TTL for a resolution.
func (c RingCacheCfg) RingTTL(res int) time.Duration {
	if d, ok := c.TTLOverrides[res]; ok {
		return d
	}
	return c.TTL
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parse "12=5m,8=1h" into a map keyed by resolution
func parseDurationMap(s string) map[int]time.Duration {
	out := map[int]time.Duration{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		res, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil || res < 0 || res > 15 {
			continue
		}
		if d, err := time.ParseDuration(strings.TrimSpace(kv[1])); err == nil {
			out[res] = d
		}
	}
	return out
}
