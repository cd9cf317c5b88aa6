// Package ringcache stores computed ring sets in Redis so that replicas share
// the work of expanding popular origins.
package ringcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohammed-shakir/hexproximity/internal/cache/keys"
)

// Backend is the subset of redisstore.Client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DelMatching(ctx context.Context, pattern string) (int, error)
}

type Option func(*Store)

// WithTTLFunc picks the TTL per origin cell, e.g. by resolution.
func WithTTLFunc(f func(origin string) time.Duration) Option {
	return func(s *Store) { s.ttlFor = f }
}

func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) { s.opTimeout = d }
}

func WithPrefix(p string) Option {
	return func(s *Store) { s.prefix = p }
}

type Store struct {
	be        Backend
	grid      string
	prefix    string
	ttl       time.Duration
	ttlFor    func(string) time.Duration
	opTimeout time.Duration
}

func New(be Backend, grid string, ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		be:        be,
		grid:      grid,
		prefix:    "ring",
		ttl:       ttl,
		opTimeout: 250 * time.Millisecond,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the cached rings around origin; ok is false on a miss.
func (s *Store) Get(ctx context.Context, origin string, k int) (rings [][]string, ok bool, err error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	key := keys.RingKey(s.prefix, s.grid, origin, k)
	raw, ok, err := s.be.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := json.Unmarshal(raw, &rings); err != nil {
		return nil, false, fmt.Errorf("decode ring set %q: %w", key, err)
	}
	// fewer than k+1 rings is legal once the disk covers the whole sphere
	if len(rings) == 0 || len(rings) > k+1 {
		return nil, false, fmt.Errorf("decode ring set %q: %d rings for k=%d", key, len(rings), k)
	}
	// ring 0 is the origin itself
	if len(rings[0]) != 1 || rings[0][0] != origin {
		return nil, false, fmt.Errorf("decode ring set %q: origin mismatch", key)
	}
	return rings, true, nil
}

func (s *Store) Set(ctx context.Context, origin string, k int, rings [][]string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	body, err := json.Marshal(rings)
	if err != nil {
		return fmt.Errorf("encode ring set: %w", err)
	}
	ttl := s.ttl
	if s.ttlFor != nil {
		ttl = s.ttlFor(origin)
	}
	return s.be.Set(ctx, keys.RingKey(s.prefix, s.grid, origin, k), body, ttl)
}

// Purge removes every ring set of this grid and returns the number removed.
func (s *Store) Purge(ctx context.Context) (int, error) {
	return s.be.DelMatching(ctx, keys.RingPattern(s.prefix, s.grid))
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}
