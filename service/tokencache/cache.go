// Package tokencache memoizes token metadata by mint with a fixed time-to-live.
package tokencache

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/brojonat/burnwatch/service/metrics"
	"github.com/brojonat/burnwatch/service/solana"
)

// DefaultTTL is how long a fetched entry stays visible.
const DefaultTTL = time.Hour

// Fetcher loads metadata for a mint from an external provider.
type Fetcher interface {
	FetchTokenInfo(ctx context.Context, mint string) (solana.TokenInfo, error)
}

type entry struct {
	info      solana.TokenInfo
	expiresAt time.Time
}

// Cache is safe for concurrent use. Two concurrent misses for the same mint
// may both fetch; the later Put wins and both callers get equivalent values.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now. Tests use it to move past expiry deadlines.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics records hits, misses and the cache size.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a cache in front of fetcher. A non-positive ttl uses DefaultTTL.
func New(fetcher Fetcher, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]entry),
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns metadata for mint. A live entry is returned without calling the
// fetcher. On a miss the fetcher is called; a successful result is stored for
// the TTL, a failure yields the placeholder and leaves the cache untouched.
func (c *Cache) Get(ctx context.Context, mint string) solana.TokenInfo {
	if info, ok := c.Lookup(mint); ok {
		c.metrics.RecordMetadataLookup("hit")
		return info
	}

	info, err := c.fetcher.FetchTokenInfo(ctx, mint)
	if err != nil {
		c.metrics.RecordMetadataLookup("error")
		c.logger.WarnContext(ctx, "token metadata lookup failed, using placeholder",
			"mint", mint,
			"error", err,
		)
		return solana.PlaceholderTokenInfo(mint)
	}

	info.Mint = mint
	c.Put(info)
	c.metrics.RecordMetadataLookup("miss")
	return info
}

// Lookup returns the cached entry for mint if it has not expired.
func (c *Cache) Lookup(mint string) (solana.TokenInfo, bool) {
	c.mu.RLock()
	e, ok := c.entries[mint]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return solana.TokenInfo{}, false
	}
	return e.info, true
}

// Put stores info under its mint, replacing any previous entry and
// restarting its TTL.
func (c *Cache) Put(info solana.TokenInfo) {
	c.mu.Lock()
	c.entries[info.Mint] = entry{info: info, expiresAt: c.now().Add(c.ttl)}
	n := len(c.entries)
	c.mu.Unlock()

	c.metrics.SetTokenCacheSize(n)
}

// Evict removes the entry for mint.
func (c *Cache) Evict(mint string) {
	c.mu.Lock()
	delete(c.entries, mint)
	n := len(c.entries)
	c.mu.Unlock()

	c.metrics.SetTokenCacheSize(n)
}

// Len returns the number of entries that have not expired.
func (c *Cache) Len() int {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// Sweep deletes expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for mint, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, mint)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	c.metrics.SetTokenCacheSize(n)
	return removed
}

// MinSweepInterval is the shortest janitor period SweepInterval returns.
const MinSweepInterval = time.Second

// SweepInterval is the janitor period for ttl: a quarter of it, but never
// less than MinSweepInterval.
func SweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, MinSweepInterval)
}

// Run sweeps expired entries every interval until ctx is cancelled.
// A non-positive interval uses SweepInterval of the cache TTL.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = SweepInterval(c.ttl)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				c.logger.Debug("swept expired token metadata", "removed", removed)
			}
		}
	}
}
