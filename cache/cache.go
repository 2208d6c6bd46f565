// Package cache provides a Redis read-through cache in front of a reference
// clause source.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"clauseguard-backend/logging"
	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
)

const (
	DefaultPrefix = "clauseguard:"
	DefaultTTL    = 10 * time.Minute
	referencesKey = "references:v1"
)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// LookupObserver is notified of every cache lookup.
type LookupObserver interface {
	ObserveCacheLookup(hit bool)
}

// ReferenceCache decorates a pipeline.ReferenceSource with a Redis copy of
// the reference set. Redis failures degrade to reading the source directly.
type ReferenceCache struct {
	client   redis.Cmdable
	source   pipeline.ReferenceSource
	logger   logging.Logger
	observer LookupObserver
	prefix   string
	ttl      time.Duration
	group    singleflight.Group
}

// Option is a functional option for ReferenceCache
type Option func(*ReferenceCache)

// WithPrefix sets the key prefix
func WithPrefix(prefix string) Option {
	return func(c *ReferenceCache) { c.prefix = prefix }
}

// WithTTL sets the expiry of the cached set
func WithTTL(ttl time.Duration) Option {
	return func(c *ReferenceCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(c *ReferenceCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLookupObserver records hits and misses
func WithLookupObserver(o LookupObserver) Option {
	return func(c *ReferenceCache) { c.observer = o }
}

// NewReferenceCache creates a read-through cache over source
func NewReferenceCache(client redis.Cmdable, source pipeline.ReferenceSource, opts ...Option) *ReferenceCache {
	c := &ReferenceCache{
		client: client,
		source: source,
		logger: logging.NewNopLogger(),
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ pipeline.ReferenceSource = (*ReferenceCache)(nil)

func (c *ReferenceCache) key() string {
	return c.prefix + referencesKey
}

// References returns the cached set, loading it from the source on a miss.
// Concurrent misses share one load, which outlives any single caller's
// cancellation; each caller still returns as soon as its own ctx is done.
func (c *ReferenceCache) References(ctx context.Context) ([]models.ReferenceClause, error) {
	if refs, ok := c.lookup(ctx); ok {
		return refs, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(c.key(), func() (interface{}, error) {
		refs, err := c.source.References(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(loadCtx, refs)
		return refs, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, fmt.Errorf("failed to load reference clauses: %w", res.Err)
	}
	shared := res.Val.([]models.ReferenceClause)
	out := make([]models.ReferenceClause, len(shared))
	copy(out, shared)
	return out, nil
}

// Invalidate removes the cached set so the next read reloads it.
func (c *ReferenceCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate reference cache: %w", err)
	}
	return nil
}

func (c *ReferenceCache) lookup(ctx context.Context) ([]models.ReferenceClause, bool) {
	data, err := c.client.Get(ctx, c.key()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("reference cache unavailable", logging.Err(err))
		}
		c.observe(false)
		return nil, false
	}
	var refs []models.ReferenceClause
	if err := json.Unmarshal(data, &refs); err != nil {
		c.logger.Warn("discarding corrupt reference cache entry", logging.Err(err))
		c.observe(false)
		return nil, false
	}
	c.observe(true)
	return refs, true
}

func (c *ReferenceCache) store(ctx context.Context, refs []models.ReferenceClause) {
	data, err := json.Marshal(refs)
	if err != nil {
		c.logger.Warn("failed to encode reference clauses", logging.Err(err))
		return
	}
	if err := c.client.Set(ctx, c.key(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to populate reference cache", logging.Err(err))
	}
}

func (c *ReferenceCache) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCacheLookup(hit)
	}
}
