package shipping

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	distanceCacheTTL = 24 * time.Hour

	// defaultCallTimeout bounds a shared upstream call once it is detached from its callers.
	defaultCallTimeout = 10 * time.Second
)

// CachedLookup puts a Redis cache, request coalescing, a rate limit and a circuit breaker in front
// of a slower DistanceLookup. The client may be nil, which disables caching.
type CachedLookup struct {
	next    DistanceLookup
	client  *redis.Client
	baseTTL time.Duration
	sfg     singleflight.Group // Prevents duplicate lookups of the same address
	cb      *gobreaker.CircuitBreaker[float64]
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

type CachedOption func(*CachedLookup)

// WithRateLimit caps upstream calls. OpenRouteService's free plan allows 40 matrix requests a minute.
func WithRateLimit(r rate.Limit, burst int) CachedOption {
	return func(c *CachedLookup) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithCallTimeout bounds each upstream call independently of the callers waiting on it.
func WithCallTimeout(d time.Duration) CachedOption {
	return func(c *CachedLookup) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithBreakerSettings(st gobreaker.Settings) CachedOption {
	return func(c *CachedLookup) { c.cb = gobreaker.NewCircuitBreaker[float64](st) }
}

func NewCachedLookup(next DistanceLookup, client *redis.Client, logger *zap.Logger, opts ...CachedOption) *CachedLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CachedLookup{
		next:    next,
		client:  client,
		baseTTL: distanceCacheTTL,
		limiter: rate.NewLimiter(rate.Every(1500*time.Millisecond), 5),
		timeout: defaultCallTimeout,
		logger:  logger,
	}
	c.cb = gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "distance-lookup",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// a caller that gave up says nothing about provider health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Distance returns the cached distance or asks the wrapped lookup. Identical in-flight addresses
// share one upstream call; a caller whose ctx ends stops waiting without cancelling that call.
func (c *CachedLookup) Distance(ctx context.Context, address string) (float64, error) {
	key := distanceKey(address)

	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.lookup(callCtx, key, address)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c *CachedLookup) lookup(ctx context.Context, key, address string) (float64, error) {
	if km, err := c.getCached(ctx, key); err == nil {
		return km, nil
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("distance cache get error", zap.Error(err))
	}

	km, err := c.cb.Execute(func() (float64, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit wait: %w", err)
		}
		return c.next.Distance(ctx, address)
	})
	if err != nil {
		return 0, err
	}

	if errSet := c.setCached(ctx, key, km); errSet != nil {
		c.logger.Warn("distance cache set error", zap.Error(errSet))
	}
	return km, nil
}

func (c *CachedLookup) getCached(ctx context.Context, key string) (float64, error) {
	if c.client == nil {
		return 0, redis.Nil
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	km, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cached distance: %w", err)
	}
	return km, nil
}

func (c *CachedLookup) setCached(ctx context.Context, key string, km float64) error {
	if c.client == nil {
		return nil
	}
	jitter := time.Duration(rand.Intn(60)) * time.Minute
	if err := c.client.Set(ctx, key, strconv.FormatFloat(km, 'f', -1, 64), c.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func distanceKey(address string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(address))))
	return "distance:" + hex.EncodeToString(sum[:])
}
