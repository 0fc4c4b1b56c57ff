package shipping

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type countingLookup struct {
	calls   atomic.Int32
	km      float64
	err     error
	release chan struct{}
}

func (c *countingLookup) Distance(ctx context.Context, _ string) (float64, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	return c.km, c.err
}

func setupCachedLookup(t *testing.T, next DistanceLookup) (*CachedLookup, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCachedLookup(next, client, nil, WithRateLimit(rate.Inf, 1)), mr
}

func TestCachedLookup_CachesResult(t *testing.T) {
	next := &countingLookup{km: 6.4}
	c, mr := setupCachedLookup(t, next)
	ctx := context.Background()

	km, err := c.Distance(ctx, "Calle 10, Medellín, Antioquia, Colombia")
	require.NoError(t, err)
	assert.InDelta(t, 6.4, km, 1e-9)

	km, err = c.Distance(ctx, "  calle 10, medellín, antioquia, colombia ")
	require.NoError(t, err)
	assert.InDelta(t, 6.4, km, 1e-9)
	assert.Equal(t, int32(1), next.calls.Load())

	key := distanceKey("Calle 10, Medellín, Antioquia, Colombia")
	stored, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "6.4", stored)
	assert.True(t, mr.TTL(key) >= distanceCacheTTL)
}

func TestCachedLookup_ErrorsAreNotCached(t *testing.T) {
	next := &countingLookup{err: errors.New("boom")}
	c, mr := setupCachedLookup(t, next)

	_, err := c.Distance(context.Background(), "x")
	assert.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestCachedLookup_WorksWithoutRedis(t *testing.T) {
	next := &countingLookup{km: 2}
	c := NewCachedLookup(next, nil, nil, WithRateLimit(rate.Inf, 1))

	km, err := c.Distance(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 2.0, km)
}

func TestCachedLookup_BreakerOpens(t *testing.T) {
	next := &countingLookup{err: errors.New("provider down")}
	c, _ := setupCachedLookup(t, next)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Distance(ctx, "addr")
		require.Error(t, err)
	}

	_, err := c.Distance(ctx, "addr")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestCachedLookup_CoalescesConcurrentCalls(t *testing.T) {
	next := &countingLookup{km: 5, release: make(chan struct{})}
	c, _ := setupCachedLookup(t, next)

	var wg sync.WaitGroup
	results := make([]float64, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			km, err := c.Distance(context.Background(), "same address")
			assert.NoError(t, err)
			results[i] = km
		}(i)
	}

	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(next.release)
	wg.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
	for _, km := range results {
		assert.Equal(t, 5.0, km)
	}
}

type slowLookup struct {
	delay time.Duration
	km    float64
	calls atomic.Int32
}

func (s *slowLookup) Distance(ctx context.Context, _ string) (float64, error) {
	s.calls.Add(1)
	select {
	case <-time.After(s.delay):
		return s.km, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestCachedLookup_AbandonedCallersDoNotTripBreaker(t *testing.T) {
	next := &slowLookup{delay: 50 * time.Millisecond, km: 8}
	c, _ := setupCachedLookup(t, next)

	addrs := []string{"Cl 10", "Cl 10 #4", "Cl 10 #43"}
	for _, addr := range addrs {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := c.Distance(ctx, addr)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	km, err := c.Distance(context.Background(), "Cl 10 #43-12")
	require.NoError(t, err)
	assert.Equal(t, 8.0, km)
	assert.Equal(t, gobreaker.StateClosed, c.cb.State())

	// the abandoned lookups still finish and land in the cache
	km, err = c.Distance(context.Background(), "Cl 10")
	require.NoError(t, err)
	assert.Equal(t, 8.0, km)
	assert.Equal(t, int32(4), next.calls.Load())
}

func TestCachedLookup_CancelledLookupIsNotAFailure(t *testing.T) {
	next := &countingLookup{err: context.Canceled}
	c, _ := setupCachedLookup(t, next)

	for i := 0; i < 5; i++ {
		_, err := c.Distance(context.Background(), "addr")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, c.cb.State())
	assert.Equal(t, int32(5), next.calls.Load())
}

func TestCachedLookup_SharedCallSurvivesOneCallerLeaving(t *testing.T) {
	next := &countingLookup{km: 7, release: make(chan struct{})}
	c, _ := setupCachedLookup(t, next)

	leaving, cancel := context.WithCancel(context.Background())
	leftErr := make(chan error, 1)
	go func() {
		_, err := c.Distance(leaving, "Calle 50")
		leftErr <- err
	}()
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	stayed := make(chan float64, 1)
	go func() {
		km, err := c.Distance(context.Background(), "Calle 50")
		assert.NoError(t, err)
		stayed <- km
	}()

	cancel()
	assert.ErrorIs(t, <-leftErr, context.Canceled)

	close(next.release)
	assert.Equal(t, 7.0, <-stayed)
	assert.Equal(t, int32(1), next.calls.Load())
}
