package infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Cache ──

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", 1)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	c.SetWithTTL("short", "x", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok, "expired entry should not be returned")

	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewCache(0)
	c.Set("k", "v")
	c.Cleanup()

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCacheInvalidatePrefix(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("dataset:cpi", 1)
	c.Set("dataset:grain", 2)
	c.Set("chart:cpi", 3)

	n := c.InvalidatePrefix("dataset:")
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, c.Len())

	c.Invalidate("chart:cpi")
	assert.Equal(t, 0, c.Len())

	c.Set("x", 1)
	c.Flush()
	assert.Equal(t, 0, c.Len())
}

func TestCacheGetOrLoadSharesConcurrentLoads(t *testing.T) {
	c := NewCache(time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "loaded", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "loaded", r)
	}
}

func TestCacheGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := NewCache(time.Minute)
	boom := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCacheGetOrLoadSurvivesFirstCallerCancel(t *testing.T) {
	c := NewCache(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		close(started)
		select {
		case <-release:
			return "loaded", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(first, "k", load)
		firstErr <- err
	}()
	<-started

	second := make(chan any, 1)
	go func() {
		v, err := c.GetOrLoad(context.Background(), "k", load)
		assert.NoError(t, err)
		second <- v
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled, "the cancelled caller stops waiting")
	close(release)

	select {
	case v := <-second:
		assert.Equal(t, "loaded", v)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not get the shared result")
	}
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "loaded", v)
}

func TestCacheInvalidateDuringLoad(t *testing.T) {
	c := NewCache(0)
	started := make(chan struct{})
	release := make(chan struct{})

	old := make(chan any, 1)
	go func() {
		v, err := c.GetOrLoad(context.Background(), "dataset:cpi", func(context.Context) (any, error) {
			close(started)
			<-release
			return "old", nil
		})
		assert.NoError(t, err)
		old <- v
	}()
	<-started

	assert.Equal(t, 0, c.InvalidatePrefix("dataset:"))

	// A caller after the invalidation does not join the stale load.
	v, err := c.GetOrLoad(context.Background(), "dataset:cpi", func(context.Context) (any, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	close(release)
	assert.Equal(t, "old", <-old, "callers of the stale load still get its value")
	v, ok := c.Get("dataset:cpi")
	require.True(t, ok)
	assert.Equal(t, "new", v, "the stale load does not overwrite the fresh value")

	c.Invalidate("dataset:cpi")
	_, ok = c.Get("dataset:cpi")
	assert.False(t, ok)
}

// ── RateLimiter ──

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	assert.True(t, rl.TryAcquire())
	assert.True(t, rl.TryAcquire())
	assert.False(t, rl.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	require.True(t, rl.TryAcquire())
	require.NoError(t, rl.Wait(context.Background()))
}

func TestRateLimiterRefillCapsAtBurst(t *testing.T) {
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }
	rl.last = now

	require.True(t, rl.TryAcquire())
	require.True(t, rl.TryAcquire())
	delay, ok := rl.reserve()
	require.False(t, ok)
	assert.Equal(t, time.Second, delay)

	now = now.Add(1500 * time.Millisecond)
	require.True(t, rl.TryAcquire())
	delay, ok = rl.reserve()
	require.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, delay)

	now = now.Add(time.Hour)
	assert.True(t, rl.TryAcquire())
	assert.True(t, rl.TryAcquire())
	assert.False(t, rl.TryAcquire())
}

// ── DoGet ──

func TestDoGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
			assert.Equal(t, "text/csv", r.Header.Get("Accept"))
			_, _ = io.WriteString(w, "month,index\n")
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	body, status, err := DoGet(context.Background(), srv.URL+"/ok", map[string]string{"Accept": "text/csv"})
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, http.StatusOK, status)
	b, _ := io.ReadAll(body)
	assert.Equal(t, "month,index\n", string(b))

	_, status, err = DoGet(context.Background(), srv.URL+"/missing", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	var httpErr *ErrHTTP
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "nope")
}
