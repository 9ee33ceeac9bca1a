package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedComputesOnce(t *testing.T) {
	c := NewKeyed[int]()
	var calls int32

	compute := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute(context.Background(), "USD@daily", compute)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, 1, c.Len())
}

func TestKeyedConcurrentMissesShareOneComputation(t *testing.T) {
	c := NewKeyed[string]()
	var calls int32
	release := make(chan struct{})

	compute := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "series", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute(context.Background(), "EUR@daily", compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "series", r)
	}
}

func TestKeyedDoesNotStoreFailures(t *testing.T) {
	c := NewKeyed[int]()
	boom := errors.New("upstream 500")

	_, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	_, err = c.Get("k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	v, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestKeyedComputationSurvivesCallerCancel(t *testing.T) {
	c := NewKeyed[int]()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)
		_, err := c.GetOrCompute(ctx, "k", func(cctx context.Context) (int, error) {
			close(started)
			<-release
			return 1, cctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	<-started
	cancel()
	<-done
	close(release)

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestKeyedObserver(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c := NewKeyed[int](WithObserver(func(r string) {
		mu.Lock()
		seen = append(seen, r)
		mu.Unlock()
	}))

	ok := func(context.Context) (int, error) { return 1, nil }
	_, _ = c.GetOrCompute(context.Background(), "a", ok)
	_, _ = c.GetOrCompute(context.Background(), "a", ok)
	_, _ = c.GetOrCompute(context.Background(), "b", func(context.Context) (int, error) {
		return 0, errors.New("x")
	})

	assert.Equal(t, []string{ResultMiss, ResultHit, ResultError}, seen)
	assert.Equal(t, []string{"a"}, c.Keys())
}
