package refresh

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

func TestSignalBumpNotifiesLatestVersion(t *testing.T) {
	signal := NewSignal()
	ch, unsubscribe := signal.Subscribe()
	defer unsubscribe()

	signal.Bump()
	signal.Bump()
	assert.Equal(t, uint64(2), signal.Version())

	select {
	case v := <-ch:
		assert.Equal(t, uint64(2), v)
	default:
		t.Fatalf("expected a pending version")
	}

	unsubscribe()
	signal.Bump()
	select {
	case v := <-ch:
		t.Fatalf("unexpected version after unsubscribe: %d", v)
	default:
	}
}

func TestLoaderReloadsOnBump(t *testing.T) {
	signal := NewSignal()
	var calls int32
	results := make(chan Result[int, int], 4)
	loader := NewLoader(func(ctx context.Context, limit int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return limit * 2, nil
	}, signal, func(r Result[int, int]) { results <- r })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loader.Run(ctx, 5)
		close(done)
	}()

	first := <-results
	assert.Equal(t, 10, first.Value)
	assert.Equal(t, uint64(0), first.Version)

	signal.Bump()
	second := <-results
	assert.Equal(t, uint64(1), second.Version)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	cancel()
	<-done
}

func TestLoaderSetKeySkipsUnchangedKey(t *testing.T) {
	var calls int32
	loader := NewLoader(func(ctx context.Context, key string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return key, nil
	}, nil, nil)

	ctx := context.Background()
	loader.SetKey(ctx, "a")
	loader.Wait()
	loader.SetKey(ctx, "a")
	loader.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	loader.SetKey(ctx, "b")
	loader.Wait()
	latest, ok := loader.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.Value)
}

func TestLoaderDropsStaleResult(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []string
	loader := NewLoader(func(ctx context.Context, key string) (string, error) {
		if key == "slow" {
			<-release
			return key, errors.New("late")
		}
		return key, nil
	}, nil, func(r Result[string, string]) {
		mu.Lock()
		delivered = append(delivered, r.Key)
		mu.Unlock()
	})

	ctx := context.Background()
	loader.SetKey(ctx, "slow")
	loader.SetKey(ctx, "fast")
	require.Eventually(t, func() bool {
		latest, ok := loader.Latest()
		return ok && latest.Key == "fast"
	}, time.Second, time.Millisecond)

	close(release)
	loader.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fast"}, delivered)
}

func TestLoaderDeliversInGenerationOrder(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []string
	loader := NewLoader(func(ctx context.Context, key string) (string, error) {
		return key, nil
	}, nil, func(r Result[string, string]) {
		if r.Key == "old" {
			close(entered)
			<-release
		}
		mu.Lock()
		delivered = append(delivered, r.Key)
		mu.Unlock()
	})

	ctx := context.Background()
	loader.SetKey(ctx, "old")
	<-entered
	loader.SetKey(ctx, "new")
	// let the newer load finish while the older callback is still running
	time.Sleep(20 * time.Millisecond)
	close(release)
	loader.Wait()

	latest, ok := loader.Latest()
	require.True(t, ok)
	assert.Equal(t, "new", latest.Key)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"old", "new"}, delivered)
}
