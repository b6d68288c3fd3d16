package refresh

import (
	"context"
	"sync"
)

// LoadFunc fetches a value for the given key.
type LoadFunc[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Result is the outcome of one load.
type Result[K comparable, T any] struct {
	Key        K
	Value      T
	Err        error
	Version    uint64
	Generation uint64
}

// Loader reruns a LoadFunc when its key changes or its Signal is bumped. Only
// the result of the latest run is delivered; older runs are cancelled and
// their results dropped. Deliveries are serialized, so onResult never runs
// concurrently with itself and never sees an older generation after a newer
// one. onResult must not call Wait.
type Loader[K comparable, T any] struct {
	load     LoadFunc[K, T]
	signal   *Signal
	onResult func(Result[K, T])

	// deliverMu is held through onResult.
	deliverMu sync.Mutex

	mu         sync.Mutex
	key        K
	hasKey     bool
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	latest     *Result[K, T]
}

// NewLoader builds a Loader. signal may be nil.
func NewLoader[K comparable, T any](load LoadFunc[K, T], signal *Signal, onResult func(Result[K, T])) *Loader[K, T] {
	return &Loader[K, T]{load: load, signal: signal, onResult: onResult}
}

// Run loads key immediately and then reloads on every signal bump until ctx
// is done.
func (l *Loader[K, T]) Run(ctx context.Context, key K) {
	var updates <-chan uint64
	if l.signal != nil {
		ch, unsubscribe := l.signal.Subscribe()
		defer unsubscribe()
		updates = ch
	}

	l.SetKey(ctx, key)
	for {
		select {
		case <-ctx.Done():
			l.stop()
			return
		case <-updates:
			l.Reload(ctx)
		}
	}
}

// SetKey starts a load for key if it differs from the current key.
func (l *Loader[K, T]) SetKey(ctx context.Context, key K) {
	l.mu.Lock()
	if l.hasKey && l.key == key {
		l.mu.Unlock()
		return
	}
	l.key = key
	l.hasKey = true
	l.mu.Unlock()
	l.Reload(ctx)
}

// Reload starts a new load for the current key.
func (l *Loader[K, T]) Reload(ctx context.Context) {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	generation := l.generation
	key := l.key
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	var version uint64
	if l.signal != nil {
		version = l.signal.Version()
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer cancel()
		value, err := l.load(runCtx, key)
		l.deliver(Result[K, T]{Key: key, Value: value, Err: err, Version: version, Generation: generation})
	}()
}

// Latest returns the most recent delivered result.
func (l *Loader[K, T]) Latest() (Result[K, T], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest == nil {
		return Result[K, T]{}, false
	}
	return *l.latest, true
}

// Wait blocks until in-flight loads finish.
func (l *Loader[K, T]) Wait() {
	l.wg.Wait()
}

func (l *Loader[K, T]) deliver(res Result[K, T]) {
	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	l.mu.Lock()
	if res.Generation != l.generation {
		l.mu.Unlock()
		return
	}
	l.latest = &res
	onResult := l.onResult
	l.mu.Unlock()

	if onResult != nil {
		onResult(res)
	}
}

func (l *Loader[K, T]) stop() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	l.mu.Unlock()
	l.wg.Wait()
}
