package cache

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrClosed is returned when revalidating a closed store.
var ErrClosed = errors.New("cache: store is closed")

// Fetcher loads the current value for key.
type Fetcher[T any] func(ctx context.Context, key string) (T, error)

// Entry is a snapshot of a cached key.
type Entry[T any] struct {
	// Data is the last successfully fetched value, or the zero value before
	// the first successful fetch.
	Data T
	// Loaded reports whether Data came from a successful fetch.
	Loaded bool
	// Loading reports whether a fetch for the key is in flight.
	Loading bool
	// UpdatedAt is when Data was last replaced.
	UpdatedAt time.Time
	// Err is the error of the most recent failed fetch, kept for diagnostics.
	Err error
	// Revalidate triggers a background re-fetch of the key.
	Revalidate func()
}

// Config tunes a Store.
type Config struct {
	// Timeout bounds a single fetch. Zero means no timeout.
	Timeout time.Duration
	// OnUpdate, when set, is called after a key's data is replaced.
	OnUpdate func(key string)
}

type entry[T any] struct {
	data      T
	loaded    bool
	inflight  int
	updatedAt time.Time
	err       error
}

// Store caches the result of a Fetcher per key. Reads never block; fresh
// data arrives through background revalidation, and a failed revalidation
// keeps whatever was cached before.
type Store[T any] struct {
	fetch  Fetcher[T]
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry[T]
	closed  bool
	wg      sync.WaitGroup
}

// New creates a Store backed by fetch.
func New[T any](fetch Fetcher[T], cfg Config) *Store[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store[T]{
		fetch:   fetch,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry[T]),
	}
}

// Read returns the cached snapshot for key. The first read of a key starts
// its initial load.
func (s *Store[T]) Read(key string) Entry[T] {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry[T]{}
		s.entries[key] = e
		s.startLocked(key, e)
	}
	snap := Entry[T]{
		Data:      e.data,
		Loaded:    e.loaded,
		Loading:   e.inflight > 0,
		UpdatedAt: e.updatedAt,
		Err:       e.err,
	}
	s.mu.Unlock()

	snap.Revalidate = func() {
		if err := s.Revalidate(key); err != nil {
			log.Printf("Skipping revalidation of %s: %v", key, err)
		}
	}
	return snap
}

// Revalidate re-fetches key in the background. It does not wait for the
// fetch; concurrent revalidations of the same key are not merged, and the
// one that completes last determines the cached value.
func (s *Store[T]) Revalidate(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		e = &entry[T]{}
		s.entries[key] = e
	}
	s.startLocked(key, e)
	return nil
}

// startLocked must be called with s.mu held.
func (s *Store[T]) startLocked(key string, e *entry[T]) {
	if s.closed {
		return
	}
	e.inflight++
	s.wg.Add(1)
	go s.run(key, e)
}

func (s *Store[T]) run(key string, e *entry[T]) {
	defer s.wg.Done()

	ctx := s.ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	data, err := s.fetch(ctx, key)

	s.mu.Lock()
	e.inflight--
	if s.closed {
		s.mu.Unlock()
		return
	}
	if err != nil {
		e.err = err
		s.mu.Unlock()
		log.Printf("Failed to revalidate %s, keeping cached data: %v", key, err)
		return
	}
	e.data = data
	e.loaded = true
	e.err = nil
	e.updatedAt = time.Now()
	s.mu.Unlock()

	if s.cfg.OnUpdate != nil {
		s.cfg.OnUpdate(key)
	}
}

// Wait blocks until every in-flight fetch has finished.
func (s *Store[T]) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight fetches and drops their results.
func (s *Store[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}
