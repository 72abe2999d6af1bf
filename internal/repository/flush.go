package repository

import (
	"context"
	"log"
	"sync"
	"time"
)

// SaveFunc persists one logical resource snapshot.
type SaveFunc func(ctx context.Context) error

// Flusher debounces and retries saves per logical resource key (catalog,
// deck, templates, history). The state engine never sees it: callers
// hand the flusher a closure capturing the next-state snapshot, and the
// latest scheduled save per key wins. Failed saves are retried with
// exponential backoff.
type Flusher struct {
	delay      time.Duration
	maxRetries int
	timeout    time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	saves   map[string]SaveFunc
}

// NewFlusher creates a flusher with the given debounce delay.
func NewFlusher(delay time.Duration) *Flusher {
	return &Flusher{
		delay:      delay,
		maxRetries: 4,
		timeout:    15 * time.Second,
		pending:    make(map[string]*time.Timer),
		saves:      make(map[string]SaveFunc),
	}
}

// Schedule queues a save for the key, replacing any save already queued
// for it and restarting the debounce window.
func (f *Flusher) Schedule(key string, save SaveFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saves[key] = save
	if timer, ok := f.pending[key]; ok {
		timer.Stop()
	}
	f.pending[key] = time.AfterFunc(f.delay, func() { f.fire(key) })
}

// FlushNow bypasses the debounce window; used for events that must not
// be lost to batching, like day completion.
func (f *Flusher) FlushNow(key string, save SaveFunc) {
	f.mu.Lock()
	if timer, ok := f.pending[key]; ok {
		timer.Stop()
		delete(f.pending, key)
	}
	f.saves[key] = save
	f.mu.Unlock()

	f.fire(key)
}

// Close fires every pending save immediately.
func (f *Flusher) Close() {
	f.mu.Lock()
	keys := make([]string, 0, len(f.pending))
	for key, timer := range f.pending {
		timer.Stop()
		keys = append(keys, key)
	}
	f.pending = make(map[string]*time.Timer)
	f.mu.Unlock()

	for _, key := range keys {
		f.fire(key)
	}
}

func (f *Flusher) fire(key string) {
	f.mu.Lock()
	save, ok := f.saves[key]
	delete(f.saves, key)
	delete(f.pending, key)
	f.mu.Unlock()
	if !ok {
		return
	}

	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		err := save(ctx)
		cancel()
		if err == nil {
			return
		}
		if attempt >= f.maxRetries {
			log.Printf("[error] flush %s: giving up after %d attempts: %v", key, attempt+1, err)
			return
		}
		log.Printf("[warn] flush %s: %v (retrying in %s)", key, err, backoff)
		time.Sleep(backoff)
		backoff *= 2
	}
}
