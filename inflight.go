package agentui

import (
	"context"
	"crypto/sha256"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// PendingRequest is one in-flight network call shared between an owner and
// any coalesced waiters. The owner executes the call; waiters block on it
// and receive the identical outcome.
type PendingRequest struct {
	key      string
	cancel   context.CancelCauseFunc
	issuedAt time.Time

	done chan struct{}
	once sync.Once
	body []byte
	err  error

	mu      sync.Mutex
	waiters int
}

// Key returns the coalescing key of the request.
func (p *PendingRequest) Key() string { return p.key }

// IssuedAt returns when the owning call was started.
func (p *PendingRequest) IssuedAt() time.Time { return p.issuedAt }

// Wait blocks until the owning call settles or ctx is done.
func (p *PendingRequest) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-p.done:
		return p.body, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// abort cancels the underlying call for every attached caller.
func (p *PendingRequest) abort(cause error) {
	if p.cancel != nil {
		p.cancel(cause)
	}
}

// inflightTracker owns the table of live PendingRequests. Each coalescing
// key has at most one live entry, removed exactly once on whichever exit
// path settles first.
type inflightTracker struct {
	mu      sync.Mutex
	entries map[string]*PendingRequest
}

func newInflightTracker() *inflightTracker {
	return &inflightTracker{entries: make(map[string]*PendingRequest)}
}

// getOrCreate returns the live entry for key, or registers a new one owned
// by the caller. The second result is true for the owner. Non-owners must
// discard the cancel handle they created.
func (t *inflightTracker) getOrCreate(key string, cancel context.CancelCauseFunc) (*PendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, exists := t.entries[key]; exists {
		entry.mu.Lock()
		entry.waiters++
		entry.mu.Unlock()
		return entry, false
	}

	entry := &PendingRequest{
		key:      key,
		cancel:   cancel,
		issuedAt: time.Now(),
		done:     make(chan struct{}),
		waiters:  1,
	}
	t.entries[key] = entry
	return entry, true
}

// complete settles the entry, releases waiters and removes the table slot.
// Safe to call on an already-removed entry.
func (t *inflightTracker) complete(entry *PendingRequest, body []byte, err error) {
	entry.once.Do(func() {
		entry.body = body
		entry.err = err
		close(entry.done)
	})
	t.remove(entry)
}

func (t *inflightTracker) remove(entry *PendingRequest) {
	t.mu.Lock()
	if t.entries[entry.key] == entry {
		delete(t.entries, entry.key)
	}
	t.mu.Unlock()
}

// cancelKey aborts the call registered under key. The abort reaches every
// coalesced waiter; the entry is evicted immediately.
func (t *inflightTracker) cancelKey(key string, cause error) bool {
	t.mu.Lock()
	entry, exists := t.entries[key]
	if exists {
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if !exists {
		return false
	}
	entry.abort(cause)
	return true
}

// cancelAll aborts every live entry and returns how many were cancelled.
func (t *inflightTracker) cancelAll(cause error) int {
	t.mu.Lock()
	entries := make([]*PendingRequest, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	t.entries = make(map[string]*PendingRequest)
	t.mu.Unlock()

	for _, e := range entries {
		e.abort(cause)
	}
	return len(entries)
}

// sweep aborts and evicts entries older than maxAge.
func (t *inflightTracker) sweep(maxAge time.Duration, cause error) int {
	cutoff := time.Now().Add(-maxAge)

	t.mu.Lock()
	var stale []*PendingRequest
	for key, e := range t.entries {
		if e.issuedAt.Before(cutoff) || e.issuedAt.Equal(cutoff) {
			stale = append(stale, e)
			delete(t.entries, key)
		}
	}
	t.mu.Unlock()

	for _, e := range stale {
		e.abort(cause)
	}
	return len(stale)
}

func (t *inflightTracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// RequestKey builds the coalescing key for a request: an FNV-64 hash of
// method + url, mixed with a SHA-256 of the body when present. Equivalent
// logical requests collide regardless of call site.
func RequestKey(method, url string, body []byte) string {
	h := fnv.New64a()
	h.Write([]byte(method))
	h.Write([]byte(url))
	if len(body) > 0 {
		sum := sha256.Sum256(body)
		h.Write(sum[:])
	}
	return fmt.Sprintf("%x", h.Sum64())
}
