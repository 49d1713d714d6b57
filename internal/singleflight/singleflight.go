// Package singleflight provides a typed owner/waiter group that collapses
// concurrent calls for the same key into a single execution.
package singleflight

import "sync"

// Group manages a set of in-flight calls so that at most one function runs
// per key at a time. Duplicate callers block until the owner finishes and
// receive the owner's result.
type Group[V any] struct {
	mu sync.Mutex
	m  map[string]*call[V]
}

type call[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

// New creates an empty Group.
func New[V any]() *Group[V] {
	return &Group[V]{m: make(map[string]*call[V])}
}

// Do executes fn, making sure only one execution is in flight for key.
// Late arrivals wait for the in-flight call and share its outcome.
func (g *Group[V]) Do(key string, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}

	c := &call[V]{}
	c.wg.Add(1)
	g.m[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	c.wg.Done()

	g.mu.Lock()
	if g.m[key] == c {
		delete(g.m, key)
	}
	g.mu.Unlock()

	return c.val, c.err
}

// Forget removes key from the group, allowing the next Do for that key to
// start a fresh execution even if an earlier one is still running.
func (g *Group[V]) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
