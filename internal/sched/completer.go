// Package sched runs the one-shot deferred completions behind generation
// sessions and video assets. Each completion is an explicit scheduled task
// that can be cancelled, instead of a bare fire-and-forget timer.
package sched

import (
	"sync"
	"time"
)

// Completer tracks pending one-shot timers by entity id. A given id fires at
// most once: scheduling a duplicate id is refused, and the callback is
// removed from the pending set before it runs.
type Completer struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// New creates an empty completer.
func New() *Completer {
	return &Completer{pending: make(map[string]*time.Timer)}
}

// Schedule arranges for fn to run once after delay. Returns false when the id
// already has a pending completion or the completer is closed.
func (c *Completer) Schedule(id string, delay time.Duration, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if _, exists := c.pending[id]; exists {
		return false
	}
	c.pending[id] = time.AfterFunc(delay, func() {
		c.mu.Lock()
		_, live := c.pending[id]
		delete(c.pending, id)
		c.mu.Unlock()
		if live {
			fn()
		}
	})
	return true
}

// Cancel stops a pending completion. Returns false when nothing was pending,
// which includes a callback that already fired.
func (c *Completer) Cancel(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer, ok := c.pending[id]
	if !ok {
		return false
	}
	delete(c.pending, id)
	timer.Stop()
	return true
}

// Pending reports the number of completions not yet fired.
func (c *Completer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close cancels every pending completion and refuses further scheduling.
func (c *Completer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, timer := range c.pending {
		timer.Stop()
		delete(c.pending, id)
	}
}
