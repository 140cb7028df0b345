// Package monoclock issues strictly increasing unix-millisecond timestamps.
// Two calls in the same millisecond never return the same value.
package monoclock

import (
	"sync"
	"time"
)

type Generator struct {
	mu   sync.Mutex
	last int64
}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now

	return now
}
