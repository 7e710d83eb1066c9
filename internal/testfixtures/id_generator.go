package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator yields deterministic, sequential identifiers for tests.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewIDGenerator returns a generator producing "<prefix>-1", "<prefix>-2"
// and so on. An empty prefix defaults to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix, next: 1}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("%s-%d", g.prefix, g.next)
	g.next++
	return id
}

// NextFunc exposes Next as a plain function for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	return g.Next
}

// Reset rewinds the sequence back to its first value.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.next = 1
	g.mu.Unlock()
}
