// Package memory provides the bounded rolling context buffer used to build
// compact conversational context strings for each orchestration iteration.
package memory

import (
	"fmt"
	"strings"
	"sync"

	"relieforch/pkg/proto"
)

const (
	// DefaultCapacity is the buffer size used when none is configured.
	DefaultCapacity = 60

	// compactWindow is how many trailing entries Compact renders.
	compactWindow = 10

	compactSeparator = " | "
)

// SessionMemory is a fixed-capacity FIFO buffer of recent messages,
// independent of the bus. Once at capacity, each insertion evicts the oldest
// entry. Capacity is fixed at construction.
type SessionMemory struct {
	mu       sync.Mutex
	buf      []*proto.ReliefMsg
	start    int // index of the oldest entry
	size     int
	capacity int
}

// New creates a session memory with the given capacity. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *SessionMemory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SessionMemory{
		buf:      make([]*proto.ReliefMsg, capacity),
		capacity: capacity,
	}
}

// Add inserts a message, evicting the oldest entry when at capacity.
func (m *SessionMemory) Add(msg *proto.ReliefMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.size < m.capacity {
		m.buf[(m.start+m.size)%m.capacity] = msg
		m.size++
		return
	}
	// Full: overwrite the oldest slot and advance the window.
	m.buf[m.start] = msg
	m.start = (m.start + 1) % m.capacity
}

// Recent returns the trailing n entries, oldest first.
func (m *SessionMemory) Recent(n int) []*proto.ReliefMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recentLocked(n)
}

func (m *SessionMemory) recentLocked(n int) []*proto.ReliefMsg {
	if n < 0 {
		n = 0
	}
	if n > m.size {
		n = m.size
	}

	recent := make([]*proto.ReliefMsg, 0, n)
	for i := m.size - n; i < m.size; i++ {
		recent = append(recent, m.buf[(m.start+i)%m.capacity])
	}
	return recent
}

// Compact renders the most recent entries as role:content pairs joined by
// " | ", oldest to newest, with content capped to proto.CompactPreviewLen.
func (m *SessionMemory) Compact() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	subset := m.recentLocked(compactWindow)
	parts := make([]string, 0, len(subset))
	for _, msg := range subset {
		parts = append(parts, fmt.Sprintf("%s:%s",
			msg.Role, proto.Preview(msg.Content, proto.CompactPreviewLen)))
	}
	return strings.Join(parts, compactSeparator)
}

// Len returns the number of buffered entries.
func (m *SessionMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Cap returns the fixed capacity.
func (m *SessionMemory) Cap() int {
	return m.capacity
}
