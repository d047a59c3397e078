// Package bus provides the append-only communication log shared by all
// relief agents. Every message an agent sends is published here, in send
// order, and is never reordered or truncated during a run.
package bus

import (
	"fmt"
	"strings"
	"sync"

	"relieforch/pkg/logx"
	"relieforch/pkg/proto"
)

// Sink receives a copy of every published message, typically for durable
// JSONL event logging. Sink failures never fail a publish.
type Sink interface {
	WriteMessage(msg *proto.ReliefMsg) error
}

// Bus is the ordered in-memory message log. Insertion order is chronological
// order. Safe for concurrent use so multiple runs may share one instance.
type Bus struct {
	mu       sync.RWMutex
	messages []*proto.ReliefMsg
	sink     Sink
	logger   *logx.Logger
}

func New() *Bus {
	return &Bus{
		messages: make([]*proto.ReliefMsg, 0),
		logger:   logx.NewLogger("bus"),
	}
}

// SetSink attaches a durable sink mirror. Pass nil to detach.
func (b *Bus) SetSink(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = sink
}

// Publish appends a message to the log.
func (b *Bus) Publish(msg *proto.ReliefMsg) {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	sink := b.sink
	b.mu.Unlock()

	if sink != nil {
		if err := sink.WriteMessage(msg); err != nil {
			b.logger.Warn("event sink write failed for message %s: %v", msg.ID, err)
		}
	}
}

// Recent returns the trailing n messages in insertion order, fewer if the
// log is shorter. The returned slice is a copy; the log itself is never
// exposed for mutation.
func (b *Bus) Recent(n int) []*proto.ReliefMsg {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > len(b.messages) {
		n = len(b.messages)
	}

	recent := make([]*proto.ReliefMsg, n)
	copy(recent, b.messages[len(b.messages)-n:])
	return recent
}

// Len returns the number of messages published so far.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.messages)
}

// Summary renders the full log as one line per message:
//
//	[role] sender: content
//
// with content capped to proto.SummaryPreviewLen characters.
func (b *Bus) Summary() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lines := make([]string, 0, len(b.messages))
	for _, msg := range b.messages {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			msg.Role, msg.Sender, proto.Preview(msg.Content, proto.SummaryPreviewLen)))
	}
	return strings.Join(lines, "\n")
}
