// Package agents implements the four pipeline stages of the relief
// coordination loop: planner, retrieval, execution, and evaluation. Agents
// share only the send primitive; each variant's act is independent.
package agents

import (
	"relieforch/pkg/bus"
	"relieforch/pkg/logx"
	"relieforch/pkg/memory"
	"relieforch/pkg/proto"
)

// Base carries the identity and communication channels every agent needs.
type Base struct {
	name   string
	role   proto.Role
	bus    *bus.Bus
	memory *memory.SessionMemory
	logger *logx.Logger
}

func NewBase(name string, role proto.Role, b *bus.Bus, mem *memory.SessionMemory) Base {
	return Base{
		name:   name,
		role:   role,
		bus:    b,
		memory: mem,
		logger: logx.NewLogger(name),
	}
}

// Send constructs a message and delivers it to the bus and session memory.
// The bus publish happens before the memory add. Always succeeds.
func (a *Base) Send(content string, metadata map[string]any) *proto.ReliefMsg {
	msg := proto.NewReliefMsg(a.name, a.role, content, metadata)
	a.bus.Publish(msg)
	a.memory.Add(msg)
	a.logger.Debug("sent: %s", content)
	return msg
}

func (a *Base) Name() string {
	return a.name
}

func (a *Base) Role() proto.Role {
	return a.role
}

func (a *Base) Logger() *logx.Logger {
	return a.logger
}
