package proto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Role identifies which pipeline stage an agent implements.
type Role string

const (
	RoleOrchestrator Role = "orchestrator"
	RolePlanner      Role = "planner"
	RoleRetrieval    Role = "retrieval"
	RoleExecution    Role = "execution"
	RoleEvaluation   Role = "evaluation"
)

// Content preview lengths used when rendering messages.
const (
	// SummaryPreviewLen caps message content in bus summaries.
	SummaryPreviewLen = 100

	// CompactPreviewLen caps message content in session memory compaction.
	CompactPreviewLen = 60
)

// ReliefMsg is one immutable communication event between agents.
// ID and Timestamp are assigned once, at construction, never by callers.
type ReliefMsg struct {
	ID        string         `json:"id"`
	Sender    string         `json:"sender"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewReliefMsg constructs a message with a fresh ID and the current time.
// Metadata may be nil.
func NewReliefMsg(sender string, role Role, content string, metadata map[string]any) *ReliefMsg {
	msg := &ReliefMsg{
		ID:        uuid.New().String(),
		Sender:    sender,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if metadata != nil {
		msg.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			msg.Metadata[k] = v
		}
	}
	return msg
}

func (m *ReliefMsg) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func FromJSON(data []byte) (*ReliefMsg, error) {
	var msg ReliefMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ReliefMsg: %w", err)
	}
	return &msg, nil
}

// Clone returns a deep copy, including metadata.
func (m *ReliefMsg) Clone() *ReliefMsg {
	clone := &ReliefMsg{
		ID:        m.ID,
		Sender:    m.Sender,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Metadata != nil {
		clone.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

func (m *ReliefMsg) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message ID is required")
	}
	if m.Sender == "" {
		return fmt.Errorf("sender is required")
	}
	if _, valid := ValidateRole(string(m.Role)); !valid {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Preview truncates s to at most n bytes for display, backing off to the
// nearest rune boundary so the result stays valid UTF-8. Stored message
// content is never truncated; only rendered previews are.
func Preview(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Role helper methods

// ValidateRole validates if a string is a valid agent role.
func ValidateRole(role string) (Role, bool) {
	switch Role(role) {
	case RoleOrchestrator, RolePlanner, RoleRetrieval, RoleExecution, RoleEvaluation:
		return Role(role), true
	default:
		return "", false
	}
}

// ParseRole parses a string into a Role with validation.
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(s)
	if role, valid := ValidateRole(normalized); valid {
		return role, nil
	}
	return "", fmt.Errorf("unknown agent role: %s", s)
}

// String returns the string representation of Role.
func (r Role) String() string {
	return string(r)
}

// Roles returns all pipeline roles in stage order, orchestrator first.
func Roles() []Role {
	return []Role{RoleOrchestrator, RolePlanner, RoleRetrieval, RoleExecution, RoleEvaluation}
}
