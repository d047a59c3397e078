// Package testkit provides testing utilities for relief message validation
// and mock tool implementations.
package testkit

import (
	"strings"
	"testing"

	"relieforch/pkg/proto"
)

// AssertRole verifies the message role.
func AssertRole(t *testing.T, msg *proto.ReliefMsg, expected proto.Role) {
	t.Helper()
	if msg.Role != expected {
		t.Errorf("Expected role %s, got %s", expected, msg.Role)
	}
}

// AssertSender verifies the message sender.
func AssertSender(t *testing.T, msg *proto.ReliefMsg, expected string) {
	t.Helper()
	if msg.Sender != expected {
		t.Errorf("Expected sender %s, got %s", expected, msg.Sender)
	}
}

// AssertContentContains verifies the message content contains expected text.
func AssertContentContains(t *testing.T, msg *proto.ReliefMsg, expected string) {
	t.Helper()
	if !strings.Contains(msg.Content, expected) {
		t.Errorf("Expected content to contain %q, got %q", expected, msg.Content)
	}
}

// AssertMetadataValue verifies a metadata field has the expected value.
func AssertMetadataValue(t *testing.T, msg *proto.ReliefMsg, key string, expected any) {
	t.Helper()
	value, exists := msg.Metadata[key]
	if !exists {
		t.Errorf("Expected metadata key %q to exist", key)
		return
	}
	if value != expected {
		t.Errorf("Expected metadata %q to be %v, got %v", key, expected, value)
	}
}

// FindMessage returns the first message whose content contains the given
// text, or nil.
func FindMessage(msgs []*proto.ReliefMsg, contains string) *proto.ReliefMsg {
	for _, msg := range msgs {
		if strings.Contains(msg.Content, contains) {
			return msg
		}
	}
	return nil
}

// CountMessages returns how many messages contain the given text.
func CountMessages(msgs []*proto.ReliefMsg, contains string) int {
	count := 0
	for _, msg := range msgs {
		if strings.Contains(msg.Content, contains) {
			count++
		}
	}
	return count
}
