package utils

import "testing"

func TestCountTokens(t *testing.T) {
	tc, err := NewTokenCounter()
	if err != nil {
		t.Fatalf("NewTokenCounter failed: %v", err)
	}

	if got := tc.CountTokens(""); got != 0 {
		t.Errorf("empty text should count 0 tokens, got %d", got)
	}

	n := tc.CountTokens("Allocated 3 resources across relief sites")
	if n <= 0 {
		t.Errorf("expected positive token count, got %d", n)
	}
}

func TestCountTokensNilFallback(t *testing.T) {
	var tc *TokenCounter
	// 4 chars per token estimation when no codec is available.
	if got := tc.CountTokens("abcdefgh"); got != 2 {
		t.Errorf("expected fallback estimate 2, got %d", got)
	}
}

func TestValidateTokenLimit(t *testing.T) {
	tc, err := NewTokenCounter()
	if err != nil {
		t.Fatalf("NewTokenCounter failed: %v", err)
	}

	text := "deliver water to the northern shelter"
	if !tc.ValidateTokenLimit(text, 1000) {
		t.Error("short text should fit within a large limit")
	}
	if tc.ValidateTokenLimit(text, 1) {
		t.Error("short text should not fit within a 1-token limit")
	}
}
