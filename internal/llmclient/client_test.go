package llmclient

import "testing"

func TestNewAnthropicClient_DefaultsModelWhenEmpty(t *testing.T) {
	c := NewAnthropicClient("test-key", "")
	if c.model == "" {
		t.Error("expected a non-empty default model")
	}
}

func TestNewAnthropicClient_HonoursExplicitModel(t *testing.T) {
	c := NewAnthropicClient("test-key", "claude-3-opus-20240229")
	if string(c.model) != "claude-3-opus-20240229" {
		t.Errorf("model = %q, want claude-3-opus-20240229", c.model)
	}
}
