package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/flowdag/callable/model"
)

func TestNewChatModelDefaultsModelName(t *testing.T) {
	m := NewChatModel("key", "")
	if m.modelName != "claude-sonnet-4-5-20250929" {
		t.Errorf("expected default Claude model, got %q", m.modelName)
	}

	m = NewChatModel("key", "claude-opus-4")
	if m.modelName != "claude-opus-4" {
		t.Errorf("expected explicit model name to be kept, got %q", m.modelName)
	}
}

func TestChatRejectsCanceledContext(t *testing.T) {
	m := NewChatModel("key", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestChatRejectsEmptyAPIKey(t *testing.T) {
	m := NewChatModel("", "")
	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestExtractSystemPromptSeparatesSystemMessages(t *testing.T) {
	system, rest := extractSystemPrompt([]model.Message{
		{Role: model.RoleSystem, Content: "be terse"},
		{Role: model.RoleSystem, Content: "and helpful"},
		{Role: model.RoleUser, Content: "hi"},
	})
	if system != "be terse\n\nand helpful" {
		t.Errorf("expected joined system prompt, got %q", system)
	}
	if len(rest) != 1 || rest[0].Role != model.RoleUser {
		t.Errorf("expected only the user message to remain, got %+v", rest)
	}
}

func TestExtractSystemPromptNoSystemMessages(t *testing.T) {
	system, rest := extractSystemPrompt([]model.Message{
		{Role: model.RoleUser, Content: "hi"},
	})
	if system != "" {
		t.Errorf("expected empty system prompt, got %q", system)
	}
	if len(rest) != 1 {
		t.Errorf("expected 1 message to remain, got %d", len(rest))
	}
}

func TestConvertMessagesMapsAssistantAndUser(t *testing.T) {
	out := convertMessages([]model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 converted messages, got %d", len(out))
	}
}

func TestConvertToolsCarriesNameAndSchema(t *testing.T) {
	out := convertTools([]model.ToolSpec{
		{
			Name:        "search",
			Description: "web search",
			Schema: map[string]any{
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []string{"query"},
			},
		},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 converted tool, got %d", len(out))
	}
	if out[0].OfTool == nil || out[0].OfTool.Name != "search" {
		t.Fatalf("expected tool named 'search', got %+v", out[0])
	}
	if req := out[0].OfTool.InputSchema.Required; len(req) != 1 || req[0] != "query" {
		t.Fatalf("expected required=[query] in input schema, got %v", req)
	}
}

func TestConvertToolsHandlesNilSchema(t *testing.T) {
	out := convertTools([]model.ToolSpec{{Name: "noop"}})
	if len(out) != 1 || out[0].OfTool.Name != "noop" {
		t.Fatalf("expected 1 tool named 'noop', got %+v", out)
	}
}
