package openai

import (
	"context"
	"errors"
	"testing"

	openaisdk "github.com/openai/openai-go"

	"github.com/dshills/flowdag/callable/model"
)

func TestNewChatModelDefaultsModelName(t *testing.T) {
	m := NewChatModel("key", "")
	if m.modelName != "gpt-4o" {
		t.Errorf("expected default model 'gpt-4o', got %q", m.modelName)
	}

	m = NewChatModel("key", "gpt-4-turbo")
	if m.modelName != "gpt-4-turbo" {
		t.Errorf("expected explicit model name to be kept, got %q", m.modelName)
	}
}

func TestChatRejectsCanceledContext(t *testing.T) {
	m := NewChatModel("key", "gpt-4o")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestChatOnceRejectsEmptyAPIKey(t *testing.T) {
	m := NewChatModel("", "gpt-4o")
	_, err := m.chatOnce(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestIsTransientError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("connection timeout"), true},
		{errors.New("rate limit exceeded"), true},
		{errors.New("503 service unavailable"), true},
		{errors.New("invalid api key"), false},
		{errors.New("bad request: missing field"), false},
	}
	for _, c := range cases {
		if got := isTransientError(c.err); got != c.want {
			t.Errorf("isTransientError(%q) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestConvertMessagesMapsRoles(t *testing.T) {
	out := convertMessages([]model.Message{
		{Role: model.RoleSystem, Content: "be terse"},
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	})
	if len(out) != 3 {
		t.Fatalf("expected 3 converted messages, got %d", len(out))
	}
}

func TestConvertToolsCarriesSchema(t *testing.T) {
	out := convertTools([]model.ToolSpec{
		{Name: "search", Description: "web search", Schema: map[string]any{"type": "object"}},
	})
	if len(out) != 1 || out[0].Function.Name != "search" {
		t.Fatalf("unexpected converted tools: %+v", out)
	}
	if out[0].Function.Parameters["type"] != "object" {
		t.Fatalf("expected schema to carry through as parameters, got %+v", out[0].Function.Parameters)
	}
}

func TestConvertResponseEmptyChoices(t *testing.T) {
	out := convertResponse(&openaisdk.ChatCompletion{})
	if out.Text != "" || out.ToolCalls != nil {
		t.Fatalf("expected zero-value ChatOut for empty choices, got %+v", out)
	}
}

func TestConvertResponseExtractsTextAndToolCalls(t *testing.T) {
	resp := &openaisdk.ChatCompletion{
		Choices: []openaisdk.ChatCompletionChoice{
			{
				Message: openaisdk.ChatCompletionMessage{
					Content: "the answer",
					ToolCalls: []openaisdk.ChatCompletionMessageToolCall{
						{Function: openaisdk.ChatCompletionMessageToolCallFunction{Name: "lookup", Arguments: `{"id":"42"}`}},
					},
				},
			},
		},
	}
	out := convertResponse(resp)
	if out.Text != "the answer" {
		t.Fatalf("expected text 'the answer', got %q", out.Text)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Name != "lookup" || out.ToolCalls[0].Input["id"] != "42" {
		t.Fatalf("unexpected tool calls: %+v", out.ToolCalls)
	}
}

func TestParseToolInput(t *testing.T) {
	if got := parseToolInput(""); got != nil {
		t.Errorf("expected nil for empty string, got %+v", got)
	}

	got := parseToolInput(`{"query":"go"}`)
	if got["query"] != "go" {
		t.Errorf("expected parsed query, got %+v", got)
	}

	got = parseToolInput("not json")
	if got["_raw"] != "not json" {
		t.Errorf("expected _raw fallback, got %+v", got)
	}
}
