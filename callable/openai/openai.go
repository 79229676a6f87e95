// Package openai adapts the OpenAI chat completions API to the
// callable/model ChatModel interface.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dshills/flowdag/callable/model"
)

// ChatModel implements model.ChatModel against OpenAI, retrying transient
// failures (timeouts, connection errors, 5xx, rate limits) with a linear
// backoff.
type ChatModel struct {
	apiKey     string
	modelName  string
	maxRetries int
	retryDelay time.Duration
}

// NewChatModel builds a ChatModel. An empty modelName defaults to gpt-4o.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName, maxRetries: 3, retryDelay: time.Second}
}

func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		out, err := m.chatOnce(ctx, messages, tools)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isTransientError(err) {
			return model.ChatOut{}, err
		}
		if attempt >= m.maxRetries {
			break
		}
		delay := m.retryDelay * time.Duration(attempt+1)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}
	return model.ChatOut{}, fmt.Errorf("openai API failed after %d retries: %w", m.maxRetries, lastErr)
}

func (m *ChatModel) chatOnce(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("openai API key is required")
	}

	client := openaisdk.NewClient(option.WithAPIKey(m.apiKey))
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(m.modelName),
		Messages: convertMessages(messages),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("openai API error: %w", err)
	}
	return convertResponse(resp), nil
}

func isTransientError(err error) bool {
	msgLower := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "network", "connection", "temporary", "rate limit", "503", "502", "500"} {
		if strings.Contains(msgLower, pattern) {
			return true
		}
	}
	return false
}

func convertMessages(messages []model.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out[i] = openaisdk.SystemMessage(msg.Content)
		case model.RoleAssistant:
			out[i] = openaisdk.AssistantMessage(msg.Content)
		default:
			out[i] = openaisdk.UserMessage(msg.Content)
		}
	}
	return out
}

func convertTools(tools []model.ToolSpec) []openaisdk.ChatCompletionToolParam {
	out := make([]openaisdk.ChatCompletionToolParam, len(tools))
	for i, tool := range tools {
		out[i] = openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openaisdk.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Schema),
			},
		}
	}
	return out
}

func convertResponse(resp *openaisdk.ChatCompletion) model.ChatOut {
	var out model.ChatOut
	if len(resp.Choices) == 0 {
		return out
	}
	msg := resp.Choices[0].Message
	out.Text = msg.Content
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			Name:  tc.Function.Name,
			Input: parseToolInput(tc.Function.Arguments),
		})
	}
	return out
}

func parseToolInput(jsonStr string) map[string]any {
	if jsonStr == "" {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return map[string]any{"_raw": jsonStr}
	}
	return result
}
