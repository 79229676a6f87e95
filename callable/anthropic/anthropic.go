// Package anthropic adapts the Anthropic Claude API to the callable/model
// ChatModel interface so a flow node can invoke it through callable.ChatNode.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/flowdag/callable/model"
)

// ChatModel implements model.ChatModel against Claude.
type ChatModel struct {
	apiKey    string
	modelName string
}

// NewChatModel builds a ChatModel. An empty modelName defaults to the
// current Claude Sonnet release.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName}
}

func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("anthropic API key is required")
	}

	systemPrompt, conversation := extractSystemPrompt(messages)

	client := anthropicsdk.NewClient(option.WithAPIKey(m.apiKey))
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(m.modelName),
		Messages:  convertMessages(conversation),
		MaxTokens: 4096,
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic API error: %w", err)
	}
	return convertResponse(resp), nil
}

func extractSystemPrompt(messages []model.Message) (string, []model.Message) {
	var system string
	var rest []model.Message
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

func convertMessages(messages []model.Message) []anthropicsdk.MessageParam {
	out := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleAssistant:
			out[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content))
		default:
			out[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content))
		}
	}
	return out
}

func convertTools(tools []model.ToolSpec) []anthropicsdk.ToolUnionParam {
	out := make([]anthropicsdk.ToolUnionParam, len(tools))
	for i, tool := range tools {
		var properties any
		var required []string
		if tool.Schema != nil {
			properties = tool.Schema["properties"]
			if req, ok := tool.Schema["required"].([]string); ok {
				required = req
			}
		}
		out[i] = anthropicsdk.ToolUnionParam{
			OfTool: &anthropicsdk.ToolParam{
				Name:        tool.Name,
				Description: anthropicsdk.String(tool.Description),
				InputSchema: anthropicsdk.ToolInputSchemaParam{Properties: properties, Required: required},
			},
		}
	}
	return out
}

func convertResponse(resp *anthropicsdk.Message) model.ChatOut {
	var out model.ChatOut
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropicsdk.TextBlock:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += b.Text
		case anthropicsdk.ToolUseBlock:
			input, _ := b.Input.(map[string]any)
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{Name: b.Name, Input: input})
		}
	}
	return out
}
