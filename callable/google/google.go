// Package google adapts the Google Gemini API to the callable/model
// ChatModel interface.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/flowdag/callable/model"
)

// ChatModel implements model.ChatModel against Gemini.
type ChatModel struct {
	apiKey    string
	modelName string
}

// NewChatModel builds a ChatModel. An empty modelName defaults to
// gemini-2.5-flash.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName}
}

func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("google API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("failed to create Google client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(m.modelName)
	if len(tools) > 0 {
		genModel.Tools = convertTools(tools)
	}

	resp, err := genModel.GenerateContent(ctx, convertMessages(messages)...)
	if err != nil {
		var safetyErr *SafetyFilterError
		if errors.As(err, &safetyErr) {
			return model.ChatOut{}, safetyErr
		}
		return model.ChatOut{}, fmt.Errorf("google API error: %w", err)
	}
	return convertResponse(resp), nil
}

// convertMessages flattens our Message list into Gemini text parts: every
// non-empty message, system prompts included, becomes one part in message
// order, and roles are not carried over.
func convertMessages(messages []model.Message) []genai.Part {
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	return parts
}

func convertTools(tools []model.ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, len(tools))
	for i, tool := range tools {
		declarations[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertSchema(tool.Schema),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertSchema converts a JSON Schema map to genai.Schema, one level of
// properties deep.
func convertSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	result := &genai.Schema{Type: genai.TypeObject}

	if props, ok := schema["properties"].(map[string]any); ok {
		properties := make(map[string]*genai.Schema, len(props))
		for key, val := range props {
			propMap, ok := val.(map[string]any)
			if !ok {
				continue
			}
			propSchema := &genai.Schema{}
			if typeStr, ok := propMap["type"].(string); ok {
				propSchema.Type = convertTypeString(typeStr)
			}
			if desc, ok := propMap["description"].(string); ok {
				propSchema.Description = desc
			}
			properties[key] = propSchema
		}
		result.Properties = properties
	}

	switch required := schema["required"].(type) {
	case []string:
		result.Required = required
	case []any:
		requiredStrs := make([]string, 0, len(required))
		for _, v := range required {
			if s, ok := v.(string); ok {
				requiredStrs = append(requiredStrs, s)
			}
		}
		result.Required = requiredStrs
	}

	return result
}

func convertTypeString(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func convertResponse(resp *genai.GenerateContentResponse) model.ChatOut {
	var out model.ChatOut
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(p)
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{Name: p.Name, Input: p.Args})
		}
	}
	return out
}

// SafetyFilterError reports that Gemini blocked a response via its safety
// filter. Chat returns it only when the SDK's error chain already holds a
// *SafetyFilterError; nothing in this package constructs one, so every
// other SDK error comes back wrapped as a "google API error".
type SafetyFilterError struct {
	reason   string
	category string
}

func (e *SafetyFilterError) Error() string { return "content blocked by safety filter: " + e.category }

// Category returns the safety category that triggered the block.
func (e *SafetyFilterError) Category() string { return e.category }
