package callable

import (
	"context"
	"fmt"

	"github.com/dshills/flowdag/callable/model"
	"github.com/dshills/flowdag/dagcore"
)

// ChatNode adapts a model.ChatModel to dagcore.Callable. Parameters:
// "messages" ([]any of {"role": string, "content": string}), optional
// "tools" ([]any of {"name","description","schema"}). Output is a map with
// "text" and "tool_calls".
type ChatNode struct {
	Model model.ChatModel
}

// NewChatNode wraps a chat model as a node callable.
func NewChatNode(m model.ChatModel) *ChatNode {
	return &ChatNode{Model: m}
}

func (c *ChatNode) Signature() dagcore.Signature {
	return dagcore.Signature{Params: []dagcore.ParamSpec{
		{Name: "messages"},
		{Name: "tools", HasDefault: true},
	}}
}

func (c *ChatNode) Invoke(ctx context.Context, params map[string]any) (any, error) {
	rawMessages, ok := params["messages"].([]any)
	if !ok {
		return nil, fmt.Errorf("messages parameter required ([]{role, content})")
	}
	messages := make([]model.Message, 0, len(rawMessages))
	for _, rm := range rawMessages {
		entry, ok := rm.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("each message must be a map with role and content")
		}
		role, _ := entry["role"].(string)
		content, _ := entry["content"].(string)
		messages = append(messages, model.Message{Role: role, Content: content})
	}

	var tools []model.ToolSpec
	if rawTools, ok := params["tools"].([]any); ok {
		for _, rt := range rawTools {
			entry, ok := rt.(map[string]any)
			if !ok {
				continue
			}
			name, _ := entry["name"].(string)
			desc, _ := entry["description"].(string)
			schema, _ := entry["schema"].(map[string]any)
			tools = append(tools, model.ToolSpec{Name: name, Description: desc, Schema: schema})
		}
	}

	out, err := c.Model.Chat(ctx, messages, tools)
	if err != nil {
		return nil, err
	}

	toolCalls := make([]any, 0, len(out.ToolCalls))
	for _, tc := range out.ToolCalls {
		toolCalls = append(toolCalls, map[string]any{"name": tc.Name, "input": tc.Input})
	}
	return map[string]any{"text": out.Text, "tool_calls": toolCalls}, nil
}
