package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/dshills/flowdag/callable"
	"github.com/dshills/flowdag/callable/anthropic"
	"github.com/dshills/flowdag/callable/google"
	"github.com/dshills/flowdag/callable/openai"
	"github.com/dshills/flowdag/dagcore"
	"github.com/dshills/flowdag/loader"
)

// buildRegistry turns every uses-block a flow document declared into a
// concrete dagcore.Callable, keyed by node name. Provider API keys come
// from the layered config (env / .env / flowdag.yaml), never from the flow
// document itself.
func buildRegistry(specs []loader.CallableSpec) (dagcore.Registry, error) {
	registry := make(dagcore.MapRegistry, len(specs))
	for _, spec := range specs {
		c, err := buildCallable(spec)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", spec.NodeName, err)
		}
		if rps, ok := configFloat(spec.Config, "rate_limit_rps"); ok {
			burst := 1
			if b, ok := configFloat(spec.Config, "rate_limit_burst"); ok {
				burst = int(b)
			}
			c = callable.NewRateLimited(c, rps, burst)
		}
		registry[spec.NodeName] = c
	}
	return registry, nil
}

func buildCallable(spec loader.CallableSpec) (dagcore.Callable, error) {
	switch spec.Type {
	case "http":
		return callable.NewHTTPTool(), nil
	case "chat.anthropic":
		model := configString(spec.Config, "model")
		return callable.NewChatNode(anthropic.NewChatModel(viper.GetString("ANTHROPIC_API_KEY"), model)), nil
	case "chat.openai":
		model := configString(spec.Config, "model")
		return callable.NewChatNode(openai.NewChatModel(viper.GetString("OPENAI_API_KEY"), model)), nil
	case "chat.google":
		model := configString(spec.Config, "model")
		return callable.NewChatNode(google.NewChatModel(viper.GetString("GOOGLE_API_KEY"), model)), nil
	default:
		return nil, fmt.Errorf("unknown callable type %q", spec.Type)
	}
}

func configString(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return s
}

func configFloat(cfg map[string]any, key string) (float64, bool) {
	switch v := cfg[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
