// Package llm wraps text-generation providers behind a single-prompt interface.
package llm

import (
	"context"
	"fmt"

	"github.com/hoangv97/memorychat/internal/config"
)

// Completer returns the model's text reply to a single user prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NewCompleter creates the provider named in cfg.Provider.
func NewCompleter(cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "anthropic", "":
		c, err := NewAnthropicCompleter(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		c, err := NewOpenAICompleter(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: anthropic, openai)", cfg.Provider)
	}
}
