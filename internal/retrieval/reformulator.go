package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoangv97/memorychat/internal/llm"
	"github.com/hoangv97/memorychat/internal/prompts"
)

// Reformulator turns the user's prompt and conversation log into a single search question.
type Reformulator struct {
	completer llm.Completer
}

// NewReformulator creates a reformulator.
func NewReformulator(c llm.Completer) *Reformulator {
	return &Reformulator{completer: c}
}

// Reformulate returns the trimmed model question, or userPrompt unchanged when the model
// answers with nothing but whitespace.
func (r *Reformulator) Reformulate(ctx context.Context, userPrompt, history string) (string, error) {
	prompt, err := prompts.Inquiry.Render(map[string]string{
		"userPrompt":          userPrompt,
		"conversationHistory": history,
	})
	if err != nil {
		return "", err
	}
	out, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("reformulate: %w", err)
	}
	if q := strings.TrimSpace(out); q != "" {
		return q, nil
	}
	return userPrompt, nil
}
