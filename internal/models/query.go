package models

import (
	"fmt"
	"strings"
)

// QueryRequest is the body of a retrieval request.
type QueryRequest struct {
	ConversationHistory string `json:"conversationHistory"`
	Prompt              string `json:"prompt"`
}

// Validate checks that the caller identity and prompt are present.
func (q *QueryRequest) Validate(userID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: missing user id or prompt", ErrValidation)
	}
	return nil
}

// QueryResponse is handed to the downstream answer generator.
type QueryResponse struct {
	Summary             string   `json:"summary"`
	URLs                []string `json:"urls"`
	ConversationHistory string   `json:"conversationHistory"`
	Prompt              string   `json:"prompt"`
	Template            string   `json:"template"`
	Inquiry             string   `json:"inquiry,omitempty"`
}
