// Package models defines core data structures for exchanges, chunks, vector records and queries.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Message is one turn of a conversation as posted by the chat client.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// EmbedRequest is the body of an ingestion request. Only the first two messages are indexed.
type EmbedRequest struct {
	Messages []Message `json:"messages"`
}

// EmbedResponse acknowledges an ingested exchange.
type EmbedResponse struct {
	Message    string `json:"message"`
	ExchangeID string `json:"exchange_id"`
	SourceURL  string `json:"source_url"`
}

// Validate ensures the request carries a user/assistant pair with roles set.
func (r *EmbedRequest) Validate() error {
	if len(r.Messages) < 2 {
		return fmt.Errorf("%w: messages must contain at least 2 entries, got %d", ErrValidation, len(r.Messages))
	}
	for i, m := range r.Messages[:2] {
		if strings.TrimSpace(m.Role) == "" {
			return fmt.Errorf("%w: messages[%d].role is required", ErrValidation, i)
		}
	}
	return nil
}

// ExchangeText joins the first two messages as "role: content" lines.
func (r *EmbedRequest) ExchangeText() string {
	m0, m1 := r.Messages[0], r.Messages[1]
	return fmt.Sprintf("%s: %s\n%s: %s", m0.Role, m0.Content, m1.Role, m1.Content)
}

// Exchange is an ingested user/assistant exchange kept as the source of truth for its vectors.
type Exchange struct {
	ID         string    `json:"id"`
	SourceURL  string    `json:"source_url"`
	Content    string    `json:"content"`
	CreatedAt  string    `json:"created_at,omitempty"`
	Chunks     int       `json:"chunks"`
	IngestedAt time.Time `json:"ingested_at"`
}
