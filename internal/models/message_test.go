package models

import (
	"errors"
	"testing"
)

func TestEmbedRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *EmbedRequest
		wantErr bool
	}{
		{"no messages", &EmbedRequest{}, true},
		{"one message", &EmbedRequest{Messages: []Message{{Role: "user", Content: "hi"}}}, true},
		{"missing role", &EmbedRequest{Messages: []Message{{Content: "hi"}, {Role: "assistant", Content: "yo"}}}, true},
		{"valid pair", &EmbedRequest{Messages: []Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "yo"}}}, false},
		{"extra messages ignored", &EmbedRequest{Messages: []Message{{Role: "user"}, {Role: "assistant"}, {}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestEmbedRequest_ExchangeText(t *testing.T) {
	req := &EmbedRequest{Messages: []Message{
		{Role: "user", Content: "My dog's name is Rex", CreatedAt: "2024-01-01"},
		{Role: "assistant", Content: "Got it!"},
	}}
	want := "user: My dog's name is Rex\nassistant: Got it!"
	if got := req.ExchangeText(); got != want {
		t.Errorf("ExchangeText() = %q, want %q", got, want)
	}
}

func TestRecordMetadata_MapRoundTrip(t *testing.T) {
	m := RecordMetadata{ChunkText: "c", FullText: "f", SourceURL: "u", CreatedAt: "2024-01-01"}
	if got := RecordMetadataFromMap(m.Map()); got != m {
		t.Errorf("round trip = %+v, want %+v", got, m)
	}
}

func TestMetadataFromChunk(t *testing.T) {
	c := Chunk{Text: "window", Metadata: map[string]string{MetaFullText: "full", MetaSourceURL: "memory://exchanges/1"}}
	got := MetadataFromChunk(c)
	if got.ChunkText != "window" || got.FullText != "full" || got.SourceURL != "memory://exchanges/1" {
		t.Errorf("MetadataFromChunk() = %+v", got)
	}
}
