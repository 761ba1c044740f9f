package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoangv97/memorychat/internal/models"
)

// APIError is a non-2xx reply from a memorychat server.
type APIError struct {
	StatusCode int
	Message    string
	Stage      string
	URLs       []string
}

func (e *APIError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("server returned %d at %s: %s", e.StatusCode, e.Stage, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running memorychat server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL (e.g. http://localhost:8080).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Embed posts an exchange to /embed.
func (c *Client) Embed(ctx context.Context, req *models.EmbedRequest) (*models.EmbedResponse, error) {
	var out models.EmbedResponse
	if err := c.post(ctx, "/embed", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query posts a retrieval request to /query for userID.
func (c *Client) Query(ctx context.Context, userID string, req *models.QueryRequest) (*models.QueryResponse, error) {
	var out models.QueryResponse
	if err := c.post(ctx, "/query?user_id="+url.QueryEscape(userID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string   `json:"error"`
			Stage string   `json:"stage"`
			URLs  []string `json:"urls"`
		}
		if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
			apiErr.Message, apiErr.Stage, apiErr.URLs = payload.Error, payload.Stage, payload.URLs
		} else {
			apiErr.Message = strings.TrimSpace(string(b))
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
