// Package cli provides output formatting and a server client for the memorychat CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hoangv97/memorychat/internal/models"
	"github.com/hoangv97/memorychat/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to a format. Unknown values are an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteQueryResponse writes a retrieval result to w in the given format.
func WriteQueryResponse(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if resp.Inquiry != "" {
		fmt.Fprintf(w, "Inquiry: %s\n", resp.Inquiry)
	}
	fmt.Fprintf(w, "Sources (%d):\n", len(resp.URLs))
	for _, u := range resp.URLs {
		fmt.Fprintf(w, "  - %s\n", u)
	}
	fmt.Fprintln(w, "Summary:")
	if strings.TrimSpace(resp.Summary) == "" {
		fmt.Fprintln(w, "  (no relevant memories)")
		return nil
	}
	fmt.Fprintln(w, resp.Summary)
	return nil
}

// WriteEmbedResponse writes an ingestion acknowledgement to w in the given format.
func WriteEmbedResponse(w io.Writer, resp *models.EmbedResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%s: exchange %s (%s)\n", resp.Message, resp.ExchangeID, resp.SourceURL)
	return nil
}

// WriteExchanges lists stored exchanges, one per line, with a content preview.
func WriteExchanges(w io.Writer, exchanges []*models.Exchange, format OutputFormat) error {
	if format == OutputJSON {
		if exchanges == nil {
			exchanges = []*models.Exchange{}
		}
		return writeJSON(w, exchanges)
	}
	if len(exchanges) == 0 {
		fmt.Fprintln(w, "No exchanges.")
		return nil
	}
	for _, ex := range exchanges {
		preview := strings.Join(strings.Fields(ex.Content), " ")
		fmt.Fprintf(w, "%s  %s  chunks=%d  %s\n",
			ex.ID, ex.IngestedAt.Format("2006-01-02 15:04"), ex.Chunks, utils.Truncate(preview, 60))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
