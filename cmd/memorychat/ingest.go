package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoangv97/memorychat/internal/cli"
	"github.com/hoangv97/memorychat/internal/models"
)

var (
	ingestFile      string
	ingestUser      string
	ingestAssistant string
	ingestServer    string
	ingestOutput    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Store one user/assistant exchange in memory",
	Long: `Store one user/assistant exchange in memory.

The exchange comes from --user/--assistant, or from --file holding an /embed request body
({"messages": [...]}); use --file - to read it from stdin. With --server the request is sent
to a running server, otherwise the exchange is ingested locally.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(ingestOutput)
		if err != nil {
			return err
		}
		req, err := buildEmbedRequest(ingestFile, cmd.InOrStdin(), ingestUser, ingestAssistant)
		if err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}

		if ingestServer != "" {
			resp, err := cli.NewClient(ingestServer, 0).Embed(cmd.Context(), req)
			if err != nil {
				return err
			}
			return cli.WriteEmbedResponse(cmd.OutOrStdout(), resp, format)
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			return err
		}
		defer components.Close()

		ex, err := components.Indexer.Ingest(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		return cli.WriteEmbedResponse(cmd.OutOrStdout(),
			&models.EmbedResponse{Message: "Done", ExchangeID: ex.ID, SourceURL: ex.SourceURL}, format)
	},
}

// buildEmbedRequest reads a request body from file ("-" for stdin) or builds one from the
// user and assistant texts. Exactly one of the two sources must be given.
func buildEmbedRequest(file string, stdin io.Reader, user, assistant string) (*models.EmbedRequest, error) {
	if file != "" {
		if user != "" || assistant != "" {
			return nil, errors.New("use either --file or --user/--assistant, not both")
		}
		r := stdin
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}
		var req models.EmbedRequest
		if err := json.NewDecoder(r).Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
		}
		return &req, nil
	}
	if user == "" && assistant == "" {
		return nil, errors.New("nothing to ingest: pass --user and --assistant, or --file")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return &models.EmbedRequest{Messages: []models.Message{
		{Role: "user", Content: user, CreatedAt: now},
		{Role: "assistant", Content: assistant, CreatedAt: now},
	}}, nil
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "JSON request body file, or - for stdin")
	ingestCmd.Flags().StringVar(&ingestUser, "user", "", "user message")
	ingestCmd.Flags().StringVar(&ingestAssistant, "assistant", "", "assistant message")
	ingestCmd.Flags().StringVar(&ingestServer, "server", "", "send to a running server (e.g. http://localhost:8080)")
	ingestCmd.Flags().StringVarP(&ingestOutput, "output", "o", "text", "output format: text or json")
	rootCmd.AddCommand(ingestCmd)
}
