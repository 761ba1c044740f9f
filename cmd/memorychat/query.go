package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hoangv97/memorychat/internal/cli"
	"github.com/hoangv97/memorychat/internal/models"
)

var (
	queryUserID      string
	queryHistory     string
	queryHistoryFile string
	queryServer      string
	queryOutput      string
)

var queryCmd = &cobra.Command{
	Use:   "query [flags] <prompt>",
	Short: "Retrieve and summarize memories relevant to a prompt",
	Long: `Retrieve and summarize memories relevant to a prompt.

The prompt is all remaining arguments joined by spaces. The conversation so far can be passed
with --history or --history-file. With --server the query goes to a running server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(queryOutput)
		if err != nil {
			return err
		}
		history, err := readHistory(queryHistory, queryHistoryFile)
		if err != nil {
			return err
		}
		req := &models.QueryRequest{Prompt: buildPrompt(args), ConversationHistory: history}
		if err := req.Validate(queryUserID); err != nil {
			return err
		}

		if queryServer != "" {
			resp, err := cli.NewClient(queryServer, 0).Query(cmd.Context(), queryUserID, req)
			if err != nil {
				return err
			}
			return cli.WriteQueryResponse(cmd.OutOrStdout(), resp, format)
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

		res, err := components.Engine.Retrieve(cmd.Context(), req.Prompt, req.ConversationHistory)
		if err != nil {
			if res != nil && res.Aggregation != nil && len(res.Aggregation.Sources) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "matched sources: %s\n", strings.Join(res.Aggregation.Sources, ", "))
			}
			return fmt.Errorf("query failed: %w", err)
		}
		return cli.WriteQueryResponse(cmd.OutOrStdout(), res.Response(req.Prompt, req.ConversationHistory), format)
	},
}

// buildPrompt joins args so multi-word prompts work with or without quotes.
func buildPrompt(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func readHistory(inline, file string) (string, error) {
	if file == "" {
		return inline, nil
	}
	if inline != "" {
		return "", errors.New("use either --history or --history-file, not both")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read history: %w", err)
	}
	return string(data), nil
}

func init() {
	queryCmd.Flags().StringVarP(&queryUserID, "user-id", "u", "cli", "caller identity sent as user_id")
	queryCmd.Flags().StringVar(&queryHistory, "history", "", "conversation so far")
	queryCmd.Flags().StringVar(&queryHistoryFile, "history-file", "", "file holding the conversation so far")
	queryCmd.Flags().StringVar(&queryServer, "server", "", "query a running server (e.g. http://localhost:8080)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "text", "output format: text or json")
	rootCmd.AddCommand(queryCmd)
}
