package main

import (
	"github.com/spf13/cobra"

	"github.com/hoangv97/memorychat/internal/cli"
	"github.com/hoangv97/memorychat/internal/storage"
)

var (
	exchangesOffset int
	exchangesLimit  int
	exchangesOutput string
)

var exchangesCmd = &cobra.Command{
	Use:   "exchanges",
	Short: "List ingested exchanges, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(exchangesOutput)
		if err != nil {
			return err
		}
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		// Only the exchange log is needed; no provider keys required.
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		exchanges, err := store.ListExchanges(cmd.Context(), exchangesOffset, exchangesLimit)
		if err != nil {
			return err
		}
		return cli.WriteExchanges(cmd.OutOrStdout(), exchanges, format)
	},
}

func init() {
	exchangesCmd.Flags().IntVar(&exchangesOffset, "offset", 0, "number of exchanges to skip")
	exchangesCmd.Flags().IntVarP(&exchangesLimit, "limit", "n", 20, "maximum number of exchanges to list")
	exchangesCmd.Flags().StringVarP(&exchangesOutput, "output", "o", "text", "output format: text or json")
	rootCmd.AddCommand(exchangesCmd)
}
