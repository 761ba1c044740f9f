package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hoangv97/memorychat/internal/server"
	"github.com/hoangv97/memorychat/internal/watcher"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (POST /embed, POST /query)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cfg.Vector.IndexName == "" {
			logger.Warn("vector index name is not set; /embed and /query will fail until PINECONE_INDEX_NAME or vector.index_name is configured")
		}

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			return err
		}
		defer components.Close()

		diskPaths := []string{cfg.Storage.DatabasePath}
		if cfg.Vector.PersistPath != "" {
			diskPaths = append(diskPaths, cfg.Vector.PersistPath)
		}
		srv := server.NewServer(
			components.Engine,
			components.Indexer,
			components.Storage,
			&cfg.Server,
			logger,
			server.WithDiskPaths(diskPaths...),
		)

		if cfg.Ingest.InboxDir != "" {
			inbox := watcher.NewInbox(cfg.Ingest.InboxDir, components.Indexer, watcher.WithLogger(logger))
			inboxCtx, inboxCancel := context.WithCancel(context.Background())
			if err := inbox.Start(inboxCtx); err != nil {
				inboxCancel()
				return fmt.Errorf("failed to start inbox: %w", err)
			}
			// Cancel first so an ingestion blocked on an external call cannot hold up Stop.
			defer func() {
				inboxCancel()
				inbox.Stop()
			}()
			if err := inbox.SyncExisting(); err != nil {
				logger.Warn("inbox sync failed", zap.Error(err))
			}
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case err := <-errCh:
			logger.Error("Server failed", zap.Error(err))
			return err
		case <-sigChan:
		}

		logger.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
