package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rollix/internal/api"
	"github.com/roach88/rollix/internal/ingest"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Listen   string
	Feed     string

	// RunIDGenerator allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator ingest.RunIDGenerator
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the indexer and serve read models over HTTP",
		Long: `Open the database, resume from the last recorded batch, start the
single-writer delivery loop and serve the read models over HTTP.

When a feed file is configured its deliveries are replayed into the loop
before the server starts accepting queries.

Example:
  rollix serve --db ./rollix.db --listen 127.0.0.1:3000
  rollix serve --config ./rollix.yaml --feed ./deliveries.jsonl --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Feed, "feed", "", "JSONL delivery feed to replay on start (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	st, cfg, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Feed != "" {
		cfg.Feed = opts.Feed
	}

	logger := opts.setupLogging(cfg, cmd.ErrOrStderr())

	genesis, err := cfg.Root()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid genesis root", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	pipeOpts := []ingest.Option{
		ingest.WithGenesisRoot(genesis),
		ingest.WithLogger(logger),
	}
	if opts.RunIDGenerator != nil {
		pipeOpts = append(pipeOpts, ingest.WithRunIDGenerator(opts.RunIDGenerator))
	}
	pipeline := ingest.NewPipeline(st, pipeOpts...)
	if err := pipeline.Resume(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to resume", err)
	}

	runner := ingest.NewRunner(pipeline)
	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(ctx) }()

	if cfg.Feed != "" {
		n, err := enqueueFeed(cfg.Feed, runner)
		if err != nil {
			cancel()
			<-runErr
			return WrapExitError(ExitCommandError, "failed to read feed", err)
		}
		slog.Info("feed enqueued", "path", cfg.Feed, "deliveries", n)
	}

	srv := api.New(st, api.WithLimits(cfg.Query), api.WithLogger(logger))
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Start(cfg.Listen) }()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving read models on %s (run %s)\n", cfg.Listen, pipeline.RunID())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-srvErr:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	if serveErr == nil {
		serveErr = <-srvErr
	}

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "runner error", err)
	}
	if serveErr != nil {
		return WrapExitError(ExitCommandError, "http server failed", serveErr)
	}

	stats := runner.Stats()
	slog.Info("stopped gracefully",
		"events", stats.Events,
		"commits", stats.Commits,
		"checkpoint", pipeline.Root().String(),
	)
	return nil
}
