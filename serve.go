package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-extractor/internal/api"
	"github.com/insightdelivered/statement-extractor/internal/classify"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/statement"
)

func newServeCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction API over HTTP",
		Long: `Starts the HTTP API. Configuration comes from the environment (and a .env
file when present): STATEMENT_ADDR, STATEMENT_BODY_LIMIT_MB,
STATEMENT_HEURISTICS, STATEMENT_RULES, STATEMENT_CLASSIFY_CONCURRENCY,
STATEMENT_CLASSIFY_TIMEOUT, STATEMENT_CLASSIFY_BATCH and
STATEMENT_FALLBACK_CATEGORY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.SetLogger(logging.NewText(cmd.ErrOrStderr(), verbose))
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine decisions to stderr")
	return cmd
}

func runServe(ctx context.Context) error {
	log := logging.Logger()

	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	h, err := config.LoadHeuristics(cfg.HeuristicsPath)
	if err != nil {
		return err
	}
	runner, err := newRunner(true, cfg.RulesPath, classify.Options{
		Concurrency: cfg.ClassifyConcurrency,
		BatchSize:   cfg.ClassifyBatch,
		Timeout:     cfg.ClassifyTimeout,
		Fallback:    cfg.FallbackCategory,
	})
	if err != nil {
		return err
	}

	handler := api.NewHandler(statement.NewEngine(h), runner, api.NewMetrics())
	app := api.NewApp(handler, cfg.BodyLimitMB)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", cfg.Addr))
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
