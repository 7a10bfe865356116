package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/log"
	"github.com/nao1215/reviewscan/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review analyzer over HTTP",
		Long: `Serve starts an HTTP server with an HTML form, a JSON API and
Prometheus metrics.

Endpoints:
  GET  /             HTML form
  POST /predict      HTML result page (form field "url")
  POST /api/analyze  JSON analysis of {"url": "...", "limit": 50}
  GET  /health       liveness check
  GET  /ready        readiness check (503 until the model is loaded)
  GET  /metrics      Prometheus metrics

Examples:
  reviewscan serve
  reviewscan serve --addr 127.0.0.1:8080 --models ./model`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultListenAddr,
		"Address to listen on")
	cmd.Flags().StringP("models", "M", "",
		"Directory holding fake_review_model.json and tfidf_vectorizer.json")
	cmd.Flags().IntP("limit", "n", config.DefaultLimit,
		"Default maximum number of reviews extracted per page")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page fetch")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .reviewscan in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureServiceLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	metrics := server.NewMetrics()
	analyzer := newAnalyzer(cfg, logger, metrics.ObserveReview)

	srv := server.New(analyzer,
		server.WithAddr(cfg.ListenAddr),
		server.WithLimit(cfg.Limit),
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", srv.Addr())
	return srv.Run(ctx)
}

// buildServeConfig creates a Config from the serve flags.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.ListenAddr, err = cmd.Flags().GetString("addr")
	if err != nil {
		return nil, err
	}

	modelDir, err := cmd.Flags().GetString("models")
	if err != nil {
		return nil, err
	}
	if modelDir != "" {
		cfg.ModelDir = modelDir
	}

	cfg.Limit, err = cmd.Flags().GetInt("limit")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	if err := loadConfigFile(cmd, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
