package main

import (
	"io"
	"log/slog"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/fetch"
	"github.com/nao1215/reviewscan/internal/log"
	"github.com/nao1215/reviewscan/internal/ml"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the masking logger used by every command.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	return log.NewSecureLogger(w, verbose)
}

// loadConfigFile resolves the --config flag into cfg.SiteConfigs.
func loadConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	return config.Load(cfg)
}

// newFetcher builds the fetcher shared by analyze and serve: plain HTTP,
// or a headless browser for sites with render enabled.
func newFetcher(cfg *config.Config, logger *slog.Logger) fetch.Fetcher {
	return &fetch.Router{
		HTTP: fetch.NewHTTPFetcher(
			fetch.WithTimeout(cfg.Timeout),
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithAcceptLanguage(cfg.AcceptLanguage),
			fetch.WithMaxBodySize(cfg.MaxBodySize),
			fetch.WithLogger(logger),
		),
		Browser: fetch.NewBrowserFetcher(
			fetch.WithBrowserTimeout(cfg.Timeout),
			fetch.WithRenderWait(cfg.RenderWait),
			fetch.WithBrowserUserAgent(cfg.UserAgent),
			fetch.WithBrowserMaxBodySize(cfg.MaxBodySize),
			fetch.WithBrowserLogger(logger),
		),
		RenderAll: cfg.Render,
	}
}

// newAnalyzer loads the artifacts once and builds the analyzer.
// A load failure is logged here; the analyzer then fails every call
// with a configuration error.
func newAnalyzer(cfg *config.Config, logger *slog.Logger, observer func(model.ClassifiedReview)) *pipeline.Analyzer {
	opts := []pipeline.AnalyzerOption{
		pipeline.WithAnalyzerLogger(logger),
		pipeline.WithFetcher(newFetcher(cfg, logger)),
		pipeline.WithSites(cfg),
	}
	if observer != nil {
		opts = append(opts, pipeline.WithObserver(observer))
	}

	artifacts, err := ml.LoadArtifacts(cfg.ModelPath(), cfg.VectorizerPath())
	if err != nil {
		logger.Error("failed to load pretrained artifacts",
			"model", cfg.ModelPath(),
			"vectorizer", cfg.VectorizerPath(),
			"error", err,
		)
		opts = append(opts, pipeline.WithLoadError(err))
	} else {
		logger.Info("pretrained artifacts loaded",
			"model_dir", cfg.ModelDir,
			"classifier", artifacts.Classifier.Kind(),
			"features", artifacts.Vectorizer.Dim(),
			"fingerprint", artifacts.ShortFingerprint(),
		)
		opts = append(opts, pipeline.WithArtifacts(artifacts))
	}

	return pipeline.NewAnalyzer(opts...)
}
