package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/database"
	"github.com/nao1215/reviewscan/internal/fetch"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
	"github.com/nao1215/reviewscan/internal/report"
	"github.com/spf13/cobra"
)

// stdinSource is the source argument that reads page content from stdin.
const stdinSource = "-"

// errAllFailed is returned when no source produced a result.
var errAllFailed = errors.New("no source could be analyzed")

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url|file|-> ...",
		Short: "Classify the reviews of one or more product pages",
		Long: `Analyze extracts the reviews of each source and labels every review FAKE
or GENUINE. A source is a product page URL, a saved HTML file, or "-"
to read HTML from standard input.

Examples:
  # Analyze a product page
  reviewscan analyze "https://www.amazon.com/product-reviews/B000000000"

  # Analyze a saved page and print JSON
  reviewscan analyze --json page.html

  # Render JavaScript-heavy pages with a headless browser
  reviewscan analyze --render https://shop.example/item/42

  # Analyze several pages, four at a time, without saving history
  reviewscan analyze -b 4 --no-save URL1 URL2 URL3

Configuration file (.reviewscan) example:
  defaults:
    limit: 50
  sites:
    www.flipkart.com:
      selector: "div.t-ZTKy"
      render: true`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultLimit,
		"Maximum number of reviews extracted per page")
	cmd.Flags().StringP("models", "M", "",
		"Directory holding fake_review_model.json and tfidf_vectorizer.json")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page fetch")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sources analyzed concurrently")
	cmd.Flags().BoolP("render", "r", false,
		"Fetch every page through a headless Chrome")
	cmd.Flags().Duration("render-wait", config.DefaultRenderWait,
		"Extra wait for scripts before the rendered page is captured")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .reviewscan in current or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not store the analyses in the history database")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAnalyzeConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateForAnalyze(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
}

// buildAnalyzeConfig creates a Config from cobra command flags.
func buildAnalyzeConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.Limit, err = cmd.Flags().GetInt("limit")
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

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.Render, err = cmd.Flags().GetBool("render")
	if err != nil {
		return nil, err
	}

	cfg.RenderWait, err = cmd.Flags().GetDuration("render-wait")
	if err != nil {
		return nil, err
	}

	if err := loadConfigFile(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	cfg.Sources = args

	return cfg, nil
}

// runAnalyze analyzes every source and writes the report.
func runAnalyze(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	requests, err := buildRequests(cfg, stdin)
	if err != nil {
		return err
	}

	analyzer := newAnalyzer(cfg, logger, nil)
	if err := analyzer.CheckReady(); err != nil {
		return fmt.Errorf("%w (model directory: %s)", err, cfg.ModelDir)
	}

	logger.Info("starting analysis",
		"sources", len(requests),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	start := time.Now()
	bp := pipeline.NewBatchProcessor(analyzer,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)
	analyses, err := bp.ProcessBatch(ctx, requests)
	if err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}
	logger.Info("analysis finished", "elapsed", time.Since(start).Round(time.Millisecond))

	if cfg.SaveToDB {
		saveAnalyses(ctx, cfg.DBDir, analyses, logger)
	}

	if err := outputReport(cfg, stdout, analyses); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	for _, a := range analyses {
		if a.Succeeded() {
			return nil
		}
	}
	return errAllFailed
}

// buildRequests turns the source arguments into batch requests.
// URLs are fetched later; files and stdin are read now.
func buildRequests(cfg *config.Config, stdin io.Reader) ([]pipeline.Request, error) {
	requests := make([]pipeline.Request, 0, len(cfg.Sources))
	stdinUsed := false

	for _, source := range cfg.Sources {
		switch {
		case source == stdinSource:
			if stdinUsed {
				return nil, errors.New("standard input can only be read once")
			}
			stdinUsed = true
			content, err := io.ReadAll(io.LimitReader(stdin, cfg.MaxBodySize))
			if err != nil {
				return nil, fmt.Errorf("failed to read standard input: %w", err)
			}
			requests = append(requests, pipeline.Request{Source: "(stdin)", Content: content, Limit: cfg.Limit})

		case fetch.IsURL(source):
			requests = append(requests, pipeline.Request{Source: source, Limit: cfg.LimitFor(hostOf(source))})

		default:
			content, err := readPageFile(source, cfg.MaxBodySize)
			if err != nil {
				return nil, err
			}
			requests = append(requests, pipeline.Request{Source: source, Content: content, Limit: cfg.Limit})
		}
	}

	return requests, nil
}

// readPageFile reads a saved HTML page, up to maxSize bytes.
func readPageFile(path string, maxSize int64) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// saveAnalyses stores the analyses in the history database.
// Failures are logged and never fail the command.
func saveAnalyses(ctx context.Context, dbDir string, analyses []*model.Analysis, logger *slog.Logger) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history database", "dir", dbDir, "error", err)
		return
	}
	defer db.Close()

	for _, a := range analyses {
		if errors.Is(a.Error, pipeline.ErrInvalidLimit) {
			continue
		}
		id, err := db.SaveAnalysis(ctx, a)
		if err != nil {
			logger.Warn("failed to save analysis", "source", a.Source, "error", err)
			continue
		}
		logger.Debug("analysis saved to database", "source", a.Source, "id", id)
	}
}

// outputReport writes the analyses in the requested format.
func outputReport(cfg *config.Config, stdout io.Writer, analyses []*model.Analysis) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports quote review texts, so keep them private to the owner.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	var err error
	if len(analyses) == 1 {
		_, err = writer.Write(analyses[0])
	} else {
		_, err = writer.WriteBatch(analyses)
	}
	return err
}
