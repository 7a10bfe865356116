package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/reviewscan/internal/fetch"
	"github.com/nao1215/reviewscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// Request is one source of a batch. When Content is non-nil it is
// analyzed directly and Source is used as its name.
type Request struct {
	Source  string
	Content []byte
	Limit   int
}

// BatchProcessor analyzes several sources concurrently.
type BatchProcessor struct {
	analyzer    *Analyzer
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor over analyzer.
func NewBatchProcessor(analyzer *Analyzer, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		analyzer:    analyzer,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes every request and returns one analysis per
// request, in request order. A failed analysis carries its error in
// Analysis.Error; only cancellation of ctx is returned as an error.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, requests []Request) ([]*model.Analysis, error) {
	bp.logger.Debug("starting batch",
		"total_sources", len(requests),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*model.Analysis, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, req := range requests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = failedAnalysis(req, err)
				return err
			}

			analysis, err := bp.analyze(ctx, req)
			if analysis == nil {
				analysis = failedAnalysis(req, err)
			}
			results[i] = analysis

			if err != nil {
				bp.logger.Warn("analysis failed", "source", req.Source, "error", err)
				return nil
			}
			bp.logger.Debug("analysis completed",
				"source", req.Source,
				"analyzed", analysis.Result.TotalAnalyzed,
			)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Debug("batch complete",
		"total_sources", len(requests),
		"elapsed", time.Since(start),
	)
	return results, err
}

func (bp *BatchProcessor) analyze(ctx context.Context, req Request) (*model.Analysis, error) {
	if req.Content != nil {
		return bp.analyzer.AnalyzeNamedContent(ctx, req.Source, req.Content, req.Limit)
	}
	return bp.analyzer.Analyze(ctx, req.Source, req.Limit)
}

// failedAnalysis records an error that happened before the pipeline ran.
func failedAnalysis(req Request, err error) *model.Analysis {
	var a *model.Analysis
	if req.Content == nil && fetch.IsURL(req.Source) {
		a = model.NewURLAnalysis(req.Source, req.Limit)
	} else {
		a = model.NewContentAnalysis(req.Source, req.Content, req.Limit)
	}
	a.Fail(err)
	return a
}
