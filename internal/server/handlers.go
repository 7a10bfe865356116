package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
	"github.com/nao1215/reviewscan/internal/report"
)

// Messages shown on the HTML result page.
const (
	msgMissingURL    = "Please provide a valid URL!"
	msgNotLoaded     = "ML models not loaded. Please check model files!"
	msgNoReviewsPage = "No reviews found! The page might be blocking scraping or has no reviews."
	msgAnalyzeFailed = "Analysis failed. Please try again later."
)

// Outcomes recorded in the requests metric.
const (
	outcomeOK          = "ok"
	outcomeBadRequest  = "bad_request"
	outcomeNoReviews   = "no_reviews"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

var templateFuncs = template.FuncMap{
	"confidence": report.FormatConfidence,
}

// analyzeRequest is the body of POST /api/analyze.
type analyzeRequest struct {
	URL   string `json:"url"`
	Limit *int   `json:"limit"`
}

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error string `json:"error"`
}

// resultPage is the data of result.html.
type resultPage struct {
	Error   string
	URL     string
	Summary report.Summary
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Ready": s.analyzer.Ready()})
}

func (s *Server) handlePredict(c *gin.Context) {
	url := strings.TrimSpace(c.PostForm("url"))
	if url == "" {
		s.metrics.Requests.WithLabelValues("predict", outcomeBadRequest).Inc()
		c.HTML(http.StatusOK, "result.html", resultPage{Error: msgMissingURL})
		return
	}

	analysis, err := s.analyze(c.Request.Context(), "predict", url, s.limit)
	if err != nil {
		c.HTML(http.StatusOK, "result.html", resultPage{URL: url, Error: pageMessage(err)})
		return
	}

	c.HTML(http.StatusOK, "result.html", resultPage{URL: url, Summary: report.NewSummary(analysis)})
}

func (s *Server) handleAPIAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.Requests.WithLabelValues("api", outcomeBadRequest).Inc()
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		s.metrics.Requests.WithLabelValues("api", outcomeBadRequest).Inc()
		c.JSON(http.StatusBadRequest, errorResponse{Error: "URL is required"})
		return
	}

	limit := s.limit
	if req.Limit != nil {
		limit = *req.Limit
	}

	analysis, err := s.analyze(c.Request.Context(), "api", url, limit)
	if err != nil {
		c.JSON(apiStatus(err), errorResponse{Error: apiMessage(err)})
		return
	}

	c.JSON(http.StatusOK, report.NewSummary(analysis))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	if err := s.analyzer.CheckReady(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  msgNotLoaded,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "ready",
		"model_fingerprint": s.analyzer.Fingerprint(),
	})
}

// analyze runs one analysis and records its metrics.
func (s *Server) analyze(ctx context.Context, endpoint, url string, limit int) (*model.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, url, limit)
	elapsed := time.Since(start)

	s.metrics.ObserveAnalysis(endpoint, outcome(err), elapsed, analysis)
	if err != nil {
		level := s.logger.Warn
		if errors.Is(err, pipeline.ErrNoReviews) || errors.Is(err, pipeline.ErrInvalidLimit) {
			level = s.logger.Info
		}
		level("analysis failed", "endpoint", endpoint, "url", url, "error", err)
		return analysis, err
	}

	s.logger.Info("analysis completed",
		"endpoint", endpoint,
		"url", url,
		"analyzed", analysis.Result.TotalAnalyzed,
		"fake", analysis.Result.FakeCount(),
		"elapsed", elapsed,
	)
	return analysis, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, pipeline.ErrNoReviews):
		return outcomeNoReviews
	case errors.Is(err, pipeline.ErrConfiguration):
		return outcomeUnavailable
	case errors.Is(err, pipeline.ErrInvalidLimit):
		return outcomeBadRequest
	default:
		return outcomeError
	}
}

func apiStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoReviews):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, pipeline.ErrInvalidLimit):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func apiMessage(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrNoReviews):
		return "No reviews found"
	case errors.Is(err, pipeline.ErrConfiguration):
		return msgNotLoaded
	default:
		return err.Error()
	}
}

func pageMessage(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrNoReviews):
		return msgNoReviewsPage
	case errors.Is(err, pipeline.ErrConfiguration):
		return msgNotLoaded
	default:
		return msgAnalyzeFailed
	}
}
