package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/pipeline"
)

//go:embed templates/*.html
var templatesFS embed.FS

// defaultAnalyzeTimeout bounds one analyze call including fetch retries.
const defaultAnalyzeTimeout = 2 * time.Minute

// DefaultShutdownTimeout bounds how long Run waits for in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// Server serves the analyzer over HTTP.
type Server struct {
	analyzer *pipeline.Analyzer
	metrics  *Metrics
	logger   *slog.Logger
	router   *gin.Engine
	server   *http.Server
	limit    int
	timeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collectors. Pass the same Metrics to
// pipeline.WithObserver to count classified reviews.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLimit sets the default review limit of a request.
func WithLimit(limit int) Option {
	return func(s *Server) {
		if limit >= 0 {
			s.limit = limit
		}
	}
}

// WithAnalyzeTimeout bounds a single analyze call.
func WithAnalyzeTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.server.Addr = addr
	}
}

// New creates a Server and registers its routes.
func New(analyzer *pipeline.Analyzer, opts ...Option) *Server {
	s := &Server{
		analyzer: analyzer,
		limit:    config.DefaultLimit,
		timeout:  defaultAnalyzeTimeout,
		server: &http.Server{
			Addr:              config.DefaultListenAddr,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if analyzer.Ready() {
		s.metrics.ArtifactsLoaded.Set(1)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"),
	))
	s.routes()
	s.server.Handler = s.router

	return s
}

func (s *Server) routes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/predict", s.handlePredict)
	s.router.POST("/api/analyze", s.handleAPIAnalyze)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", s.handleReady)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"addr", s.server.Addr,
			"artifacts_loaded", s.analyzer.Ready(),
			"model_fingerprint", s.analyzer.Fingerprint(),
		)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server", "timeout", DefaultShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return <-errCh
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
