package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "reviewscan"

	// DefaultLimit is the maximum number of reviews extracted per page.
	DefaultLimit = 50

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the number of sources analyzed concurrently.
	DefaultBatchSize = 4

	// DefaultMaxBodySize limits the response body read from a product page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent is sent with page fetches. Review pages commonly
	// serve a stripped page to unknown clients, so it looks like a desktop
	// browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"

	// DefaultAcceptLanguage is sent with page fetches.
	DefaultAcceptLanguage = "en-US,en;q=0.9"

	// DefaultListenAddr is the address the HTTP server binds to.
	DefaultListenAddr = ":5000"

	// DefaultRenderWait is how long the headless browser waits after the
	// page is ready before taking the DOM snapshot.
	DefaultRenderWait = 2 * time.Second

	// ModelFileName is the classifier artifact file name.
	ModelFileName = "fake_review_model.json"

	// VectorizerFileName is the vectorizer artifact file name.
	VectorizerFileName = "tfidf_vectorizer.json"

	// ModelDirEnv overrides the model directory when set.
	ModelDirEnv = "REVIEWSCAN_MODEL_DIR"
)

// Config holds all configuration options for reviewscan.
// It is populated from flags and the config file and passed through the
// application explicitly.
type Config struct {
	// ModelDir is the directory holding the two pretrained artifacts.
	ModelDir string

	// Limit is the maximum number of candidate reviews per page.
	Limit int

	// Timeout bounds each page fetch.
	Timeout time.Duration

	// BatchSize is the number of sources analyzed concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .reviewscan is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path. Empty means stdout.
	ReportFile string

	// Sources are the URLs, files or "-" (stdin) to analyze.
	Sources []string

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores every analysis in the history database.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with page fetches.
	UserAgent string

	// AcceptLanguage is the Accept-Language header sent with page fetches.
	AcceptLanguage string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// Render fetches pages through a headless browser so that reviews
	// inserted by JavaScript are present in the markup.
	Render bool

	// RenderWait is the extra wait before the rendered DOM is captured.
	RenderWait time.Duration

	// ListenAddr is the HTTP server address for the serve command.
	ListenAddr string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ModelDir:       DefaultModelDir(),
		Limit:          DefaultLimit,
		Timeout:        DefaultTimeout,
		BatchSize:      DefaultBatchSize,
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		MaxBodySize:    DefaultMaxBodySize,
		RenderWait:     DefaultRenderWait,
		ListenAddr:     DefaultListenAddr,
		SiteConfigs:    &File{Sites: make(map[string]SiteConfig)},
	}
}

// DefaultModelDir returns the model directory used when no flag is given.
// REVIEWSCAN_MODEL_DIR wins; otherwise ./model is used when it exists,
// and the XDG data directory after that.
func DefaultModelDir() string {
	if dir := os.Getenv(ModelDirEnv); dir != "" {
		return dir
	}
	if info, err := os.Stat("model"); err == nil && info.IsDir() {
		return "model"
	}
	return filepath.Join(XDGDataDir(), "model")
}

// ModelPath returns the path of the classifier artifact.
func (c *Config) ModelPath() string {
	return filepath.Join(c.ModelDir, ModelFileName)
}

// VectorizerPath returns the path of the vectorizer artifact.
func (c *Config) VectorizerPath() string {
	return filepath.Join(c.ModelDir, VectorizerFileName)
}

// XDGDataDir returns the XDG data directory for reviewscan.
// On Linux: ~/.local/share/reviewscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for reviewscan.
// On Linux: ~/.config/reviewscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Limit < 0 {
		return ErrInvalidLimit
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RenderWait < 0 {
		return ErrInvalidRenderWait
	}
	if c.ModelDir == "" {
		return ErrNoModelDir
	}
	return nil
}

// ValidateForAnalyze runs Validate and also requires at least one source.
func (c *Config) ValidateForAnalyze() error {
	if len(c.Sources) == 0 {
		return ErrNoSource
	}
	return c.Validate()
}

// SiteFor returns the merged site configuration for a host.
func (c *Config) SiteFor(host string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(host)
}

// LimitFor returns the candidate limit for a host: the site override
// when one is set, the global limit otherwise.
func (c *Config) LimitFor(host string) int {
	if site := c.SiteFor(host); site.Limit > 0 {
		return site.Limit
	}
	return c.Limit
}
