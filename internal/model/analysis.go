package model

import (
	"net/url"
	"strings"
	"time"
)

// SourceKind tells how the reviewed content reached the pipeline.
type SourceKind string

const (
	// SourceURL means the pipeline fetched the page itself.
	SourceURL SourceKind = "url"

	// SourceContent means the caller supplied the page content.
	SourceContent SourceKind = "content"
)

// Analysis is the record of one analyze call.
// Each pipeline step reads and fills part of it. It is owned by a single
// call and never shared between calls.
type Analysis struct {
	// Source is the URL, or a short description for supplied content.
	Source string `json:"source"`

	// Kind tells whether Source was fetched or supplied.
	Kind SourceKind `json:"kind"`

	// DateAnalyzed is when the analysis started.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// Limit caps the number of extracted candidates.
	Limit int `json:"limit"`

	// Page is the fetched or supplied page. Nil when fetching failed.
	Page *Page `json:"page,omitempty"`

	// Candidates are the extracted strings in document order.
	Candidates []Candidate `json:"-"`

	// Filtered are the candidates that passed the text filter.
	Filtered []Candidate `json:"-"`

	// ExtractedCount is len(Candidates), kept for reports.
	ExtractedCount int `json:"extracted_count"`

	// FilteredCount is len(Filtered), kept for reports.
	FilteredCount int `json:"filtered_count"`

	// Result is set once the classify step has run.
	Result *AnalysisResult `json:"result,omitempty"`

	// ScrapeTime is the time spent fetching and extracting.
	ScrapeTime time.Duration `json:"scrape_time"`

	// ExtractionError records a recovered fetch or parse failure.
	// It is informational only: the failure surfaces as "no reviews".
	ExtractionError string `json:"extraction_error,omitempty"`

	// ModelFingerprint identifies the artifacts used for classification.
	ModelFingerprint string `json:"model_fingerprint,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error holds the error that ended the analysis early.
	Error error `json:"-"`

	// ErrorMessage is Error as text, for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewURLAnalysis creates an analysis for a page that will be fetched.
func NewURLAnalysis(rawURL string, limit int) *Analysis {
	return &Analysis{
		Source:         rawURL,
		Kind:           SourceURL,
		DateAnalyzed:   time.Now(),
		Limit:          limit,
		PerformedSteps: make([]string, 0),
	}
}

// NewContentAnalysis creates an analysis over supplied page content.
func NewContentAnalysis(name string, content []byte, limit int) *Analysis {
	if name == "" {
		name = "(content)"
	}
	return &Analysis{
		Source:         name,
		Kind:           SourceContent,
		DateAnalyzed:   time.Now(),
		Limit:          limit,
		Page:           NewContentPage(content),
		PerformedSteps: make([]string, 0),
	}
}

// Host returns the host of a URL source, lowercased.
// It returns an empty string for supplied content.
func (a *Analysis) Host() string {
	if a.Kind != SourceURL {
		return ""
	}
	u, err := url.Parse(a.Source)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// SetCandidates stores the extracted candidates.
func (a *Analysis) SetCandidates(c []Candidate) {
	a.Candidates = c
	a.ExtractedCount = len(c)
}

// SetFiltered stores the candidates that passed the filter.
func (a *Analysis) SetFiltered(c []Candidate) {
	a.Filtered = c
	a.FilteredCount = len(c)
}

// Fail records the error that ended the analysis.
func (a *Analysis) Fail(err error) {
	a.Error = err
	if err != nil {
		a.ErrorMessage = err.Error()
	}
}

// Succeeded reports whether the analysis produced a result without error.
func (a *Analysis) Succeeded() bool {
	return a.Error == nil && a.Result != nil
}

// ScrapeSeconds returns the scrape time in seconds rounded to two decimals.
func (a *Analysis) ScrapeSeconds() float64 {
	return RoundHundredth(a.ScrapeTime.Seconds())
}
