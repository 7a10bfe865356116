package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxPageSize is the maximum size of raw page content kept in memory.
// Larger responses are truncated to this size before extraction.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Page represents a fetched product page.
// It is transient: the pipeline reads it once and never persists it.
type Page struct {
	// URL is the address the page was fetched from.
	// Empty when the caller supplied the content directly.
	URL string `json:"url,omitempty"`

	// StatusCode is the HTTP response status code.
	// Zero for pre-fetched content.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type,omitempty"`

	// Raw contains the response body bytes.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of the raw content.
	Hash string `json:"hash,omitempty"`

	// FetchDuration is how long the fetch took.
	FetchDuration time.Duration `json:"fetch_duration,omitempty"`
}

// NewContentPage wraps pre-fetched content in a Page.
func NewContentPage(content []byte) *Page {
	p := &Page{Raw: content}
	p.TruncateRaw()
	p.ComputeHash()
	return p
}

// ComputeHash calculates and sets the SHA-256 hash of the raw content.
// Empty content leaves the hash empty.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}
	h := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(h[:])
}

// TruncateRaw truncates the raw content to MaxPageSize.
func (p *Page) TruncateRaw() {
	if len(p.Raw) > MaxPageSize {
		p.Raw = p.Raw[:MaxPageSize]
	}
}

// Size returns the number of raw content bytes.
func (p *Page) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Raw)
}
