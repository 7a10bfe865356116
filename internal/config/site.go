package config

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMarker is the review body marker used when a site sets neither
// a marker nor a selector: <span data-hook="review-body">.
var DefaultMarker = Marker{Tag: "span", Attr: "data-hook", Value: "review-body"}

// Marker identifies review text elements by tag and attribute.
// An empty Tag matches any element; an empty Value matches any value of Attr.
type Marker struct {
	Tag   string `yaml:"tag,omitempty"`
	Attr  string `yaml:"attr"`
	Value string `yaml:"value,omitempty"`
}

// IsZero reports whether the marker is unset.
func (m Marker) IsZero() bool {
	return m.Tag == "" && m.Attr == "" && m.Value == ""
}

// String renders the marker as a CSS-like selector.
func (m Marker) String() string {
	if m.Value == "" {
		return fmt.Sprintf("%s[%s]", m.Tag, m.Attr)
	}
	return fmt.Sprintf("%s[%s=%q]", m.Tag, m.Attr, m.Value)
}

// SiteConfig holds settings for one review site.
type SiteConfig struct {
	// Selector is a CSS selector for review text elements.
	// When set it takes precedence over Marker.
	Selector string `yaml:"selector,omitempty"`

	// Marker identifies review text elements by tag and attribute.
	Marker Marker `yaml:"marker,omitempty"`

	// Headers are extra HTTP headers sent to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is an HTTP cookie sent to this site.
	Cookie string `yaml:"cookie,omitempty"`

	// Limit overrides the global review limit for this site.
	Limit int `yaml:"limit,omitempty"`

	// Render fetches this site through the headless browser.
	Render bool `yaml:"render,omitempty"`
}

// EffectiveMarker returns the marker to use, DefaultMarker when unset.
func (s SiteConfig) EffectiveMarker() Marker {
	if s.Marker.IsZero() {
		return DefaultMarker
	}
	return s.Marker
}

// File represents the structure of the .reviewscan configuration file.
type File struct {
	// Sites maps host names (e.g. "www.amazon.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// errMarkerWithoutAttr is returned for a marker that has no attribute.
var errMarkerWithoutAttr = errors.New("marker requires attr")

// Validate checks the site entries of the file.
func (cf *File) Validate() error {
	if !cf.Defaults.Marker.IsZero() && cf.Defaults.Marker.Attr == "" {
		return fmt.Errorf("defaults: %w", errMarkerWithoutAttr)
	}
	for host, site := range cf.Sites {
		if !site.Marker.IsZero() && site.Marker.Attr == "" {
			return fmt.Errorf("site %s: %w", host, errMarkerWithoutAttr)
		}
		if site.Limit < 0 {
			return fmt.Errorf("site %s: %w", host, ErrInvalidLimit)
		}
	}
	return nil
}

// GetSiteConfig returns the configuration for a host merged over the
// defaults. The host is matched case-insensitively, and a leading "www."
// is tried both ways.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Selector != "" {
		result.Selector = site.Selector
	}
	if !site.Marker.IsZero() {
		result.Marker = site.Marker
		// A site marker replaces an inherited selector.
		if site.Selector == "" {
			result.Selector = ""
		}
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Limit > 0 {
		result.Limit = site.Limit
	}
	if site.Render {
		result.Render = true
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	if host == "" || cf.Sites == nil {
		return SiteConfig{}, false
	}
	for _, key := range []string{host, "www." + host, strings.TrimPrefix(host, "www.")} {
		for name, site := range cf.Sites {
			if strings.EqualFold(name, key) {
				return site, true
			}
		}
	}
	return SiteConfig{}, false
}
