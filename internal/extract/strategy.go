package extract

import (
	"log/slog"
	"strings"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Strategy extracts candidate review texts from a page.
//
// Extract returns at most limit candidates in document order, numbered
// from zero. A limit of zero returns an empty slice.
type Strategy interface {
	Extract(page []byte, limit int) []model.Candidate

	// Name returns a short description used in logs.
	Name() string
}

// Option configures a strategy.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report parse failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// ForSite returns the strategy configured for a site: a SelectorStrategy
// when the site names a selector, a MarkerStrategy otherwise.
func ForSite(site config.SiteConfig, opts ...Option) Strategy {
	if site.Selector != "" {
		return NewSelectorStrategy(site.Selector, opts...)
	}
	return NewMarkerStrategy(site.EffectiveMarker(), opts...)
}

// nodeText returns the text below n the way BeautifulSoup's
// get_text(strip=True) does: every text node trimmed, empty ones dropped,
// the rest concatenated without a separator. Comments and the contents of
// script, style and template elements are ignored.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(strings.TrimSpace(n.Data))
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// getAttr returns the value of the named attribute, or "" and false.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val, true
		}
	}
	return "", false
}
