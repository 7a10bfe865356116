package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/model"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("sends browser headers and returns page", func(t *testing.T) {
		t.Parallel()

		headers := make(chan http.Header, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<span data-hook="review-body">hello</span>`))
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithUserAgent("reviewscan-test"), WithAcceptLanguage("ja-JP"))
		site := config.SiteConfig{Cookie: "session-id=1", Headers: map[string]string{"X-Test": "yes"}}

		page, err := f.Fetch(context.Background(), server.URL+"/dp/B000", site)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		h := <-headers
		gotUA, gotLang := h.Get("User-Agent"), h.Get("Accept-Language")
		gotCookie, gotExtra := h.Get("Cookie"), h.Get("X-Test")
		if gotUA != "reviewscan-test" || gotLang != "ja-JP" {
			t.Errorf("unexpected headers UA=%q lang=%q", gotUA, gotLang)
		}
		if gotCookie != "session-id=1" || gotExtra != "yes" {
			t.Errorf("site headers not applied: cookie=%q extra=%q", gotCookie, gotExtra)
		}
		if page.StatusCode != http.StatusOK || !strings.HasPrefix(page.ContentType, "text/html") {
			t.Errorf("unexpected page %+v", page)
		}
		if string(page.Raw) != `<span data-hook="review-body">hello</span>` {
			t.Errorf("unexpected body %q", page.Raw)
		}
		if page.Hash == "" {
			t.Error("expected hash")
		}
	})

	t.Run("default headers", func(t *testing.T) {
		t.Parallel()

		headers := make(chan http.Header, 1)
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
		}))
		defer server.Close()

		if _, err := NewHTTPFetcher().Fetch(context.Background(), server.URL, config.SiteConfig{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		h := <-headers
		gotUA, gotLang := h.Get("User-Agent"), h.Get("Accept-Language")
		if gotUA != config.DefaultUserAgent || gotLang != config.DefaultAcceptLanguage {
			t.Errorf("unexpected default headers UA=%q lang=%q", gotUA, gotLang)
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
		}))
		defer server.Close()

		page, err := NewHTTPFetcher(WithMaxBodySize(100)).Fetch(context.Background(), server.URL, config.SiteConfig{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Size() != 100 {
			t.Errorf("expected 100 bytes, got %d", page.Size())
		}
	})

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithMaxAttempts(3), WithRetryDelay(time.Millisecond))
		page, err := f.Fetch(context.Background(), server.URL, config.SiteConfig{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(page.Raw) != "ok" || calls.Load() != 3 {
			t.Errorf("expected success on third attempt, got %d calls", calls.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithMaxAttempts(3), WithRetryDelay(time.Millisecond))
		_, err := f.Fetch(context.Background(), server.URL, config.SiteConfig{})
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 status error, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithMaxAttempts(2), WithRetryDelay(time.Millisecond))
		if _, err := f.Fetch(context.Background(), server.URL, config.SiteConfig{}); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
	})

	t.Run("rejects unsupported scheme", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPFetcher().Fetch(context.Background(), "file:///etc/passwd", config.SiteConfig{})
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("expected ErrUnsupportedScheme, got %v", err)
		}
	})

	t.Run("honors canceled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("late"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewHTTPFetcher().Fetch(ctx, server.URL, config.SiteConfig{}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		want   bool
	}{
		{source: "https://www.amazon.com/dp/B000", want: true},
		{source: "http://example.com", want: true},
		{source: "  HTTPS://example.com/x  ", want: true},
		{source: "ftp://example.com", want: false},
		{source: "<html><body></body></html>", want: false},
		{source: "reviews.html", want: false},
		{source: "https://", want: false},
		{source: "", want: false},
	}

	for _, tt := range tests {
		if got := IsURL(tt.source); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

type recordingFetcher struct {
	name  string
	calls *[]string
}

func (r recordingFetcher) Fetch(_ context.Context, _ string, _ config.SiteConfig) (*model.Page, error) {
	*r.calls = append(*r.calls, r.name)
	return &model.Page{}, nil
}

func TestRouter(t *testing.T) {
	t.Parallel()

	var calls []string
	router := &Router{
		HTTP:    recordingFetcher{name: "http", calls: &calls},
		Browser: recordingFetcher{name: "browser", calls: &calls},
	}

	ctx := context.Background()
	_, _ = router.Fetch(ctx, "https://a.example", config.SiteConfig{})
	_, _ = router.Fetch(ctx, "https://b.example", config.SiteConfig{Render: true})
	router.RenderAll = true
	_, _ = router.Fetch(ctx, "https://c.example", config.SiteConfig{})

	want := []string{"http", "browser", "browser"}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}

	noBrowser := &Router{HTTP: recordingFetcher{name: "http", calls: &calls}}
	calls = calls[:0]
	_, _ = noBrowser.Fetch(ctx, "https://d.example", config.SiteConfig{Render: true})
	if len(calls) != 1 || calls[0] != "http" {
		t.Errorf("expected HTTP fallback without a browser, got %v", calls)
	}
}

func TestBrowserFetcher(t *testing.T) {
	t.Parallel()

	t.Run("rejects unsupported scheme before starting chrome", func(t *testing.T) {
		t.Parallel()

		_, err := NewBrowserFetcher().Fetch(context.Background(), "javascript:alert(1)", config.SiteConfig{})
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("expected ErrUnsupportedScheme, got %v", err)
		}
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()

		b := NewBrowserFetcher(
			WithRenderWait(time.Second),
			WithBrowserTimeout(5*time.Second),
			WithBrowserUserAgent("ua"),
			WithExecPath("/usr/bin/chromium"),
		)
		if b.wait != time.Second || b.timeout != 5*time.Second || b.userAgent != "ua" {
			t.Errorf("options not applied: %+v", b)
		}
		base := len(NewBrowserFetcher().allocatorOptions())
		if got := len(b.allocatorOptions()); got != base+1 {
			t.Errorf("expected exec path option, got %d options (base %d)", got, base)
		}
	})
}

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	h := requestHeaders("ua", "en", config.SiteConfig{
		Headers: map[string]string{"Accept-Language": "de-DE"},
		Cookie:  "a=b",
	})
	if h["Accept-Language"] != "de-DE" {
		t.Errorf("site header should override default, got %q", h["Accept-Language"])
	}
	if h["Cookie"] != "a=b" || h["User-Agent"] != "ua" {
		t.Errorf("unexpected headers %v", h)
	}
}
