package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/reviewscan/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func conf(v float64) *float64 { return &v }

// createTestAnalysis creates a fetched analysis with one fake and one
// genuine review.
func createTestAnalysis(url string) *model.Analysis {
	a := model.NewURLAnalysis(url, 50)
	a.DateAnalyzed = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	a.ScrapeTime = 1500 * time.Millisecond
	a.ModelFingerprint = "abcdef0123456789"
	a.Page = &model.Page{
		URL:         url,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Raw:         []byte("<html><body>reviews</body></html>"),
	}
	a.Page.ComputeHash()

	result := model.NewAnalysisResult(
		[]model.ClassifiedReview{{Text: "Best product ever, amazing", Label: model.LabelFake, Confidence: conf(88.1), Position: 0}},
		[]model.ClassifiedReview{{Text: "Broke after a week, refund", Label: model.LabelGenuine, Confidence: nil, Position: 1}},
	)
	a.Result = &result
	return a
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if _, err := db.SaveAnalysis(context.Background(), createTestAnalysis("https://shop.example/a")); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		records, err := db.ListAnalyses(context.Background(), "", 0)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("expected 1 record after reopen, got %d", len(records))
		}
	})
}

func TestHistoryDB_SaveAnalysis(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.SaveAnalysis(ctx, createTestAnalysis("https://shop.example/item"))
	if err != nil {
		t.Fatalf("failed to save analysis: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive id, got %d", id)
	}

	records, err := db.ListAnalyses(ctx, "https://shop.example/item", 10)
	if err != nil {
		t.Fatalf("failed to list analyses: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.ID != id || rec.Kind != model.SourceURL || rec.Host != "shop.example" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Total != 2 || rec.FakeCount != 1 || rec.GenuineCount != 1 {
		t.Errorf("unexpected counts %+v", rec)
	}
	if rec.FakePercentage != 50 || rec.GenuinePercentage != 50 {
		t.Errorf("unexpected percentages %+v", rec)
	}
	if rec.ScrapeTime != 1.5 {
		t.Errorf("expected scrape time 1.5, got %v", rec.ScrapeTime)
	}
	if rec.ModelFingerprint != "abcdef0123456789" {
		t.Errorf("unexpected fingerprint %q", rec.ModelFingerprint)
	}
	if !rec.Timestamp.Equal(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", rec.Timestamp)
	}
	if !rec.Succeeded() {
		t.Error("expected a successful record")
	}
}

func TestHistoryDB_SaveFailedAnalysis(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	a := model.NewURLAnalysis("https://shop.example/empty", 50)
	a.Fail(errors.New("no reviews found"))

	id, err := db.SaveAnalysis(ctx, a)
	if err != nil {
		t.Fatalf("failed to save analysis: %v", err)
	}

	records, err := db.ListAnalyses(ctx, "", 0)
	if err != nil {
		t.Fatalf("failed to list analyses: %v", err)
	}
	if len(records) != 1 || records[0].Succeeded() || records[0].Error != "no reviews found" {
		t.Errorf("unexpected records %+v", records)
	}

	got, err := db.GetAnalysis(ctx, id)
	if err != nil {
		t.Fatalf("failed to get analysis: %v", err)
	}
	if got.Error == nil || got.Error.Error() != "no reviews found" {
		t.Errorf("expected restored error, got %v", got.Error)
	}

	page, err := db.GetPage(ctx, "https://shop.example/empty")
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}
	if page != nil {
		t.Error("no page should be stored without a fetch")
	}
}

func TestHistoryDB_GetAnalysis(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.SaveAnalysis(ctx, createTestAnalysis("https://shop.example/item"))
	if err != nil {
		t.Fatalf("failed to save analysis: %v", err)
	}

	got, err := db.GetAnalysis(ctx, id)
	if err != nil {
		t.Fatalf("failed to get analysis: %v", err)
	}
	if got == nil || got.Result == nil {
		t.Fatal("expected a stored result")
	}
	if got.Result.Fake[0].Label != model.LabelFake || *got.Result.Fake[0].Confidence != 88.1 {
		t.Errorf("unexpected fake review %+v", got.Result.Fake[0])
	}
	if got.Result.Genuine[0].Confidence != nil {
		t.Error("missing confidence must stay nil")
	}
	if got.Error != nil {
		t.Errorf("unexpected error %v", got.Error)
	}

	missing, err := db.GetAnalysis(ctx, id+100)
	if err != nil || missing != nil {
		t.Errorf("expected nil for missing id, got %v, %v", missing, err)
	}
}

func TestHistoryDB_ListAnalyses(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	urls := []string{
		"https://shop.example/a",
		"https://shop.example/b",
		"https://shop.example/a",
		"https://shop.example/c",
	}
	for _, u := range urls {
		if _, err := db.SaveAnalysis(ctx, createTestAnalysis(u)); err != nil {
			t.Fatalf("failed to save %s: %v", u, err)
		}
	}

	tests := []struct {
		name    string
		source  string
		limit   int
		wantLen int
		first   string
	}{
		{name: "all", source: "", limit: 0, wantLen: 4, first: "https://shop.example/c"},
		{name: "limited", source: "", limit: 2, wantLen: 2, first: "https://shop.example/c"},
		{name: "by source", source: "https://shop.example/a", limit: 10, wantLen: 2, first: "https://shop.example/a"},
		{name: "unknown source", source: "https://other.example/", limit: 10, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records, err := db.ListAnalyses(ctx, tt.source, tt.limit)
			if err != nil {
				t.Fatalf("failed to list analyses: %v", err)
			}
			if len(records) != tt.wantLen {
				t.Fatalf("expected %d records, got %d", tt.wantLen, len(records))
			}
			if tt.wantLen > 0 && records[0].Source != tt.first {
				t.Errorf("expected newest %q, got %q", tt.first, records[0].Source)
			}
			for i := 1; i < len(records); i++ {
				if records[i-1].ID < records[i].ID {
					t.Error("records must be newest first")
				}
			}
		})
	}

	sources, err := db.ListSources(ctx)
	if err != nil {
		t.Fatalf("failed to list sources: %v", err)
	}
	want := []string{"https://shop.example/c", "https://shop.example/a", "https://shop.example/b"}
	if len(sources) != len(want) {
		t.Fatalf("expected %v, got %v", want, sources)
	}
	for i := range want {
		if sources[i] != want[i] {
			t.Errorf("source %d: expected %q, got %q", i, want[i], sources[i])
		}
	}
}

func TestHistoryDB_Pages(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	a := createTestAnalysis("https://shop.example/item")
	if _, err := db.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("failed to save analysis: %v", err)
	}

	page, err := db.GetPage(ctx, "https://shop.example/item")
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}
	if page == nil {
		t.Fatal("expected a stored page")
	}
	if page.StatusCode != 200 || page.RawHash != a.Page.Hash || page.Size != a.Page.Size() {
		t.Errorf("unexpected page %+v", page)
	}
	if page.Host != "shop.example" {
		t.Errorf("unexpected host %q", page.Host)
	}

	// A second fetch of the same URL replaces the metadata.
	b := createTestAnalysis("https://shop.example/item")
	b.Page.StatusCode = 203
	if _, err := db.SaveAnalysis(ctx, b); err != nil {
		t.Fatalf("failed to save analysis: %v", err)
	}
	page, err = db.GetPage(ctx, "https://shop.example/item")
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}
	if page.StatusCode != 203 {
		t.Errorf("expected updated status code, got %d", page.StatusCode)
	}

	content := model.NewContentAnalysis("local.html", []byte("<p>hi</p>"), 50)
	if _, err := db.SaveAnalysis(ctx, content); err != nil {
		t.Fatalf("failed to save content analysis: %v", err)
	}
	if p, _ := db.GetPage(ctx, "local.html"); p != nil {
		t.Error("supplied content must not be stored as a page")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "sqlite default", input: "2026-01-02 03:04:05", want: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "rfc3339", input: "2026-01-02T03:04:05Z", want: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "nano", input: "2026-01-02T03:04:05.5Z", want: time.Date(2026, 1, 2, 3, 4, 5, 500000000, time.UTC)},
		{name: "invalid", input: "yesterday", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
