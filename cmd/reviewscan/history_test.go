package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/database"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
	"github.com/nao1215/reviewscan/internal/report"
)

// seedHistory stores a successful and a failed analysis.
func seedHistory(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	reviewed := model.NewURLAnalysis("https://shop.example/item/1", 50)
	result := model.NewAnalysisResult(
		[]model.ClassifiedReview{{Text: "best product ever", Label: model.LabelFake, Position: 0}},
		[]model.ClassifiedReview{
			{Text: "it broke after a week", Label: model.LabelGenuine, Position: 1},
			{Text: "works as described", Label: model.LabelGenuine, Position: 2},
			{Text: "decent value for money", Label: model.LabelGenuine, Position: 3},
		},
	)
	reviewed.Result = &result
	reviewed.Page = &model.Page{
		URL:         reviewed.Source,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Raw:         []byte("<html><body>reviews</body></html>"),
	}
	reviewed.Page.ComputeHash()

	empty := model.NewContentAnalysis("page.html", []byte("<html></html>"), 50)
	empty.Fail(pipeline.ErrNoReviews)

	analyses := []*model.Analysis{reviewed, empty}
	for _, a := range analyses {
		if _, err := db.SaveAnalysis(context.Background(), a); err != nil {
			t.Fatalf("failed to save analysis: %v", err)
		}
	}
	return dir
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	if cmd.Use != "history [source]" {
		t.Errorf("unexpected use %q", cmd.Use)
	}
	for _, name := range []string{"limit", "json", "sources", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if got := cmd.Flags().Lookup("limit").DefValue; got != "20" {
		t.Errorf("expected limit default 20, got %q", got)
	}

	show, _, err := cmd.Find([]string{"show"})
	if err != nil || show.Use != "show <id>" {
		t.Fatalf("expected show subcommand, got %v", err)
	}
	for _, name := range []string{"json", "markdown"} {
		if show.Flags().Lookup(name) == nil {
			t.Errorf("expected show %s flag", name)
		}
	}
}

func TestRunHistory(t *testing.T) {
	t.Parallel()

	// Subtests share one database file.
	dir := seedHistory(t)

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistory(context.Background(), &out, dir, "", 0, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := out.String()
		for _, want := range []string{"SOURCE", "https://shop.example/item/1", "1 (25.0%)", "page.html", "error:"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
		if strings.Index(output, "page.html") > strings.Index(output, "https://shop.example/item/1") {
			t.Error("expected newest analysis first")
		}
	})

	t.Run("json filtered by source", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistory(context.Background(), &out, dir, "https://shop.example/item/1", 0, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var entries []historyEntry
		if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].FakeCount != 1 || entries[0].Total != 4 {
			t.Errorf("unexpected entry %+v", entries[0])
		}
	})

	t.Run("limit", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistory(context.Background(), &out, dir, "", 1, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var entries []historyEntry
		if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 1 || entries[0].Source != "page.html" {
			t.Errorf("unexpected entries %+v", entries)
		}
		if entries[0].Error == "" {
			t.Error("expected recorded error")
		}
	})

	t.Run("no database yet", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistory(context.Background(), &out, t.TempDir(), "", 0, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No analyses recorded yet.") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistory(context.Background(), &out, dir, "https://other.example", 0, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No analyses found.") {
			t.Errorf("unexpected output %q", out.String())
		}
	})
}

func TestHistoryCmdExecute(t *testing.T) {
	t.Parallel()

	dir := seedHistory(t)

	var out bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--db-dir", dir, "-j"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var entries []historyEntry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestRunHistorySources(t *testing.T) {
	t.Parallel()

	dir := seedHistory(t)

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistorySources(context.Background(), &out, dir, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "page.html\nhttps://shop.example/item/1\n"
		if out.String() != want {
			t.Errorf("expected %q, got %q", want, out.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistorySources(context.Background(), &out, dir, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var sources []string
		if err := json.Unmarshal(out.Bytes(), &sources); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(sources) != 2 {
			t.Errorf("expected 2 sources, got %v", sources)
		}
	})

	t.Run("no database yet", func(t *testing.T) {
		var out bytes.Buffer
		if err := runHistorySources(context.Background(), &out, t.TempDir(), true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No analyses recorded yet.") {
			t.Errorf("unexpected output %q", out.String())
		}
	})
}

func TestRunHistoryShow(t *testing.T) {
	t.Parallel()

	// Subtests share one database file. IDs follow the seeding order.
	dir := seedHistory(t)

	t.Run("text with last fetch", func(t *testing.T) {
		var out bytes.Buffer
		cfg := config.NewConfig()
		if err := runHistoryShow(context.Background(), &out, dir, 1, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := out.String()
		for _, want := range []string{
			"https://shop.example/item/1",
			"Last fetch: HTTP 200, text/html; charset=utf-8",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		cfg := config.NewConfig()
		cfg.JSONReport = true
		if err := runHistoryShow(context.Background(), &out, dir, 1, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var summary report.Summary
		if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if summary.Total != 4 || summary.FakeCount != 1 {
			t.Errorf("unexpected summary %+v", summary)
		}
		if strings.Contains(out.String(), "Last fetch") {
			t.Error("expected no fetch line in JSON output")
		}
	})

	t.Run("markdown failed analysis", func(t *testing.T) {
		var out bytes.Buffer
		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		if err := runHistoryShow(context.Background(), &out, dir, 2, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := out.String()
		for _, want := range []string{"page.html", report.NoReviewsMessage} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		var out bytes.Buffer
		err := runHistoryShow(context.Background(), &out, dir, 99, config.NewConfig())
		if !errors.Is(err, errAnalysisNotFound) {
			t.Errorf("expected errAnalysisNotFound, got %v", err)
		}
	})
}

func TestHistoryShowCmdExecute(t *testing.T) {
	t.Parallel()

	dir := seedHistory(t)

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "text", args: []string{"show", "1", "--db-dir", dir}},
		{name: "json", args: []string{"show", "2", "--db-dir", dir, "-j"}},
		{name: "invalid id", args: []string{"show", "abc", "--db-dir", dir}, wantErr: true},
		{name: "conflicting formats", args: []string{"show", "1", "--db-dir", dir, "-j", "-m"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := NewHistoryCmd()
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
