package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/database"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is how many analyses history lists by default.
const defaultHistoryLimit = 20

// errAnalysisNotFound is returned by history show for an unknown ID.
var errAnalysisNotFound = errors.New("analysis not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [source]",
		Short: "List stored analyses",
		Long: `History lists the analyses stored by the analyze command, newest first.
Pass a URL or file name to list only the analyses of that source.

Examples:
  reviewscan history
  reviewscan history --limit 5 "https://www.amazon.com/product-reviews/B000000000"
  reviewscan history --sources
  reviewscan history show 12 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of analyses to list (0 lists all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON")
	cmd.Flags().BoolP("sources", "s", false,
		"List the analyzed sources instead of the analyses")
	cmd.PersistentFlags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

// newHistoryShowCmd creates the history show subcommand.
func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored analysis as a report",
		Long: `Show renders a stored analysis with the same report formats as analyze.
The ID is the first column of the history listing.`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryShowCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")

	return cmd
}

// historyEntry is one line of the JSON history output.
type historyEntry struct {
	ID                int64   `json:"id"`
	Source            string  `json:"source"`
	Timestamp         string  `json:"timestamp"`
	Total             int     `json:"total"`
	FakeCount         int     `json:"fake_count"`
	GenuineCount      int     `json:"genuine_count"`
	FakePercentage    float64 `json:"fake_percentage"`
	GenuinePercentage float64 `json:"genuine_percentage"`
	Skipped           int     `json:"skipped"`
	ScrapeTime        float64 `json:"scrape_time"`
	ModelFingerprint  string  `json:"model_fingerprint,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// historyDBDir returns the --db-dir flag or the XDG data directory.
func historyDBDir(cmd *cobra.Command) (string, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return "", err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	return dbDir, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	sources, err := cmd.Flags().GetBool("sources")
	if err != nil {
		return err
	}
	dbDir, err := historyDBDir(cmd)
	if err != nil {
		return err
	}

	if sources {
		return runHistorySources(cmd.Context(), cmd.OutOrStdout(), dbDir, asJSON)
	}

	var source string
	if len(args) == 1 {
		source = args[0]
	}
	return runHistory(cmd.Context(), cmd.OutOrStdout(), dbDir, source, limit, asJSON)
}

// runHistoryShowCmd executes the history show command.
func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid analysis ID %q", args[0])
	}

	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	dbDir, err := historyDBDir(cmd)
	if err != nil {
		return err
	}
	return runHistoryShow(cmd.Context(), cmd.OutOrStdout(), dbDir, id, cfg)
}

// openHistory opens an existing history database. It returns nil when
// nothing has been recorded in dbDir yet.
func openHistory(dbDir string) (*database.HistoryDB, error) {
	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); os.IsNotExist(err) {
		return nil, nil
	}
	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// runHistory prints the stored analyses.
func runHistory(ctx context.Context, out io.Writer, dbDir, source string, limit int, asJSON bool) error {
	db, err := openHistory(dbDir)
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Fprintln(out, "No analyses recorded yet.")
		return nil
	}
	defer db.Close()

	records, err := db.ListAnalyses(ctx, source, limit)
	if err != nil {
		return err
	}

	if asJSON {
		entries := make([]historyEntry, len(records))
		for i, r := range records {
			entries[i] = historyEntry{
				ID:                r.ID,
				Source:            r.Source,
				Timestamp:         r.Timestamp.Format(time.RFC3339),
				Total:             r.Total,
				FakeCount:         r.FakeCount,
				GenuineCount:      r.GenuineCount,
				FakePercentage:    r.FakePercentage,
				GenuinePercentage: r.GenuinePercentage,
				Skipped:           r.Skipped,
				ScrapeTime:        r.ScrapeTime,
				ModelFingerprint:  r.ModelFingerprint,
				Error:             r.Error,
			}
		}
		return writeJSON(out, entries)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No analyses found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Date", "Total", "Fake", "Genuine", "Source"})
	for _, r := range records {
		total := strconv.Itoa(r.Total)
		fake := fmt.Sprintf("%d (%.1f%%)", r.FakeCount, r.FakePercentage)
		genuine := fmt.Sprintf("%d (%.1f%%)", r.GenuineCount, r.GenuinePercentage)
		if !r.Succeeded() {
			total, fake, genuine = "-", "-", "error: "+r.Error
		}
		t.AppendRow(table.Row{
			r.ID,
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			total,
			fake,
			genuine,
			r.Source,
		})
	}
	t.Render()
	return nil
}

// runHistorySources prints every analyzed source, most recent first.
func runHistorySources(ctx context.Context, out io.Writer, dbDir string, asJSON bool) error {
	db, err := openHistory(dbDir)
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Fprintln(out, "No analyses recorded yet.")
		return nil
	}
	defer db.Close()

	sources, err := db.ListSources(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		if sources == nil {
			sources = []string{}
		}
		return writeJSON(out, sources)
	}
	for _, source := range sources {
		fmt.Fprintln(out, source)
	}
	return nil
}

// runHistoryShow renders one stored analysis. The text report of a
// fetched URL ends with the metadata of its last fetch.
func runHistoryShow(ctx context.Context, out io.Writer, dbDir string, id int64, cfg *config.Config) error {
	db, err := openHistory(dbDir)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("%w: %d", errAnalysisNotFound, id)
	}
	defer db.Close()

	analysis, err := db.GetAnalysis(ctx, id)
	if err != nil {
		return err
	}
	if analysis == nil {
		return fmt.Errorf("%w: %d", errAnalysisNotFound, id)
	}
	analysis.Error = pipeline.ErrorFromMessage(analysis.ErrorMessage)

	if err := outputReport(cfg, out, []*model.Analysis{analysis}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if cfg.JSONReport || cfg.MarkdownReport || analysis.Kind != model.SourceURL {
		return nil
	}

	page, err := db.GetPage(ctx, analysis.Source)
	if err != nil {
		return err
	}
	if page != nil {
		fmt.Fprintf(out, "Last fetch: HTTP %d, %s, %d bytes at %s\n",
			page.StatusCode,
			page.ContentType,
			page.Size,
			page.Timestamp.Local().Format("2006-01-02 15:04"),
		)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
