package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for reviewscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewscan",
		Short: "Detect fake customer reviews on product pages",
		Long: `reviewscan extracts customer reviews from a product page and labels each
review FAKE or GENUINE with a pretrained TF-IDF text classifier.

The model and vectorizer are read from the model directory
(--models, $REVIEWSCAN_MODEL_DIR, ./model or the XDG data directory).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
