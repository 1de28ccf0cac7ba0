// Package main provides the command-line interface for the handover tool.
//
// Grounded on the corpus's consensus CLI shape (Sumatoshi-tech-codefang's
// cmd/codefang/main.go: a bare cobra.Command root with persistent flags
// and one AddCommand per subcommand), generalized from codefang's
// run/render split to generate/analyze/estimate.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	noColor bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "handover",
		Short: "Generate cross-referenced Markdown handover documents from a repository",
		Long: `handover analyzes a source-code repository and synthesizes a set of
cross-referenced Markdown documents describing its architecture,
conventions, features, risks, and onboarding path.

Commands:
  generate   Run the full analysis-and-synthesis pipeline
  analyze    Run only the static analyzers and print the result
  estimate   Report the projected token usage and cost of a generate run`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				_ = os.Setenv("NO_COLOR", "1")
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI color and Unicode symbols")

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newEstimateCommand())

	if err := rootCmd.Execute(); err != nil {
		if noColor || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
