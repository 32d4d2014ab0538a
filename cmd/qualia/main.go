package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "qualia",
	Short:   "Qualitative interview analysis: parsing, coding, cross-case synthesis",
	Version: version,
	Long: `qualia parses interview transcripts and research protocols, extracts
coding schemes from QDPX archives, runs phenomenological analysis over
interviews, and aggregates per-participant results into cross-case
reports.`,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(protocolCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(analysesCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
