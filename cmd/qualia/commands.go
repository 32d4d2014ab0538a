package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andresrv/qualia/internal/analysis"
	"github.com/andresrv/qualia/internal/config"
	"github.com/andresrv/qualia/internal/dialogue"
	"github.com/andresrv/qualia/internal/docparse"
	"github.com/andresrv/qualia/internal/llm"
	"github.com/andresrv/qualia/internal/pipeline"
	"github.com/andresrv/qualia/internal/protocol"
	"github.com/andresrv/qualia/internal/qdpx"
	"github.com/andresrv/qualia/internal/synthesis"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- parse ---

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse an interview transcript into numbered lines and dialogue turns",
	Long: `Parse an interview transcript into numbered lines and dialogue turns.

Supports PDF, DOCX, and plain text files.

Examples:
  qualia parse interview_P21.pdf
  qualia parse transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		kind, err := docparse.DetectKind(path)
		if err != nil {
			return err
		}
		doc, err := docparse.Parse(path, kind)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		structure := dialogue.Detect(doc.Lines)

		return printJSON(map[string]any{
			"format":    kind,
			"document":  doc,
			"structure": structure,
		})
	},
}

// --- protocol ---

var protocolCmd = &cobra.Command{
	Use:   "protocol <file>",
	Short: "Extract and classify research questions from an interview guide",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		summaryOnly, _ := cmd.Flags().GetBool("summary")

		text, err := readProtocolFile(path)
		if err != nil {
			return err
		}
		p := protocol.Parse(text)

		if summaryOnly {
			fmt.Println(protocol.Summary(p))
			return nil
		}
		return printJSON(map[string]any{
			"protocol": p,
			"summary":  protocol.Summary(p),
		})
	},
}

func readProtocolFile(path string) (string, error) {
	kind, err := docparse.DetectKind(path)
	if err != nil {
		// Unknown extensions are treated as plain text protocols.
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return "", readErr
		}
		return string(data), nil
	}
	doc, err := docparse.Parse(path, kind)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc.Text, nil
}

func init() {
	protocolCmd.Flags().Bool("summary", false, "print the human-readable summary only")
}

// --- codes ---

var codesCmd = &cobra.Command{
	Use:   "codes <archive.qdpx>",
	Short: "Extract the coding scheme from a QDPX archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := qdpx.Extract(args[0])
		if err != nil {
			return err
		}
		return printJSON(project)
	},
}

// --- aggregate ---

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <result.json>...",
	Short: "Merge per-participant analysis results into a batch summary",
	Long: `Merge per-participant analysis result files into a single batch
summary with per-dimension code totals. Each file holds one analysis
result as JSON.

Example:
  qualia aggregate results/P21.json results/P22.json results/P23.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs := make([]synthesis.Input, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			inputs = append(inputs, synthesis.Input{
				ParticipantID: analysis.ParticipantIDFromPath(path),
				Raw:           data,
			})
		}
		return printJSON(synthesis.Merge(inputs))
	},
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <transcript>...",
	Short: "Run the full analysis pipeline over interview transcripts",
	Long: `Run the full analysis pipeline over interview transcripts:
individual analysis per participant, cross-case synthesis, validation,
and a final Markdown report.

The participant id of each transcript is its file name without
extension. Results are written to the output directory.

Examples:
  qualia analyze interviews/P21.txt interviews/P27.txt
  qualia analyze --protocol guide.docx --output results interviews/*.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output")
		protocolPath, _ := cmd.Flags().GetString("protocol")
		codebookPath, _ := cmd.Flags().GetString("codebook")
		researchContext, _ := cmd.Flags().GetString("context")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.LLM.RequireAPIKey(); err != nil {
			return err
		}

		opts := analysis.Options{Context: researchContext}
		if protocolPath != "" {
			text, err := readProtocolFile(protocolPath)
			if err != nil {
				return err
			}
			opts.ProtocolBlock = protocol.FormatForPrompt(protocol.Parse(text))
		}
		if codebookPath != "" {
			project, err := qdpx.Extract(codebookPath)
			if err != nil {
				return err
			}
			scheme, err := json.Marshal(project.Codes)
			if err != nil {
				return err
			}
			opts.CodeScheme = string(scheme)
		}

		transcripts := make([]pipeline.Transcript, 0, len(args))
		for _, path := range args {
			kind, err := docparse.DetectKind(path)
			if err != nil {
				return err
			}
			doc, err := docparse.Parse(path, kind)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			structure := dialogue.Detect(doc.Lines)
			pid := structure.ParticipantCode
			if pid == "" {
				pid = analysis.ParticipantIDFromPath(path)
			}
			transcripts = append(transcripts, pipeline.Transcript{
				ParticipantID: pid,
				Text:          dialogue.AnalysisText(doc, structure),
			})
		}

		client := llm.New(llm.Provider(cfg.LLM.Provider), cfg.LLM.APIKey(), cfg.LLM.Model)
		runner := pipeline.NewRunner(
			analysis.NewAnalyzer(client),
			synthesis.NewSynthesizer(client),
			nil,
			cfg.LLM.Model,
		)

		printStep("Analyzing %d transcripts...", len(transcripts))
		out, meta, err := runner.Run(cmd.Context(), transcripts, opts)
		if err != nil {
			return err
		}
		for _, pid := range meta.Failed {
			printWarning("analysis failed for %s", pid)
		}

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		resultJSON, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		resultPath := filepath.Join(outputDir, "analysis.json")
		if err := os.WriteFile(resultPath, resultJSON, 0o644); err != nil {
			return err
		}
		reportPath := filepath.Join(outputDir, "REPORT.md")
		if err := os.WriteFile(reportPath, []byte(out.Report), 0o644); err != nil {
			return err
		}

		printSuccess("Analyzed %d participants in %dms", meta.Analyzed, meta.RunDurationMs)
		printSuccess("Report written to %s", reportPath)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("output", "analysis_results", "output directory")
	analyzeCmd.Flags().String("protocol", "", "interview guide to inject into the analysis prompt")
	analyzeCmd.Flags().String("codebook", "", "QDPX archive whose codes seed the coding scheme")
	analyzeCmd.Flags().String("context", "", "free-text research context for the analysis prompt")
}

// --- analyses (server-backed) ---

var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "Manage analyses stored by the server",
}

var analysesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/analyses?limit=%d", limit))
		if err != nil {
			return err
		}

		var analyses []struct {
			ID            string `json:"id"`
			ParticipantID string `json:"participant_id"`
			CreatedAt     string `json:"created_at"`
		}
		if err := decodeJSON(resp, &analyses); err != nil {
			return err
		}

		if len(analyses) == 0 {
			fmt.Println("No analyses found.")
			return nil
		}
		for _, a := range analyses {
			fmt.Printf("%s  %s  %s\n",
				colorize(colorCyan, a.ID[:8]),
				a.CreatedAt,
				a.ParticipantID,
			)
		}
		return nil
	},
}

var analysesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/analyses/"+args[0])
		if err != nil {
			return err
		}

		var a any
		if err := decodeJSON(resp, &a); err != nil {
			return err
		}
		return printJSON(a)
	},
}

var analysesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/analyses/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Deleted analysis %s", args[0])
		return nil
	},
}

func init() {
	analysesListCmd.Flags().Int("limit", 20, "maximum number of analyses to list")
	analysesCmd.AddCommand(analysesListCmd)
	analysesCmd.AddCommand(analysesShowCmd)
	analysesCmd.AddCommand(analysesDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Valid keys: %s\n", strings.Join(config.ValidKeys(), ", "))
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
