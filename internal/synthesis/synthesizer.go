package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andresrv/qualia/internal/analysis"
	"github.com/andresrv/qualia/internal/llm"
)

const (
	synthesisTemperature  = 0.2
	synthesisMaxTokens    = 16000
	validationTemperature = 0.1
	validationMaxTokens   = 8000
	rawResponseLimit      = 500
	tableSummaryLimit     = 500
)

// Completer is the language-model call used for synthesis and validation.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Result is the cross-case synthesis output. Codebook has already been
// passed through the recurrence gate when Err is empty.
type Result struct {
	Codebook       Codebook         `json:"codebook"`
	Structures     []map[string]any `json:"experiential_structures"`
	TemporalPhases []map[string]any `json:"differentiated_temporal_structure"`

	Err         string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

// Validation is the final verification output.
type Validation struct {
	EvidenceVerification map[string]any `json:"evidence_verification,omitempty"`
	SaturationAnalysis   map[string]any `json:"saturation_analysis,omitempty"`
	InternalConsistency  map[string]any `json:"internal_consistency,omitempty"`
	ChecklistScore       any            `json:"checklist_score,omitempty"`
	QualityRating        string         `json:"quality_rating,omitempty"`

	Err string `json:"error,omitempty"`
}

// Synthesizer runs the cross-case synthesis and validation calls.
type Synthesizer struct {
	client Completer
}

// NewSynthesizer creates a Synthesizer using the given completion client.
func NewSynthesizer(client Completer) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize merges the individual analyses into one cross-case result:
// hierarchical codebook, experiential structures, and differentiated
// temporal phases. A non-JSON response yields a stub result, never a
// parse retry. On success the codebook recurrence gate is enforced
// before returning.
func (s *Synthesizer) Synthesize(ctx context.Context, analyses []analysis.Record) (Result, error) {
	prompt := buildSynthesisPrompt(analyses)

	response, err := s.client.Complete(ctx, llm.Request{
		System:      "You are an expert in phenomenological synthesis. Return ONLY valid JSON with complete codebook.",
		Prompt:      prompt,
		Temperature: synthesisTemperature,
		MaxTokens:   synthesisMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Codebook       json.RawMessage  `json:"codebook"`
		Structures     []map[string]any `json:"experiential_structures"`
		TemporalPhases []map[string]any `json:"differentiated_temporal_structure"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		slog.Warn("synthesis response is not valid JSON", "error", err)
		return Result{
			Err:         err.Error(),
			RawResponse: truncate(response, rawResponseLimit),
		}, nil
	}

	res := Result{
		Codebook:       decodeCodebook(parsed.Codebook),
		Structures:     parsed.Structures,
		TemporalPhases: parsed.TemporalPhases,
	}
	EnforceRecurrenceGate(&res.Codebook)
	return res, nil
}

// Validate runs the final verification call over a synthesis and its
// source analyses: evidence check, saturation curve, consistency tests.
func (s *Synthesizer) Validate(ctx context.Context, res Result, analyses []analysis.Record) (Validation, error) {
	prompt := buildValidationPrompt(res, len(analyses))

	response, err := s.client.Complete(ctx, llm.Request{
		System:      "You are a validation expert. Return ONLY valid JSON with complete validation results.",
		Prompt:      prompt,
		Temperature: validationTemperature,
		MaxTokens:   validationMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Validation{}, err
	}

	var v Validation
	if err := json.Unmarshal([]byte(response), &v); err != nil {
		slog.Warn("validation response is not valid JSON", "error", err)
		return Validation{Err: err.Error()}, nil
	}
	return v, nil
}

// summarizeRecord renders one participant's analysis for the synthesis
// prompt: nucleus, headline dimensional statistics, and a truncated
// slice of the analysis table.
func summarizeRecord(rec analysis.Record) string {
	corporal := statField(rec, "corporal", "coverage")
	affective := statField(rec, "affective", "coverage")
	trajectory := statField(rec, "affective", "trajectory")

	table := rec.MarkdownTable
	if table == "" {
		table = "N/A"
	}

	return fmt.Sprintf(`PARTICIPANTE %s:
- Núcleo fenomenológico: %s
- Estadísticas dimensionales:
  * Corporal: %s cobertura
  * Afectiva: %s cobertura
  * Trayectoria afectiva: %s
- Tabla de análisis:
%s...`,
		rec.ParticipantID, orNA(rec.PhenomenonNucleus),
		corporal, affective, trajectory,
		truncate(table, tableSummaryLimit))
}

func statField(rec analysis.Record, dimension, field string) string {
	stats, ok := rec.DimensionalStatistics[dimension]
	if !ok {
		return "N/A"
	}
	if v, ok := stats[field].(string); ok && v != "" {
		return v
	}
	return "N/A"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func joinSummaries(analyses []analysis.Record) string {
	summaries := make([]string, len(analyses))
	for i, rec := range analyses {
		summaries[i] = summarizeRecord(rec)
	}
	return strings.Join(summaries, "\n\n")
}
