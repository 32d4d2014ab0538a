package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/andresrv/qualia/internal/analysis"
	"github.com/andresrv/qualia/internal/storage"
	"github.com/andresrv/qualia/internal/synthesis"
)

// Transcript is one interview ready for analysis.
type Transcript struct {
	ParticipantID string `json:"participant_id"`
	Text          string `json:"text"`
}

// RunMetadata captures diagnostic information about a pipeline run.
type RunMetadata struct {
	Analyzed       int
	Failed         []string
	RunDurationMs  int64
	SynthesisError string
}

// Outcome is the complete result of a pipeline run.
type Outcome struct {
	Individuals []analysis.Record    `json:"individual_analyses"`
	Synthesis   synthesis.Result     `json:"synthesis"`
	Validation  synthesis.Validation `json:"validation"`
	Report      string               `json:"report"`
}

// Runner orchestrates the full analysis pipeline: per-participant
// analysis, cross-case synthesis, validation, and report generation.
type Runner struct {
	analyzer    *analysis.Analyzer
	synthesizer *synthesis.Synthesizer
	store       *storage.Store
	model       string
}

// NewRunner creates a Runner wired to all pipeline components. store
// may be nil, in which case results are not persisted.
func NewRunner(analyzer *analysis.Analyzer, synth *synthesis.Synthesizer, store *storage.Store, model string) *Runner {
	return &Runner{
		analyzer:    analyzer,
		synthesizer: synth,
		store:       store,
		model:       model,
	}
}

// Run executes the pipeline over the given transcripts:
//  1. Analyze each interview individually, in order
//  2. Synthesize the individual analyses cross-case
//  3. Validate the synthesis against the analyses
//  4. Render the final Markdown report
//
// A transcript whose analysis call fails is logged and skipped; the
// run continues with the remaining participants. Synthesis and
// validation failures degrade the outcome rather than abort it.
func (r *Runner) Run(ctx context.Context, transcripts []Transcript, opts analysis.Options) (out Outcome, meta RunMetadata, err error) {
	start := time.Now()
	defer func() {
		meta.RunDurationMs = time.Since(start).Milliseconds()
	}()

	// 1. Individual analyses.
	for _, t := range transcripts {
		if err := ctx.Err(); err != nil {
			return out, meta, err
		}
		rec, err := r.analyzer.AnalyzeIndividual(ctx, t.Text, t.ParticipantID, opts)
		if err != nil {
			slog.Warn("pipeline: analysis failed, skipping participant",
				"participant_id", t.ParticipantID, "error", err)
			meta.Failed = append(meta.Failed, t.ParticipantID)
			continue
		}
		out.Individuals = append(out.Individuals, rec)
		meta.Analyzed++
		r.persist(t, rec)
	}

	if len(out.Individuals) == 0 {
		return out, meta, ErrNoAnalyses
	}

	// 2. Cross-case synthesis.
	out.Synthesis, err = r.synthesizer.Synthesize(ctx, out.Individuals)
	if err != nil {
		slog.Warn("pipeline: synthesis failed", "error", err)
		meta.SynthesisError = err.Error()
		out.Report = synthesis.Report(out.Individuals, out.Synthesis, nil, r.model)
		return out, meta, nil
	}

	// 3. Validation.
	validation, err := r.synthesizer.Validate(ctx, out.Synthesis, out.Individuals)
	if err != nil {
		slog.Warn("pipeline: validation failed", "error", err)
		out.Report = synthesis.Report(out.Individuals, out.Synthesis, nil, r.model)
		return out, meta, nil
	}
	out.Validation = validation

	// 4. Final report.
	out.Report = synthesis.Report(out.Individuals, out.Synthesis, &out.Validation, r.model)

	slog.Debug("pipeline complete",
		"analyzed", meta.Analyzed,
		"failed", len(meta.Failed),
	)
	return out, meta, nil
}

func (r *Runner) persist(t Transcript, rec analysis.Record) {
	if r.store == nil {
		return
	}
	resultJSON, err := json.Marshal(rec)
	if err != nil {
		slog.Warn("pipeline: failed to encode analysis result",
			"participant_id", t.ParticipantID, "error", err)
		return
	}
	if _, err := r.store.SaveAnalysis(t.ParticipantID, t.Text, string(resultJSON), r.model); err != nil {
		slog.Warn("pipeline: failed to persist analysis",
			"participant_id", t.ParticipantID, "error", err)
	}
}
