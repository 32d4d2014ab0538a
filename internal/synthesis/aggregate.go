// Package synthesis merges independent per-participant analysis records
// into cross-case aggregates, codebooks, and reports.
package synthesis

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/andresrv/qualia/internal/analysis"
)

// BatchParticipantID labels aggregate records built from many inputs.
const BatchParticipantID = "BATCH_DEMO"

// Input is one raw per-participant result record. ParticipantID is the
// fallback identifier (derived from the file name by callers) used when
// the record itself names none.
type Input struct {
	ParticipantID string
	Raw           json.RawMessage
}

// DimensionTotals is the summed per-dimension statistic of an aggregate.
type DimensionTotals struct {
	TotalCodes int `json:"total_codes"`
}

// Aggregate is the merge of many participant analyses. It is always
// rebuilt from the full input set, never mutated incrementally.
type Aggregate struct {
	ParticipantID         string                     `json:"participant_id"`
	PhenomenonNucleus     string                     `json:"phenomenon_nucleus"`
	Codes                 []analysis.Code            `json:"codes"`
	DimensionalStatistics map[string]DimensionTotals `json:"dimensional_statistics"`
	MarkdownTable         string                     `json:"markdown_table"`
	ProcessedCount        int                        `json:"processed_count"`
}

// Merge aggregates the input records: codes are tagged with their
// originating participant and concatenated in input order, per-dimension
// total_codes are summed, and a summary narrative and table are built.
// An input that fails to decode is logged and skipped; the batch never
// aborts on a single bad record.
func Merge(inputs []Input) *Aggregate {
	agg := &Aggregate{
		ParticipantID:         BatchParticipantID,
		Codes:                 []analysis.Code{},
		DimensionalStatistics: make(map[string]DimensionTotals),
	}

	for _, in := range inputs {
		rec, _, err := analysis.NormalizeRecord(in.Raw, in.ParticipantID)
		if err != nil {
			slog.Warn("skipping unreadable analysis record", "participant", in.ParticipantID, "error", err)
			continue
		}

		for _, code := range rec.Codes {
			code["participant_id"] = rec.ParticipantID
			agg.Codes = append(agg.Codes, code)
		}

		for dim, stats := range rec.DimensionalStatistics {
			totals := agg.DimensionalStatistics[dim]
			totals.TotalCodes += stats.TotalCodes()
			agg.DimensionalStatistics[dim] = totals
		}

		agg.ProcessedCount++
	}

	agg.PhenomenonNucleus = fmt.Sprintf(
		"Batch analysis of %d interviews. Detailed codes are aggregated below.",
		agg.ProcessedCount)
	agg.MarkdownTable = fmt.Sprintf(
		"| Metric | Value |\n|---|---|\n| Processed Interviews | %d |\n| Total Codes | %d |",
		agg.ProcessedCount, len(agg.Codes))

	return agg
}
