// Package analysis models per-participant analysis records and runs the
// individual LLM analysis call that produces them.
package analysis

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Code is one emergent code from an analysis record. Codes are authored
// by the model, so fields beyond the common ones must survive untouched.
type Code map[string]any

// DimensionStats holds the per-dimension statistics of one record.
// Known fields include coverage and total_codes; the rest is opaque.
type DimensionStats map[string]any

// TotalCodes reads the total_codes field, tolerating the numeric types
// JSON decoding can produce. Absent or non-numeric values count as zero.
func (d DimensionStats) TotalCodes() int {
	switch v := d["total_codes"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// SchemaVersion discriminates the two record layouts in circulation.
type SchemaVersion int

const (
	// SchemaV1 carries codes at the top level.
	SchemaV1 SchemaVersion = 1
	// SchemaV2 nests codes under phase1_codes.
	SchemaV2 SchemaVersion = 2
)

// Record is the canonical per-participant analysis shape consumed by the
// aggregation and report layers.
type Record struct {
	ParticipantID         string                    `json:"participant_id"`
	PhenomenonNucleus     string                    `json:"phenomenon_nucleus,omitempty"`
	MarkdownTable         string                    `json:"markdown_table,omitempty"`
	DimensionalStatistics map[string]DimensionStats `json:"dimensional_statistics,omitempty"`
	Codes                 []Code                    `json:"codes,omitempty"`

	// Err and RawResponse are set only on the stub record produced when
	// the model returned non-JSON text.
	Err         string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

// recordV1 is the top-level-codes layout.
type recordV1 struct {
	ParticipantID         string                    `json:"participant_id"`
	PhenomenonNucleus     string                    `json:"phenomenon_nucleus"`
	MarkdownTable         string                    `json:"markdown_table"`
	DimensionalStatistics map[string]DimensionStats `json:"dimensional_statistics"`
	Codes                 []Code                    `json:"codes"`
}

// recordV2 nests the code list under phase1_codes.
type recordV2 struct {
	Phase1 struct {
		Codes []Code `json:"codes"`
	} `json:"phase1_codes"`
}

// NormalizeRecord decodes a raw analysis record of either schema version
// into the canonical Record. When the record names no participant, the
// fallback identifier is used (callers derive it from the file name).
func NormalizeRecord(raw []byte, fallbackID string) (Record, SchemaVersion, error) {
	var v1 recordV1
	if err := json.Unmarshal(raw, &v1); err != nil {
		return Record{}, 0, fmt.Errorf("decoding analysis record: %w", err)
	}

	rec := Record{
		ParticipantID:         v1.ParticipantID,
		PhenomenonNucleus:     v1.PhenomenonNucleus,
		MarkdownTable:         v1.MarkdownTable,
		DimensionalStatistics: v1.DimensionalStatistics,
		Codes:                 v1.Codes,
	}
	version := SchemaV1

	if len(rec.Codes) == 0 {
		var v2 recordV2
		if err := json.Unmarshal(raw, &v2); err == nil && len(v2.Phase1.Codes) > 0 {
			rec.Codes = v2.Phase1.Codes
			version = SchemaV2
		}
	}

	if rec.ParticipantID == "" {
		rec.ParticipantID = fallbackID
	}
	return rec, version, nil
}

// ParticipantIDFromPath derives a participant identifier from a result
// file name by stripping directory and extension.
func ParticipantIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
