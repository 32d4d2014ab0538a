package synthesis

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestMergeTwoRecords(t *testing.T) {
	inputs := []Input{
		{ParticipantID: "P21", Raw: json.RawMessage(`{
			"participant_id": "P21",
			"codes": [{"code": "nudo_estomago"}, {"code": "temblor_piernas"}],
			"dimensional_statistics": {"corporal": {"total_codes": 2}, "affective": {"total_codes": 1}}
		}`)},
		{ParticipantID: "P27", Raw: json.RawMessage(`{
			"participant_id": "P27",
			"codes": [{"code": "respiracion_corta"}],
			"dimensional_statistics": {"corporal": {"total_codes": 1}}
		}`)},
	}

	agg := Merge(inputs)

	if agg.ParticipantID != BatchParticipantID {
		t.Errorf("ParticipantID = %q, want %q", agg.ParticipantID, BatchParticipantID)
	}
	if agg.ProcessedCount != 2 {
		t.Errorf("ProcessedCount = %d, want 2", agg.ProcessedCount)
	}
	if len(agg.Codes) != 3 {
		t.Fatalf("len(Codes) = %d, want 3", len(agg.Codes))
	}

	// Codes keep input order and are tagged with their source participant.
	if agg.Codes[0]["code"] != "nudo_estomago" || agg.Codes[0]["participant_id"] != "P21" {
		t.Errorf("Codes[0] = %v", agg.Codes[0])
	}
	if agg.Codes[2]["participant_id"] != "P27" {
		t.Errorf("Codes[2] = %v", agg.Codes[2])
	}

	if got := agg.DimensionalStatistics["corporal"].TotalCodes; got != 3 {
		t.Errorf("corporal total = %d, want 3", got)
	}
	if got := agg.DimensionalStatistics["affective"].TotalCodes; got != 1 {
		t.Errorf("affective total = %d, want 1", got)
	}

	if !strings.Contains(agg.PhenomenonNucleus, "2 interviews") {
		t.Errorf("PhenomenonNucleus = %q", agg.PhenomenonNucleus)
	}
	if !strings.Contains(agg.MarkdownTable, "| Processed Interviews | 2 |") {
		t.Errorf("MarkdownTable = %q", agg.MarkdownTable)
	}
	if !strings.Contains(agg.MarkdownTable, "| Total Codes | 3 |") {
		t.Errorf("MarkdownTable = %q", agg.MarkdownTable)
	}
}

func TestMergeSkipsUnreadableRecord(t *testing.T) {
	inputs := []Input{
		{ParticipantID: "bad", Raw: json.RawMessage("not json")},
		{ParticipantID: "P1", Raw: json.RawMessage(`{"codes": [{"code": "x"}]}`)},
	}

	agg := Merge(inputs)

	if agg.ProcessedCount != 1 {
		t.Errorf("ProcessedCount = %d, want 1 (bad record skipped)", agg.ProcessedCount)
	}
	if len(agg.Codes) != 1 {
		t.Errorf("len(Codes) = %d, want 1", len(agg.Codes))
	}
	// The readable record named no participant; the fallback id tags its codes.
	if agg.Codes[0]["participant_id"] != "P1" {
		t.Errorf("Codes[0] participant = %v, want P1", agg.Codes[0]["participant_id"])
	}
}

func TestMergeStatisticsOrderIndependent(t *testing.T) {
	a := Input{ParticipantID: "P1", Raw: json.RawMessage(`{"dimensional_statistics": {"corporal": {"total_codes": 2}}}`)}
	b := Input{ParticipantID: "P2", Raw: json.RawMessage(`{"dimensional_statistics": {"corporal": {"total_codes": 5}}}`)}

	forward := Merge([]Input{a, b})
	reverse := Merge([]Input{b, a})

	if !reflect.DeepEqual(forward.DimensionalStatistics, reverse.DimensionalStatistics) {
		t.Errorf("statistics differ by input order: %v vs %v",
			forward.DimensionalStatistics, reverse.DimensionalStatistics)
	}
}

func TestMergeEmpty(t *testing.T) {
	agg := Merge(nil)

	if agg.ProcessedCount != 0 {
		t.Errorf("ProcessedCount = %d, want 0", agg.ProcessedCount)
	}
	if agg.Codes == nil {
		t.Error("Codes should be an empty slice, not nil")
	}
}
