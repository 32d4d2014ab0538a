package synthesis

import (
	"encoding/json"
	"fmt"
)

// The codebook is the 4-level taxonomy built bottom-up from individual
// codes: category → subcategory → specification → code. Every level is
// gated by a minimum-recurrence rule; entries falling below it are
// demoted to the excluded list as individual variants.

// Quote is one verbatim citation backing a codebook code.
type Quote struct {
	Text       string `json:"text"`
	Reference  string `json:"reference"`
	IsExemplar bool   `json:"is_exemplar,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// CodebookCode is a level-4 entry with its backing participants.
type CodebookCode struct {
	Code         string   `json:"code"`
	Definition   string   `json:"definition,omitempty"`
	Participants []string `json:"participants"`
	TotalQuotes  int      `json:"total_quotes,omitempty"`
	Quotes       []Quote  `json:"quotes,omitempty"`
}

// Specification is a level-3 grouping of similar codes.
type Specification struct {
	Name  string         `json:"name"`
	Codes []CodebookCode `json:"codes"`
}

// Subcategory is a level-2 grouping of specifications.
type Subcategory struct {
	Name           string          `json:"name"`
	Specifications []Specification `json:"specifications"`
}

// Category is a level-1 grouping of subcategories.
type Category struct {
	Name          string        `json:"name"`
	Definition    string        `json:"definition,omitempty"`
	Subcategories []Subcategory `json:"subcategories"`
}

// ExcludedCode is a code demoted out of the main hierarchy.
type ExcludedCode struct {
	Code        string `json:"code"`
	Participant string `json:"participant,omitempty"`
	Reason      string `json:"reason"`
}

// Codebook is the hierarchical taxonomy plus its exclusion list.
type Codebook struct {
	Statistics    map[string]any `json:"statistics,omitempty"`
	Categories    []Category     `json:"categories"`
	ExcludedCodes []ExcludedCode `json:"excluded_codes"`
}

// MinRecurrence is the multiplicity gate applied at every aggregation
// level: a code needs 2 participants, a specification 2 codes, a
// subcategory 2 specifications.
const MinRecurrence = 2

// EnforceRecurrenceGate rewrites the codebook in place so that every
// surviving entry meets the recurrence minimum. Codes backed by fewer
// than MinRecurrence participants are demoted to the excluded list as
// individual variants; specifications and subcategories left below the
// minimum are dissolved, demoting their remaining codes transitively.
// Categories are kept as grouped by the synthesis; the source rubric
// states no category-level minimum.
func EnforceRecurrenceGate(cb *Codebook) {
	if cb.ExcludedCodes == nil {
		cb.ExcludedCodes = []ExcludedCode{}
	}

	var categories []Category
	for _, cat := range cb.Categories {
		var subcats []Subcategory
		for _, sub := range cat.Subcategories {
			var specs []Specification
			for _, spec := range sub.Specifications {
				var codes []CodebookCode
				for _, code := range spec.Codes {
					if len(code.Participants) < MinRecurrence {
						cb.ExcludedCodes = append(cb.ExcludedCodes, ExcludedCode{
							Code:        code.Code,
							Participant: firstParticipant(code),
							Reason:      "N=1, variante individual",
						})
						continue
					}
					codes = append(codes, code)
				}
				if len(codes) < MinRecurrence {
					demoteAll(cb, codes, fmt.Sprintf("specification %q below recurrence minimum", spec.Name))
					continue
				}
				spec.Codes = codes
				specs = append(specs, spec)
			}
			if len(specs) < MinRecurrence {
				for _, spec := range specs {
					demoteAll(cb, spec.Codes, fmt.Sprintf("subcategory %q below recurrence minimum", sub.Name))
				}
				continue
			}
			sub.Specifications = specs
			subcats = append(subcats, sub)
		}
		if len(subcats) == 0 {
			continue
		}
		cat.Subcategories = subcats
		categories = append(categories, cat)
	}
	cb.Categories = categories
}

func demoteAll(cb *Codebook, codes []CodebookCode, reason string) {
	for _, code := range codes {
		cb.ExcludedCodes = append(cb.ExcludedCodes, ExcludedCode{
			Code:        code.Code,
			Participant: firstParticipant(code),
			Reason:      reason,
		})
	}
}

func firstParticipant(code CodebookCode) string {
	if len(code.Participants) > 0 {
		return code.Participants[0]
	}
	return ""
}

// SaturationIndex reports the proportion of hierarchy codes that recur
// across participants versus the total including individual variants.
// Returns 0 when the codebook holds no codes at all.
func SaturationIndex(cb *Codebook) float64 {
	recurring := 0
	for _, cat := range cb.Categories {
		for _, sub := range cat.Subcategories {
			for _, spec := range sub.Specifications {
				recurring += len(spec.Codes)
			}
		}
	}
	total := recurring + len(cb.ExcludedCodes)
	if total == 0 {
		return 0
	}
	return float64(recurring) / float64(total)
}

// decodeCodebook tolerates a synthesis response whose codebook section is
// absent or partially shaped.
func decodeCodebook(raw json.RawMessage) Codebook {
	var cb Codebook
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &cb)
	}
	if cb.Categories == nil {
		cb.Categories = []Category{}
	}
	if cb.ExcludedCodes == nil {
		cb.ExcludedCodes = []ExcludedCode{}
	}
	return cb
}
