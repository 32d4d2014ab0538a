package synthesis

import (
	"math"
	"testing"
)

func code(name string, participants ...string) CodebookCode {
	return CodebookCode{Code: name, Participants: participants}
}

func TestEnforceRecurrenceGateDemotesSingletons(t *testing.T) {
	cb := &Codebook{
		Categories: []Category{{
			Name: "corporal",
			Subcategories: []Subcategory{
				{
					Name: "tensión",
					Specifications: []Specification{
						{Name: "abdominal", Codes: []CodebookCode{
							code("nudo_estomago", "P1", "P2"),
							code("presion_pecho", "P1", "P3"),
							code("variante_rara", "P4"),
						}},
						{Name: "muscular", Codes: []CodebookCode{
							code("temblor", "P1", "P2"),
							code("rigidez", "P2", "P3"),
						}},
					},
				},
				{
					Name: "respiración",
					Specifications: []Specification{
						{Name: "ritmo", Codes: []CodebookCode{
							code("respiracion_corta", "P1", "P2"),
							code("apnea", "P2", "P3"),
						}},
						{Name: "profundidad", Codes: []CodebookCode{
							code("suspiro", "P1", "P4"),
							code("jadeo", "P2", "P4"),
						}},
					},
				},
			},
		}},
	}

	EnforceRecurrenceGate(cb)

	if len(cb.Categories) != 1 {
		t.Fatalf("len(Categories) = %d, want 1", len(cb.Categories))
	}
	cat := cb.Categories[0]
	if len(cat.Subcategories) != 2 {
		t.Fatalf("len(Subcategories) = %d, want 2", len(cat.Subcategories))
	}

	abdominal := cat.Subcategories[0].Specifications[0]
	if len(abdominal.Codes) != 2 {
		t.Errorf("abdominal codes = %d, want 2 (singleton demoted)", len(abdominal.Codes))
	}

	if len(cb.ExcludedCodes) != 1 {
		t.Fatalf("len(ExcludedCodes) = %d, want 1", len(cb.ExcludedCodes))
	}
	excluded := cb.ExcludedCodes[0]
	if excluded.Code != "variante_rara" || excluded.Participant != "P4" {
		t.Errorf("ExcludedCodes[0] = %+v", excluded)
	}
	if excluded.Reason != "N=1, variante individual" {
		t.Errorf("Reason = %q", excluded.Reason)
	}
}

// A specification left with fewer than two codes dissolves, demoting its
// survivors; a subcategory left with fewer than two specifications does
// the same transitively.
func TestEnforceRecurrenceGateDissolvesThinGroups(t *testing.T) {
	cb := &Codebook{
		Categories: []Category{{
			Name: "afectiva",
			Subcategories: []Subcategory{{
				Name: "miedo",
				Specifications: []Specification{
					{Name: "anticipatorio", Codes: []CodebookCode{
						code("terror_previo", "P1", "P2"),
						code("solo_uno", "P3"),
					}},
					{Name: "agudo", Codes: []CodebookCode{
						code("panico", "P1", "P2"),
						code("congelamiento", "P2", "P3"),
					}},
				},
			}},
		}},
	}

	EnforceRecurrenceGate(cb)

	// "anticipatorio" dissolved (one surviving code), leaving "miedo" with
	// one specification, which dissolves the subcategory, emptying the
	// category out of the hierarchy.
	if len(cb.Categories) != 0 {
		t.Errorf("len(Categories) = %d, want 0", len(cb.Categories))
	}

	// Demoted: solo_uno (N=1), terror_previo (spec dissolved), then
	// panico and congelamiento (subcategory dissolved).
	if len(cb.ExcludedCodes) != 4 {
		t.Fatalf("len(ExcludedCodes) = %d, want 4: %+v", len(cb.ExcludedCodes), cb.ExcludedCodes)
	}
}

func TestEnforceRecurrenceGateEmptyCodebook(t *testing.T) {
	cb := &Codebook{}
	EnforceRecurrenceGate(cb)

	if cb.ExcludedCodes == nil {
		t.Error("ExcludedCodes should be initialized")
	}
	if len(cb.Categories) != 0 {
		t.Errorf("Categories = %v", cb.Categories)
	}
}

func TestSaturationIndex(t *testing.T) {
	cb := &Codebook{
		Categories: []Category{{
			Subcategories: []Subcategory{{
				Specifications: []Specification{
					{Codes: []CodebookCode{code("a", "P1", "P2"), code("b", "P1", "P3"), code("c", "P2", "P3")}},
				},
			}},
		}},
		ExcludedCodes: []ExcludedCode{{Code: "x"}},
	}

	got := SaturationIndex(cb)
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("SaturationIndex = %v, want 0.75", got)
	}
}

func TestSaturationIndexEmpty(t *testing.T) {
	if got := SaturationIndex(&Codebook{}); got != 0 {
		t.Errorf("SaturationIndex = %v, want 0", got)
	}
}

func TestDecodeCodebookTolerant(t *testing.T) {
	cb := decodeCodebook(nil)
	if cb.Categories == nil || cb.ExcludedCodes == nil {
		t.Error("nil input should yield initialized empty codebook")
	}

	cb = decodeCodebook([]byte(`{"categories": [{"name": "corporal"}]}`))
	if len(cb.Categories) != 1 || cb.Categories[0].Name != "corporal" {
		t.Errorf("Categories = %+v", cb.Categories)
	}
	if cb.ExcludedCodes == nil {
		t.Error("ExcludedCodes should be initialized")
	}
}
