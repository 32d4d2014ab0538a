package synthesis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresrv/qualia/internal/analysis"
)

// Report renders the final Markdown report: cross-case synthesis first,
// then the per-participant evidence, then validation when present.
func Report(individuals []analysis.Record, res Result, validation *Validation, model string) string {
	var b strings.Builder

	b.WriteString("# REPORTE FINAL DE ANÁLISIS FENOMENOLÓGICO\n\n")
	fmt.Fprintf(&b, "**Fecha**: %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&b, "**N Participantes**: %d\n", len(individuals))
	fmt.Fprintf(&b, "**Modelo usado**: %s\n\n", model)
	b.WriteString("---\n\n")

	b.WriteString("## 1. SÍNTESIS CROSS-CASE\n\n")

	b.WriteString("### 1.1 Estructuras Experienciales (Perfiles Fenomenológicos)\n\n")
	for _, s := range res.Structures {
		fmt.Fprintf(&b, "#### %s\n", anyString(s["structure_name"]))
		fmt.Fprintf(&b, "**N**: %s participantes\n", anyString(s["n_participants"]))
		fmt.Fprintf(&b, "**Participantes**: %s\n", joinAny(s["participants"]))
		fmt.Fprintf(&b, "**Descripción**: %s\n\n", anyString(s["phenomenological_description"]))
	}

	b.WriteString("### 1.2 Estructura Temporal Diferenciada\n\n")
	for _, p := range res.TemporalPhases {
		fmt.Fprintf(&b, "#### %s\n", anyString(p["phase_name"]))
		fmt.Fprintf(&b, "**Frecuencia**: %s\n", anyString(p["frequency_global"]))
		fmt.Fprintf(&b, "- **Manifestación Estructura A**: %s\n", nestedSummary(p["manifestation_structure_A"]))
		fmt.Fprintf(&b, "- **Manifestación Estructura B**: %s\n\n", nestedSummary(p["manifestation_structure_B"]))
	}

	b.WriteString("### 1.3 Codebook Jerárquico (Resumen)\n\n")
	stats := res.Codebook.Statistics
	fmt.Fprintf(&b, "- Categorías principales: %s\n", anyString(stats["n_categories"]))
	fmt.Fprintf(&b, "- Subcategorías: %s\n", anyString(stats["n_subcategories"]))
	fmt.Fprintf(&b, "- Especificaciones: %s\n", anyString(stats["n_specifications"]))
	fmt.Fprintf(&b, "- Códigos específicos: %s\n", anyString(stats["n_codes"]))
	fmt.Fprintf(&b, "- Citas totales: %s\n", anyString(stats["n_quotes"]))
	fmt.Fprintf(&b, "- Tasa de recurrencia: %s\n\n", anyString(stats["recurrence_rate"]))
	b.WriteString("---\n\n")

	b.WriteString("## 2. ANÁLISIS INDIVIDUALES (Evidencia)\n\n")
	for _, rec := range individuals {
		fmt.Fprintf(&b, "### Participante %s\n\n", rec.ParticipantID)
		fmt.Fprintf(&b, "**Núcleo Fenomenológico**: %s\n\n", orNA(rec.PhenomenonNucleus))
		b.WriteString("**Tabla de Análisis Dimensional**:\n")
		if rec.MarkdownTable != "" {
			b.WriteString(rec.MarkdownTable)
		} else {
			b.WriteString("*Tabla no disponible*")
		}
		b.WriteString("\n\n**Estadísticas**:\n")
		for _, dim := range sortedDimensions(rec.DimensionalStatistics) {
			coverage := statField(rec, dim, "coverage")
			fmt.Fprintf(&b, "- %s: %s cobertura\n", capitalize(dim), coverage)
		}
		b.WriteString("\n---\n\n")
	}

	if validation != nil {
		b.WriteString("## 3. VALIDACIÓN FINAL\n\n")
		fmt.Fprintf(&b, "**Checklist**: %s/45\n", anyString(validation.ChecklistScore))
		fmt.Fprintf(&b, "**Calidad**: %s\n", orNA(validation.QualityRating))
		fmt.Fprintf(&b, "**Saturación**: %s\n", anyString(validation.SaturationAnalysis["diagnosis"]))
		fmt.Fprintf(&b, "**Consistencia**: %s\n\n", anyString(validation.InternalConsistency["summary"]))
	}

	return b.String()
}

func sortedDimensions(stats map[string]analysis.DimensionStats) []string {
	dims := make([]string, 0, len(stats))
	for dim := range stats {
		dims = append(dims, dim)
	}
	sort.Strings(dims)
	return dims
}

func anyString(v any) string {
	switch t := v.(type) {
	case nil:
		return "N/A"
	case string:
		if t == "" {
			return "N/A"
		}
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func joinAny(v any) string {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return "N/A"
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%v", it)
	}
	return strings.Join(parts, ", ")
}

func nestedSummary(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return "N/A"
	}
	return anyString(m["summary"])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
