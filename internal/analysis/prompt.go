package analysis

import (
	"fmt"
	"strings"
)

// partIndividual is the methodology block for the individual analysis
// call. The model is instructed to segment the verbatim, code six fixed
// dimensions per unit, and return the structured JSON record.
const partIndividual = `ANÁLISIS INDIVIDUAL FENOMENOLÓGICO

PRINCIPIOS:
1. EPOCHÉ RIGUROSA: no interpretes causalmente; reporta solo lo vivido.
   Prohibido vocabulario neurobiológico ("activación amigdalar", "cortisol").
2. EMERGENCIA: los códigos emergen de los datos (bottom-up), no de
   categorías a priori.
3. VARIABILIDAD: respeta diferencias individuales, no fuerces homogeneidad.

PREPARACIÓN DEL VERBATIM:
- Marca declaraciones no-descriptivas (generalizaciones, evaluaciones,
  teorías, causales) sin eliminarlas.
- Evalúa la confiabilidad de cada segmento (detalles sensoriales,
  coherencia temporal, respuesta no-inductiva, metáforas originales,
  pausas, oraciones fragmentadas, verbos de acción):
  alta (✓✓✓) ≥4 criterios, media (✓✓) 2-3, baja (✓) 0-1.
- Segmenta en unidades de significado con formato [U#-P##].

ANÁLISIS DIMENSIONAL (6 dimensiones obligatorias por unidad):
1. CORPORAL: tipo-localización-intensidad-dinámica
   (ej: presion-pecho-alta-estatica)
2. AFECTIVA: emoción-calidad-intensidad-valencia
   (ej: terror-paralizante-muy-alto-negativo)
3. COGNITIVA: tipo-contenido-tono
   (ej: catastrofismo-muerte-inminente-intenso)
4. MOTIVACIONAL: impulso-tipo-objeto-intensidad
   (ej: impulso-huida-rapida-urgente)
5. TEMPORAL: fase-nombre-descriptivo; usa nombres fenomenológicos,
   nunca "fase-1".
6. RELACIONAL: atencion-orientación-objeto-cualidad
   (ej: atencion-self-interoceptiva-cardiaca)
Usa [No mencionado] cuando una dimensión está ausente; no inventes.

SALIDA (solo JSON válido, sin preámbulo, sin markdown):
{
  "participant_id": "P##",
  "phenomenon_nucleus": "síntesis narrativa de 2-3 párrafos",
  "markdown_table": "| Unidad | Cita | CORP | AFEC | COG | MOT | TEMP | REL |...",
  "dimensional_statistics": {
    "corporal": {"coverage": "X%", "total_codes": N},
    "affective": {"coverage": "X%", "total_codes": N},
    "cognitive": {"coverage": "X%", "total_codes": N},
    "motivational": {"coverage": "X%", "total_codes": N},
    "temporal": {"coverage": "100%", "total_codes": N},
    "relational": {"coverage": "X%", "total_codes": N}
  },
  "codes": [{"code": "codigo-especifico", "dimension": "...", "unit": "U#-P##", "quote": "..."}]
}`

// buildIndividualPrompt assembles the complete individual-analysis prompt
// for one participant, injecting the optional protocol guide, imported
// coding scheme, and research context blocks.
func buildIndividualPrompt(text, participantID string, opts Options) string {
	var sb strings.Builder
	sb.WriteString(partIndividual)
	sb.WriteString("\n\n")

	if opts.Context != "" {
		sb.WriteString("CONTEXTO DE INVESTIGACIÓN:\n")
		sb.WriteString(opts.Context)
		sb.WriteString("\n\n")
	}
	if opts.ProtocolBlock != "" {
		sb.WriteString(opts.ProtocolBlock)
		sb.WriteString("\n")
	}
	if opts.CodeScheme != "" {
		sb.WriteString("ESQUEMA DE CÓDIGOS IMPORTADO (referencia, no a priori):\n")
		sb.WriteString(opts.CodeScheme)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "ANÁLISIS DE PARTICIPANTE %s\n\nTRANSCRIPCIÓN ORIGINAL:\n\n%s\n\n", participantID, text)
	sb.WriteString("RETORNA SOLO JSON VÁLIDO (sin preamble, sin markdown):\n")

	return sb.String()
}
