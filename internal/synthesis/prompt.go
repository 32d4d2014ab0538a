package synthesis

import (
	"encoding/json"
	"fmt"

	"github.com/andresrv/qualia/internal/analysis"
)

const partSynthesis = `================================================================================
SÍNTESIS CROSS-CASE
PARTE 2: CODEBOOK JERÁRQUICO Y CLUSTERING EXPERIENCIAL
================================================================================

**INPUT**: Análisis individuales de N participantes (JSON format de Parte 1)

## PASO 3.1: CODEBOOK EMERGENTE (4 Niveles Jerárquicos)

**PROCESO** (bottom-up):
1. Reunir TODOS los códigos de todos los participantes
2. Agrupar códigos similares en **Especificaciones** (nivel 3)
3. Agrupar especificaciones en **Subcategorías** (nivel 2)
4. Agrupar subcategorías en **Categorías Principales** (nivel 1)

**REGLAS DE VALIDACIÓN**:
- Cada código específico DEBE tener ≥2 citas de ≥2 participantes
- Códigos con N=1 participante → Reportar como "Variante Individual" (separado)
- Cada especificación DEBE tener ≥2 códigos
- Cada subcategoría DEBE tener ≥2 especificaciones

## PASO 3.2: CLUSTERING EXPERIENCIAL

Identifica estructuras experienciales (perfiles fenomenológicos):
- Coherencia ≥75% en ≥4/6 dimensiones dentro de cada estructura
- Estructuras mutuamente excluyentes, cada una con ≥2 participantes
- Descripción fenomenológica integrada con citas ejemplares

## PASO 3.3: ESTRUCTURA TEMPORAL DIFERENCIADA

Fases con nombres fenomenológicos, manifestación diferenciada por
estructura, frecuencia global por fase.

## FORMATO DE SALIDA (JSON)

{
  "codebook": {
    "statistics": {"n_categories": N, "n_subcategories": N, "n_specifications": N, "n_codes": N, "n_quotes": N, "recurrence_rate": "X%"},
    "categories": [
      {
        "name": "...", "definition": "...", "n_participants": N,
        "subcategories": [
          {
            "name": "...", "definition": "...",
            "specifications": [
              {
                "name": "...", "definition": "...",
                "codes": [
                  {"code": "...", "definition": "...", "participants": ["P##"], "total_quotes": N,
                   "quotes": [{"text": "verbatim", "participant": "P##", "reference": "P##-U##"}]}
                ]
              }
            ]
          }
        ]
      }
    ],
    "excluded_codes": [{"code": "...", "participant": "P##", "reason": "N=1, variante individual"}]
  },
  "experiential_structures": [
    {"structure_name": "...", "n_participants": N, "participants": ["P##"], "phenomenological_description": "..."}
  ],
  "differentiated_temporal_structure": [
    {"phase_name": "...", "frequency_global": "X/N",
     "manifestation_structure_A": {"summary": "..."},
     "manifestation_structure_B": {"summary": "..."}}
  ]
}`

const partValidation = `================================================================================
VALIDACIÓN FINAL
PARTE 3: VERIFICACIÓN, SATURACIÓN Y CONSISTENCIA
================================================================================

## PASO 4.1: VERIFICACIÓN DE EVIDENCIA (Anti-Hallucination)

Para CADA código en el codebook, verificar:
1. ≥2 citas de ≥2 participantes diferentes
2. Citas son textuales (no parafraseadas)
3. Referencias [P##-U##] correctas

## PASO 4.2: SATURACIÓN TEMÁTICA

Curva de saturación (códigos nuevos por participante).

**Criterio**:
- COMPLETA: ≥90% códigos recurrentes
- PARCIAL: 80-89% códigos recurrentes
- NO SATURACIÓN: <80%

## PASO 4.3: CONSISTENCIA INTERNA

Test 1: mutua exclusividad de estructuras (ningún participante con
características de ambas). Test 2: coherencia de co-ocurrencias
predichas vs observadas.

## CHECKLIST DE AUTO-VERIFICACIÓN FINAL (45 ítems)

Cubre: principios fundamentales (epoché, códigos emergentes,
granularidad 4 niveles), análisis individual (6 dimensiones,
trazabilidad [U#-P##]), codebook (recurrencia, definiciones
operacionales, frecuencias, códigos excluidos), estructura temporal,
clustering, validación, formato, y calidad científica.

**CRITERIO APROBACIÓN**:
- ≥42/45 (93%+): EXCELENTE
- 38-41 (84-91%): BUENO
- 34-37 (76-83%): ACEPTABLE
- <34 (<76%): REQUIERE REVISIÓN`

const (
	codebookSummaryLimit   = 2000
	structuresSummaryLimit = 1000
)

func buildSynthesisPrompt(analyses []analysis.Record) string {
	return fmt.Sprintf(`%s

================================================================================
SÍNTESIS CROSS-CASE DE %d PARTICIPANTES
================================================================================

ANÁLISIS INDIVIDUALES:

%s

================================================================================

INSTRUCCIONES FINALES:

1. Construye codebook emergente de 4 niveles (categoría→subcategoría→especificación→código)
2. Valida CADA código: ≥2 citas de ≥2 participantes
3. Identifica estructuras experienciales con coherencia ≥75%% en ≥4/6 dimensiones
4. Genera estructura temporal diferenciada por perfil
5. Incluye frecuencias (N y %%) en TODOS los niveles
6. Marca códigos únicos como "Variantes Individuales"

RETORNA SOLO JSON VÁLIDO (sin preamble, sin markdown):
`, partSynthesis, len(analyses), joinSummaries(analyses))
}

func buildValidationPrompt(res Result, participants int) string {
	codebookJSON, _ := json.MarshalIndent(res.Codebook, "", "  ")
	structuresJSON, _ := json.MarshalIndent(res.Structures, "", "  ")

	return fmt.Sprintf(`%s

================================================================================
VALIDACIÓN FINAL - %d PARTICIPANTES
================================================================================

CODEBOOK GENERADO (primeras %d chars):
%s

ESTRUCTURAS EXPERIENCIALES:
%s

================================================================================

INSTRUCCIONES FINALES:

1. Verifica evidencia de CADA código individualmente
2. Calcula curva de saturación (códigos nuevos por participante)
3. Verifica consistencia interna (mutua exclusividad + co-ocurrencias)
4. Completa checklist de 45 ítems
5. Reporta códigos de frecuencia límite (N=2 participantes)

RETORNA JSON CON:
- evidence_verification: {código: {valid: bool, reason: str}}
- saturation_analysis: {curve: [...], diagnosis: str}
- internal_consistency: {mutual_exclusivity: bool, coherent_cooccurrences: X/Y}
- checklist_score: X/45
- quality_rating: "EXCELLENT/GOOD/ACCEPTABLE/NEEDS_REVISION"
`, partValidation, participants, codebookSummaryLimit,
		truncate(string(codebookJSON), codebookSummaryLimit),
		truncate(string(structuresJSON), structuresSummaryLimit))
}
