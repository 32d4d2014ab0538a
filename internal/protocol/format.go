package protocol

import (
	"fmt"
	"strings"
)

// FormatForPrompt renders the parsed protocol as a block suitable for
// injection into an analysis prompt, so the model can relate emergent
// codes back to the questions that elicited them. Returns "" when no
// questions were parsed.
func FormatForPrompt(p *Protocol) string {
	if p == nil || len(p.Questions) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("PROTOCOLO DE ENTREVISTA:\n\n")
	fmt.Fprintf(&sb, "Total de preguntas: %d\n", len(p.Questions))
	if len(p.Themes) > 0 {
		fmt.Fprintf(&sb, "Temas principales: %s\n", strings.Join(p.Themes, ", "))
	}
	sb.WriteString("\nPreguntas guía:\n")
	for _, q := range p.Questions {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", q.Number, strings.ToUpper(string(q.Type)), q.Text)
	}

	sb.WriteString("\n" + strings.Repeat("=", 80) + "\n\n")
	sb.WriteString(`INSTRUCCIÓN PARA EL ANÁLISIS:
Al codificar la transcripción, ten en cuenta las preguntas del protocolo:
1. Relaciona los códigos emergentes con las preguntas que los elicitaron
2. Identifica qué aspectos fenomenológicos surgen de cada tipo de pregunta
3. Verifica si todas las áreas del protocolo fueron exploradas en la entrevista
4. Nota cualquier tema emergente que NO esté en el protocolo (emergencia genuina)

Esto ayudará a distinguir entre:
- Contenido directamente elicitado por las preguntas
- Contenido emergente espontáneo del participante
`)

	return sb.String()
}

// Summary returns a one-line per-type count breakdown for display.
func Summary(p *Protocol) string {
	if p == nil || len(p.Questions) == 0 {
		return "No protocol loaded"
	}

	counts := make(map[QuestionType]int)
	var order []QuestionType
	for _, q := range p.Questions {
		if counts[q.Type] == 0 {
			order = append(order, q.Type)
		}
		counts[q.Type]++
	}

	parts := make([]string, len(order))
	for i, t := range order {
		parts[i] = fmt.Sprintf("%d %s", counts[t], t)
	}
	return fmt.Sprintf("%d questions: %s", p.TotalQuestions, strings.Join(parts, ", "))
}
