// Package protocol parses interview guides into classified question lists.
//
// Question lines are matched against numbered, bulleted, lettered and
// speaker-tagged patterns, with a bare trailing-question-mark fallback.
// Classification and theme extraction are pure functions of question text,
// so re-parsing the same guide always yields the same result.
package protocol

import (
	"regexp"
	"sort"
	"strings"
)

// QuestionType classifies an interview-guide question.
type QuestionType string

const (
	TypeOpening QuestionType = "opening"
	TypeCore    QuestionType = "core"
	TypeProbing QuestionType = "probing"
	TypeClosing QuestionType = "closing"
)

// Question is one classified interview-guide question.
type Question struct {
	Number int          `json:"number"`
	Text   string       `json:"text"`
	Type   QuestionType `json:"type"`
}

// Protocol is the parsed interview guide.
type Protocol struct {
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
	Themes         []string   `json:"themes"`
}

// questionPatterns are tried in order; each requires the captured text to
// end in a question mark.
var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d+[.)]\s*(.+\?)`),  // 1. ¿Pregunta?  1) ¿Pregunta?
	regexp.MustCompile(`(?i)^[-•]\s*(.+\?)`),     // - ¿Pregunta?  • ¿Pregunta?
	regexp.MustCompile(`(?i)^[A-Z]\.\s*(.+\?)`),  // A. ¿Pregunta?
	regexp.MustCompile(`(?i)^P\d+:\s*(.+\?)`),    // P1: ¿Pregunta?
}

// Parse extracts the ordered question list and the deduplicated,
// alphabetically sorted theme list from protocol text.
func Parse(text string) *Protocol {
	p := &Protocol{}
	themeSet := make(map[string]struct{})

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		var questionText string
		for _, pat := range questionPatterns {
			if m := pat.FindStringSubmatch(line); m != nil {
				questionText = strings.TrimSpace(m[1])
				break
			}
		}
		if questionText == "" && strings.HasSuffix(line, "?") {
			questionText = line
		}
		if questionText == "" {
			continue
		}

		p.Questions = append(p.Questions, Question{
			Number: len(p.Questions) + 1,
			Text:   questionText,
			Type:   Classify(questionText),
		})
		for _, theme := range ExtractThemes(questionText) {
			themeSet[theme] = struct{}{}
		}
	}

	p.TotalQuestions = len(p.Questions)
	p.Themes = make([]string, 0, len(themeSet))
	for theme := range themeSet {
		p.Themes = append(p.Themes, theme)
	}
	sort.Strings(p.Themes)

	return p
}

var (
	openingKeywords = []string{
		"cuéntame", "describe", "cómo empezó", "cómo comenzó",
		"podrías contarme", "me gustaría que", "para empezar",
	}
	coreKeywords = []string{
		"sentiste", "experimentaste", "qué pasó", "qué sucedió",
		"cómo fue", "qué viviste", "cómo lo viviste", "percibiste",
	}
	probingKeywords = []string{
		"puedes dar un ejemplo", "específicamente", "en ese momento",
		"qué más", "y luego", "después de eso", "cómo así",
	}
	closingKeywords = []string{
		"para terminar", "finalmente", "algo más que", "quieres agregar",
		"hay algo que no hayamos",
	}
	interrogativeWords = []string{"qué", "cómo", "cuándo", "dónde", "por qué"}
)

// Classify assigns a question type by keyword precedence: opening beats
// core beats probing beats closing; questions carrying an interrogative
// word but no keyword default to probing, everything else to core.
// The ordering is load-bearing for reproducibility.
func Classify(question string) QuestionType {
	q := strings.ToLower(question)

	switch {
	case containsAny(q, openingKeywords):
		return TypeOpening
	case containsAny(q, coreKeywords):
		return TypeCore
	case containsAny(q, probingKeywords):
		return TypeProbing
	case containsAny(q, closingKeywords):
		return TypeClosing
	case containsAny(q, interrogativeWords):
		return TypeProbing
	default:
		return TypeCore
	}
}

// themeEntry keeps the theme table ordered so ExtractThemes output is
// deterministic for a single question.
type themeEntry struct {
	theme    string
	keywords []string
}

var themeTable = []themeEntry{
	{"experiencia", []string{"experiencia", "vivencia"}},
	{"emoción", []string{"emoción", "sentimiento", "afecto"}},
	{"cuerpo", []string{"cuerpo", "corporal", "físico", "sensación"}},
	{"pensamiento", []string{"pensamiento", "pensar", "reflexión", "idea"}},
	{"tiempo", []string{"tiempo", "momento", "duración", "temporalidad"}},
	{"relación", []string{"relación", "otro", "otros", "vínculo", "interacción"}},
	{"espacio", []string{"espacio", "lugar", "entorno", "ambiente"}},
	{"acción", []string{"acción", "hacer", "actuar", "comportamiento"}},
	{"significado", []string{"significado", "sentido", "importancia"}},
}

// ExtractThemes returns the controlled-vocabulary themes whose keywords
// appear in the question. A question can carry multiple themes.
func ExtractThemes(question string) []string {
	q := strings.ToLower(question)
	var themes []string
	for _, entry := range themeTable {
		if containsAny(q, entry.keywords) {
			themes = append(themes, entry.theme)
		}
	}
	return themes
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
