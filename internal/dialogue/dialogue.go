// Package dialogue classifies transcript lines into interviewer and
// participant turns using an ordered, first-match-wins rule set.
package dialogue

import (
	"regexp"
	"strings"

	"github.com/andresrv/qualia/internal/docparse"
)

// Role identifies the speaker of a dialogue turn.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleParticipant Role = "participant"
)

// Turn is one attributed utterance extracted from a transcript line.
type Turn struct {
	LineNumber   int    `json:"line_number"`
	Speaker      Role   `json:"speaker"`
	SpeakerLabel string `json:"speaker_label"`
	Content      string `json:"content"`
}

// Structure is the result of dialogue detection over a line list.
type Structure struct {
	Metadata         map[string]string `json:"metadata"`
	ParticipantCode  string            `json:"participant_code,omitempty"`
	DialogueTurns    []Turn            `json:"dialogue_turns"`
	ParticipantText  string            `json:"participant_text"`
	TotalTurns       int               `json:"total_turns"`
	InterviewerTurns int               `json:"interviewer_turns"`
	ParticipantTurns int               `json:"participant_turns"`
}

// speakerRule pairs an anchored marker pattern with the role it assigns.
// Rules are evaluated in order; the first match wins and a line produces
// at most one turn. Interviewer rules run before participant rules so an
// ambiguously authored marker never emits two turns for one line.
type speakerRule struct {
	pattern *regexp.Regexp
	role    Role
}

var speakerRules = []speakerRule{
	{regexp.MustCompile(`(?i)^(Entrevistador|Interviewer|E|I):\s*(.+)`), RoleInterviewer},
	{regexp.MustCompile(`(?i)^(Investigador|Researcher|R):\s*(.+)`), RoleInterviewer},
	{regexp.MustCompile(`(?i)^(Participante|Participant|P|Entrevistado):\s*(.+)`), RoleParticipant},
	{regexp.MustCompile(`(?i)^(P\d+):\s*(.+)`), RoleParticipant},
}

// metadataRule matches a labelled key/value line anywhere in the line.
// isParticipantID marks the keys that also set the participant code.
type metadataRule struct {
	pattern         *regexp.Regexp
	key             string
	isParticipantID bool
}

var metadataRules = []metadataRule{
	{regexp.MustCompile(`(?i)Código:\s*(.+)`), "Código", true},
	{regexp.MustCompile(`(?i)Participant ID:\s*(.+)`), "Participant ID", true},
	{regexp.MustCompile(`(?i)Fecha:\s*(.+)`), "Fecha", false},
	{regexp.MustCompile(`(?i)Date:\s*(.+)`), "Date", false},
}

// Detect walks the line list in order, recording metadata and dialogue
// turns. Unmatched lines are silently skipped; they are not an error.
// Last metadata match wins when a key repeats.
func Detect(lines []docparse.Line) *Structure {
	s := &Structure{
		Metadata: make(map[string]string),
	}

	for _, line := range lines {
		for _, rule := range metadataRules {
			m := rule.pattern.FindStringSubmatch(line.Content)
			if m == nil {
				continue
			}
			value := strings.TrimSpace(m[1])
			s.Metadata[rule.key] = value
			if rule.isParticipantID {
				s.ParticipantCode = value
			}
		}

		for _, rule := range speakerRules {
			m := rule.pattern.FindStringSubmatch(line.Content)
			if m == nil {
				continue
			}
			s.DialogueTurns = append(s.DialogueTurns, Turn{
				LineNumber:   line.Number,
				Speaker:      rule.role,
				SpeakerLabel: m[1],
				Content:      strings.TrimSpace(m[2]),
			})
			break
		}
	}

	var participant []string
	for _, t := range s.DialogueTurns {
		switch t.Speaker {
		case RoleInterviewer:
			s.InterviewerTurns++
		case RoleParticipant:
			s.ParticipantTurns++
			participant = append(participant, t.Content)
		}
	}
	s.ParticipantText = strings.Join(participant, "\n")
	s.TotalTurns = len(s.DialogueTurns)

	return s
}

// AnalysisText returns the participant-only text, falling back to the
// full document text when no participant turns were detected.
func AnalysisText(doc *docparse.Document, s *Structure) string {
	if s.ParticipantText != "" {
		return s.ParticipantText
	}
	return doc.Text
}
