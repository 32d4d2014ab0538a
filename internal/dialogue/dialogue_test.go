package dialogue

import (
	"testing"

	"github.com/andresrv/qualia/internal/docparse"
)

func linesFrom(contents ...string) []docparse.Line {
	lines := make([]docparse.Line, len(contents))
	for i, c := range contents {
		lines[i] = docparse.Line{Number: i + 1, Content: c}
	}
	return lines
}

func TestDetectBasicInterview(t *testing.T) {
	lines := linesFrom(
		"Código: P21",
		"Fecha: 2024-03-15",
		"E: ¿Cómo te sentiste al ver el vacío?",
		"P21: Sentí un nudo en el estómago.",
		"E: ¿Y después?",
		"P21: Me temblaban las piernas.",
		"nota marginal sin hablante",
	)

	s := Detect(lines)

	if s.ParticipantCode != "P21" {
		t.Errorf("ParticipantCode = %q, want P21", s.ParticipantCode)
	}
	if s.Metadata["Fecha"] != "2024-03-15" {
		t.Errorf("Metadata[Fecha] = %q", s.Metadata["Fecha"])
	}
	if s.TotalTurns != 4 {
		t.Errorf("TotalTurns = %d, want 4", s.TotalTurns)
	}
	if s.InterviewerTurns != 2 || s.ParticipantTurns != 2 {
		t.Errorf("turns = %d interviewer / %d participant, want 2/2", s.InterviewerTurns, s.ParticipantTurns)
	}

	want := "Sentí un nudo en el estómago.\nMe temblaban las piernas."
	if s.ParticipantText != want {
		t.Errorf("ParticipantText = %q, want %q", s.ParticipantText, want)
	}

	first := s.DialogueTurns[0]
	if first.LineNumber != 3 || first.Speaker != RoleInterviewer || first.SpeakerLabel != "E" {
		t.Errorf("first turn = %+v", first)
	}
}

// Each line yields at most one turn; interviewer rules are tried first,
// so a bare "P:" marker still goes to the participant rule only once.
func TestDetectOneTurnPerLine(t *testing.T) {
	lines := linesFrom("P: una sola intervención")

	s := Detect(lines)

	if s.TotalTurns != 1 {
		t.Fatalf("TotalTurns = %d, want 1", s.TotalTurns)
	}
	if s.DialogueTurns[0].Speaker != RoleParticipant {
		t.Errorf("Speaker = %q, want participant", s.DialogueTurns[0].Speaker)
	}
}

func TestDetectSpeakerLabels(t *testing.T) {
	tests := []struct {
		line  string
		role  Role
		label string
	}{
		{"Entrevistador: pregunta", RoleInterviewer, "Entrevistador"},
		{"Interviewer: question", RoleInterviewer, "Interviewer"},
		{"I: question", RoleInterviewer, "I"},
		{"Investigador: pregunta", RoleInterviewer, "Investigador"},
		{"Researcher: question", RoleInterviewer, "Researcher"},
		{"Participante: respuesta", RoleParticipant, "Participante"},
		{"Entrevistado: respuesta", RoleParticipant, "Entrevistado"},
		{"P7: respuesta", RoleParticipant, "P7"},
	}

	for _, tt := range tests {
		s := Detect(linesFrom(tt.line))
		if s.TotalTurns != 1 {
			t.Errorf("%q: TotalTurns = %d, want 1", tt.line, s.TotalTurns)
			continue
		}
		turn := s.DialogueTurns[0]
		if turn.Speaker != tt.role {
			t.Errorf("%q: Speaker = %q, want %q", tt.line, turn.Speaker, tt.role)
		}
		if turn.SpeakerLabel != tt.label {
			t.Errorf("%q: SpeakerLabel = %q, want %q", tt.line, turn.SpeakerLabel, tt.label)
		}
	}
}

func TestDetectMetadataLastWins(t *testing.T) {
	lines := linesFrom("Código: P1", "Código: P2")

	s := Detect(lines)

	if s.ParticipantCode != "P2" {
		t.Errorf("ParticipantCode = %q, want P2 (last match wins)", s.ParticipantCode)
	}
}

func TestDetectParticipantIDEnglish(t *testing.T) {
	s := Detect(linesFrom("Participant ID: P33"))

	if s.ParticipantCode != "P33" {
		t.Errorf("ParticipantCode = %q, want P33", s.ParticipantCode)
	}
	if s.Metadata["Participant ID"] != "P33" {
		t.Errorf("Metadata[Participant ID] = %q", s.Metadata["Participant ID"])
	}
}

func TestDetectNoTurns(t *testing.T) {
	s := Detect(linesFrom("texto suelto", "más texto"))

	if s.TotalTurns != 0 {
		t.Errorf("TotalTurns = %d, want 0", s.TotalTurns)
	}
	if s.ParticipantText != "" {
		t.Errorf("ParticipantText = %q, want empty", s.ParticipantText)
	}
}

func TestAnalysisTextFallback(t *testing.T) {
	doc := &docparse.Document{Text: "narrativa completa sin marcadores"}

	got := AnalysisText(doc, Detect(nil))
	if got != doc.Text {
		t.Errorf("AnalysisText = %q, want full document text", got)
	}

	s := Detect(linesFrom("P: lo que dije"))
	got = AnalysisText(doc, s)
	if got != "lo que dije" {
		t.Errorf("AnalysisText = %q, want participant text", got)
	}
}
