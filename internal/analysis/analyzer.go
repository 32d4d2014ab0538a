package analysis

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/andresrv/qualia/internal/llm"
)

const (
	analysisTemperature = 0.2
	analysisMaxTokens   = 16000
	rawResponseLimit    = 500
)

// Completer is the language-model call used for analysis.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Options carries optional context injected into the analysis prompt.
type Options struct {
	ProtocolBlock string // formatted interview guide, may be empty
	CodeScheme    string // formatted imported coding scheme, may be empty
	Context       string // free-text research context, may be empty
}

// Analyzer runs the individual phenomenological analysis of one
// participant's text.
type Analyzer struct {
	client Completer
}

// NewAnalyzer creates an Analyzer using the given completion client.
func NewAnalyzer(client Completer) *Analyzer {
	return &Analyzer{client: client}
}

// AnalyzeIndividual analyzes one participant's text and returns the
// decoded record. Transport errors surface to the caller. A response
// that is not valid JSON is never re-parsed or retried: the returned
// record is a stub carrying the participant id, the decode error, and a
// truncated prefix of the offending response.
func (a *Analyzer) AnalyzeIndividual(ctx context.Context, text, participantID string, opts Options) (Record, error) {
	prompt := buildIndividualPrompt(text, participantID, opts)

	response, err := a.client.Complete(ctx, llm.Request{
		System:      "You are an expert in Giorgi's descriptive phenomenological method. Return ONLY valid JSON.",
		Prompt:      prompt,
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(response), &rec); err != nil {
		slog.Warn("analysis response is not valid JSON", "participant", participantID, "error", err)
		return Record{
			ParticipantID: participantID,
			Err:           err.Error(),
			RawResponse:   truncate(response, rawResponseLimit),
		}, nil
	}

	rec.ParticipantID = participantID
	return rec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
