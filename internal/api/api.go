package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andresrv/qualia/internal/analysis"
	"github.com/andresrv/qualia/internal/storage"
	"github.com/andresrv/qualia/internal/synthesis"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxUploadSize = 20 << 20     // 20MB

// Analyzer abstracts the individual analysis call for the API layer.
type Analyzer interface {
	AnalyzeIndividual(ctx context.Context, text, participantID string, opts analysis.Options) (analysis.Record, error)
}

// Synthesizer abstracts the cross-case synthesis calls for the API layer.
type Synthesizer interface {
	Synthesize(ctx context.Context, analyses []analysis.Record) (synthesis.Result, error)
	Validate(ctx context.Context, res synthesis.Result, analyses []analysis.Record) (synthesis.Validation, error)
}

type Deps struct {
	Store       *storage.Store
	Analyzer    Analyzer    // optional; analysis endpoints return 503 when nil
	Synthesizer Synthesizer // optional; synthesis endpoint returns 503 when nil
	Token       string
	Model       string
}

// NewHandler returns the REST API handler. Every route except /health
// requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/documents", handleParseDocument(deps))
		r.Post("/protocols", handleParseProtocol(deps))
		r.Post("/codebooks/import", handleImportCodebook(deps))

		r.Post("/analyses", handleCreateAnalysis(deps))
		r.Get("/analyses", handleListAnalyses(deps))
		r.Get("/analyses/{id}", handleGetAnalysis(deps))
		r.Delete("/analyses/{id}", handleDeleteAnalysis(deps))

		r.Post("/syntheses", handleCreateSynthesis(deps))
		r.Post("/aggregate", handleAggregate(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
