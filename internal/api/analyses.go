package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andresrv/qualia/internal/analysis"
	"github.com/andresrv/qualia/internal/storage"
	"github.com/andresrv/qualia/internal/synthesis"
)

type analysisRequest struct {
	ParticipantID string `json:"participant_id"`
	Text          string `json:"text"`
	Context       string `json:"context"`
	Protocol      string `json:"protocol"`
	CodeScheme    string `json:"code_scheme"`
}

func handleCreateAnalysis(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Analyzer == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "analysis backend not configured")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		var req analysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}
		if req.ParticipantID == "" {
			req.ParticipantID = "Pxx"
		}

		rec, err := deps.Analyzer.AnalyzeIndividual(r.Context(), req.Text, req.ParticipantID, analysis.Options{
			ProtocolBlock: req.Protocol,
			CodeScheme:    req.CodeScheme,
			Context:       req.Context,
		})
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "analysis failed: %v", err)
			return
		}

		resultJSON, err := json.Marshal(rec)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "encoding result: %v", err)
			return
		}
		saved, err := deps.Store.SaveAnalysis(req.ParticipantID, req.Text, string(resultJSON), deps.Model)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving analysis: %v", err)
			return
		}

		writeJSON(w, map[string]any{
			"id":     saved.ID,
			"result": rec,
		})
	}
}

func handleListAnalyses(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		analyses, err := deps.Store.ListAnalyses(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list analyses: %v", err)
			return
		}
		if analyses == nil {
			analyses = []storage.Analysis{}
		}
		writeJSON(w, analyses)
	}
}

func handleGetAnalysis(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		a, err := deps.Store.GetAnalysis(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "analysis not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get analysis: %v", err)
			return
		}
		writeJSON(w, a)
	}
}

func handleDeleteAnalysis(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteAnalysis(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "analysis not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete analysis: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

type synthesisRequest struct {
	AnalysisIDs []string `json:"analysis_ids"`
}

func handleCreateSynthesis(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Synthesizer == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "synthesis backend not configured")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req synthesisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		records, err := loadRecords(deps.Store, req.AnalysisIDs)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "analysis not found")
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "loading analyses: %v", err)
			return
		}
		if len(records) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no analyses available to synthesize")
			return
		}

		res, err := deps.Synthesizer.Synthesize(r.Context(), records)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "synthesis failed: %v", err)
			return
		}
		validation, err := deps.Synthesizer.Validate(r.Context(), res, records)
		if err != nil {
			slog.Warn("validation call failed", "error", err)
			validation = synthesis.Validation{Err: err.Error()}
		}
		report := synthesis.Report(records, res, &validation, deps.Model)

		resultJSON, err := json.Marshal(map[string]any{
			"synthesis":  res,
			"validation": validation,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "encoding result: %v", err)
			return
		}
		saved, err := deps.Store.SaveSynthesis(len(records), string(resultJSON), report, deps.Model)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving synthesis: %v", err)
			return
		}

		writeJSON(w, map[string]any{
			"id":         saved.ID,
			"synthesis":  res,
			"validation": validation,
			"report":     report,
		})
	}
}

// loadRecords resolves stored analyses into canonical records. An empty
// id list loads the most recent analyses.
func loadRecords(store *storage.Store, ids []string) ([]analysis.Record, error) {
	var rows []storage.Analysis
	if len(ids) == 0 {
		var err error
		rows, err = store.ListAnalyses(100, 0)
		if err != nil {
			return nil, err
		}
	} else {
		for _, id := range ids {
			a, err := store.GetAnalysis(id)
			if err != nil {
				return nil, err
			}
			rows = append(rows, a)
		}
	}

	var records []analysis.Record
	for _, row := range rows {
		rec, _, err := analysis.NormalizeRecord([]byte(row.ResultJSON), row.ParticipantID)
		if err != nil {
			slog.Warn("skipping stored analysis with undecodable result",
				"id", row.ID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

type aggregateRequest struct {
	Results []json.RawMessage `json:"results"`
}

func handleAggregate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		var req aggregateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(req.Results) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "results is required and must not be empty")
			return
		}

		inputs := make([]synthesis.Input, len(req.Results))
		for i, raw := range req.Results {
			inputs[i] = synthesis.Input{Raw: raw}
		}
		writeJSON(w, synthesis.Merge(inputs))
	}
}
