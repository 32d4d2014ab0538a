package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Analysis is one persisted individual interview analysis.
type Analysis struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	InputText     string    `json:"-"`
	ResultJSON    string    `json:"result"`
	Model         string    `json:"model"`
	CreatedAt     time.Time `json:"created_at"`
}

// Synthesis is one persisted cross-case synthesis run.
type Synthesis struct {
	ID            string    `json:"id"`
	AnalysisCount int       `json:"analysis_count"`
	ResultJSON    string    `json:"result"`
	Report        string    `json:"report"`
	Model         string    `json:"model"`
	CreatedAt     time.Time `json:"created_at"`
}
