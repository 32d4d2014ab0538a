package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database persisting analyses and syntheses.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "qualia.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Analyses ---

// SaveAnalysis persists one individual analysis and returns it with a
// generated ID and creation timestamp.
func (s *Store) SaveAnalysis(participantID, inputText, resultJSON, model string) (Analysis, error) {
	a := Analysis{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		InputText:     inputText,
		ResultJSON:    resultJSON,
		Model:         model,
		CreatedAt:     time.Now().UTC(),
	}
	_, err := s.db.Exec(`
		INSERT INTO analyses (id, participant_id, input_text, result_json, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ParticipantID, a.InputText, a.ResultJSON, a.Model, a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Analysis{}, err
	}
	return a, nil
}

func (s *Store) GetAnalysis(id string) (Analysis, error) {
	var a Analysis
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, participant_id, input_text, result_json, model, created_at
		FROM analyses WHERE id = ?`, id,
	).Scan(&a.ID, &a.ParticipantID, &a.InputText, &a.ResultJSON, &a.Model, &createdAt)
	if err == sql.ErrNoRows {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Analysis{}, fmt.Errorf("parsing created_at: %w", err)
	}
	a.CreatedAt = t
	return a, nil
}

// ListAnalyses returns analyses newest first. offset skips that many
// rows; limit caps the page size.
func (s *Store) ListAnalyses(limit, offset int) ([]Analysis, error) {
	rows, err := s.db.Query(`
		SELECT id, participant_id, input_text, result_json, model, created_at
		FROM analyses ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Analysis
	for rows.Next() {
		var a Analysis
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.InputText, &a.ResultJSON, &a.Model, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		a.CreatedAt = t
		results = append(results, a)
	}
	return results, rows.Err()
}

// ListAnalysesByParticipant returns every analysis for one participant,
// newest first.
func (s *Store) ListAnalysesByParticipant(participantID string) ([]Analysis, error) {
	rows, err := s.db.Query(`
		SELECT id, participant_id, input_text, result_json, model, created_at
		FROM analyses WHERE participant_id = ? ORDER BY created_at DESC`, participantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Analysis
	for rows.Next() {
		var a Analysis
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.InputText, &a.ResultJSON, &a.Model, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		a.CreatedAt = t
		results = append(results, a)
	}
	return results, rows.Err()
}

func (s *Store) DeleteAnalysis(id string) error {
	res, err := s.db.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Syntheses ---

// SaveSynthesis persists one cross-case synthesis run and returns it
// with a generated ID and creation timestamp.
func (s *Store) SaveSynthesis(analysisCount int, resultJSON, report, model string) (Synthesis, error) {
	syn := Synthesis{
		ID:            uuid.NewString(),
		AnalysisCount: analysisCount,
		ResultJSON:    resultJSON,
		Report:        report,
		Model:         model,
		CreatedAt:     time.Now().UTC(),
	}
	_, err := s.db.Exec(`
		INSERT INTO syntheses (id, analysis_count, result_json, report, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		syn.ID, syn.AnalysisCount, syn.ResultJSON, syn.Report, syn.Model, syn.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Synthesis{}, err
	}
	return syn, nil
}

func (s *Store) GetSynthesis(id string) (Synthesis, error) {
	var syn Synthesis
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, analysis_count, result_json, report, model, created_at
		FROM syntheses WHERE id = ?`, id,
	).Scan(&syn.ID, &syn.AnalysisCount, &syn.ResultJSON, &syn.Report, &syn.Model, &createdAt)
	if err == sql.ErrNoRows {
		return Synthesis{}, ErrNotFound
	}
	if err != nil {
		return Synthesis{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Synthesis{}, fmt.Errorf("parsing created_at: %w", err)
	}
	syn.CreatedAt = t
	return syn, nil
}

func (s *Store) ListSyntheses(limit int) ([]Synthesis, error) {
	rows, err := s.db.Query(`
		SELECT id, analysis_count, result_json, report, model, created_at
		FROM syntheses ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Synthesis
	for rows.Next() {
		var syn Synthesis
		var createdAt string
		if err := rows.Scan(&syn.ID, &syn.AnalysisCount, &syn.ResultJSON, &syn.Report, &syn.Model, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		syn.CreatedAt = t
		results = append(results, syn)
	}
	return results, rows.Err()
}
