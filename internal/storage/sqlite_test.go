package storage

import (
	"errors"
	"fmt"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) == 0 {
		t.Fatal("expected at least one applied migration")
	}

	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	indexes := []string{"idx_analyses_participant", "idx_analyses_created_at", "idx_syntheses_created_at"}
	for _, idx := range indexes {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying index %s: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("expected index %s to exist", idx)
		}
	}
}

func TestAnalysisRoundTrip(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveAnalysis("P21", "input text", `{"participant_id":"P21"}`, "claude-3-5-sonnet-latest")
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetAnalysis(saved.ID)
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got.ParticipantID != "P21" {
		t.Errorf("ParticipantID = %q, want P21", got.ParticipantID)
	}
	if got.InputText != "input text" {
		t.Errorf("InputText = %q", got.InputText)
	}
	if got.ResultJSON != `{"participant_id":"P21"}` {
		t.Errorf("ResultJSON = %q", got.ResultJSON)
	}
	if got.Model != "claude-3-5-sonnet-latest" {
		t.Errorf("Model = %q", got.Model)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetAnalysis("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAnalysesPagination(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.SaveAnalysis(fmt.Sprintf("P%d", i), "text", "{}", "m"); err != nil {
			t.Fatalf("SaveAnalysis %d: %v", i, err)
		}
	}

	page, err := s.ListAnalyses(2, 0)
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(page))
	}

	rest, err := s.ListAnalyses(10, 2)
	if err != nil {
		t.Fatalf("ListAnalyses offset: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("expected 3 analyses after offset 2, got %d", len(rest))
	}
}

func TestListAnalysesByParticipant(t *testing.T) {
	s := openTestStore(t)

	for _, pid := range []string{"P21", "P21", "P27"} {
		if _, err := s.SaveAnalysis(pid, "text", "{}", "m"); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
	}

	got, err := s.ListAnalysesByParticipant("P21")
	if err != nil {
		t.Fatalf("ListAnalysesByParticipant: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 analyses for P21, got %d", len(got))
	}
}

func TestDeleteAnalysis(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveAnalysis("P21", "text", "{}", "m")
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	if err := s.DeleteAnalysis(saved.ID); err != nil {
		t.Fatalf("DeleteAnalysis: %v", err)
	}
	if _, err := s.GetAnalysis(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteAnalysis(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSynthesisRoundTrip(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveSynthesis(3, `{"codebook":{}}`, "# REPORT", "m")
	if err != nil {
		t.Fatalf("SaveSynthesis: %v", err)
	}

	got, err := s.GetSynthesis(saved.ID)
	if err != nil {
		t.Fatalf("GetSynthesis: %v", err)
	}
	if got.AnalysisCount != 3 {
		t.Errorf("AnalysisCount = %d, want 3", got.AnalysisCount)
	}
	if got.Report != "# REPORT" {
		t.Errorf("Report = %q", got.Report)
	}

	list, err := s.ListSyntheses(10)
	if err != nil {
		t.Fatalf("ListSyntheses: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 synthesis, got %d", len(list))
	}
}
