package qdpx

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeArchive(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "project.qdpx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

const namespacedProject = `<?xml version="1.0" encoding="UTF-8"?>
<Project xmlns="urn:QDA-XML:project:1.0"
         name="Vertigo Study"
         creationDateTime="2024-01-10T09:00:00Z"
         modifiedDateTime="2024-02-01T12:00:00Z"
         creatingUserGUID="u-1234">
  <CodeBook>
    <Codes>
      <Code name="miedo_corporal" guid="c-1" color="#FF0000" isCodable="true" comment="sensaciones de miedo"/>
      <Code name="anticipación" guid="c-2" color="#00FF00" isCodable="false"/>
    </Codes>
  </CodeBook>
</Project>`

func TestExtractNamespacedCodes(t *testing.T) {
	path := writeArchive(t, map[string]string{"project.qde": namespacedProject})

	p, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(p.Codes) != 2 {
		t.Fatalf("len(Codes) = %d, want 2", len(p.Codes))
	}

	first := p.Codes[0]
	if first.Name != "miedo_corporal" || first.GUID != "c-1" || first.Color != "#FF0000" {
		t.Errorf("Codes[0] = %+v", first)
	}
	if !first.IsCodable {
		t.Error("Codes[0].IsCodable should be true")
	}
	if first.Comment != "sensaciones de miedo" {
		t.Errorf("Codes[0].Comment = %q", first.Comment)
	}
	if p.Codes[1].IsCodable {
		t.Error("Codes[1].IsCodable should be false")
	}

	info := p.ProjectInfo
	if info.Name != "Vertigo Study" || info.Creator != "u-1234" {
		t.Errorf("ProjectInfo = %+v", info)
	}
	if info.Created != "2024-01-10T09:00:00Z" {
		t.Errorf("Created = %q", info.Created)
	}

	if p.CodeGroups == nil || len(p.CodeGroups) != 0 {
		t.Errorf("CodeGroups = %v, want empty non-nil slice", p.CodeGroups)
	}
}

// Archives that omit the QDA namespace declaration still yield codes via
// the namespace-agnostic fallback pass.
func TestExtractNamespaceFallback(t *testing.T) {
	project := `<?xml version="1.0"?>
<Project name="Legacy">
  <Codes>
    <Code name="sin_namespace" guid="c-9" isCodable="true"/>
  </Codes>
</Project>`
	path := writeArchive(t, map[string]string{"legacy.qde": project})

	p, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(p.Codes) != 1 || p.Codes[0].Name != "sin_namespace" {
		t.Errorf("Codes = %+v", p.Codes)
	}
}

func TestExtractNoQDEFile(t *testing.T) {
	path := writeArchive(t, map[string]string{"sources/interview.txt": "text"})

	_, err := Extract(path)
	if !errors.Is(err, ErrMalformedArchive) {
		t.Errorf("expected ErrMalformedArchive, got %v", err)
	}
}

func TestExtractCorruptXML(t *testing.T) {
	path := writeArchive(t, map[string]string{"broken.qde": "<Project><Code name="})

	_, err := Extract(path)
	var parseErr *ArchiveParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ArchiveParseError, got %v", err)
	}
}

func TestExtractNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.qdpx")
	if err := os.WriteFile(path, []byte("plain text, not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Extract(path)
	var parseErr *ArchiveParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ArchiveParseError, got %v", err)
	}
}

func TestExtractBytes(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create("project.qde")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(namespacedProject))
	w.Close()

	p, err := ExtractBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(p.Codes) != 2 {
		t.Errorf("len(Codes) = %d, want 2", len(p.Codes))
	}
}
