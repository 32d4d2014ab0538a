// Package docparse extracts line-indexed text from interview documents.
//
// Supported kinds:
//   - pdf:  per-page text extraction (github.com/ledongthuc/pdf)
//   - docx: archive/zip, word/document.xml paragraph walk
//   - text: plain text passthrough
//
// Blank lines are dropped before numbering, so line numbers are always
// dense 1..N in source order.
package docparse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when a document kind has no parser.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Kind identifies a document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDocx Kind = "docx"
	KindText Kind = "text"
)

// Line is one non-blank unit of extracted text.
type Line struct {
	Number  int    `json:"line_number"`
	Content string `json:"content"`
}

// Document is the result of extracting a source file.
type Document struct {
	Text       string `json:"text"`
	Lines      []Line `json:"lines"`
	TotalLines int    `json:"total_lines"`
}

// DetectKind maps a file name to a document kind by extension.
func DetectKind(filename string) (Kind, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		return KindPDF, nil
	case ".docx", ".doc":
		return KindDocx, nil
	case ".txt", ".text":
		return KindText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Parse extracts a document of the given kind from a file on disk.
func Parse(path string, kind Kind) (*Document, error) {
	switch kind {
	case KindPDF:
		return parsePDF(path)
	case KindDocx:
		return parseDocx(path)
	case KindText:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return fromText(string(data)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}
}

// ParseBytes extracts a document from an in-memory buffer (upload path).
// The buffer is written to a scoped temporary file that is removed on
// every exit path.
func ParseBytes(data []byte, kind Kind) (*Document, error) {
	if kind == KindText {
		return fromText(string(data)), nil
	}

	tmp, err := os.CreateTemp("", "qualia-doc-*."+string(kind))
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	return Parse(tmp.Name(), kind)
}

// fromText builds a Document from raw text, keeping non-blank lines only.
func fromText(text string) *Document {
	return buildDocument(text, strings.Split(text, "\n"))
}

func buildDocument(fullText string, rawLines []string) *Document {
	var lines []Line
	for _, l := range rawLines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, Line{Number: len(lines) + 1, Content: l})
	}
	return &Document{
		Text:       fullText,
		Lines:      lines,
		TotalLines: len(lines),
	}
}
