package docparse

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// parseDocx reads word/document.xml from the ZIP archive and walks its
// paragraphs in document order. Only non-blank paragraphs are kept.
func parseDocx(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", path, err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("docx %s: word/document.xml not found in archive", path)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	paragraphs := docxParagraphs(xml.NewDecoder(rc))

	var lines []Line
	for _, text := range paragraphs {
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, Line{Number: len(lines) + 1, Content: text})
	}

	contents := make([]string, len(lines))
	for i, l := range lines {
		contents[i] = l.Content
	}

	return &Document{
		Text:       strings.Join(contents, "\n"),
		Lines:      lines,
		TotalLines: len(lines),
	}, nil
}

// docxParagraphs collects the character data of each <w:p> element,
// in document order. Text runs inside a paragraph are concatenated.
// Decoding stops at the first token error, keeping whatever was read.
func docxParagraphs(dec *xml.Decoder) []string {
	var paragraphs []string
	var current strings.Builder
	inParagraph := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				current.Reset()
			}
		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				paragraphs = append(paragraphs, current.String())
			}
		}
	}

	return paragraphs
}
