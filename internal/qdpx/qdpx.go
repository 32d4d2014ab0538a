// Package qdpx extracts coding schemes from QDPX qualitative project
// archives: zip containers holding a .qde project-description XML in the
// urn:QDA-XML:project:1.0 namespace.
package qdpx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// QDANamespace is the QDA-XML project namespace used by conforming archives.
const QDANamespace = "urn:QDA-XML:project:1.0"

// ErrMalformedArchive is returned when the archive lacks a .qde project file.
var ErrMalformedArchive = errors.New("no .qde project file found in archive")

// ArchiveParseError wraps any failure unpacking or parsing the archive,
// carrying the original message.
type ArchiveParseError struct {
	Err error
}

func (e *ArchiveParseError) Error() string {
	return fmt.Sprintf("parsing qdpx archive: %v", e.Err)
}

func (e *ArchiveParseError) Unwrap() error { return e.Err }

// Code is one entry of an externally authored coding scheme. Identifier
// uniqueness is assumed from the source archive, not re-validated.
type Code struct {
	Name      string `json:"name"`
	GUID      string `json:"guid"`
	Color     string `json:"color"`
	IsCodable bool   `json:"is_codable"`
	Comment   string `json:"comment"`
}

// ProjectInfo carries the root-element attributes verbatim. The creator
// GUID is not resolved to a display name.
type ProjectInfo struct {
	Name     string `json:"name"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
	Creator  string `json:"creator"`
}

// Project is the extraction result. CodeGroups is always empty in the
// current design: a declared extension point, pending confirmation of
// which archive subtree grouping should be read from.
type Project struct {
	Codes       []Code      `json:"codes"`
	CodeGroups  []string    `json:"code_groups"`
	ProjectInfo ProjectInfo `json:"project_info"`
}

// Extract unpacks the archive at path, locates the embedded .qde file
// (first found wins) and returns its coding scheme.
func Extract(path string) (*Project, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ArchiveParseError{Err: err}
	}
	defer r.Close()

	var qde *zip.File
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, ".qde") {
			qde = f
			break
		}
	}
	if qde == nil {
		return nil, ErrMalformedArchive
	}

	rc, err := qde.Open()
	if err != nil {
		return nil, &ArchiveParseError{Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &ArchiveParseError{Err: err}
	}

	project, err := parseProjectXML(data)
	if err != nil {
		return nil, &ArchiveParseError{Err: err}
	}
	return project, nil
}

// ExtractBytes extracts a coding scheme from an in-memory archive
// (upload path). The buffer is written to a scoped temporary file that
// is removed on every exit path.
func ExtractBytes(data []byte) (*Project, error) {
	tmp, err := os.CreateTemp("", "qualia-*.qdpx")
	if err != nil {
		return nil, &ArchiveParseError{Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, &ArchiveParseError{Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &ArchiveParseError{Err: err}
	}

	return Extract(tmp.Name())
}

// parseProjectXML walks the project XML collecting Code elements in the
// QDA namespace. If the namespaced search yields nothing, the identical
// search runs again ignoring namespace, as a compatibility fallback for
// archives that omit the declaration.
func parseProjectXML(data []byte) (*Project, error) {
	info, err := rootInfo(data)
	if err != nil {
		return nil, err
	}

	codes, err := collectCodes(data, QDANamespace)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		codes, err = collectCodes(data, "")
		if err != nil {
			return nil, err
		}
	}

	return &Project{
		Codes:       codes,
		CodeGroups:  []string{},
		ProjectInfo: info,
	}, nil
}

func rootInfo(data []byte) (ProjectInfo, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return ProjectInfo{}, fmt.Errorf("project XML has no root element")
		}
		if err != nil {
			return ProjectInfo{}, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		return ProjectInfo{
			Name:     attr(start, "name"),
			Created:  attr(start, "creationDateTime"),
			Modified: attr(start, "modifiedDateTime"),
			Creator:  attr(start, "creatingUserGUID"),
		}, nil
	}
}

// collectCodes scans all elements named Code. With namespace == "" any
// namespace is accepted.
func collectCodes(data []byte, namespace string) ([]Code, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var codes []Code
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Code" {
			continue
		}
		if namespace != "" && start.Name.Space != namespace {
			continue
		}
		codes = append(codes, Code{
			Name:      attr(start, "name"),
			GUID:      attr(start, "guid"),
			Color:     attr(start, "color"),
			IsCodable: attr(start, "isCodable") == "true",
			Comment:   attr(start, "comment"),
		})
	}
	return codes, nil
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
