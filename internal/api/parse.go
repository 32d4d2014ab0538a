package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/andresrv/qualia/internal/dialogue"
	"github.com/andresrv/qualia/internal/docparse"
	"github.com/andresrv/qualia/internal/protocol"
	"github.com/andresrv/qualia/internal/qdpx"
)

// readUpload extracts the "file" part of a multipart upload.
func readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "", err
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

func handleParseDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, filename, err := readUpload(w, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading upload: %v", err)
			return
		}

		kind, err := docparse.DetectKind(filename)
		if errors.Is(err, docparse.ErrUnsupportedFormat) {
			httpError(w, http.StatusUnsupportedMediaType, "invalid_request_error", "unsupported document format: %s", filename)
			return
		}
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "detecting format: %v", err)
			return
		}

		doc, err := docparse.ParseBytes(data, kind)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "parse_error", "parsing document: %v", err)
			return
		}

		structure := dialogue.Detect(doc.Lines)

		writeJSON(w, map[string]any{
			"filename":  filename,
			"format":    kind,
			"document":  doc,
			"structure": structure,
		})
	}
}

func handleParseProtocol(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := protocolText(w, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading protocol: %v", err)
			return
		}

		p := protocol.Parse(text)
		writeJSON(w, map[string]any{
			"protocol":     p,
			"prompt_block": protocol.FormatForPrompt(p),
			"summary":      protocol.Summary(p),
		})
	}
}

// protocolText resolves the protocol body: an uploaded file (parsed by
// format) or a plain text field.
func protocolText(w http.ResponseWriter, r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, filename, err := readUpload(w, r)
	if err != nil {
		return "", err
	}
	kind, err := docparse.DetectKind(filename)
	if err != nil {
		// Unknown extensions are treated as plain text protocols.
		return string(data), nil
	}
	doc, err := docparse.ParseBytes(data, kind)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

func handleImportCodebook(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, filename, err := readUpload(w, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading upload: %v", err)
			return
		}

		project, err := qdpx.ExtractBytes(data)
		if errors.Is(err, qdpx.ErrMalformedArchive) {
			httpError(w, http.StatusUnprocessableEntity, "parse_error", "%v", err)
			return
		}
		var parseErr *qdpx.ArchiveParseError
		if errors.As(err, &parseErr) {
			httpError(w, http.StatusUnprocessableEntity, "parse_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "extracting archive: %v", err)
			return
		}

		writeJSON(w, map[string]any{
			"filename": filename,
			"project":  project,
		})
	}
}
