package docparse

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF concatenates per-page extracted text in page order, one page
// per newline-terminated block, then builds the numbered line list.
func parsePDF(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", i, path, err)
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	full := sb.String()
	return buildDocument(full, strings.Split(full, "\n")), nil
}
