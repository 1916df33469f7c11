// Package extract pulls readable text out of uploaded resume files.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/okian/collegeapi/pkg/metrics"
)

// Formats recognized by Text.
const (
	FormatDOCX = "docx"
	FormatPDF  = "pdf"
	FormatText = "text"
)

// FormatOf maps a filename to the format Text will use.
func FormatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return FormatDOCX
	case ".pdf":
		return FormatPDF
	default:
		return FormatText
	}
}

// Text returns the trimmed text of data, choosing the decoder by the file
// extension. Corrupt or unreadable documents yield an empty string; callers
// treat empty text as unusable input.
func Text(filename string, data []byte) string {
	format := FormatOf(filename)

	var (
		text string
		err  error
	)
	switch format {
	case FormatDOCX:
		text, err = docxText(data)
	case FormatPDF:
		text, err = pdfText(data)
	default:
		text = strings.ToValidUTF8(string(data), "")
	}
	text = strings.TrimSpace(text)

	outcome := metrics.OutcomeSuccess
	if err != nil || text == "" {
		outcome = metrics.OutcomeError
		text = ""
	}
	metrics.RecordDocumentExtraction(format, outcome)
	return text
}
