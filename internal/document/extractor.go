package document

import (
	"path/filepath"
	"strings"

	"github.com/nikhilbhutani/docsearch/internal/models"
	"github.com/nikhilbhutani/docsearch/pkg/textextract"
)

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	Extract(filename string, data []byte) (string, error)
}

var formats = map[string]textextract.Format{
	".pdf":  textextract.PDF,
	".doc":  textextract.Word,
	".docx": textextract.Word,
	".txt":  textextract.Text,
}

type extractor struct {
	caseInsensitive bool
}

// NewTextExtractor creates an extractor dispatching on the filename suffix.
// With caseInsensitive set, "REPORT.PDF" is treated as a PDF.
func NewTextExtractor(caseInsensitive bool) TextExtractor {
	return &extractor{caseInsensitive: caseInsensitive}
}

func (e *extractor) Extract(filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	key := ext
	if e.caseInsensitive {
		key = strings.ToLower(ext)
	}

	format, ok := formats[key]
	if !ok {
		return "", models.UnsupportedFormat(ext)
	}

	text, err := textextract.Extract(data, format)
	if err != nil {
		return "", models.ExtractionFailed(strings.TrimPrefix(key, "."), err)
	}
	return text, nil
}
