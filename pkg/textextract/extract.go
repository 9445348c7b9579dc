// Package textextract turns PDF, Word and plain text bytes into plain text.
package textextract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Format is a document format handled by this package.
type Format string

const (
	PDF  Format = "pdf"
	Word Format = "word"
	Text Format = "text"
)

// ErrInvalidUTF8 is returned for plain text that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

// Extract returns the plain text of data interpreted as format.
func Extract(data []byte, format Format) (string, error) {
	switch format {
	case PDF:
		return ExtractPDF(data)
	case Word:
		return ExtractDOCX(data)
	case Text:
		return ExtractTXT(data)
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}

// ExtractTXT decodes data as UTF-8 and returns it verbatim.
func ExtractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

// ExtractPDF returns the text of every page that has any, one page per line.
func ExtractPDF(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read PDF page %d: %w", i, err)
		}
		// The reader starts every text object with a newline.
		pages = append(pages, strings.Trim(content, "\r\n"))
	}

	return joinPages(pages), nil
}

// joinPages joins page texts with newlines, skipping pages without text.
func joinPages(pages []string) string {
	var buf strings.Builder
	first := true
	for _, p := range pages {
		if p == "" {
			continue
		}
		if !first {
			buf.WriteByte('\n')
		}
		buf.WriteString(p)
		first = false
	}
	return buf.String()
}
