package textextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

// ErrMissingDocumentPart is returned for a zip archive without a main document part.
var ErrMissingDocumentPart = errors.New("missing " + documentPart)

type documentXML struct {
	Body struct {
		Paragraphs []paragraphXML `xml:"p"`
	} `xml:"body"`
}

type paragraphXML struct {
	Inner []byte `xml:",innerxml"`
}

// ExtractDOCX returns the body paragraphs of an Office Open XML document, one per line.
// Empty paragraphs produce empty lines. Tables, headers and footers are not included.
func ExtractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}

	var part *zip.File
	for _, f := range reader.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", ErrMissingDocumentPart
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", documentPart, err)
	}
	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", documentPart, err)
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse %s: %w", documentPart, err)
	}

	lines := make([]string, len(doc.Body.Paragraphs))
	for i, p := range doc.Body.Paragraphs {
		text, err := paragraphText(p.Inner)
		if err != nil {
			return "", fmt.Errorf("parse paragraph %d: %w", i, err)
		}
		lines[i] = text
	}
	return strings.Join(lines, "\n"), nil
}

// paragraphText collects run text, tabs and breaks of a single w:p element body.
func paragraphText(inner []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(inner))
	var buf strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return buf.String(), nil
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr", "rPr":
				// Property blocks hold tab stop definitions, not content.
				if err := dec.Skip(); err != nil {
					return "", err
				}
			case "t":
				inText = true
			case "tab":
				buf.WriteByte('\t')
			case "br", "cr":
				buf.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
}
