package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
)

// DocxMimeType is the media type of Word .docx documents
const DocxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	docxBodyPart     = "word/document.xml"
	wordNamespace    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	maxDocxBodyBytes = 64 * 1024 * 1024
)

// DocxExtractor reads the body text of .docx uploads locally. Every Word
// paragraph becomes a blank-line separated span before splitting.
type DocxExtractor struct{}

// Supports reports whether mimeType is a .docx document
func (DocxExtractor) Supports(mimeType string) bool {
	return baseMimeType(mimeType) == DocxMimeType
}

// Extract unpacks word/document.xml and splits its paragraphs into untyped clauses
func (DocxExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*models.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid .docx archive", ErrUnsupportedMimeType, mimeType)
	}

	var body *zip.File
	for _, f := range archive.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: archive has no %s", ErrUnsupportedMimeType, docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(io.LimitReader(rc, maxDocxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", docxBodyPart, err)
	}

	text := strings.Join(paragraphs, "\n\n")
	return &models.Extraction{
		Text:    text,
		Clauses: pipeline.Split(text),
	}, nil
}

// docxParagraphs collects the text runs of each non-empty w:p element in order.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
