package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"clauseguard-backend/logging"
	"clauseguard-backend/models"
)

// ErrUnsupportedMimeType is returned for documents Gemini cannot read inline.
var ErrUnsupportedMimeType = errors.New("unsupported document type")

var extractableTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
	"image/heic":      true,
	"text/plain":      true,
	"text/markdown":   true,
}

// GeminiExtractor reads PDFs and scanned pages with Gemini and returns the
// document text together with typed clause candidates.
type GeminiExtractor struct {
	caller
}

// NewGeminiExtractor creates an extractor backed by client
func NewGeminiExtractor(client *genai.Client, opts ...Option) *GeminiExtractor {
	s := defaultSettings()
	s.temperature = 0
	for _, opt := range opts {
		opt(&s)
	}
	model := client.GenerativeModel(s.model)
	model.SetTemperature(s.temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = extractionSchema
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(extractionInstruction)}}
	return &GeminiExtractor{caller: newCaller(model, s)}
}

// Supports reports whether the extractor can read mimeType
func (e *GeminiExtractor) Supports(mimeType string) bool {
	return extractableTypes[normalizeMimeType(mimeType)]
}

// Extract sends the document to Gemini and parses the clauses it returns.
func (e *GeminiExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*models.Extraction, error) {
	mimeType = normalizeMimeType(mimeType)
	if !extractableTypes[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMimeType, mimeType)
	}
	if len(data) == 0 {
		return nil, errors.New("document is empty")
	}

	text, err := e.call(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text(buildExtractionPrompt()),
	)
	if err != nil {
		return nil, err
	}
	extraction, err := parseExtraction(text)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("gemini extraction complete",
		logging.String("mime_type", mimeType),
		logging.Int("bytes", len(data)),
		logging.Int("clauses", len(extraction.Clauses)),
	)
	return extraction, nil
}

func normalizeMimeType(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
