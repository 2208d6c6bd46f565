package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"

	"golang.org/x/crypto/blake2b"
)

// Extractor turns an uploaded document into text and clause candidates
type Extractor interface {
	Supports(mimeType string) bool
	Extract(ctx context.Context, data []byte, mimeType string) (*models.Extraction, error)
}

// PlainTextExtractor reads text/* uploads locally and splits them into clauses.
type PlainTextExtractor struct{}

// Supports reports whether mimeType is a text type
func (PlainTextExtractor) Supports(mimeType string) bool {
	return strings.HasPrefix(baseMimeType(mimeType), "text/")
}

// Extract decodes data as UTF-8 text and splits it into untyped clauses
func (PlainTextExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*models.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedMimeType, mimeType)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	return &models.Extraction{
		Text:    text,
		Clauses: pipeline.Split(text),
	}, nil
}

func baseMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// fingerprint returns the hex BLAKE2b-256 digest of data
func fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
