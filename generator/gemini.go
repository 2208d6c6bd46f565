// Package generator connects the pipeline to Google's Gemini models. Gemini
// rewrites matched clauses in one batched call and GeminiExtractor recovers
// text and typed clause candidates from binary documents.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"clauseguard-backend/logging"
	"clauseguard-backend/pipeline"
)

var (
	ErrGenerationFailed = errors.New("failed to generate content")
	ErrEmptyResponse    = errors.New("model returned no content")
	ErrMalformedJSON    = errors.New("model returned malformed JSON")
)

const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.2
	maxRetries         = 3
	initialBackoff     = time.Second
)

// contentGenerator is the part of *genai.GenerativeModel the package uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type settings struct {
	model          string
	temperature    float32
	maxRetries     int
	initialBackoff time.Duration
	logger         logging.Logger
}

func defaultSettings() settings {
	return settings{
		model:          DefaultModel,
		temperature:    DefaultTemperature,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
		logger:         logging.NewNopLogger(),
	}
}

// Option is a functional option for Gemini and GeminiExtractor
type Option func(*settings)

// WithModel sets the Gemini model name
func WithModel(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.model = name
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) Option {
	return func(s *settings) {
		s.temperature = t
	}
}

// WithMaxRetries sets the number of attempts per call
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithInitialBackoff sets the delay before the first retry; it doubles on each attempt
func WithInitialBackoff(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.initialBackoff = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewClient creates a Gemini API client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// caller issues GenerateContent with bounded retries.
type caller struct {
	model          contentGenerator
	maxRetries     int
	initialBackoff time.Duration
	logger         logging.Logger
}

func newCaller(model contentGenerator, s settings) caller {
	return caller{
		model:          model,
		maxRetries:     s.maxRetries,
		initialBackoff: s.initialBackoff,
		logger:         s.logger,
	}
}

// call returns the concatenated text of the first candidate. Transport errors
// and empty answers are retried with exponential backoff; blocked prompts and
// context errors are not.
func (c caller) call(ctx context.Context, parts ...genai.Part) (string, error) {
	var lastErr error
	backoff := c.initialBackoff
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		resp, err := c.model.GenerateContent(ctx, parts...)
		if err == nil {
			var text string
			text, err = c.responseText(resp)
			if err == nil {
				return text, nil
			}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		lastErr = err
		c.logger.Warn("gemini call failed",
			logging.Int("attempt", attempt+1),
			logging.Int("max_attempts", c.maxRetries),
			logging.Err(err),
		)
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrGenerationFailed, c.maxRetries, lastErr)
}

func (c caller) responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
		c.logger.Warn("gemini candidate finished early", logging.Any("finish_reason", candidate.FinishReason))
	}
	if candidate.Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// Gemini implements pipeline.Generator with a single batched, schema-constrained call.
type Gemini struct {
	caller
}

var _ pipeline.Generator = (*Gemini)(nil)

// NewGemini creates a clause generator backed by client
func NewGemini(client *genai.Client, opts ...Option) *Gemini {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	model := client.GenerativeModel(s.model)
	model.SetTemperature(s.temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = recommendationSchema
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(recommendationInstruction)}}
	return &Gemini{caller: newCaller(model, s)}
}

// Generate rewrites every clause in batch. Results are returned in the order
// the model produced them; the caller validates count and content.
func (g *Gemini) Generate(ctx context.Context, batch []pipeline.GenerationRequest) ([]pipeline.GenerationResult, error) {
	if len(batch) == 0 {
		return []pipeline.GenerationResult{}, nil
	}
	prompt, err := buildRecommendationPrompt(batch)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := g.call(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	results, err := parseRecommendations(text)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("gemini generation complete",
		logging.Int("requested", len(batch)),
		logging.Int("returned", len(results)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
