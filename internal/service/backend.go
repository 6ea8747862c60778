package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pageza/macrosync/backend/internal/aierr"
)

// ErrEmptyResponse is returned when the backend answers without any text.
var ErrEmptyResponse = errors.New("backend returned no content")

// GenerateRequest is one structured-output call.
type GenerateRequest struct {
	Model  string
	Prompt string
	// Image is optional inline image data sent ahead of the prompt.
	Image []byte
	// ImageFormat is the image subtype, e.g. "jpeg".
	ImageFormat string
	Schema      *Schema
}

// Backend generates JSON text for a request.
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenAIBackend calls the Gemini API.
type GenAIBackend struct {
	client *genai.Client
}

// NewGenAIBackend creates a Gemini client for apiKey.
func NewGenAIBackend(ctx context.Context, apiKey string) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, aierr.New(aierr.KindConfiguration, "genai.NewClient", ErrMissingCredential)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIBackend{client: client}, nil
}

// Generate asks the model for JSON conforming to req.Schema.
func (b *GenAIBackend) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := b.client.GenerativeModel(req.Model)
	model.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		model.ResponseSchema = req.Schema.GenAI()
	}

	parts := make([]genai.Part, 0, 2)
	if len(req.Image) > 0 {
		format := req.ImageFormat
		if format == "" {
			format = "jpeg"
		}
		parts = append(parts, genai.ImageData(format, req.Image))
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", aierr.New(aierr.KindParse, "genai.GenerateContent", ErrEmptyResponse)
	}
	return sb.String(), nil
}

// Close releases the underlying client.
func (b *GenAIBackend) Close() error {
	return b.client.Close()
}
