package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ErrNoAPIKey is the cause reported by every edit call when the service
// started without a credential.
var ErrNoAPIKey = errors.New("API key is not configured; set API_KEY or GEMINI_API_KEY")

// ContentGenerator is the slice of the genai SDK used by this package.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGeminiClient creates a Gemini API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// unavailableGenerator fails every call with err. It stands in for the SDK
// when no client could be built, so the UI still loads and only remote calls
// fail.
type unavailableGenerator struct {
	err error
}

func (u unavailableGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, u.err
}

// NewEditorFromKey builds an ImageEditor for apiKey. A missing key or a client
// construction failure is logged as a configuration error and yields an
// editor whose calls fail with that cause.
func NewEditorFromKey(ctx context.Context, apiKey, model string) (*ImageEditor, *genai.Client) {
	client, err := NewGeminiClient(ctx, apiKey)
	if err != nil {
		log.Error().Err(err).Msg("Gemini client unavailable; edit requests will fail")
		return NewImageEditor(unavailableGenerator{err: err}, model), nil
	}
	return NewImageEditor(client.Models, model), client
}
