package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/neuroscan-edit/internal/auth"
	"github.com/fpang/neuroscan-edit/internal/chat"
)

// InitEditor creates an ImageEditor for model. Unlike the servers, a
// terminal run needs the key up front, so a missing key is an error. With
// validate set the key is also checked against the API first.
func InitEditor(ctx context.Context, model string, validate bool) (*chat.ImageEditor, error) {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		return nil, err
	}

	client, err := chat.NewGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	log.Debug().Msg("Gemini client initialized")

	if validate {
		if err := auth.ValidateAPIKey(ctx, client.Models); err != nil {
			return nil, err
		}
	}
	return chat.NewImageEditor(client.Models, model), nil
}
