package cli

import (
	"errors"

	"github.com/fpang/neuroscan-edit/internal/auth"
	"github.com/fpang/neuroscan-edit/internal/chat"
	"github.com/fpang/neuroscan-edit/internal/codec"
)

// Explain returns the message to show a person for err: the user-facing text
// of validation and edit failures, or a hint for API key problems.
func Explain(err error) string {
	var keyErr *auth.ValidationError
	var valErr *codec.ValidationError
	var editErr *chat.EditError
	switch {
	case errors.Is(err, auth.ErrNoKey):
		return "No API key configured. Set API_KEY or GEMINI_API_KEY"
	case errors.As(err, &keyErr):
		switch keyErr.Type {
		case auth.ErrTypeNoKey:
			return "No API key configured. Set API_KEY or GEMINI_API_KEY"
		case auth.ErrTypeInvalidKey:
			return "Invalid API key. Please check your API key and try again"
		case auth.ErrTypeNetworkError:
			return "Network error. Please check your internet connection"
		case auth.ErrTypeQuotaExceeded:
			return "API quota exceeded. Please try again later or check your usage limits"
		default:
			return "API key validation failed: " + keyErr.Error()
		}
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.As(err, &editErr):
		return editErr.Message
	default:
		return err.Error()
	}
}
