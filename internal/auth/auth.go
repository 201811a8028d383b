package auth

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
)

// KeyEnvVars lists the environment variables consulted for the Gemini API
// key, in priority order. API_KEY is what the hosted UI was deployed with.
var KeyEnvVars = []string{"API_KEY", "GEMINI_API_KEY"}

// ErrNoKey is returned when no key source is set.
var ErrNoKey = errors.New("API key not found. Set API_KEY or GEMINI_API_KEY")

// GetAPIKey retrieves the Gemini API key from the environment.
func GetAPIKey() (string, error) {
	for _, name := range KeyEnvVars {
		if key := os.Getenv(name); key != "" {
			log.Debug().Str("source", name).Msg("Using API key from environment variable")
			return key, nil
		}
	}
	return "", ErrNoKey
}

// LookupAPIKey is GetAPIKey for callers that must keep running without a
// key: absence is logged as a configuration error and an empty key returned.
func LookupAPIKey() string {
	key, err := GetAPIKey()
	if err != nil {
		log.Error().Err(err).Msg("Configuration error: Gemini API key is missing; edit requests will fail")
		return ""
	}
	return key
}
