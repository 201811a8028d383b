// Package config resolves runtime settings from the process environment,
// .env files, an optional TOML file, and defaults, in that order of
// precedence. Command-line flags are applied by the caller afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fpang/neuroscan-edit/internal/chat"
	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultDownloadName is the filename offered for the generated image.
const DefaultDownloadName = "neuroscan_analysis.png"

// Config holds every non-secret setting. The API key is resolved separately
// by the auth package so it never travels with loggable configuration.
type Config struct {
	Model          string
	Port           int
	MaxUploadBytes int64
	AllowedTypes   []string
	DownloadName   string
	SessionIdleTTL time.Duration
	LogLevel       string
	LogFormat      string
}

// ConfigFileEnv names the variable holding the optional TOML settings path.
const ConfigFileEnv = "NEUROSCAN_CONFIG"

// Load reads .env and .env.local if present, then the TOML file named by
// NEUROSCAN_CONFIG, then builds the Config from the environment. Neither
// source overrides variables that are already set.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
		log.Debug().Str("file", f).Msg("Loaded environment file")
	}
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := ApplyFile(path); err != nil {
			return nil, err
		}
	}
	return FromEnv()
}

// FromEnv builds the Config from environment variables and defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Model:          getEnv("GEMINI_MODEL", chat.DefaultModelName),
		DownloadName:   getEnv("NEUROSCAN_DOWNLOAD_NAME", DefaultDownloadName),
		LogLevel:       getEnv("GEMINI_LOG_LEVEL", "info"),
		LogFormat:      getEnv("NEUROSCAN_LOG_FORMAT", "console"),
		AllowedTypes:   splitList(getEnv("NEUROSCAN_ALLOWED_TYPES", strings.Join(codec.DefaultAllowedPrefixes, ","))),
		SessionIdleTTL: 30 * time.Minute,
	}

	var err error
	if cfg.Port, err = getEnvInt("NEUROSCAN_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = getEnvInt64("NEUROSCAN_MAX_UPLOAD_BYTES", codec.DefaultMaxBytes); err != nil {
		return nil, err
	}
	if v := os.Getenv("NEUROSCAN_SESSION_IDLE_TTL"); v != "" {
		if cfg.SessionIdleTTL, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid NEUROSCAN_SESSION_IDLE_TTL %q: %w", v, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes))
	}
	if len(c.AllowedTypes) == 0 {
		errs = append(errs, errors.New("at least one allowed MIME prefix is required"))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, fmt.Errorf("session idle TTL must be positive, got %s", c.SessionIdleTTL))
	}
	if c.DownloadName == "" {
		errs = append(errs, errors.New("download name must not be empty"))
	}
	return errors.Join(errs...)
}

// CodecOptions returns the upload validation options.
func (c *Config) CodecOptions() codec.Options {
	return codec.Options{
		MaxBytes:        c.MaxUploadBytes,
		AllowedPrefixes: append([]string(nil), c.AllowedTypes...),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return i, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return i, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
