package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// fileConfig mirrors Config for the TOML settings file. Every key is
// optional; absent keys leave the environment untouched.
type fileConfig struct {
	Model          string   `toml:"model"`
	Port           int      `toml:"port"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	AllowedTypes   []string `toml:"allowed_types"`
	DownloadName   string   `toml:"download_name"`
	SessionIdleTTL string   `toml:"session_idle_ttl"`
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"`
}

// ApplyFile decodes a TOML settings file and exports each key it sets as the
// matching environment variable, unless that variable is already set.
//
//	model = "gemini-3-pro-image-preview"
//	port = 9090
//	allowed_types = ["image/png", "image/jpeg"]
//	session_idle_ttl = "10m"
func ApplyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var fc fileConfig
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	values := map[string]string{
		"GEMINI_MODEL":               fc.Model,
		"NEUROSCAN_DOWNLOAD_NAME":    fc.DownloadName,
		"NEUROSCAN_SESSION_IDLE_TTL": fc.SessionIdleTTL,
		"GEMINI_LOG_LEVEL":           fc.LogLevel,
		"NEUROSCAN_LOG_FORMAT":       fc.LogFormat,
		"NEUROSCAN_ALLOWED_TYPES":    strings.Join(fc.AllowedTypes, ","),
	}
	if fc.Port != 0 {
		values["NEUROSCAN_PORT"] = strconv.Itoa(fc.Port)
	}
	if fc.MaxUploadBytes != 0 {
		values["NEUROSCAN_MAX_UPLOAD_BYTES"] = strconv.FormatInt(fc.MaxUploadBytes, 10)
	}

	applied := 0
	for key, v := range values {
		if v == "" {
			continue
		}
		if cur, ok := os.LookupEnv(key); ok && cur != "" {
			continue
		}
		if err := os.Setenv(key, v); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		applied++
	}
	log.Debug().Str("file", path).Int("applied", applied).Msg("Loaded config file")
	return nil
}
