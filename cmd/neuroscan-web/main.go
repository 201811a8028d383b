package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/neuroscan-edit/internal/auth"
	"github.com/fpang/neuroscan-edit/internal/chat"
	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/fpang/neuroscan-edit/internal/config"
	"github.com/fpang/neuroscan-edit/internal/logging"
	"github.com/fpang/neuroscan-edit/internal/metrics"
	"github.com/fpang/neuroscan-edit/internal/session"
	"github.com/fpang/neuroscan-edit/internal/web"
)

// Set at build time via -ldflags.
var (
	commitHash = ""
	buildTime  = ""
)

// CLI flags
var (
	portFlag        int
	modelFlag       string
	maxUploadFlag   int64
	validateKeyFlag bool
	configFlag      string
)

var rootCmd = &cobra.Command{
	Use:   "neuroscan-web",
	Short: "Web UI for AI-assisted medical image editing",
	Long: `NeuroScan Web starts a local web server with a single-page editor:
upload a scan, describe the change in plain language, and compare the
model's edited image with the original.

Settings come from an optional TOML file (--config or NEUROSCAN_CONFIG),
then .env, then the environment, then flags, each overriding the last.

Examples:
  neuroscan-web
  neuroscan-web --port 9090
  neuroscan-web --model gemini-3-pro-image-preview --validate-key`,
	RunE:         runMain,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default from NEUROSCAN_PORT or 8080)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini image model (default from GEMINI_MODEL)")
	rootCmd.Flags().Int64Var(&maxUploadFlag, "max-upload", 0, "Maximum upload size in bytes (default from NEUROSCAN_MAX_UPLOAD_BYTES)")
	rootCmd.Flags().BoolVar(&validateKeyFlag, "validate-key", false, "Check the API key against Gemini at startup")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "Path to a TOML settings file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	logging.Init()
	// EMF lines only mean something when CloudWatch reads stdout.
	metrics.DisableUnlessLambda()

	if configFlag != "" {
		os.Setenv(config.ConfigFileEnv, configFlag)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = portFlag
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = modelFlag
	}
	if cmd.Flags().Changed("max-upload") {
		cfg.MaxUploadBytes = maxUploadFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.InitWith(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing key is not fatal: the UI still loads and edits report it.
	apiKey := auth.LookupAPIKey()
	editor, client := chat.NewEditorFromKey(ctx, apiKey, cfg.Model)

	keyValidated := false
	if validateKeyFlag && client != nil {
		if err := auth.ValidateAPIKey(ctx, client.Models); err != nil {
			log.Error().Err(err).Msg("API key validation failed; continuing")
		} else {
			keyValidated = true
		}
	}

	manager := session.NewManager(codec.NewStore(), editor, cfg.CodecOptions(), nil)
	go manager.Run(ctx, time.Minute, cfg.SessionIdleTTL)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      web.NewServer(manager, web.OptionsFromConfig(*cfg)).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Graceful shutdown incomplete")
		}
	}()

	logging.NewStartupLogger("neuroscan-web").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Config("model", cfg.Model).
		Config("downloadName", cfg.DownloadName).
		Config("sessionIdleTTL", cfg.SessionIdleTTL.String()).
		Config("configFile", os.Getenv(config.ConfigFileEnv)).
		Limit("port", int64(cfg.Port)).
		Limit("maxUploadBytes", cfg.MaxUploadBytes).
		Feature("apiKey", apiKey != "").
		Feature("keyValidated", keyValidated).
		InitDuration(time.Since(initStart)).
		Log()

	fmt.Printf("\n  NeuroScanEdit: http://localhost:%d\n\n", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
