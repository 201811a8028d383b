// Package main runs the NeuroScanEdit HTTP API and single-page UI behind
// API Gateway (HTTP API, payload v2).
//
// The Gemini key is read from SSM Parameter Store at cold start unless
// API_KEY or GEMINI_API_KEY is set. Sessions live in memory for the life of
// a warm instance.
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/neuroscan-edit/internal/auth"
	"github.com/fpang/neuroscan-edit/internal/chat"
	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/fpang/neuroscan-edit/internal/config"
	"github.com/fpang/neuroscan-edit/internal/lambdaboot"
	"github.com/fpang/neuroscan-edit/internal/logging"
	"github.com/fpang/neuroscan-edit/internal/session"
	"github.com/fpang/neuroscan-edit/internal/web"
)

// Set at build time via -ldflags.
var (
	commitHash = ""
	buildTime  = ""
)

var adapter *httpadapter.HandlerAdapterV2

func init() {
	initStart := time.Now()
	if os.Getenv("NEUROSCAN_LOG_FORMAT") == "" {
		os.Setenv("NEUROSCAN_LOG_FORMAT", "json")
	}
	logging.Init()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()
	clients, err := lambdaboot.InitAWS(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	if err := lambdaboot.LoadGeminiKey(ctx, clients.SSM); err != nil {
		// Serve anyway; edits report the missing key.
		log.Error().Err(err).Msg("Gemini API key unavailable")
	}

	apiKey := auth.LookupAPIKey()
	editor, _ := chat.NewEditorFromKey(ctx, apiKey, cfg.Model)
	manager := session.NewManager(codec.NewStore(), editor, cfg.CodecOptions(), web.TransitionMetrics)

	// Ticks are skipped while the instance is frozen between invocations.
	go manager.Run(ctx, time.Minute, cfg.SessionIdleTTL)

	adapter = httpadapter.NewV2(web.NewServer(manager, web.OptionsFromConfig(*cfg)).Handler())

	lambdaboot.StartupLog("neuroscan-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		SSMParam("geminiKey", lambdaboot.KeyParam()).
		Config("model", cfg.Model).
		Config("sessionIdleTTL", cfg.SessionIdleTTL.String()).
		Limit("maxUploadBytes", cfg.MaxUploadBytes).
		Feature("apiKey", apiKey != "").
		Log()
}

func main() {
	lambda.Start(adapter.ProxyWithContext)
}
