// Command neuroscan-mcp exposes the image editor to MCP clients over stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/neuroscan-edit/internal/auth"
	"github.com/fpang/neuroscan-edit/internal/chat"
	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/fpang/neuroscan-edit/internal/config"
	"github.com/fpang/neuroscan-edit/internal/localedit"
	"github.com/fpang/neuroscan-edit/internal/logging"
	"github.com/fpang/neuroscan-edit/internal/metrics"
	"github.com/fpang/neuroscan-edit/internal/session"
)

const serverVersion = "v1.0.0"

var modelFlag string

var rootCmd = &cobra.Command{
	Use:   "neuroscan-mcp",
	Short: "MCP server exposing the edit_image tool over stdio",
	Long: `NeuroScan MCP serves a single tool, edit_image, to MCP clients such as
desktop assistants and IDE agents. Logs go to stderr; stdout carries the
protocol.`,
	RunE:         runMain,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini image model (default from GEMINI_MODEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	logging.Init()
	// stdout belongs to the protocol.
	metrics.SetOutput(nil)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = modelFlag
	}
	logging.InitWith(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiKey := auth.LookupAPIKey()
	editor, _ := chat.NewEditorFromKey(ctx, apiKey, cfg.Model)
	manager := session.NewManager(codec.NewStore(), editor, cfg.CodecOptions(), nil)

	server := newServer(newEditTool(localedit.NewRunner(manager)))

	logging.NewStartupLogger("neuroscan-mcp").
		Config("model", cfg.Model).
		Limit("maxUploadBytes", cfg.MaxUploadBytes).
		Feature("apiKey", apiKey != "").
		Log()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("MCP server stopped")
		return err
	}
	return nil
}

func newServer(tool *editTool) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "neuroscan-edit", Version: serverVersion}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name: "edit_image",
		Description: "Edit a medical or scientific image with a plain-language instruction " +
			"(for example 'Highlight the vascular structure in red'). Returns the edited image.",
	}, tool.editImage)
	return server
}
