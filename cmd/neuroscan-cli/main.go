package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/neuroscan-edit/internal/cli"
	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/fpang/neuroscan-edit/internal/config"
	"github.com/fpang/neuroscan-edit/internal/filehandler"
	"github.com/fpang/neuroscan-edit/internal/localedit"
	"github.com/fpang/neuroscan-edit/internal/logging"
	"github.com/fpang/neuroscan-edit/internal/metrics"
	"github.com/fpang/neuroscan-edit/internal/session"
)

// CLI flags
var (
	promptFlag      string
	outputFlag      string
	modelFlag       string
	validateKeyFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "neuroscan-cli [image]",
	Short: "Edit a medical image with a plain-language instruction",
	Long: `NeuroScan CLI sends one image and one instruction to the Gemini image
model and writes the edited result to disk.

When no image is given a native file dialog opens. When no instruction is
given it is read from the terminal.

Examples:
  neuroscan-cli scan.png -p "Highlight the vascular structure in red"
  neuroscan-cli mri.jpg -p "Apply a heatmap overlay" -o overlay.png
  neuroscan-cli   # pick a file, then type the instruction`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runMain,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Edit instruction")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file (default from NEUROSCAN_DOWNLOAD_NAME)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini image model (default from GEMINI_MODEL)")
	rootCmd.Flags().BoolVar(&validateKeyFlag, "validate-key", false, "Check the API key against Gemini before editing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	logging.Init()
	// EMF lines are for CloudWatch, not a terminal.
	metrics.SetOutput(nil)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = modelFlag
	}
	logging.InitWith(cfg.LogLevel, cfg.LogFormat)

	inputPath := ""
	if len(args) == 1 {
		inputPath = args[0]
	} else {
		inputPath, err = pickImage()
		if err != nil {
			return err
		}
	}

	instruction := promptFlag
	if strings.TrimSpace(instruction) == "" {
		instruction = cli.PromptForInstruction(os.Stdin, cli.PromptWriter(os.Stdin, os.Stdout))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	editor, err := cli.InitEditor(ctx, cfg.Model, validateKeyFlag)
	if err != nil {
		return report(err)
	}
	manager := session.NewManager(codec.NewStore(), editor, cfg.CodecOptions(), nil)

	res, err := localedit.NewRunner(manager).Run(ctx, localedit.Request{
		InputPath:   inputPath,
		Instruction: instruction,
	})
	if err != nil {
		return report(err)
	}

	out := outputFlag
	if out == "" {
		out = localedit.DefaultOutputPath(cfg.DownloadName, res.MIMEType)
	}
	if _, err := os.Stat(out); err == nil {
		log.Warn().Str("path", out).Msg("Overwriting existing file")
	}
	if err := filehandler.WriteImage(out, res.Data); err != nil {
		return err
	}

	fmt.Println(cli.RenderSummary("NeuroScanEdit", []cli.Field{
		{Label: "Source", Value: fmt.Sprintf("%s (%s)", res.Source.Name, cli.FormatBytes(res.Source.Size))},
		{Label: "Captured", Value: res.Source.Metadata.Summary()},
		{Label: "Instruction", Value: instruction},
		{Label: "Result", Value: fmt.Sprintf("%dx%d %s (%s)", res.Width, res.Height, res.MIMEType, cli.FormatBytes(int64(len(res.Data))))},
		{Label: "Saved to", Value: out},
		{Label: "Elapsed", Value: cli.FormatDurationShort(res.Duration)},
	}))
	return nil
}

// pickImage opens a native file dialog filtered to images.
func pickImage() (string, error) {
	path, err := zenity.SelectFile(
		zenity.Title("Select an image to edit"),
		zenity.FileFilters{
			{
				Name:     "Images",
				Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp", "*.heic", "*.heif", "*.bmp", "*.tif", "*.tiff"},
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", errors.New("no image selected")
		}
		return "", fmt.Errorf("file picker failed: %w", err)
	}
	return path, nil
}

// report prints the user-facing explanation and returns err for the exit code.
func report(err error) error {
	fmt.Fprintln(os.Stderr, cli.Explain(err))
	return err
}
