package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/neuroscan-edit/internal/cli"
	"github.com/fpang/neuroscan-edit/internal/localedit"
)

// EditImageArgs are the edit_image tool arguments.
type EditImageArgs struct {
	ImagePath   string `json:"image_path" jsonschema:"path of the source image on the server's filesystem"`
	Instruction string `json:"instruction" jsonschema:"plain-language description of the edit"`
	OutputPath  string `json:"output_path,omitempty" jsonschema:"optional path to also write the edited image to"`
}

type editTool struct {
	runner *localedit.Runner
}

func newEditTool(runner *localedit.Runner) *editTool {
	return &editTool{runner: runner}
}

func (t *editTool) editImage(ctx context.Context, req *mcp.CallToolRequest, args EditImageArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.ImagePath) == "" {
		return errorResult("image_path is required"), nil, nil
	}
	if strings.TrimSpace(args.Instruction) == "" {
		return errorResult("instruction is required"), nil, nil
	}

	res, err := t.runner.Run(ctx, localedit.Request{
		InputPath:   args.ImagePath,
		Instruction: args.Instruction,
		OutputPath:  args.OutputPath,
	})
	if err != nil {
		log.Warn().Err(err).Str("image_path", args.ImagePath).Msg("edit_image failed")
		return errorResult(cli.Explain(err)), nil, nil
	}

	summary := fmt.Sprintf("Edited %s: %dx%d %s in %s.", res.Source.Name, res.Width, res.Height, res.MIMEType, res.Duration.Round(100*time.Millisecond))
	if meta := res.Source.Metadata.Summary(); meta != "" {
		summary += " Source " + meta + "."
	}
	if res.OutputPath != "" {
		summary += " Written to " + res.OutputPath + "."
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.ImageContent{Data: res.Data, MIMEType: res.MIMEType},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
