// Package localedit runs one edit of an image file on disk through a
// throwaway session, for front ends without a browser.
package localedit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/neuroscan-edit/internal/filehandler"
	"github.com/fpang/neuroscan-edit/internal/session"
)

// ErrNoInstruction is returned for a blank instruction.
var ErrNoInstruction = errors.New("an edit instruction is required")

// Request describes one edit.
type Request struct {
	InputPath   string
	Instruction string
	// OutputPath, when set, receives the edited image.
	OutputPath string
}

// Result is a completed edit.
type Result struct {
	Source     *filehandler.ImageFile
	OutputPath string
	MIMEType   string
	Data       []byte
	Width      int
	Height     int
	Duration   time.Duration
}

// Runner executes requests against sessions created by a Manager.
type Runner struct {
	manager *session.Manager
}

// NewRunner creates a Runner.
func NewRunner(manager *session.Manager) *Runner {
	return &Runner{manager: manager}
}

// Run loads the source image, selects it into a fresh session, generates,
// and optionally writes the result. The session is discarded afterwards.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, ErrNoInstruction
	}

	src, err := filehandler.LoadImageFile(req.InputPath)
	if err != nil {
		return nil, err
	}
	file, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sess := r.manager.Create()
	defer r.manager.Delete(sess.ID())

	if err := sess.SelectImage(session.Resource{
		Name: src.Name,
		Type: src.MIMEType,
		Size: src.Size,
		Body: file,
	}); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := sess.Generate(ctx, req.Instruction); err != nil {
		return nil, err
	}

	handle := sess.Generated()
	data, mimeType, ok := r.manager.Store().Open(handle.ID)
	if !ok {
		return nil, errors.New("generated image is no longer available")
	}

	res := &Result{
		Source:     src,
		OutputPath: req.OutputPath,
		MIMEType:   mimeType,
		Data:       data,
		Width:      handle.Width,
		Height:     handle.Height,
		Duration:   time.Since(start),
	}
	if req.OutputPath != "" {
		if err := filehandler.WriteImage(req.OutputPath, data); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("input", req.InputPath).
		Str("output", req.OutputPath).
		Str("mime_type", mimeType).
		Dur("duration", res.Duration).
		Msg("Local edit complete")
	return res, nil
}

// DefaultOutputPath derives an output name from the configured download
// name, swapping its extension for one matching mimeType.
func DefaultOutputPath(downloadName, mimeType string) string {
	ext := filehandler.ExtensionForMIME(mimeType)
	if i := strings.LastIndexByte(downloadName, '.'); i > 0 {
		downloadName = downloadName[:i]
	}
	return downloadName + ext
}
