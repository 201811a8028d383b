package chat

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/fpang/neuroscan-edit/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// defaultOutputMIME is assumed when the model omits the image MIME type.
const defaultOutputMIME = "image/png"

// ImageEditor sends an image and an instruction to a Gemini image model and
// extracts the edited image. It holds no per-session state and is shared by
// all sessions.
type ImageEditor struct {
	gen   ContentGenerator
	model string
}

// NewImageEditor creates an editor calling model through gen. An empty model
// resolves via GetModelName.
func NewImageEditor(gen ContentGenerator, model string) *ImageEditor {
	if model == "" {
		model = GetModelName()
	}
	return &ImageEditor{gen: gen, model: model}
}

// Model returns the model ID this editor calls.
func (e *ImageEditor) Model() string {
	return e.model
}

// EditImage issues exactly one generateContent request carrying the image and
// the instruction as two ordered parts, and returns the first image part of
// the response. Failures are *EditError values; nothing is retried.
func (e *ImageEditor) EditImage(ctx context.Context, image codec.EncodedImage, instruction string) (codec.EncodedImage, error) {
	raw, err := codec.DecodeBytes(image.Data)
	if err != nil {
		return codec.EncodedImage{}, err
	}

	startTime := time.Now()
	log.Info().
		Str("model", e.model).
		Int("image_bytes", len(raw)).
		Str("image_mime", image.MIMEType).
		Int("instruction_length", len(instruction)).
		Msg("Sending image to Gemini for editing")

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: raw}},
			{Text: instruction},
		}, genai.RoleUser),
	}

	resp, err := e.gen.GenerateContent(ctx, e.model, contents, nil)
	duration := time.Since(startTime)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Gemini image editing request failed")
		e.record(ErrKindTransport.String(), duration)
		return codec.EncodedImage{}, newTransport("Failed to edit image", err)
	}

	parts, present := ResponseParts(resp)
	img, err := ScanParts(parts, present)
	if err != nil {
		kind := ErrKindTransport
		if editErr, ok := err.(*EditError); ok {
			kind = editErr.Kind
		}
		log.Warn().
			Str("kind", kind.String()).
			Int("parts", len(parts)).
			Dur("duration", duration).
			Msg("Gemini returned no image")
		e.record(kind.String(), duration)
		return codec.EncodedImage{}, err
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = defaultOutputMIME
	}

	log.Info().
		Int("output_bytes", len(img.Data)).
		Str("output_mime", mimeType).
		Dur("duration", duration).
		Msg("Gemini image editing complete")
	e.record("success", duration)

	return codec.EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(img.Data),
		MIMEType: mimeType,
	}, nil
}

func (e *ImageEditor) record(result string, d time.Duration) {
	metrics.New(metrics.Namespace).
		Dimension("EditResult", result).
		Duration("EditLatencyMs", d).
		Count("EditCount").
		Property("model", e.model).
		Flush()
}
