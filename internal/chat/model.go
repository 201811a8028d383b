package chat

import "os"

// Gemini image model IDs
//
// | Model Name                   | API Model ID               | Notes                         |
// |------------------------------|----------------------------|-------------------------------|
// | Gemini 2.5 Flash Image       | gemini-2.5-flash-image     | "Nano Banana", default        |
// | Gemini 3 Pro Image (Preview) | gemini-3-pro-image-preview | Higher fidelity, slower       |
const (
	// ModelGemini25FlashImage is the fast image editing model.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"

	// ModelGemini3ProImage is for advanced image generation/edit.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"

	// ModelGemini3FlashPreview is a text model; used only for API key validation.
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
)

// DefaultModelName is the image model used when nothing overrides it.
const DefaultModelName = ModelGemini25FlashImage

// GetModelName returns the GEMINI_MODEL environment variable, or DefaultModelName.
func GetModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}
