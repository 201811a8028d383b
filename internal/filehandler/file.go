// Package filehandler loads source images from disk for the command-line
// and MCP front ends and writes edited results back.
package filehandler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// SupportedImageExtensions maps known image extensions to MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// ImageFile is a source image on disk.
type ImageFile struct {
	Path     string
	Name     string
	MIMEType string
	Size     int64
	Metadata *ImageMetadata
}

// LoadImageFile stats path and determines its MIME type. Files with an
// unknown extension are sniffed; the result is not checked against any
// allow-list here, that is the codec's job.
func LoadImageFile(path string) (*ImageFile, error) {
	log.Debug().Str("path", path).Msg("Loading image file")

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	mimeType, ok := GetMIMEType(filepath.Ext(path))
	if !ok {
		mimeType, err = sniffMIMEType(path)
		if err != nil {
			return nil, err
		}
	}

	img := &ImageFile{
		Path:     path,
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Size:     info.Size(),
	}

	if strings.HasPrefix(mimeType, "image/") {
		meta, err := ExtractImageMetadata(path)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("No capture metadata, continuing without it")
		} else {
			img.Metadata = meta
		}
	}

	log.Info().
		Str("path", path).
		Str("mime_type", mimeType).
		Int64("size_bytes", img.Size).
		Msg("Image file loaded")
	return img, nil
}

// Open opens the file for reading.
func (f *ImageFile) Open() (*os.File, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// GetMIMEType returns the MIME type for a known image extension.
func GetMIMEType(ext string) (string, bool) {
	mimeType, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return mimeType, ok
}

// IsImage returns true if the file extension corresponds to a known image type.
func IsImage(ext string) bool {
	_, ok := GetMIMEType(ext)
	return ok
}

// ExtensionForMIME returns the preferred file extension for mimeType, or
// ".png" when it is not a known image type.
func ExtensionForMIME(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	case "image/heif":
		return ".heif"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	default:
		return ".png"
	}
}

// WriteImage writes data to path, creating parent directories.
func WriteImage(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	log.Info().Str("path", path).Int("bytes", len(data)).Msg("Wrote edited image")
	return nil
}

func sniffMIMEType(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	mimeType := http.DetectContentType(head[:n])
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType, nil
}
