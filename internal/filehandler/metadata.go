package filehandler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// ImageMetadata is the capture information embedded in an image: when it
// was taken and on what device. Scanner exports and phone photos of films
// usually carry it; rendered PNGs usually don't.
type ImageMetadata struct {
	DateTaken time.Time
	HasDate   bool

	Make  string
	Model string
}

// ExtractImageMetadata reads EXIF capture metadata from path. Only the
// metadata blocks are read, not the pixel data.
func ExtractImageMetadata(path string) (*ImageMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	exifData, err := imagemeta.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	meta := &ImageMetadata{
		Make:  strings.TrimSpace(exifData.Make),
		Model: strings.TrimSpace(exifData.Model),
	}

	// DateTimeOriginal > CreateDate > ModifyDate
	for _, t := range []time.Time{exifData.DateTimeOriginal(), exifData.CreateDate(), exifData.ModifyDate()} {
		if !t.IsZero() {
			meta.DateTaken = t
			meta.HasDate = true
			break
		}
	}

	log.Debug().
		Str("path", path).
		Bool("has_date", meta.HasDate).
		Str("device", meta.Device()).
		Msg("Image metadata extracted")
	return meta, nil
}

// Device returns "Make Model", avoiding the make being repeated when the
// model already starts with it.
func (m *ImageMetadata) Device() string {
	switch {
	case m.Model == "":
		return m.Make
	case m.Make == "" || strings.HasPrefix(strings.ToLower(m.Model), strings.ToLower(m.Make)):
		return m.Model
	default:
		return m.Make + " " + m.Model
	}
}

// Summary renders the metadata on one line, or "" when nothing is known.
func (m *ImageMetadata) Summary() string {
	if m == nil {
		return ""
	}
	var parts []string
	if d := m.Device(); d != "" {
		parts = append(parts, "captured on "+d)
	}
	if m.HasDate {
		parts = append(parts, "taken "+m.DateTaken.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, ", ")
}
