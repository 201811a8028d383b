// Package codec converts uploaded image bytes to the base64 payload the Gemini
// API accepts inline, and back into locally served display handles.
//
// Encoded payloads never carry data-URI framing ("data:image/png;base64,");
// Data is the raw standard base64 text only.
package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultMaxBytes is the default upload limit (5 MiB).
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// DefaultAllowedPrefixes lists the MIME prefixes accepted by default.
var DefaultAllowedPrefixes = []string{"image/"}

// EncodedImage is a transport-safe image payload.
type EncodedImage struct {
	// Data is standard base64 with no URI scheme prefix.
	Data string `json:"data"`
	// MIMEType is the declared format, e.g. "image/png".
	MIMEType string `json:"mimeType"`
}

// IsZero reports whether the image carries no payload.
func (e EncodedImage) IsZero() bool {
	return e.Data == ""
}

// Options controls validation in Encode.
type Options struct {
	MaxBytes        int64
	AllowedPrefixes []string
}

// DefaultOptions returns the 5 MiB / "image/" defaults.
func DefaultOptions() Options {
	return Options{
		MaxBytes:        DefaultMaxBytes,
		AllowedPrefixes: append([]string(nil), DefaultAllowedPrefixes...),
	}
}

func (o Options) withDefaults() Options {
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if len(o.AllowedPrefixes) == 0 {
		o.AllowedPrefixes = DefaultAllowedPrefixes
	}
	return o
}

// ValidationErrorKind categorizes a rejected upload.
type ValidationErrorKind int

const (
	// ErrKindInvalidType indicates the declared type is not an allowed image type.
	ErrKindInvalidType ValidationErrorKind = iota
	// ErrKindTooLarge indicates the resource exceeds the size limit.
	ErrKindTooLarge
	// ErrKindUnreadable indicates the resource could not be read.
	ErrKindUnreadable
)

func (k ValidationErrorKind) String() string {
	switch k {
	case ErrKindInvalidType:
		return "invalid_type"
	case ErrKindTooLarge:
		return "too_large"
	case ErrKindUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// ValidationError is returned by Encode when a resource is rejected.
type ValidationError struct {
	Kind    ValidationErrorKind
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Encode validates and reads an image resource and returns its base64 payload.
//
// declaredType is the type reported by the picker (browser File.type or the
// multipart Content-Type). size is the declared byte length; the limit is also
// enforced against the bytes actually read, so a short declared size cannot
// smuggle a larger body through.
func Encode(r io.Reader, declaredType string, size int64, opts Options) (EncodedImage, error) {
	opts = opts.withDefaults()
	if err := Validate(declaredType, size, opts); err != nil {
		return EncodedImage{}, err
	}
	mimeType := normalizeMIME(declaredType)

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return EncodedImage{}, &ValidationError{
			Kind:    ErrKindUnreadable,
			Message: "Failed to process image. Please try again.",
			Err:     err,
		}
	}
	if int64(len(data)) > opts.MaxBytes {
		return EncodedImage{}, tooLarge(opts.MaxBytes)
	}

	log.Debug().
		Str("mime_type", mimeType).
		Int("bytes", len(data)).
		Msg("Encoded image for upload")

	return EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}, nil
}

// Validate checks the declared type and size of a resource without reading
// it. Encode calls it first; callers may use it to reject a resource before
// committing to an upload.
func Validate(declaredType string, size int64, opts Options) error {
	opts = opts.withDefaults()
	if !hasAllowedPrefix(normalizeMIME(declaredType), opts.AllowedPrefixes) {
		return &ValidationError{
			Kind:    ErrKindInvalidType,
			Message: "Please upload a valid image file.",
		}
	}
	if size > opts.MaxBytes {
		return tooLarge(opts.MaxBytes)
	}
	return nil
}

// EncodeBytes is Encode for an in-memory resource.
func EncodeBytes(data []byte, declaredType string, opts Options) (EncodedImage, error) {
	return Encode(bytes.NewReader(data), declaredType, int64(len(data)), opts)
}

// DecodeBytes reverses the base64 transport encoding.
func DecodeBytes(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}
	return raw, nil
}

// Decode reverses the transport encoding and wraps the bytes into a handle
// registered in store.
func Decode(store *Store, data, mimeType string) (*Handle, error) {
	raw, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return store.Wrap(raw, mimeType), nil
}

func tooLarge(limit int64) *ValidationError {
	return &ValidationError{
		Kind:    ErrKindTooLarge,
		Message: fmt.Sprintf("Image size too large. Please use an image under %s.", formatLimit(limit)),
	}
}

// formatLimit renders whole MiB limits the way the UI states them ("5MB").
func formatLimit(limit int64) string {
	const mib = 1024 * 1024
	if limit%mib == 0 {
		return fmt.Sprintf("%dMB", limit/mib)
	}
	return fmt.Sprintf("%d bytes", limit)
}

// normalizeMIME lowercases the media type and strips parameters.
func normalizeMIME(t string) string {
	t = strings.TrimSpace(strings.ToLower(t))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

func hasAllowedPrefix(mimeType string, prefixes []string) bool {
	if mimeType == "" {
		return false
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(mimeType, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
