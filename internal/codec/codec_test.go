package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

const mib = 1024 * 1024

func TestEncodeValidation(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		size     int
		wantKind ValidationErrorKind
		wantErr  bool
	}{
		{name: "text rejected", mimeType: "text/plain", size: 10, wantKind: ErrKindInvalidType, wantErr: true},
		{name: "empty type rejected", mimeType: "", size: 10, wantKind: ErrKindInvalidType, wantErr: true},
		{name: "six MiB rejected", mimeType: "image/png", size: 6 * mib, wantKind: ErrKindTooLarge, wantErr: true},
		{name: "four MiB png accepted", mimeType: "image/png", size: 4 * mib},
		{name: "exactly at limit accepted", mimeType: "image/jpeg", size: 5 * mib},
		{name: "type parameters ignored", mimeType: "IMAGE/PNG; charset=binary", size: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{0xAB}, tt.size)
			enc, err := EncodeBytes(data, tt.mimeType, DefaultOptions())

			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if vErr.Kind != tt.wantKind {
					t.Errorf("Kind = %v, want %v", vErr.Kind, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enc.IsZero() && tt.size > 0 {
				t.Error("expected encoded payload")
			}
			if !strings.HasPrefix(enc.MIMEType, "image/") {
				t.Errorf("MIMEType = %q, want image/*", enc.MIMEType)
			}
		})
	}
}

func TestEncodeEnforcesLimitOnBytesRead(t *testing.T) {
	data := bytes.Repeat([]byte{1}, 2048)
	opts := Options{MaxBytes: 1024, AllowedPrefixes: []string{"image/"}}

	// Declared size lies about the body.
	_, err := Encode(bytes.NewReader(data), "image/png", 10, opts)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Kind != ErrKindTooLarge {
		t.Fatalf("expected TooLarge, got %v", err)
	}
}

func TestEncodeHasNoDataURIPrefix(t *testing.T) {
	enc, err := EncodeBytes([]byte("payload"), "image/png", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.HasPrefix(enc.Data, "data:") || strings.Contains(enc.Data, ",") {
		t.Errorf("Data contains framing: %q", enc.Data)
	}
}

func TestTooLargeMessage(t *testing.T) {
	_, err := EncodeBytes(make([]byte, 6*mib), "image/png", DefaultOptions())
	if err == nil || err.Error() != "Image size too large. Please use an image under 5MB." {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x00},
		[]byte("hello, world"),
		bytes.Repeat([]byte{0xFF, 0x00, 0x7F}, 1000),
	}

	store := NewStore()
	for _, in := range inputs {
		enc, err := EncodeBytes(in, "image/jpeg", DefaultOptions())
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		h, err := Decode(store, enc.Data, enc.MIMEType)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		got, mimeType, ok := store.Open(h.ID)
		if !ok {
			t.Fatal("handle not live after Decode")
		}
		if !bytes.Equal(got, in) {
			t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(in))
		}
		if mimeType != "image/jpeg" {
			t.Errorf("mime = %q, want image/jpeg", mimeType)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	store := NewStore()
	if _, err := Decode(store, "not base64!!", "image/png"); err == nil {
		t.Error("expected error for malformed base64")
	}
	if store.Len() != 0 {
		t.Errorf("store has %d handles after failed decode", store.Len())
	}
}

func TestHandleDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	store := NewStore()
	h := store.Wrap(buf.Bytes(), "image/png")
	if h.Width != 7 || h.Height != 3 {
		t.Errorf("dimensions = %dx%d, want 7x3", h.Width, h.Height)
	}

	// Undecodable payloads still wrap.
	h2 := store.Wrap([]byte("opaque"), "image/heic")
	if h2.Width != 0 || h2.Height != 0 {
		t.Errorf("expected zero dimensions, got %dx%d", h2.Width, h2.Height)
	}
}
