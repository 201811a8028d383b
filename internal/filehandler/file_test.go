package filehandler

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writePNG(t *testing.T, path string) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.PNG")
	data := writePNG(t, path)

	img, err := LoadImageFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q", img.MIMEType)
	}
	if img.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", img.Size, len(data))
	}
	if img.Name != "scan.PNG" {
		t.Errorf("Name = %q", img.Name)
	}

	f, err := img.Open()
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func TestLoadImageFileSniffsUnknownExtension(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "scan.dat")
	writePNG(t, pngPath)
	img, err := LoadImageFile(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("sniffed %q, want image/png", img.MIMEType)
	}

	txtPath := filepath.Join(dir, "notes.dat")
	if err := os.WriteFile(txtPath, []byte("plain text notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err = LoadImageFile(txtPath)
	if err != nil {
		t.Fatal(err)
	}
	if img.MIMEType != "text/plain" {
		t.Errorf("sniffed %q, want text/plain", img.MIMEType)
	}
}

func TestLoadImageFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadImageFile(filepath.Join(dir, "missing.png")); err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := LoadImageFile(dir); err == nil || !strings.Contains(err.Error(), "directory") {
		t.Errorf("directory error = %v", err)
	}
}

func TestGetMIMEType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
		ok   bool
	}{
		{".jpg", "image/jpeg", true},
		{".JPEG", "image/jpeg", true},
		{".webp", "image/webp", true},
		{".tif", "image/tiff", true},
		{".mp4", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := GetMIMEType(tt.ext)
		if got != tt.want || ok != tt.ok {
			t.Errorf("GetMIMEType(%q) = %q, %v; want %q, %v", tt.ext, got, ok, tt.want, tt.ok)
		}
	}
	if !IsImage(".png") || IsImage(".txt") {
		t.Error("IsImage mismatch")
	}
}

func TestExtensionForMIME(t *testing.T) {
	tests := map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"IMAGE/WEBP": ".webp",
		"":           ".png",
		"text/plain": ".png",
	}
	for in, want := range tests {
		if got := ExtensionForMIME(in); got != want {
			t.Errorf("ExtensionForMIME(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "result.png")
	if err := WriteImage(path, []byte("payload")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("content = %q", got)
	}
}

func TestMetadataSummary(t *testing.T) {
	var nilMeta *ImageMetadata
	if nilMeta.Summary() != "" {
		t.Error("nil metadata should summarise to empty")
	}

	tests := []struct {
		name string
		meta ImageMetadata
		want string
	}{
		{name: "empty", meta: ImageMetadata{}, want: ""},
		{name: "make and model", meta: ImageMetadata{Make: "Canon", Model: "EOS R5"}, want: "captured on Canon EOS R5"},
		{name: "model repeats make", meta: ImageMetadata{Make: "Canon", Model: "Canon EOS R5"}, want: "captured on Canon EOS R5"},
		{name: "make only", meta: ImageMetadata{Make: "Siemens"}, want: "captured on Siemens"},
		{
			name: "with date",
			meta: ImageMetadata{Model: "Scanner", HasDate: true, DateTaken: time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)},
			want: "captured on Scanner, taken 2024-03-09 14:05",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
