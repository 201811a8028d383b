package localedit

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/fpang/neuroscan-edit/internal/metrics"
	"github.com/fpang/neuroscan-edit/internal/session"
)

func TestMain(m *testing.M) {
	metrics.SetOutput(nil)
	m.Run()
}

type fakeEditor struct {
	out   []byte
	err   error
	calls int
	got   string
}

func (f *fakeEditor) EditImage(_ context.Context, img codec.EncodedImage, instruction string) (codec.EncodedImage, error) {
	f.calls++
	f.got = instruction
	if f.err != nil {
		return codec.EncodedImage{}, f.err
	}
	return codec.EncodedImage{Data: base64.StdEncoding.EncodeToString(f.out), MIMEType: "image/png"}, nil
}

func pngFile(t *testing.T, dir string, w, h int) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scan.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, buf.Bytes()
}

func newRunner(editor session.Editor) (*Runner, *session.Manager) {
	mgr := session.NewManager(codec.NewStore(), editor, codec.DefaultOptions(), nil)
	return NewRunner(mgr), mgr
}

func TestRunWritesOutput(t *testing.T) {
	dir := t.TempDir()
	in, _ := pngFile(t, dir, 2, 2)
	_, result := pngFile(t, t.TempDir(), 6, 4)

	editor := &fakeEditor{out: result}
	runner, mgr := newRunner(editor)

	out := filepath.Join(dir, "out", "result.png")
	res, err := runner.Run(context.Background(), Request{InputPath: in, Instruction: "Enhance contrast", OutputPath: out})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if editor.got != "Enhance contrast" {
		t.Errorf("instruction = %q", editor.got)
	}
	if !bytes.Equal(res.Data, result) || res.MIMEType != "image/png" {
		t.Errorf("unexpected result: %s, %d bytes", res.MIMEType, len(res.Data))
	}
	if res.Width != 6 || res.Height != 4 {
		t.Errorf("dimensions = %dx%d, want 6x4", res.Width, res.Height)
	}
	written, err := os.ReadFile(out)
	if err != nil || !bytes.Equal(written, result) {
		t.Errorf("output file mismatch: %v", err)
	}
	if mgr.Len() != 0 || mgr.Store().Len() != 0 {
		t.Errorf("session leaked: sessions=%d handles=%d", mgr.Len(), mgr.Store().Len())
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	in, _ := pngFile(t, dir, 1, 1)

	t.Run("blank instruction", func(t *testing.T) {
		editor := &fakeEditor{}
		runner, _ := newRunner(editor)
		if _, err := runner.Run(context.Background(), Request{InputPath: in, Instruction: "  "}); !errors.Is(err, ErrNoInstruction) {
			t.Errorf("err = %v", err)
		}
		if editor.calls != 0 {
			t.Error("editor called for blank instruction")
		}
	})

	t.Run("not an image", func(t *testing.T) {
		txt := filepath.Join(dir, "notes.txt")
		os.WriteFile(txt, []byte("hello"), 0o644)
		runner, mgr := newRunner(&fakeEditor{})
		_, err := runner.Run(context.Background(), Request{InputPath: txt, Instruction: "x"})
		var valErr *codec.ValidationError
		if !errors.As(err, &valErr) || valErr.Kind != codec.ErrKindInvalidType {
			t.Errorf("err = %v", err)
		}
		if mgr.Len() != 0 {
			t.Error("session leaked after validation failure")
		}
	})

	t.Run("edit failure", func(t *testing.T) {
		boom := errors.New("remote failure")
		runner, mgr := newRunner(&fakeEditor{err: boom})
		out := filepath.Join(dir, "never.png")
		if _, err := runner.Run(context.Background(), Request{InputPath: in, Instruction: "x", OutputPath: out}); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
		if _, err := os.Stat(out); !os.IsNotExist(err) {
			t.Error("output written despite failure")
		}
		if mgr.Store().Len() != 0 {
			t.Error("handles leaked after failure")
		}
	})
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		name, mime, want string
	}{
		{"neuroscan_analysis.png", "image/png", "neuroscan_analysis.png"},
		{"neuroscan_analysis.png", "image/jpeg", "neuroscan_analysis.jpg"},
		{"result", "image/webp", "result.webp"},
	}
	for _, tt := range tests {
		if got := DefaultOutputPath(tt.name, tt.mime); got != tt.want {
			t.Errorf("DefaultOutputPath(%q, %q) = %q, want %q", tt.name, tt.mime, got, tt.want)
		}
	}
}
