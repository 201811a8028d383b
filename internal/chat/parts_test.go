package chat

import "testing"

func TestScanParts(t *testing.T) {
	tests := []struct {
		name     string
		parts    []Part
		present  bool
		wantData string
		wantKind EditErrorKind
		wantErr  bool
	}{
		{name: "absent", present: false, wantErr: true, wantKind: ErrKindNoContent},
		{name: "empty", parts: []Part{}, present: true, wantErr: true, wantKind: ErrKindEmptyResponse},
		{name: "text then image", parts: []Part{TextPart{Text: "hi"}, ImagePart{Data: []byte("a")}}, present: true, wantData: "a"},
		{name: "two images", parts: []Part{ImagePart{Data: []byte("a")}, ImagePart{Data: []byte("b")}}, present: true, wantData: "a"},
		{name: "two texts", parts: []Part{TextPart{Text: "first"}, TextPart{Text: "second"}}, present: true, wantErr: true, wantKind: ErrKindModelRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ScanParts(tt.parts, tt.present)
			if tt.wantErr {
				if !IsKind(err, tt.wantKind) {
					t.Fatalf("expected %v, got %v", tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(img.Data) != tt.wantData {
				t.Errorf("data = %q, want %q", img.Data, tt.wantData)
			}
		})
	}
}

func TestScanPartsRefusalKeepsFirstText(t *testing.T) {
	_, err := ScanParts([]Part{TextPart{Text: "first"}, TextPart{Text: "second"}}, true)
	editErr, ok := err.(*EditError)
	if !ok {
		t.Fatalf("expected *EditError, got %T", err)
	}
	if editErr.Text != "first" {
		t.Errorf("Text = %q, want first", editErr.Text)
	}
}
