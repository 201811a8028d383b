package chat

import "google.golang.org/genai"

// Part is one unit of a model response: either an ImagePart or a TextPart.
type Part interface {
	isPart()
}

// ImagePart carries inline image bytes.
type ImagePart struct {
	Data     []byte
	MIMEType string
}

// TextPart carries plain text, typically the model explaining itself.
type TextPart struct {
	Text string
}

func (ImagePart) isPart() {}
func (TextPart) isPart()  {}

// ResponseParts converts the first candidate of resp into tagged parts.
// ok is false when the response carries no parts sequence at all (no
// candidates, nil content, or a nil parts slice); an empty but present
// sequence returns ok == true with zero parts.
func ResponseParts(resp *genai.GenerateContentResponse) (parts []Part, ok bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, false
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || cand.Content.Parts == nil {
		return nil, false
	}

	parts = make([]Part, 0, len(cand.Content.Parts))
	for _, p := range cand.Content.Parts {
		if p == nil {
			continue
		}
		switch {
		case p.InlineData != nil && len(p.InlineData.Data) > 0:
			parts = append(parts, ImagePart{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType})
		case p.Text != "":
			parts = append(parts, TextPart{Text: p.Text})
		}
	}
	return parts, true
}

// ScanParts applies the response policy: the first image part in order wins;
// failing that, the first text part becomes a refusal; failing that, the
// response is empty. present is false when the response had no parts
// sequence, which is reported as NoContent.
func ScanParts(parts []Part, present bool) (ImagePart, error) {
	if !present {
		return ImagePart{}, newNoContent()
	}
	for _, p := range parts {
		if img, ok := p.(ImagePart); ok && len(img.Data) > 0 {
			return img, nil
		}
	}
	for _, p := range parts {
		if txt, ok := p.(TextPart); ok && txt.Text != "" {
			return ImagePart{}, newModelRefused(txt.Text)
		}
	}
	return ImagePart{}, newEmptyResponse()
}
