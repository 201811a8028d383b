package chat

import "errors"

// EditErrorKind categorizes a failed edit call.
type EditErrorKind int

const (
	// ErrKindTransport covers network errors, non-success statuses and SDK errors.
	ErrKindTransport EditErrorKind = iota
	// ErrKindModelRefused means the model answered with text and no image.
	ErrKindModelRefused
	// ErrKindEmptyResponse means the parts sequence held neither image nor text.
	ErrKindEmptyResponse
	// ErrKindNoContent means the response carried no parts sequence at all.
	ErrKindNoContent
)

func (k EditErrorKind) String() string {
	switch k {
	case ErrKindTransport:
		return "transport"
	case ErrKindModelRefused:
		return "model_refused"
	case ErrKindEmptyResponse:
		return "empty_response"
	case ErrKindNoContent:
		return "no_content"
	default:
		return "unknown"
	}
}

// EditError is returned by EditImage. Message is suitable for showing to the
// user as-is.
type EditError struct {
	Kind    EditErrorKind
	Message string
	// Text is the model's explanation for ErrKindModelRefused.
	Text string
	Err  error
}

func (e *EditError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *EditError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an EditError of the given kind.
func IsKind(err error, kind EditErrorKind) bool {
	var editErr *EditError
	return errors.As(err, &editErr) && editErr.Kind == kind
}

func newNoContent() *EditError {
	return &EditError{Kind: ErrKindNoContent, Message: "No content returned from Gemini."}
}

func newEmptyResponse() *EditError {
	return &EditError{Kind: ErrKindEmptyResponse, Message: "No image data found in response."}
}

func newModelRefused(text string) *EditError {
	return &EditError{
		Kind:    ErrKindModelRefused,
		Message: "Model returned text instead of image: " + text,
		Text:    text,
	}
}

func newTransport(msg string, err error) *EditError {
	return &EditError{Kind: ErrKindTransport, Message: msg, Err: err}
}
