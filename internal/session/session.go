// Package session implements the lifecycle of one image edit interaction:
// selecting a source image, running an edit against the model, and holding
// the original and generated artifacts until they are replaced or reset.
//
// A Session owns the display handles it creates and releases each exactly
// once: when a newer artifact replaces it, on Reset, or when the Manager
// evicts the session.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"

	// StatusError is part of the vocabulary but never entered: a failed edit
	// returns the session to StatusIdle with ErrorMessage set, matching the
	// behaviour the UI was built against.
	StatusError Status = "error"
)

var (
	// ErrBusy is returned when an edit is already in flight for the session.
	ErrBusy = errors.New("an edit is already in progress")
	// ErrNotReady is returned by Generate without a source image or with a
	// blank instruction.
	ErrNotReady = errors.New("a source image and a non-empty instruction are required")
)

// fallbackEditMessage is shown when a failure carries no message of its own.
const fallbackEditMessage = "Failed to edit image. The model might be busy or the request invalid."

// Editor performs one remote edit. *chat.ImageEditor satisfies it.
type Editor interface {
	EditImage(ctx context.Context, image codec.EncodedImage, instruction string) (codec.EncodedImage, error)
}

// Resource is a picked file as supplied by the resource picker.
type Resource struct {
	Name string
	// Type is the declared MIME type.
	Type string
	// Size is the declared byte length.
	Size int64
	Body io.Reader
}

// Transition describes one status change.
type Transition struct {
	SessionID string
	From      Status
	To        Status
}

// Observer receives status transitions. It is called with the session lock
// held and must not call back into the Session.
type Observer func(Transition)

// Options configures a new Session.
type Options struct {
	ID       string
	Store    *codec.Store
	Editor   Editor
	Codec    codec.Options
	Observer Observer
	// Now overrides the clock used for activity tracking.
	Now func() time.Time
}

// Original is the selected source image.
type Original struct {
	Name   string
	Image  codec.EncodedImage
	Handle *codec.Handle
}

// Session is the state of one edit interaction. Safe for concurrent use;
// the lock is never held across the remote edit call.
type Session struct {
	mu sync.Mutex

	id       string
	store    *codec.Store
	editor   Editor
	codec    codec.Options
	observer Observer
	now      func() time.Time

	status      Status
	original    *Original
	instruction string
	generated   *codec.Handle
	errMsg      string
	lastActive  time.Time

	// epoch increments on Reset so an edit that completes afterwards is dropped.
	epoch uint64
	// inFlight is set while the remote call runs, across any Reset, so a
	// session never has two outstanding edits.
	inFlight bool
}

// New creates an idle session.
func New(opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Store == nil {
		opts.Store = codec.NewStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		id:         opts.ID,
		store:      opts.Store,
		editor:     opts.Editor,
		codec:      opts.Codec,
		observer:   opts.Observer,
		now:        opts.Now,
		status:     StatusIdle,
		lastActive: opts.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SelectImage validates and encodes res and makes it the session's original,
// releasing any previous original and generated handles. An invalid resource
// only sets ErrorMessage; the current image is left untouched. The returned
// error is the failure already recorded in ErrorMessage.
func (s *Session) SelectImage(res Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusProcessing {
		return ErrBusy
	}
	s.touch()

	if err := codec.Validate(res.Type, res.Size, s.codec); err != nil {
		s.errMsg = err.Error()
		log.Info().Str("session", s.id).Err(err).Msg("Rejected image selection")
		return err
	}

	s.setStatus(StatusUploading)
	s.errMsg = ""
	s.releaseGenerated()

	enc, err := codec.Encode(res.Body, res.Type, res.Size, s.codec)
	if err != nil {
		s.errMsg = err.Error()
		s.setStatus(StatusIdle)
		log.Warn().Str("session", s.id).Err(err).Msg("Failed to encode selected image")
		return err
	}

	handle, err := codec.Decode(s.store, enc.Data, enc.MIMEType)
	if err != nil {
		s.errMsg = "Failed to process image. Please try again."
		s.setStatus(StatusIdle)
		return err
	}

	if s.original != nil {
		s.store.Release(s.original.Handle)
	}
	s.original = &Original{Name: res.Name, Image: enc, Handle: handle}
	s.setStatus(StatusIdle)

	log.Info().
		Str("session", s.id).
		Str("name", res.Name).
		Str("mime_type", enc.MIMEType).
		Int("bytes", handle.Size).
		Msg("Source image selected")
	return nil
}

// SetInstruction stores the edit instruction.
func (s *Session) SetInstruction(instruction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.instruction = instruction
}

// Generate runs one edit of the original image with instruction. While an
// edit is in flight it returns ErrBusy and leaves the session unchanged, even
// if the session was reset after that edit started. A guard failure returns
// ErrNotReady with no state change. Remote failures return the session to
// Idle with ErrorMessage set and are also returned to the caller.
func (s *Session) Generate(ctx context.Context, instruction string) error {
	s.mu.Lock()
	if s.status == StatusProcessing || s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.original == nil || !hasText(instruction) {
		s.mu.Unlock()
		return ErrNotReady
	}

	s.touch()
	s.instruction = instruction
	s.inFlight = true
	s.setStatus(StatusProcessing)
	s.errMsg = ""
	s.releaseGenerated()
	source := s.original.Image
	epoch := s.epoch
	s.mu.Unlock()

	result, editErr := s.editor.EditImage(ctx, source, instruction)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.touch()

	if s.epoch != epoch {
		log.Info().Str("session", s.id).Msg("Session reset during edit; discarding result")
		return editErr
	}

	if editErr != nil {
		s.errMsg = editErr.Error()
		if s.errMsg == "" {
			s.errMsg = fallbackEditMessage
		}
		s.setStatus(StatusIdle)
		log.Warn().Str("session", s.id).Err(editErr).Msg("Edit failed")
		return editErr
	}

	handle, err := codec.Decode(s.store, result.Data, result.MIMEType)
	if err != nil {
		s.errMsg = fallbackEditMessage
		s.setStatus(StatusIdle)
		log.Error().Str("session", s.id).Err(err).Msg("Failed to decode generated image")
		return err
	}

	s.generated = handle
	s.setStatus(StatusComplete)
	log.Info().
		Str("session", s.id).
		Str("mime_type", handle.MIMEType).
		Int("bytes", handle.Size).
		Msg("Edit complete")
	return nil
}

// Reset releases every handle and returns the session to an empty Idle
// state. An edit still in flight completes but its result is discarded, and
// Generate keeps returning ErrBusy until it has.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.original != nil {
		s.store.Release(s.original.Handle)
		s.original = nil
	}
	s.releaseGenerated()
	s.instruction = ""
	s.errMsg = ""
	s.epoch++
	s.setStatus(StatusIdle)
}

// Generated returns the generated image handle, or nil.
func (s *Session) Generated() *codec.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generated
}

// LastActive returns the time of the last call that touched the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) releaseGenerated() {
	if s.generated != nil {
		s.store.Release(s.generated)
		s.generated = nil
	}
}

func (s *Session) setStatus(to Status) {
	from := s.status
	s.status = to
	if from == to {
		return
	}
	log.Debug().Str("session", s.id).Str("from", string(from)).Str("to", string(to)).Msg("Session transition")
	if s.observer != nil {
		s.observer(Transition{SessionID: s.id, From: from, To: to})
	}
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

func (s *Session) touch() {
	s.lastActive = s.now()
}
