package codec

import (
	"bytes"
	"image"
	"sync"

	// Registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// BlobPathPrefix is the URL path under which live handles are served.
const BlobPathPrefix = "/blob/"

// Handle is a locally dereferenceable reference to decoded image bytes.
// It plays the part of a browser object URL: the owner must Release it once
// it is superseded, otherwise the bytes stay resident in the Store.
type Handle struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type blob struct {
	data     []byte
	mimeType string
}

// Store holds the bytes behind every live Handle. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewStore creates an empty handle store.
func NewStore() *Store {
	return &Store{blobs: make(map[string]blob)}
}

// Wrap registers data and returns a new handle for it. The store keeps its own
// reference to data; callers must not mutate it afterwards.
func (s *Store) Wrap(data []byte, mimeType string) *Handle {
	id := uuid.NewString()
	h := &Handle{
		ID:       id,
		URL:      BlobPathPrefix + id,
		MIMEType: mimeType,
		Size:     len(data),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		h.Width, h.Height = cfg.Width, cfg.Height
	}

	s.mu.Lock()
	s.blobs[id] = blob{data: data, mimeType: mimeType}
	s.mu.Unlock()

	log.Debug().
		Str("handle", id).
		Str("mime_type", mimeType).
		Int("bytes", len(data)).
		Msg("Display handle created")
	return h
}

// Open returns the bytes and MIME type behind a live handle ID.
func (s *Store) Open(id string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, "", false
	}
	return b.data, b.mimeType, true
}

// Release frees the bytes behind h. Releasing a nil or already released
// handle is a no-op.
func (s *Store) Release(h *Handle) {
	if h == nil {
		return
	}
	s.mu.Lock()
	_, ok := s.blobs[h.ID]
	delete(s.blobs, h.ID)
	s.mu.Unlock()

	if ok {
		log.Debug().Str("handle", h.ID).Msg("Display handle released")
	}
}

// Len returns the number of live handles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
