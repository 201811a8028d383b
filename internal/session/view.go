package session

import "github.com/fpang/neuroscan-edit/internal/codec"

// View is a point-in-time snapshot of a Session for rendering.
type View struct {
	ID           string        `json:"id"`
	Status       Status        `json:"status"`
	Original     *OriginalView `json:"original,omitempty"`
	Instruction  string        `json:"instruction"`
	Generated    *codec.Handle `json:"generated,omitempty"`
	ErrorMessage string        `json:"error,omitempty"`
	// CanGenerate mirrors the UI's enablement rule for the generate trigger.
	CanGenerate bool `json:"canGenerate"`
}

// OriginalView describes the source image without its payload.
type OriginalView struct {
	Name   string        `json:"name,omitempty"`
	Handle *codec.Handle `json:"handle"`
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:           s.id,
		Status:       s.status,
		Instruction:  s.instruction,
		ErrorMessage: s.errMsg,
	}
	if s.original != nil {
		v.Original = &OriginalView{Name: s.original.Name, Handle: copyHandle(s.original.Handle)}
	}
	if s.generated != nil {
		v.Generated = copyHandle(s.generated)
	}
	v.CanGenerate = s.original != nil && hasText(s.instruction) && s.status != StatusProcessing && !s.inFlight
	return v
}

func copyHandle(h *codec.Handle) *codec.Handle {
	if h == nil {
		return nil
	}
	c := *h
	return &c
}
