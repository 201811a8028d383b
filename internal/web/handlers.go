package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/neuroscan-edit/internal/chat"
	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/fpang/neuroscan-edit/internal/session"
)

// instructionRequest is the body of the instruction and generate endpoints.
// A generate request without an instruction uses the stored one.
type instructionRequest struct {
	Instruction *string `json:"instruction"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Sessions int    `json:"sessions"`
	Handles  int    `json:"handles"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Model:    s.opts.Model,
		Sessions: s.manager.Len(),
		Handles:  s.manager.Store().Len(),
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.manager.Create()
	respondJSON(w, http.StatusCreated, sess.View())
}

// session resolves the {id} route parameter, writing a 404 when unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.manager.Get(id)
	if !ok {
		httpError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.manager.Delete(chi.URLParam(r, "id")) {
		httpError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	respondJSON(w, http.StatusOK, sess.View())
}

// uploadImage streams the "image" part of a multipart body into the session.
// An optional "size" field sent before it carries the picker's declared byte
// length so oversize files are rejected before any bytes are read.
func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		httpError(w, http.StatusBadRequest, "expected a multipart/form-data upload")
		return
	}

	declaredSize := int64(-1)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			httpError(w, http.StatusBadRequest, "missing image field")
			return
		}
		if err != nil {
			httpError(w, http.StatusBadRequest, "malformed multipart upload")
			return
		}

		switch part.FormName() {
		case "size":
			raw, _ := io.ReadAll(io.LimitReader(part, 32))
			if n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); err == nil && n >= 0 {
				declaredSize = n
			}
		case "image":
			res := session.Resource{
				Name: part.FileName(),
				Type: part.Header.Get("Content-Type"),
				Size: declaredSize,
				Body: part,
			}
			selErr := sess.SelectImage(res)
			// Drain what the codec did not read so the client sees the response.
			io.Copy(io.Discard, part)
			part.Close()
			s.respondSession(w, sess, selErr)
			return
		}
		part.Close()
	}
}

func (s *Server) setInstruction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req instructionRequest
	if err := decodeJSON(r, &req); err != nil || req.Instruction == nil {
		httpError(w, http.StatusBadRequest, "instruction is required")
		return
	}
	sess.SetInstruction(*req.Instruction)
	respondJSON(w, http.StatusOK, sess.View())
}

// generate runs the edit synchronously. The edit is detached from the request
// context: a client that disconnects mid-edit still gets the session updated.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req instructionRequest
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	instruction := sess.View().Instruction
	if req.Instruction != nil {
		instruction = *req.Instruction
	}

	err := sess.Generate(context.WithoutCancel(r.Context()), instruction)
	s.respondSession(w, sess, err)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	h := sess.Generated()
	if h == nil {
		httpError(w, http.StatusNotFound, "no generated image")
		return
	}
	data, mimeType, ok := s.manager.Store().Open(h.ID)
	if !ok {
		httpError(w, http.StatusNotFound, "no generated image")
		return
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": s.opts.DownloadName}))
	writeImage(w, mimeType, data)
}

func (s *Server) blob(w http.ResponseWriter, r *http.Request) {
	data, mimeType, ok := s.manager.Store().Open(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeImage(w, mimeType, data)
}

func writeImage(w http.ResponseWriter, mimeType string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, no-cache")
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("Failed to write image response")
	}
}

// respondSession writes the session view with a status derived from err.
func (s *Server) respondSession(w http.ResponseWriter, sess *session.Session, err error) {
	status := http.StatusOK
	var valErr *codec.ValidationError
	var editErr *chat.EditError
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNotReady):
		status = http.StatusBadRequest
	case errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &editErr):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	view := sess.View()
	if err != nil && view.ErrorMessage == "" {
		// Busy and not-ready leave the session untouched; surface the reason
		// in the response only.
		view.ErrorMessage = capitalize(err.Error())
	}
	respondJSON(w, status, view)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
