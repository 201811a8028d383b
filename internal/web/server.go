// Package web serves the single-page editor and the JSON API behind it.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/fpang/neuroscan-edit/internal/config"
	"github.com/fpang/neuroscan-edit/internal/session"
)

//go:embed static
var staticFS embed.FS

// multipartOverhead is the allowance for multipart framing and small form
// fields on top of the image size limit.
const multipartOverhead int64 = 1 << 20

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	DownloadName   string
	Model          string
}

// OptionsFromConfig derives server options from the loaded configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		DownloadName:   cfg.DownloadName,
		Model:          cfg.Model,
	}
}

// Server routes HTTP requests to sessions held by a session.Manager.
type Server struct {
	manager *session.Manager
	opts    Options
	static  fs.FS
}

// NewServer creates a Server for manager.
func NewServer(manager *session.Manager, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = codec.DefaultMaxBytes
	}
	if opts.DownloadName == "" {
		opts.DownloadName = config.DefaultDownloadName
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return &Server{manager: manager, opts: opts, static: sub}
}

// Handler returns the complete HTTP handler including middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		withLogging,
		withCORS,
		withSecurityHeaders,
	)
	s.Mount(r)
	return gzhttp.GzipHandler(r)
}

// Mount registers all routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/healthz", s.health)

	r.Post("/api/sessions", s.createSession)
	r.Get("/api/sessions/{id}", s.getSession)
	r.Delete("/api/sessions/{id}", s.deleteSession)
	r.Post("/api/sessions/{id}/image", s.uploadImage)
	r.Put("/api/sessions/{id}/instruction", s.setInstruction)
	r.Post("/api/sessions/{id}/generate", s.generate)
	r.Post("/api/sessions/{id}/reset", s.resetSession)
	r.Get("/api/sessions/{id}/download", s.download)

	r.Get(codec.BlobPathPrefix+"{id}", s.blob)

	r.Get("/*", s.frontend)
}

func (s *Server) frontend(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	// Unknown paths fall back to index.html.
	if path := strings.TrimPrefix(r.URL.Path, "/"); path != "" {
		if f, err := s.static.Open(path); err != nil {
			r.URL.Path = "/"
		} else {
			f.Close()
		}
	}
	http.FileServer(http.FS(s.static)).ServeHTTP(w, r)
}
