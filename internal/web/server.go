// Package web serves the upload form and the upscale endpoint.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"image-upscaler/internal/backends"
	"image-upscaler/internal/logger"
	"image-upscaler/internal/models"
	"image-upscaler/internal/pipeline"
	"image-upscaler/internal/processing/chain"
	"image-upscaler/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options holds the request defaults and limits of the web front end.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	MinScale       models.ScaleFactor
	MaxScale       models.ScaleFactor
	DefaultScale   models.ScaleFactor
	DefaultTier    models.QualityTier
	DefaultFormat  string
	DefaultQuality int
	Prefix         string
	Enhance        bool
	Settings       chain.Settings
	Backend        backends.Options
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = ":8501"
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 64 << 20
	}
	if o.MinScale <= 0 {
		o.MinScale = models.MinPractical
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = models.MaxPractical
	}
	if o.DefaultScale < o.MinScale || o.DefaultScale > o.MaxScale {
		o.DefaultScale = models.DefaultScale
	}
	if o.DefaultTier == "" {
		o.DefaultTier = models.TierHigh
	}
	if o.DefaultFormat == "" {
		o.DefaultFormat = "png"
	}
	if o.DefaultQuality <= 0 || o.DefaultQuality > 100 {
		o.DefaultQuality = pipeline.DefaultJPEGQuality
	}
	if o.Prefix == "" {
		o.Prefix = pipeline.DefaultPrefix
	}
	base := backends.DefaultOptions()
	if o.Backend == (backends.Options{}) {
		o.Backend = base
	}
	if o.Backend.Interpolation == "" {
		o.Backend.Interpolation = base.Interpolation
	}
	if o.Backend.Style == "" {
		o.Backend.Style = base.Style
	}
	return o
}

type Server struct {
	service *services.ProcessingService
	loader  *pipeline.Loader
	opts    Options
	logger  logger.Logger
	tmpl    *template.Template
	handler http.Handler

	mu   sync.Mutex
	http *http.Server
}

func NewServer(service *services.ProcessingService, loader *pipeline.Loader, opts Options, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop{}
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		service: service,
		loader:  loader,
		opts:    opts.withDefaults(),
		logger:  log,
		tmpl:    tmpl,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upscale", s.handleUpscale)
	mux.HandleFunc("GET /api/capabilities", s.handleCapabilities)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.handler = s.withRequestID(s.withLogging(mux))

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("WebServer", "listening", map[string]interface{}{
		"addr":       ln.Addr().String(),
		"max_upload": humanize.IBytes(uint64(s.opts.MaxUploadBytes)),
	})

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
