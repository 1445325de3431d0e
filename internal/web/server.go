package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-photo-studio/internal/board"
	"ai-photo-studio/internal/studio"
)

// Studio is what the HTTP layer needs from the generation orchestrator.
type Studio interface {
	Start(ctx context.Context, key string, s studio.Settings, images studio.Images) (*studio.Job, error)
	Run(ctx context.Context, job *studio.Job) (studio.Outcome, error)
	Snapshot(ctx context.Context, key string) (board.Snapshot, error)
}

type Options struct {
	Studio         Studio
	Logger         *slog.Logger
	MaxUploadBytes int64
	// BaseContext parents background generations; cancelling it aborts
	// their pending edit calls.
	BaseContext  context.Context
	PollInterval time.Duration
}

type Server struct {
	studio    Studio
	logger    *slog.Logger
	maxUpload int64
	baseCtx   context.Context
	poll      time.Duration
}

type apiError struct {
	Error string `json:"error"`
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 300 * time.Millisecond
	}
	return &Server{
		studio:    opts.Studio,
		logger:    logger,
		maxUpload: maxUpload,
		baseCtx:   baseCtx,
		poll:      poll,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, s.withLogging)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/modes/{mode}/defaults", s.handleDefaults)
		r.Post("/prompts", s.handlePrompts)
		r.Post("/export", s.handleExport)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleSnapshot)
			r.Post("/{id}/generate", s.handleGenerate)
			r.Get("/{id}/ws", s.handleFeed)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"dur_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
