// Package server exposes the analysis service over a small JSON HTTP API
// for the browser front end.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/ppiankov/securo/internal/app"
	"github.com/ppiankov/securo/internal/extract"
	"github.com/ppiankov/securo/internal/llm"
	"github.com/ppiankov/securo/internal/logging"
)

// ErrBusy is returned when a submission arrives while another analysis runs
var ErrBusy = errors.New("an analysis is already in progress")

// MsgBusy is the user-facing text for ErrBusy
const MsgBusy = "An analysis is already in progress. Please wait for it to finish."

// DefaultMaxUploadBytes bounds multipart request bodies
const DefaultMaxUploadBytes = 16 * 1024 * 1024

// uploadField is the multipart form field carrying the file
const uploadField = "file"

// Options configures the HTTP API
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	Timeout        time.Duration // per analysis; zero means none
	Logger         *log.Logger
}

// Server serves the analysis API. Only one analysis runs at a time.
type Server struct {
	svc       *app.Service
	logger    *log.Logger
	maxUpload int64
	timeout   time.Duration
	origins   []string
	busy      sync.Mutex
}

// New creates a server over svc
func New(svc *app.Service, opts Options) *Server {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Server{
		svc:       svc,
		logger:    logging.OrDiscard(opts.Logger).WithPrefix("server"),
		maxUpload: maxUpload,
		timeout:   opts.Timeout,
		origins:   opts.AllowedOrigins,
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	if len(s.origins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/analyze/text", s.wrap(s.exclusive(s.handleAnalyzeText)))
		rt.Post("/analyze/file", s.wrap(s.exclusive(s.handleAnalyzeFile)))
		rt.Post("/analyze/image", s.wrap(s.exclusive(s.handleAnalyzeImage)))
		rt.Get("/history", s.wrap(s.handleHistory))
		rt.Get("/history/{id}", s.wrap(s.handleHistoryItem))
		rt.Post("/history/{id}/reanalyze", s.wrap(s.exclusive(s.handleReanalyze)))
	})

	return mux
}

// ListenAndServe runs the API until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "status", status, "err", err)
			} else {
				s.logger.Debug("request rejected", "method", req.Method, "path", req.URL.Path, "status", status, "err", err)
			}
			writeJSON(w, status, errorBody{Error: userMessage(err)})
		}
	}
}

// exclusive rejects the request with ErrBusy while another analysis holds the lock
func (s *Server) exclusive(h handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		if !s.busy.TryLock() {
			return ErrBusy
		}
		defer s.busy.Unlock()

		if s.timeout > 0 {
			ctx, cancel := context.WithTimeout(req.Context(), s.timeout)
			defer cancel()
			req = req.WithContext(ctx)
		}
		return h(w, req)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type textRequest struct {
	Input string `json:"input"`
}

// POST /api/analyze/text
// Body: {"input": "<text, URL or video link>"}
func (s *Server) handleAnalyzeText(w http.ResponseWriter, req *http.Request) error {
	var body textRequest
	if err := json.NewDecoder(io.LimitReader(req.Body, s.maxUpload)).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}

	item, err := s.svc.SubmitText(req.Context(), body.Input)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

// POST /api/analyze/file (multipart, field "file")
func (s *Server) handleAnalyzeFile(w http.ResponseWriter, req *http.Request) error {
	name, mimeType, data, err := s.readUpload(w, req)
	if err != nil {
		return err
	}

	item, err := s.svc.SubmitFile(req.Context(), name, mimeType, data)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

// POST /api/analyze/image (multipart, field "file")
func (s *Server) handleAnalyzeImage(w http.ResponseWriter, req *http.Request) error {
	name, mimeType, data, err := s.readUpload(w, req)
	if err != nil {
		return err
	}

	item, err := s.svc.SubmitImage(req.Context(), name, mimeType, data)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

// GET /api/history
func (s *Server) handleHistory(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, s.svc.History())
	return nil
}

// GET /api/history/{id}
func (s *Server) handleHistoryItem(w http.ResponseWriter, req *http.Request) error {
	item, err := s.svc.SelectHistoryItem(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

// POST /api/history/{id}/reanalyze
func (s *Server) handleReanalyze(w http.ResponseWriter, req *http.Request) error {
	item, err := s.svc.Reanalyze(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

// readUpload reads the single multipart file, bounded by maxUpload
func (s *Server) readUpload(w http.ResponseWriter, req *http.Request) (string, string, []byte, error) {
	req.Body = http.MaxBytesReader(w, req.Body, s.maxUpload)
	if err := req.ParseMultipartForm(s.maxUpload); err != nil {
		return "", "", nil, fmt.Errorf("%w: parse upload: %w", errBadRequest, err)
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	file, header, err := req.FormFile(uploadField)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: missing %q field: %v", errBadRequest, uploadField, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", extract.ErrFileRead, err)
	}
	return header.Filename, header.Header.Get("Content-Type"), data, nil
}

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, app.ErrNotReanalyzable):
		return http.StatusConflict
	case errors.As(err, &tooLarge), errors.Is(err, extract.ErrOversizedImage):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, app.ErrHistoryItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrAnalysisFailed):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrEmptyInput),
		errors.Is(err, extract.ErrUnsupportedFileType),
		errors.Is(err, extract.ErrFileRead),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, ErrBusy):
		return MsgBusy
	case errors.As(err, &tooLarge):
		return fmt.Sprintf("Upload exceeds the %d byte limit.", tooLarge.Limit)
	case errors.Is(err, errBadRequest):
		return "Malformed request: " + strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")
	default:
		return app.UserMessage(err)
	}
}

// writeJSON commits the status line; encode errors after that point only
// mean the client went away
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
