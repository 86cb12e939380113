// Package httpapi exposes the ID card parser over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fida-id/fida-extractor/internal/config"
	"github.com/fida-id/fida-extractor/internal/idcard"
)

const (
	serviceName     = "fida-extractor"
	uploadField     = "file"
	shutdownTimeout = 10 * time.Second
	// room for multipart boundaries and headers on top of the file itself
	multipartOverhead = 1 << 20
)

// Parser turns PDF bytes into an ID card record
type Parser interface {
	Parse(ctx context.Context, data []byte) (*idcard.Result, error)
}

// Server represents the HTTP server instance
type Server struct {
	config *config.Config
	parser Parser
	logger *zap.Logger
	router chi.Router
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, parser Parser, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if parser == nil {
		return nil, fmt.Errorf("parser cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config: cfg,
		parser: parser,
		logger: logger,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Post("/parse", s.handleParse)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve HTTP: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	data, status, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	result, err := s.parser.Parse(ctx, data)
	if err != nil {
		if idcard.IsDocumentOpen(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("parse failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Debug("parsed ID card",
		zap.Int("images", result.Images),
		zap.Bool("qr", result.QR != nil))
	writeJSON(w, http.StatusOK, result.Record)
}

// readUpload returns the PDF bytes from either a raw body or the multipart
// field "file". The returned status applies when err is non-nil.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	limit := s.config.MaxFileSize

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
		file, _, err := r.FormFile(uploadField)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("failed to read form field %q: %w", uploadField, err)
		}
		defer file.Close()
		src = file
	}

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, errors.New("request body is empty")
	}
	if int64(len(data)) > limit {
		return nil, http.StatusBadRequest, fmt.Errorf("file too large (max: %d bytes)", limit)
	}
	return data, 0, nil
}

// accessLog logs one line per request
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
