// Package server exposes snapshot export and import over HTTP for remote
// administration.
package server

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/ALT-F4-LLC/dinnerplan/internal/snapshot"
)

// MaxUploadSize caps the body of an archive upload.
const MaxUploadSize = 512 << 20

type ctxKey struct{}

// Server serves the admin endpoints.
type Server struct {
	engine *snapshot.Engine
	store  *sql.DB
	token  string
	log    *slog.Logger
}

// New returns a Server. Requests to /admin must carry token as a bearer
// credential; an empty token rejects every admin request.
func New(engine *snapshot.Engine, store *sql.DB, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine: engine,
		store:  store,
		token:  token,
		log:    logger,
	}
}

// Handler returns the router with all routes and middleware installed.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.withRequestID, s.logRequests)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireToken)
	admin.HandleFunc("/snapshot", s.exportSnapshot).Methods(http.MethodGet)
	admin.HandleFunc("/snapshot", s.importSnapshot).Methods(http.MethodPost)
	admin.HandleFunc("/stats", s.stats).Methods(http.MethodGet)

	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.log.Info("shutting down admin server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown failed", "error", err)
		}
	}()

	s.log.Info("admin server listening", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"request_id", requestID(r),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || s.token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(s.token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="dinnerplan"`)
			s.fail(w, r, errors.New("missing or invalid admin token"), output.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.PingContext(r.Context()); err != nil {
		s.fail(w, r, fmt.Errorf("database unavailable: %w", err), output.ErrGeneral)
		return
	}
	s.ok(w, map[string]string{"status": "ok"}, "")
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := db.CountAll(s.store)
	if err != nil {
		s.fail(w, r, err, output.ErrGeneral)
		return
	}
	s.ok(w, counts, "")
}

func (s *Server) exportSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Export(r.Context())
	if err != nil {
		s.fail(w, r, err, output.Classify(err))
		return
	}

	name := fmt.Sprintf("dinnerplan-%s.zip", res.Manifest.ExportedAt.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Archive)))
	w.Header().Set("X-Archive-Id", res.Manifest.ArchiveID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Archive); err != nil {
		s.log.Warn("writing archive", "request_id", requestID(r), "error", err)
	}
}

// importSnapshot replaces the store with the uploaded archive. With
// ?dry_run=true the import is rehearsed and rolled back.
func (s *Server) importSnapshot(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, fmt.Errorf("archive exceeds %d bytes", MaxUploadSize), output.ErrValidation)
			return
		}
		s.fail(w, r, fmt.Errorf("reading upload: %w", err), output.ErrGeneral)
		return
	}
	if len(data) == 0 {
		s.fail(w, r, errors.New("empty upload"), output.ErrValidation)
		return
	}

	var res *snapshot.ImportResult
	if dryRun {
		res, err = s.engine.DryRun(r.Context(), data)
	} else {
		res, err = s.engine.Import(r.Context(), data)
	}
	if err != nil {
		s.fail(w, r, err, output.Classify(err))
		return
	}

	msg := fmt.Sprintf("restored %d records", res.Restored.Total())
	if dryRun {
		msg = fmt.Sprintf("dry run: would restore %d records", res.Restored.Total())
	}
	s.ok(w, res, msg)
}

func (s *Server) ok(w http.ResponseWriter, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	output.WriteJSONSuccess(w, data, message)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, code output.ErrorCode) {
	status := output.HTTPStatusForError(code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "request_id", requestID(r), "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	output.WriteJSONError(w, err, code)
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
