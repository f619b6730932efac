// Package web serves the single-page plant analysis UI: upload a photo,
// preview it, send it and read the diagnosis, or ask a text question.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/plantcare-ai/plantcare-bot/internal/capability"
	"github.com/plantcare-ai/plantcare-bot/internal/session"
)

// maxUploadSize bounds the multipart body of an upload.
const maxUploadSize = 10 << 20

// Capabilities is the registry as seen by the web UI.
type Capabilities interface {
	session.Capabilities
	Status() capability.Status
}

type Server struct {
	api      session.Backend
	caps     Capabilities
	baseURL  string
	sessions *sessionStore
}

// DefaultSessionTTL is used when NewServer is given a non-positive TTL.
const DefaultSessionTTL = 30 * time.Minute

// NewServer creates the web UI. baseURL is the backend address shown in
// error messages; sessionTTL is how long an idle browser session is kept.
func NewServer(api session.Backend, caps Capabilities, baseURL string, sessionTTL time.Duration) *Server {
	if caps == nil {
		caps = capability.NewRegistry()
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Server{
		api:      api,
		caps:     caps,
		baseURL:  baseURL,
		sessions: newSessionStore(caps, sessionTTL),
	}
}

// Handler returns the router of the UI.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/", s.index)
	r.Post("/upload", s.upload)
	r.Post("/remove", s.remove)
	r.Post("/send", s.send)
	r.Post("/back", s.back)
	r.Post("/reset", s.reset)
	r.Post("/category", s.category)

	return r
}

// ListenAndServe serves the UI on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sessions.runJanitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("web UI listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down web UI")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs every request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("requestId", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("web request")
		}()
		next.ServeHTTP(ww, r)
	})
}
