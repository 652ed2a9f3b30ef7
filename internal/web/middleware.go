package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"warbler/internal/store"
)

func (s *Server) withMiddleware(h http.Handler) http.Handler {
	h = noCache(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger.Sugar()}),
		handlers.PrintRecoveryStack(true),
	)(h)
	return h
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Info("request",
		zap.String("method", p.Request.Method),
		zap.String("path", p.URL.Path),
		zap.Int("status", p.StatusCode),
		zap.Int("size", p.Size),
		zap.Duration("duration", time.Since(p.TimeStamp)),
	)
}

type recoveryLogger struct {
	*zap.SugaredLogger
}

func (l recoveryLogger) Println(v ...any) {
	l.Error(v...)
}

// noCache stops browsers from caching pages that depend on the session.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate, public, max-age=0")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// loadUser puts the session's user on the request context. A session
// pointing at a deleted user is logged out.
func (s *Server) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		u, err := s.store.User(r.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := s.logout(w, r); err != nil {
				s.logger.Warn("failed to drop stale session", zap.Error(err))
			}
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// requireLogin redirects anonymous requests home with an unauthorized flash.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			s.unauthorized(w, r)
			return
		}
		next(w, r)
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	s.addFlash(w, r, flashDanger, "Access unauthorized.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "404.html", nil)
}
