package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"warbler/internal/model"
)

const (
	sessionName = "warbler"

	// currUserKey holds the logged-in user's id in the session.
	currUserKey = "curr_user"

	flashSuccess = "success"
	flashDanger  = "danger"
	flashInfo    = "info"
)

type Flash struct {
	Category string
	Message  string
}

type ctxKey int

const userKey ctxKey = 0

func newStore(secret string, secure bool) *sessions.CookieStore {
	s := sessions.NewCookieStore([]byte(secret))
	s.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return s
}

func (s *Server) session(r *http.Request) *sessions.Session {
	// A cookie that no longer decodes yields a fresh session alongside the error.
	session, _ := s.sessions.Get(r, sessionName)
	return session
}

// currentUser returns the user loaded by loadUser, or nil when anonymous.
func currentUser(r *http.Request) *model.User {
	u, _ := r.Context().Value(userKey).(*model.User)
	return u
}

func withUser(r *http.Request, u *model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userKey, u))
}

func (s *Server) sessionUserID(r *http.Request) (int64, bool) {
	id, ok := s.session(r).Values[currUserKey].(int64)
	return id, ok
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, u *model.User) error {
	session := s.session(r)
	session.Values[currUserKey] = u.ID
	return session.Save(r, w)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) error {
	session := s.session(r)
	delete(session.Values, currUserKey)
	return session.Save(r, w)
}

func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session := s.session(r)
	session.AddFlash(category + "|" + message)
	if err := session.Save(r, w); err != nil {
		s.logger.Warn("failed to save flash", zap.Error(err))
	}
}

func (s *Server) flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := s.session(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		s.logger.Warn("failed to clear flashes", zap.Error(err))
	}

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		category, message, found := strings.Cut(str, "|")
		if !found {
			category, message = flashInfo, str
		}
		out = append(out, Flash{Category: category, Message: message})
	}
	return out
}
