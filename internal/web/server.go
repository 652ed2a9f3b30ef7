// Package web serves the Warbler HTML site.
package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"warbler/internal/cache"
	"warbler/internal/store"
)

type Options struct {
	Store  *store.Store
	Stats  cache.StatsCache
	Logger *zap.Logger

	// SecretKey signs the session cookie.
	SecretKey string
	// SecureCookies marks the session cookie HTTPS-only.
	SecureCookies bool
	// TimelineLimit caps the messages shown on the home timeline and profiles.
	TimelineLimit int
}

type Server struct {
	store         *store.Store
	stats         cache.StatsCache
	logger        *zap.Logger
	sessions      *sessions.CookieStore
	pages         map[string]*template.Template
	timelineLimit int
	router        *mux.Router
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("web: store is required")
	}
	if opts.SecretKey == "" {
		return nil, errors.New("web: secret key is required")
	}
	if opts.Stats == nil {
		opts.Stats = cache.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TimelineLimit <= 0 {
		opts.TimelineLimit = 100
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:         opts.Store,
		stats:         opts.Stats,
		logger:        opts.Logger,
		sessions:      newStore(opts.SecretKey, opts.SecureCookies),
		pages:         pages,
		timelineLimit: opts.TimelineLimit,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loadUser)

	r.PathPrefix("/static/").Handler(staticHandler())

	r.HandleFunc("/", s.homepage).Methods("GET")
	r.HandleFunc("/signup", s.signup).Methods("GET", "POST")
	r.HandleFunc("/login", s.loginPage).Methods("GET", "POST")
	r.HandleFunc("/logout", s.logoutPage).Methods("GET")

	r.HandleFunc("/users", s.listUsers).Methods("GET")
	r.HandleFunc("/users/profile", s.requireLogin(s.editProfile)).Methods("GET", "POST")
	r.HandleFunc("/users/delete", s.requireLogin(s.deleteUser)).Methods("POST")
	r.HandleFunc("/users/{id:[0-9]+}", s.showUser).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/following", s.requireLogin(s.showFollowing)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/followers", s.requireLogin(s.showFollowers)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/likes", s.requireLogin(s.showLikes)).Methods("GET")
	r.HandleFunc("/users/follow/{id:[0-9]+}", s.requireLogin(s.addFollow)).Methods("POST")
	r.HandleFunc("/users/stop-following/{id:[0-9]+}", s.requireLogin(s.stopFollowing)).Methods("POST")
	r.HandleFunc("/users/add_like/{id:[0-9]+}", s.requireLogin(s.toggleLike)).Methods("POST")

	r.HandleFunc("/messages/new", s.requireLogin(s.newMessage)).Methods("GET", "POST")
	r.HandleFunc("/messages/{id:[0-9]+}", s.showMessage).Methods("GET")
	r.HandleFunc("/messages/{id:[0-9]+}/delete", s.requireLogin(s.deleteMessage)).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(s.notFound)
	return r
}

// Handler returns the router wrapped in the logging, recovery and no-cache
// middleware.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}
