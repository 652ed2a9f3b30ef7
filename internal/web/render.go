package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"
)

//go:embed templates static
var assets embed.FS

var pageNames = []string{
	"404.html",
	"home.html",
	"home-anon.html",
	"users/signup.html",
	"users/login.html",
	"users/index.html",
	"users/show.html",
	"users/following.html",
	"users/followers.html",
	"users/likes.html",
	"users/edit.html",
	"messages/new.html",
	"messages/show.html",
}

var funcMap = template.FuncMap{
	"datetimeformat": datetimeformat,
}

func datetimeformat(t time.Time) string {
	return t.Format("02 January 2006")
}

// parsePages builds one template set per page: the shared layout and
// partials plus the page itself.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("base.html").
			Funcs(funcMap).
			ParseFS(assets, "templates/base.html", "templates/partials.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

func staticHandler() http.Handler {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(static)))
}

// render executes page into a buffer first so a template error can still
// turn into a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	p, ok := s.pages[page]
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown page %q", page))
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["CurrentUser"]; !ok {
		data["CurrentUser"] = currentUser(r)
	}
	if _, ok := data["Flashes"]; !ok {
		data["Flashes"] = s.flashes(w, r)
	}

	var buf bytes.Buffer
	if err := p.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.serverError(w, r, fmt.Errorf("render %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("write response", zap.String("page", page), zap.Error(err))
	}
}
