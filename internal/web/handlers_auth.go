package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"warbler/internal/store"
)

const minPasswordLength = 6

// GET / personal timeline, or the landing page when anonymous.
func (s *Server) homepage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		s.render(w, r, http.StatusOK, "home-anon.html", nil)
		return
	}

	ctx := r.Context()
	messages, err := s.store.Timeline(ctx, user.ID, s.timelineLimit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	likes, err := s.store.LikedIDs(ctx, user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "home.html", map[string]any{
		"Messages": messages,
		"Likes":    likes,
		"Stats":    s.profileStats(ctx, user.ID),
	})
}

func validateSignup(username, email, password string) string {
	switch {
	case strings.TrimSpace(username) == "":
		return "You have to enter a username"
	case email == "" || !strings.Contains(email, "@"):
		return "You have to enter a valid email address"
	case utf8.RuneCountInString(password) < minPasswordLength:
		return fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	}
	return ""
}

// GET + POST /signup
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	errorMsg := ""
	form := map[string]string{}
	if r.Method == http.MethodPost {
		username := strings.TrimSpace(r.FormValue("username"))
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		imageURL := strings.TrimSpace(r.FormValue("image_url"))
		form = map[string]string{"Username": username, "Email": email, "ImageURL": imageURL}

		errorMsg = validateSignup(username, email, password)
		if errorMsg == "" {
			user, err := s.store.Signup(r.Context(), username, email, password, imageURL)
			switch {
			case errors.Is(err, store.ErrUsernameTaken):
				s.addFlash(w, r, flashDanger, "Username already taken")
			case err != nil:
				s.serverError(w, r, err)
				return
			default:
				if err := s.login(w, r, user); err != nil {
					s.serverError(w, r, err)
					return
				}
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
		}
	}

	s.render(w, r, http.StatusOK, "users/signup.html", map[string]any{
		"Error": errorMsg,
		"Form":  form,
	})
}

// GET + POST /login
func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if r.Method == http.MethodPost {
		username := strings.TrimSpace(r.FormValue("username"))
		user, err := s.store.Authenticate(r.Context(), username, r.FormValue("password"))
		switch {
		case errors.Is(err, store.ErrInvalidCredentials):
			s.addFlash(w, r, flashDanger, "Invalid credentials.")
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			if err := s.login(w, r, user); err != nil {
				s.serverError(w, r, err)
				return
			}
			s.addFlash(w, r, flashSuccess, fmt.Sprintf("Hello, %s!", user.Username))
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}

	s.render(w, r, http.StatusOK, "users/login.html", nil)
}

// GET /logout
func (s *Server) logoutPage(w http.ResponseWriter, r *http.Request) {
	if err := s.logout(w, r); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.addFlash(w, r, flashSuccess, "You have successfully logged out.")
	http.Redirect(w, r, "/login", http.StatusFound)
}
