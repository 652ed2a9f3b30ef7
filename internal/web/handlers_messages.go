package web

import (
	"errors"
	"net/http"

	"warbler/internal/store"
)

// GET + POST /messages/new
func (s *Server) newMessage(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	errorMsg := ""
	text := ""
	if r.Method == http.MethodPost {
		text = r.FormValue("text")
		_, err := s.store.CreateMessage(r.Context(), me.ID, text)
		switch {
		case errors.Is(err, store.ErrInvalidMessage):
			errorMsg = "Your message must be between 1 and 140 characters"
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			s.invalidateStats(r.Context(), me.ID)
			http.Redirect(w, r, userURL(me.ID), http.StatusFound)
			return
		}
	}

	s.render(w, r, http.StatusOK, "messages/new.html", map[string]any{
		"Error": errorMsg,
		"Text":  text,
	})
}

// GET /messages/{id}
func (s *Server) showMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msg, err := s.store.Message(ctx, pathID(r))
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r)
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}

	liked := false
	if me := currentUser(r); me != nil {
		likes, err := s.store.LikedIDs(ctx, me.ID)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		liked = likes[msg.ID]
	}

	s.render(w, r, http.StatusOK, "messages/show.html", map[string]any{
		"Message": msg,
		"Liked":   liked,
	})
}

// POST /messages/{id}/delete
//
// Only the author may delete. Anyone else is redirected home with an
// unauthorized flash and the message stays.
func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	err := s.store.DeleteMessage(r.Context(), pathID(r), me.ID)
	switch {
	case errors.Is(err, store.ErrNotOwner):
		s.unauthorized(w, r)
		return
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r)
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}

	s.invalidateStats(r.Context(), me.ID)
	http.Redirect(w, r, userURL(me.ID), http.StatusFound)
}
