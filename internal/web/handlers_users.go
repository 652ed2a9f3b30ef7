package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"warbler/internal/model"
	"warbler/internal/store"
)

func pathID(r *http.Request) int64 {
	// Routes constrain {id} to digits, so only overflow can fail here.
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func userURL(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}

// profileUser loads the user named by the path, writing a 404 when missing.
func (s *Server) profileUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	u, err := s.store.User(r.Context(), pathID(r))
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r)
		return nil, false
	case err != nil:
		s.serverError(w, r, err)
		return nil, false
	}
	return u, true
}

// profileData gathers what every profile page shows around its content.
func (s *Server) profileData(r *http.Request, profile *model.User) (map[string]any, error) {
	ctx := r.Context()
	data := map[string]any{
		"User":      profile,
		"Stats":     s.profileStats(ctx, profile.ID),
		"Following": false,
	}
	if me := currentUser(r); me != nil && me.ID != profile.ID {
		following, err := s.store.IsFollowing(ctx, me.ID, profile.ID)
		if err != nil {
			return nil, err
		}
		data["Following"] = following
	}
	return data, nil
}

// GET /users?q=
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	users, err := s.store.SearchUsers(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := map[string]any{"Users": users, "Query": q, "FollowingIDs": map[int64]bool{}}
	if me := currentUser(r); me != nil {
		ids, err := s.store.FollowingIDs(r.Context(), me.ID)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		data["FollowingIDs"] = ids
	}
	s.render(w, r, http.StatusOK, "users/index.html", data)
}

// GET /users/{id}
func (s *Server) showUser(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.profileUser(w, r)
	if !ok {
		return
	}
	data, err := s.profileData(r, profile)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	ctx := r.Context()
	messages, err := s.store.UserMessages(ctx, profile.ID, s.timelineLimit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	likes := map[int64]bool{}
	if me := currentUser(r); me != nil {
		if likes, err = s.store.LikedIDs(ctx, me.ID); err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	data["Messages"] = messages
	data["Likes"] = likes

	s.render(w, r, http.StatusOK, "users/show.html", data)
}

// GET /users/{id}/following
func (s *Server) showFollowing(w http.ResponseWriter, r *http.Request) {
	s.showConnections(w, r, "users/following.html", s.store.Following)
}

// GET /users/{id}/followers
func (s *Server) showFollowers(w http.ResponseWriter, r *http.Request) {
	s.showConnections(w, r, "users/followers.html", s.store.Followers)
}

func (s *Server) showConnections(w http.ResponseWriter, r *http.Request, page string,
	list func(context.Context, int64) ([]model.User, error)) {
	profile, ok := s.profileUser(w, r)
	if !ok {
		return
	}
	data, err := s.profileData(r, profile)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	ctx := r.Context()
	users, err := list(ctx, profile.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	followingIDs, err := s.store.FollowingIDs(ctx, currentUser(r).ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data["Users"] = users
	data["FollowingIDs"] = followingIDs

	s.render(w, r, http.StatusOK, page, data)
}

// GET /users/{id}/likes
func (s *Server) showLikes(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.profileUser(w, r)
	if !ok {
		return
	}
	data, err := s.profileData(r, profile)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	ctx := r.Context()
	messages, err := s.store.LikedMessages(ctx, profile.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	likes, err := s.store.LikedIDs(ctx, currentUser(r).ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data["Messages"] = messages
	data["Likes"] = likes

	s.render(w, r, http.StatusOK, "users/likes.html", data)
}

// POST /users/follow/{id}
func (s *Server) addFollow(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	followedID := pathID(r)

	err := s.store.Follow(r.Context(), me.ID, followedID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r)
		return
	case errors.Is(err, store.ErrSelfFollow):
		s.addFlash(w, r, flashDanger, "You cannot follow yourself.")
	case err != nil:
		s.serverError(w, r, err)
		return
	default:
		s.invalidateStats(r.Context(), me.ID, followedID)
	}
	http.Redirect(w, r, userURL(me.ID)+"/following", http.StatusFound)
}

// POST /users/stop-following/{id}
func (s *Server) stopFollowing(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	followedID := pathID(r)

	if err := s.store.Unfollow(r.Context(), me.ID, followedID); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.invalidateStats(r.Context(), me.ID, followedID)
	http.Redirect(w, r, userURL(me.ID)+"/following", http.StatusFound)
}

// POST /users/add_like/{id}
func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	_, err := s.store.ToggleLike(r.Context(), me.ID, pathID(r))
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r)
		return
	case errors.Is(err, store.ErrOwnMessage):
		s.addFlash(w, r, flashDanger, "You cannot like your own message.")
	case err != nil:
		s.serverError(w, r, err)
		return
	default:
		s.invalidateStats(r.Context(), me.ID)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// GET + POST /users/profile
func (s *Server) editProfile(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	ctx := r.Context()

	if r.Method == http.MethodPost {
		if _, err := s.store.Authenticate(ctx, me.Username, r.FormValue("password")); err != nil {
			if !errors.Is(err, store.ErrInvalidCredentials) {
				s.serverError(w, r, err)
				return
			}
			s.addFlash(w, r, flashDanger, "Wrong password, please try again.")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		updated := *me
		updated.Username = strings.TrimSpace(r.FormValue("username"))
		updated.Email = strings.TrimSpace(r.FormValue("email"))
		updated.ImageURL = strings.TrimSpace(r.FormValue("image_url"))
		updated.HeaderImageURL = strings.TrimSpace(r.FormValue("header_image_url"))
		updated.Bio = strings.TrimSpace(r.FormValue("bio"))
		updated.Location = strings.TrimSpace(r.FormValue("location"))

		errorMsg := ""
		if updated.Username == "" {
			errorMsg = "You have to enter a username"
		} else if !strings.Contains(updated.Email, "@") {
			errorMsg = "You have to enter a valid email address"
		}

		if errorMsg == "" {
			err := s.store.UpdateProfile(ctx, &updated)
			switch {
			case errors.Is(err, store.ErrUsernameTaken):
				errorMsg = "Username already taken"
			case err != nil:
				s.serverError(w, r, err)
				return
			default:
				s.addFlash(w, r, flashSuccess, "Profile updated.")
				http.Redirect(w, r, userURL(me.ID), http.StatusFound)
				return
			}
		}

		s.render(w, r, http.StatusOK, "users/edit.html", map[string]any{"Form": &updated, "Error": errorMsg})
		return
	}

	s.render(w, r, http.StatusOK, "users/edit.html", map[string]any{"Form": me})
}

// POST /users/delete
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	ctx := r.Context()

	// Everyone connected to me loses a follower or a followee.
	affected := []int64{me.ID}
	for _, list := range []func(context.Context, int64) ([]model.User, error){s.store.Following, s.store.Followers} {
		users, err := list(ctx, me.ID)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		for _, u := range users {
			affected = append(affected, u.ID)
		}
	}

	if err := s.store.DeleteUser(ctx, me.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}
	s.invalidateStats(ctx, affected...)

	if err := s.logout(w, r); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.addFlash(w, r, flashSuccess, "Your account has been deleted.")
	http.Redirect(w, r, "/signup", http.StatusFound)
}
