package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"warbler/internal/cache"
	"warbler/internal/model"
	"warbler/internal/store"
)

const seededMessageText = "Knowledge official attack media thing later."

type testApp struct {
	ts    *httptest.Server
	store *store.Store
	// client follows redirects; raw stops at the first response. Both share
	// one cookie jar.
	client *http.Client
	raw    *http.Client
}

// setupTestServer starts a server on a fresh temp database.
func setupTestServer(t *testing.T, stats cache.StatsCache) *testApp {
	t.Helper()

	st, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "warbler-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	st.SetPasswordCost(bcrypt.MinCost)
	require.NoError(t, st.Migrate(context.Background()))

	srv, err := New(Options{Store: st, Stats: stats, SecretKey: "test-secret"})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := ts.Client()
	client.Jar = jar
	raw := &http.Client{
		Jar:       jar,
		Transport: client.Transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{ts: ts, store: st, client: client, raw: raw}
}

// seed loads 60 users and 959 messages. User 5 follows 52, user 23 follows
// 5, and message 959 belongs to user 7.
func (a *testApp) seed(t *testing.T) {
	t.Helper()

	var data store.SeedData
	for i := 1; i <= 60; i++ {
		data.Users = append(data.Users, model.User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: "x",
		})
	}
	base := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 959; i++ {
		text := fmt.Sprintf("seed message %d", i)
		userID := int64(i%60 + 1)
		if i == 959 {
			text, userID = seededMessageText, 7
		}
		data.Messages = append(data.Messages, model.Message{
			Text:      text,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			UserID:    userID,
		})
	}
	data.Follows = []model.Follow{
		{FollowedID: 52, FollowerID: 5},
		{FollowedID: 5, FollowerID: 23},
	}
	require.NoError(t, a.store.Seed(context.Background(), data))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (a *testApp) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := a.client.Get(a.ts.URL + path)
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

// rawPost posts without following the redirect.
func (a *testApp) rawPost(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := a.raw.PostForm(a.ts.URL+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func (a *testApp) rawGet(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := a.raw.Get(a.ts.URL + path)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func (a *testApp) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := a.client.PostForm(a.ts.URL+path, form)
	require.NoError(t, err)
	return readBody(t, resp)
}

func (a *testApp) signup(t *testing.T, username, password, email string) string {
	t.Helper()
	if email == "" {
		email = username + "@example.com"
	}
	return a.post(t, "/signup", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
	})
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	return a.post(t, "/login", url.Values{"username": {username}, "password": {password}})
}

func (a *testApp) logout(t *testing.T) string {
	t.Helper()
	_, body := a.get(t, "/logout")
	return body
}

func (a *testApp) addMessage(t *testing.T, text string) string {
	t.Helper()
	return a.post(t, "/messages/new", url.Values{"text": {text}})
}

// loginUser signs up testuser, which also logs the client in.
func (a *testApp) loginUser(t *testing.T) *model.User {
	t.Helper()
	a.signup(t, "testuser", "testuser", "test@test.com")
	u, err := a.store.UserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	return u
}

func TestSignup(t *testing.T) {
	app := setupTestServer(t, nil)

	body := app.signup(t, "user1", "default", "")
	assert.Contains(t, body, "@user1", "signup should log the user in")
	app.logout(t)

	body = app.signup(t, "user1", "default", "other@example.com")
	assert.Contains(t, body, "Username already taken")

	body = app.signup(t, "", "default", "test@example.com")
	assert.Contains(t, body, "You have to enter a username")

	body = app.signup(t, "meh", "short", "")
	assert.Contains(t, body, "Password must be at least 6 characters")

	body = app.signup(t, "meh", "default", "broken")
	assert.Contains(t, body, "You have to enter a valid email address")
}

func TestLoginLogout(t *testing.T) {
	app := setupTestServer(t, nil)

	app.signup(t, "user1", "default", "")
	body := app.logout(t)
	assert.Contains(t, body, "You have successfully logged out.")

	body = app.login(t, "user1", "default")
	assert.Contains(t, body, "Hello, user1!")

	app.logout(t)
	body = app.login(t, "user1", "wrongpassword")
	assert.Contains(t, body, "Invalid credentials.")

	body = app.login(t, "user2", "wrongpassword")
	assert.Contains(t, body, "Invalid credentials.")
}

func TestMessageRecording(t *testing.T) {
	app := setupTestServer(t, nil)
	app.loginUser(t)

	app.addMessage(t, "test message 1")
	app.addMessage(t, "<test message 2>")

	_, body := app.get(t, "/")
	assert.Contains(t, body, "test message 1")
	assert.Contains(t, body, "&lt;test message 2&gt;")
	assert.NotContains(t, body, "<test message 2>")

	body = app.addMessage(t, strings.Repeat("x", model.MaxMessageLength+1))
	assert.Contains(t, body, "Your message must be between 1 and 140 characters")
}

func TestTimelines(t *testing.T) {
	app := setupTestServer(t, nil)
	ctx := context.Background()

	app.signup(t, "foo", "default", "")
	app.addMessage(t, "the message by foo")
	app.logout(t)

	app.signup(t, "bar", "default", "")
	app.addMessage(t, "the message by bar")

	foo, err := app.store.UserByUsername(ctx, "foo")
	require.NoError(t, err)
	bar, err := app.store.UserByUsername(ctx, "bar")
	require.NoError(t, err)

	_, body := app.get(t, "/")
	assert.NotContains(t, body, "the message by foo")
	assert.Contains(t, body, "the message by bar")

	resp := app.rawPost(t, fmt.Sprintf("/users/follow/%d", foo.ID), nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	_, body = app.get(t, "/")
	assert.Contains(t, body, "the message by foo")
	assert.Contains(t, body, "the message by bar")

	_, body = app.get(t, fmt.Sprintf("/users/%d", bar.ID))
	assert.NotContains(t, body, "the message by foo")
	assert.Contains(t, body, "the message by bar")

	_, body = app.get(t, fmt.Sprintf("/users/%d", foo.ID))
	assert.Contains(t, body, "the message by foo")
	assert.NotContains(t, body, "the message by bar")
	assert.Contains(t, body, "Unfollow")

	app.rawPost(t, fmt.Sprintf("/users/stop-following/%d", foo.ID), nil)
	_, body = app.get(t, "/")
	assert.NotContains(t, body, "the message by foo")
	assert.Contains(t, body, "the message by bar")
}

func TestFollowersOnProfile(t *testing.T) {
	app := setupTestServer(t, nil)
	app.seed(t)
	app.loginUser(t)

	status, body := app.get(t, "/users/5/following")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<a href="/users/52" class="card-link">`)

	status, body = app.get(t, "/users/5/followers")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<a href="/users/23" class="card-link">`)
}

func TestFollowersOnProfileNoLogin(t *testing.T) {
	app := setupTestServer(t, nil)
	app.seed(t)

	resp := app.rawGet(t, "/users/5/following")
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp = app.rawGet(t, "/users/5/followers")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestAddMessageLoggedOut(t *testing.T) {
	app := setupTestServer(t, nil)

	resp := app.rawPost(t, "/messages/new", url.Values{"text": {"Hello"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := app.get(t, "/")
	assert.Contains(t, body, "Access unauthorized")

	_, body = app.get(t, "/")
	assert.NotContains(t, body, "Access unauthorized", "flash must show only once")
}

func TestDeleteMessageLoggedOut(t *testing.T) {
	app := setupTestServer(t, nil)
	app.seed(t)

	resp := app.rawPost(t, "/messages/959/delete", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	status, body := app.get(t, "/messages/959")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, seededMessageText)
}

func TestDeleteOtherUsersMessageLoggedIn(t *testing.T) {
	app := setupTestServer(t, nil)
	app.seed(t)
	app.loginUser(t)

	resp := app.rawPost(t, "/messages/959/delete", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	_, body := app.get(t, "/")
	assert.Contains(t, body, "Access unauthorized")

	_, body = app.get(t, "/messages/959")
	assert.Contains(t, body, seededMessageText)
}

func TestDeleteOwnMessage(t *testing.T) {
	app := setupTestServer(t, nil)
	ctx := context.Background()
	u := app.loginUser(t)

	m, err := app.store.CreateMessage(ctx, u.ID, "test")
	require.NoError(t, err)

	msgs, err := app.store.UserMessages(ctx, u.ID, 100)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	resp := app.rawPost(t, fmt.Sprintf("/messages/%d/delete", m.ID), nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/users/%d", u.ID), resp.Header.Get("Location"))

	msgs, err = app.store.UserMessages(ctx, u.ID, 100)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	status, _ := app.get(t, fmt.Sprintf("/messages/%d", m.ID))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLikes(t *testing.T) {
	app := setupTestServer(t, nil)
	ctx := context.Background()

	app.signup(t, "author", "default", "")
	app.addMessage(t, "please like me")
	author, err := app.store.UserByUsername(ctx, "author")
	require.NoError(t, err)
	msgs, err := app.store.UserMessages(ctx, author.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	likePath := fmt.Sprintf("/users/add_like/%d", msgs[0].ID)

	body := app.post(t, likePath, nil)
	assert.Contains(t, body, "You cannot like your own message.")
	app.logout(t)

	fan := app.loginUser(t)
	resp := app.rawPost(t, likePath, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	_, body = app.get(t, fmt.Sprintf("/users/%d/likes", fan.ID))
	assert.Contains(t, body, "please like me")

	app.rawPost(t, likePath, nil)
	_, body = app.get(t, fmt.Sprintf("/users/%d/likes", fan.ID))
	assert.NotContains(t, body, "please like me")

	resp = app.rawPost(t, "/users/add_like/9999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditProfile(t *testing.T) {
	app := setupTestServer(t, nil)
	u := app.loginUser(t)

	form := url.Values{
		"username": {"renamed"},
		"email":    {"renamed@test.com"},
		"bio":      {"Birds are great"},
		"location": {"Nest"},
		"password": {"wrong-password"},
	}
	body := app.post(t, "/users/profile", form)
	assert.Contains(t, body, "Wrong password, please try again.")

	form.Set("password", "testuser")
	body = app.post(t, "/users/profile", form)
	assert.Contains(t, body, "Profile updated.")
	assert.Contains(t, body, "@renamed")
	assert.Contains(t, body, "Birds are great")

	got, err := app.store.User(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)
	assert.Equal(t, "Nest", got.Location)
}

func TestDeleteUser(t *testing.T) {
	app := setupTestServer(t, nil)
	u := app.loginUser(t)

	resp := app.rawPost(t, "/users/delete", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signup", resp.Header.Get("Location"))

	_, err := app.store.User(context.Background(), u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	resp = app.rawGet(t, "/messages/new")
	assert.Equal(t, http.StatusFound, resp.StatusCode, "session must be logged out")
}

func TestUserSearch(t *testing.T) {
	app := setupTestServer(t, nil)
	app.seed(t)
	app.loginUser(t)

	_, body := app.get(t, "/users?q=user52")
	assert.Contains(t, body, `<a href="/users/52" class="card-link">`)
	assert.NotContains(t, body, `<a href="/users/5" class="card-link">`)
}

func TestNotFoundAndHeaders(t *testing.T) {
	app := setupTestServer(t, nil)

	resp, err := app.client.Get(app.ts.URL + "/users/12345")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")

	status, _ := app.get(t, "/static/css/style.css")
	assert.Equal(t, http.StatusOK, status)

	status, _ = app.get(t, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatsCacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	stats := cache.NewRedisStats(rdb, time.Minute)

	app := setupTestServer(t, stats)
	ctx := context.Background()
	u := app.loginUser(t)

	app.get(t, "/")
	st, ok, err := stats.Stats(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(0), st.Messages)

	// Stop at the redirect; the profile page it points to refills the cache.
	app.rawPost(t, "/messages/new", url.Values{"text": {"counted"}})
	_, ok, err = stats.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok, "posting must invalidate cached stats")

	app.get(t, "/")
	st, ok, err = stats.Stats(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), st.Messages)
}
