package authapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"libris/cmd/identity"
	"libris/cmd/internal/auth/session"
	"libris/cmd/security/password"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]identity.UserAuth
}

func (f *fakeUsers) GetUser(_ context.Context, id int64) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "fake.GetUser", Resource: "user"}
	}
	return u.User, nil
}

func (f *fakeUsers) GetUserAuthByEmail(_ context.Context, email string) (identity.UserAuth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.User.Email == identity.NormalizeEmail(email) {
			return u, nil
		}
	}
	return identity.UserAuth{}, identity.NotFoundError{Op: "fake.GetUserAuthByEmail", Resource: "user"}
}

func (f *fakeUsers) delete(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type testEnv struct {
	srv   *httptest.Server
	mr    *miniredis.Miniredis
	users *fakeUsers
	auth  *session.Authenticator
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	pw := password.DefaultConfig()
	pw.Cost = bcrypt.MinCost

	hash, err := pw.Hash("secret1")
	require.NoError(t, err)

	now := time.Now().UTC()
	users := &fakeUsers{users: map[int64]identity.UserAuth{
		1: {
			User:         identity.User{ID: 1, Username: "ab", Email: "a@b.com", CreatedAt: now, UpdatedAt: now},
			PasswordHash: hash,
		},
	}}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	store, err := session.NewRedisStore(client)
	require.NoError(t, err)

	log := slog.New(slog.DiscardHandler)
	auth, err := session.NewAuthenticator(session.DefaultConfig(), store, log)
	require.NoError(t, err)

	h, err := NewHandler(log, Config{}, users, auth, pw, NewGate(auth, log))
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return testEnv{srv: srv, mr: mr, users: users, auth: auth}
}

func (e testEnv) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return res.StatusCode, out
}

func (e testEnv) login(t *testing.T) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@b.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, status)
	return body["token"].(string)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"A@B.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, status)

	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, user["id"])
	assert.Equal(t, "a@b.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "password_hash")

	assert.True(t, env.mr.Exists("session:"+tok))
	assert.Equal(t, time.Hour, env.mr.TTL("session:"+tok))
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"email":"a@b.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"x@b.com","password":"secret1"}`, http.StatusUnauthorized},
		{"bad email", `{"email":"not-an-email","password":"secret1"}`, http.StatusBadRequest},
		{"empty password", `{"email":"a@b.com","password":""}`, http.StatusUnauthorized},
		{"missing password", `{"email":"a@b.com"}`, http.StatusBadRequest},
		{"null password", `{"email":"a@b.com","password":null}`, http.StatusBadRequest},
		{"bad json", `{"email":`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		status, body := env.do(t, http.MethodPost, "/api/auth/login", "", tc.body)
		assert.Equal(t, tc.status, status, tc.name)
		assert.NotContains(t, body, "token", tc.name)
		if tc.status == http.StatusUnauthorized {
			assert.Equal(t, "Invalid email or password", body["message"], tc.name)
		}
	}
	assert.Empty(t, env.mr.Keys())
}

func TestLogin_ValidationShape(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"nope"}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation error", body["message"])

	errs := body["errors"].(map[string]any)
	fields := errs["fieldErrors"].(map[string]any)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestMe(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tok := env.login(t)

	status, body := env.do(t, http.MethodGet, "/api/auth/me", tok, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ab", body["username"])
	assert.NotContains(t, body, "passwordHash")

	status, body = env.do(t, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, MsgUnauthorized, body["message"])

	env.users.delete(1)
	status, body = env.do(t, http.MethodGet, "/api/auth/me", tok, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found in database", body["message"])
}

func TestLogout_RevokesOnlyThatSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	t1 := env.login(t)
	t2 := env.login(t)

	status, body := env.do(t, http.MethodPost, "/api/auth/logout", t1, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", body["message"])

	status, _ = env.do(t, http.MethodGet, "/api/auth/me", t1, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/api/auth/me", t2, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodPost, "/api/auth/logout", t1, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestExpiredSessionIsUnauthorized(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tok := env.login(t)

	env.mr.FastForward(time.Hour + time.Second)

	status, _ := env.do(t, http.MethodGet, "/api/auth/me", tok, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSessionStoreDown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tok := env.login(t)

	env.mr.Close()

	status, body := env.do(t, http.MethodGet, "/api/auth/me", tok, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Session store unavailable", body["message"])

	status, _ = env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@b.com","password":"secret1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
