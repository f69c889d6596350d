// Package main provides a CI-friendly HTTP smoke test for a running Libris server.
//
// It validates:
//   - health and readiness
//   - sign-up and login
//   - bearer-guarded /api/auth/me
//   - book create and paged search
//   - favorite add, duplicate rejection, membership check and removal
//   - logout revokes the token
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type smokeClient struct {
	base    string
	http    *http.Client
	token   string
	verbose bool
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:3000", "Libris base URL")
		password = flag.String("password", "smoke-secret-1", "Password for the throwaway user")
		timeout  = flag.Duration("timeout", 5*time.Second, "Per-request timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{Timeout: *timeout},
		verbose: *verbose,
	}
	root := context.Background()

	c.mustStatus(root, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
	c.mustStatus(root, http.MethodGet, "/readyz", nil, http.StatusOK, nil)

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	username := "smoke" + suffix
	email := username + "@example.com"

	var created struct {
		ID int64 `json:"id"`
	}
	c.mustStatus(root, http.MethodPost, "/api/users", map[string]any{
		"username": username,
		"email":    email,
		"password": *password,
	}, http.StatusCreated, &created)

	var login struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	c.mustStatus(root, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    strings.ToUpper(email),
		"password": *password,
	}, http.StatusOK, &login)
	if login.Token == "" {
		fatalf("login: empty token")
	}
	if _, leaked := login.User["passwordHash"]; leaked {
		fatalf("login: response leaks passwordHash")
	}
	c.token = login.Token

	var me struct {
		ID int64 `json:"id"`
	}
	c.mustStatus(root, http.MethodGet, "/api/auth/me", nil, http.StatusOK, &me)
	if me.ID != created.ID {
		fatalf("me: id=%d want %d", me.ID, created.ID)
	}

	var book struct {
		ID int64 `json:"id"`
	}
	title := "Smoke Test Volume " + suffix
	c.mustStatus(root, http.MethodPost, "/api/books", map[string]any{
		"title":  title,
		"author": "Libris CI",
	}, http.StatusCreated, &book)

	var found []map[string]any
	c.mustStatus(root, http.MethodGet, "/api/books?limit=5&query="+url.QueryEscape(suffix), nil, http.StatusOK, &found)
	if len(found) != 1 || found[0]["title"] != title {
		fatalf("search: got %v", found)
	}
	c.mustStatus(root, http.MethodGet, "/api/books?limit=0", nil, http.StatusBadRequest, nil)

	fav := map[string]any{"bookId": book.ID}
	c.mustStatus(root, http.MethodPost, "/api/favorites", fav, http.StatusCreated, nil)
	c.mustStatus(root, http.MethodPost, "/api/favorites", fav, http.StatusConflict, nil)

	var is struct {
		IsFavorite bool `json:"isFavorite"`
	}
	c.mustStatus(root, http.MethodGet, fmt.Sprintf("/api/favorites/is-favorite/%d", book.ID), nil, http.StatusOK, &is)
	if !is.IsFavorite {
		fatalf("is-favorite: want true")
	}

	c.mustStatus(root, http.MethodDelete, fmt.Sprintf("/api/favorites/%d", book.ID), nil, http.StatusOK, nil)
	c.mustStatus(root, http.MethodDelete, fmt.Sprintf("/api/books/%d", book.ID), nil, http.StatusOK, nil)
	c.mustStatus(root, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil, http.StatusOK, nil)

	c.mustStatus(root, http.MethodPost, "/api/auth/logout", nil, http.StatusOK, nil)
	c.mustStatus(root, http.MethodGet, "/api/auth/me", nil, http.StatusUnauthorized, nil)

	fmt.Printf("OK: user_id=%d book_id=%d\n", created.ID, book.ID)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func (c *smokeClient) mustStatus(ctx context.Context, method, path string, body any, want int, out any) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(mustJSON(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		fatalf("%s %s: build request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fatalf("%s %s: read body: %v", method, path, err)
	}

	if c.verbose {
		fmt.Printf("%s %s -> %d %s\n", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if resp.StatusCode != want {
		fatalf("%s %s: status=%d want=%d body=%s", method, path, resp.StatusCode, want, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		fatalf("marshal: %v", err)
	}
	return b
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
