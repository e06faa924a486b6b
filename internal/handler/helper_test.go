// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"libris/internal/api"
	"libris/internal/middleware"
	"libris/internal/model"
	"libris/internal/render"
	"libris/internal/session"
	"libris/internal/view"
	"libris/web"
)

// countingClient wraps a Client and counts calls per operation, so tests can
// assert which backend operations a workflow actually performed.
type countingClient struct {
	inner api.Client
	mu    sync.Mutex
	calls map[string]int
}

func newCountingClient(inner api.Client) *countingClient {
	return &countingClient{inner: inner, calls: make(map[string]int)}
}

func (c *countingClient) record(op string) {
	c.mu.Lock()
	c.calls[op]++
	c.mu.Unlock()
}

func (c *countingClient) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *countingClient) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *countingClient) reset() {
	c.mu.Lock()
	c.calls = make(map[string]int)
	c.mu.Unlock()
}

func (c *countingClient) Login(ctx context.Context, creds model.Credentials) (model.Session, error) {
	c.record("Login")
	return c.inner.Login(ctx, creds)
}

func (c *countingClient) Register(ctx context.Context, creds model.Credentials) error {
	c.record("Register")
	return c.inner.Register(ctx, creds)
}

func (c *countingClient) ListBooks(ctx context.Context, search string) ([]model.Book, error) {
	c.record("ListBooks")
	return c.inner.ListBooks(ctx, search)
}

func (c *countingClient) MyLoans(ctx context.Context, token string) ([]model.Loan, error) {
	c.record("MyLoans")
	return c.inner.MyLoans(ctx, token)
}

func (c *countingClient) CreateBook(ctx context.Context, token string, in model.BookInput) error {
	c.record("CreateBook")
	return c.inner.CreateBook(ctx, token, in)
}

func (c *countingClient) UpdateBook(ctx context.Context, token string, id int64, in model.BookInput) error {
	c.record("UpdateBook")
	return c.inner.UpdateBook(ctx, token, id, in)
}

func (c *countingClient) DeleteBook(ctx context.Context, token string, id int64) error {
	c.record("DeleteBook")
	return c.inner.DeleteBook(ctx, token, id)
}

func (c *countingClient) IssueBook(ctx context.Context, token string, bookID int64) error {
	c.record("IssueBook")
	return c.inner.IssueBook(ctx, token, bookID)
}

func (c *countingClient) ReturnBook(ctx context.Context, token string, bookID int64) error {
	c.record("ReturnBook")
	return c.inner.ReturnBook(ctx, token, bookID)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// testApp wires the full route table over an in-memory backend, mirroring the
// production router without CSRF and rate limiting.
type testApp struct {
	server   *httptest.Server
	client   *http.Client // follows redirects, shares the cookie jar
	noFollow *http.Client
	backend  *api.Memory
	calls    *countingClient
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := api.NewMemoryDemo()
	calls := newCountingClient(backend)

	sm := scs.New()
	sessions := session.NewStore(sm)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	renderer, err := render.New(render.Config{TemplatesFS: templatesFS, SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	views, err := view.New(templatesFS)
	if err != nil {
		t.Fatalf("views: %v", err)
	}

	authHandler := NewAuthHandler(calls, renderer, sessions, nil)
	dashHandler := NewDashboardHandler(calls, renderer, views)
	bookHandler := NewBookHandler(calls, renderer)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)

	r.Get(RouteLogin, authHandler.LoginForm)
	r.Post(RouteLogin, authHandler.Login)
	r.Post(RouteRegister, authHandler.Register)
	r.Post(RouteLogout, authHandler.Logout)
	r.Get(RouteRoot, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, RouteDashboard, http.StatusSeeOther)
	})

	r.Route(RouteDashboard, func(r chi.Router) {
		r.Use(middleware.Auth(sessions))
		r.Get("/", dashHandler.Dashboard)
		r.Post(RouteIssue, dashHandler.Issue)
		r.Post(RouteReturn, dashHandler.Return)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get(RouteBookNew, bookHandler.AddBookForm)
			r.Post(RouteBooks, bookHandler.AddBook)
			r.Get(RouteBookEdit, bookHandler.EditBookForm)
			r.Post(RouteBookUpdate, bookHandler.EditBook)
			r.Post(RouteBookDelete, bookHandler.DeleteBook)
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &testApp{
		server: server,
		client: &http.Client{Jar: jar},
		noFollow: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		backend: backend,
		calls:   calls,
	}
}

// get performs a GET, following redirects, and returns the final page body.
func (a *testApp) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, string(body)
}

// postForm performs a POST, following redirects, and returns the final page
// body (typically the redirect target with the flash rendered).
func (a *testApp) postForm(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, string(body)
}

// postFormNoFollow performs a POST and returns the raw redirect response.
func (a *testApp) postFormNoFollow(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := a.noFollow.Post(a.server.URL+path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	_ = resp.Body.Close()
	return resp
}

// getNoFollow performs a GET and returns the raw response without following
// redirects.
func (a *testApp) getNoFollow(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := a.noFollow.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	_ = resp.Body.Close()
	return resp
}

// loginAs signs the test client in through the login route.
func (a *testApp) loginAs(t *testing.T, username, password string) {
	t.Helper()
	resp := a.postFormNoFollow(t, RouteLogin, url.Values{
		"username": {username},
		"password": {password},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != RouteDashboard {
		t.Fatalf("login redirect = %q", loc)
	}
}
