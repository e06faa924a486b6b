// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"

	"libris/internal/model"
	"libris/internal/session"
)

func sessionRequest(t *testing.T, sm *scs.SessionManager, target string) *http.Request {
	t.Helper()
	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	return httptest.NewRequest("GET", target, nil).WithContext(ctx)
}

func TestAuth_RedirectsWithoutSession(t *testing.T) {
	sm := scs.New()
	store := session.NewStore(sm)

	called := false
	handler := Auth(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sessionRequest(t, sm, "/dashboard"))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q", loc)
	}
	if called {
		t.Error("handler must not run for anonymous request")
	}
}

func TestAuth_InjectsSession(t *testing.T) {
	sm := scs.New()
	store := session.NewStore(sm)

	req := sessionRequest(t, sm, "/dashboard")
	want := model.Session{
		Token: "tok-1",
		User:  model.User{ID: 1, Username: "alice", Role: model.RoleMember},
	}
	if err := store.Save(req.Context(), want); err != nil {
		t.Fatalf("saving session: %v", err)
	}

	var got model.Session
	var ok bool
	handler := Auth(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetSession(r)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !ok || got != want {
		t.Errorf("session in context = %+v, ok=%v", got, ok)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"admin passes", model.RoleAdmin, http.StatusOK},
		{"member forbidden", model.RoleMember, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := model.Session{Token: "tok", User: model.User{ID: 1, Username: "u", Role: tt.role}}
			ctx := context.WithValue(context.Background(), ContextKeySession, sess)
			req := httptest.NewRequest("POST", "/dashboard/books", nil).WithContext(ctx)

			handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAdmin_NoSessionRedirects(t *testing.T) {
	handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/dashboard/books/new", nil))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
}

func TestGetSession_EmptyContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := GetSession(req); ok {
		t.Error("GetSession on plain request must report absent")
	}
}
