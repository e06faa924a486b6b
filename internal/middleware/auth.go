// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request hardening.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"libris/internal/model"
	"libris/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeySession is the context key the auth middleware stores the
// current session under.
const ContextKeySession ContextKey = "session"

// Auth creates middleware that requires an authenticated session. Requests
// without one are redirected to the login page before any handler runs, so
// a guarded route never reaches the backend for an anonymous visitor.
// Authenticated requests get the session injected into the request context.
func Auth(sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := sessions.Load(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the current session from the request context.
// It is only populated on routes behind the Auth middleware.
func GetSession(r *http.Request) (model.Session, bool) {
	sess, ok := r.Context().Value(ContextKeySession).(model.Session)
	return sess, ok
}

// RequireAdmin creates middleware that requires the admin role. Must be used
// after Auth. The backend enforces the same check on every admin call; this
// guard just keeps member sessions off the admin routes.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r)
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if !sess.User.IsAdmin() {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"username", sess.User.Username,
					"role", sess.User.Role,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
