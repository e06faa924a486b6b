// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"libris/internal/api"
	"libris/internal/middleware"
	"libris/internal/model"
	"libris/internal/render"
	"libris/internal/session"
)

// msgBackendUnreachable is the generic copy shown when the backend cannot be
// reached or answers with something other than its response envelope.
const msgBackendUnreachable = "Unable to reach the library service. Please try again."

// AuthHandler handles the login, register and logout routes.
type AuthHandler struct {
	client          api.Client
	renderer        *render.Renderer
	sessions        *session.Store
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client api.Client, renderer *render.Renderer, sessions *session.Store, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		client:          client,
		renderer:        renderer,
		sessions:        sessions,
		loginProtection: lp,
	}
}

// authPageData is the data for the login page template.
type authPageData struct {
	View     string
	Username string
}

// LoginForm renders the login page. The ?view=register query switches the
// page to the registration form. Already-authenticated visitors are sent to
// the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Load(r.Context()); ok {
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
		return
	}

	data := authPageData{View: viewLogin}
	title := "Login"
	if r.URL.Query().Get("view") == viewRegister {
		data.View = viewRegister
		title = "Register"
	}

	if err := h.renderer.Render(w, r, "auth/login", render.TemplateData{Title: title, Data: data}); err != nil {
		logAndInternalError(w, "rendering login page", "error", err)
	}
}

// Login handles the login form submission. Credential rejections surface the
// backend's own message and leave the session untouched, so a failed attempt
// never half-authenticates the visitor.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		flashError(w, r, h.renderer, RouteLogin, "Username and password required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			slog.Warn("login attempt on locked account", "username", username, "remote_addr", r.RemoteAddr)
			flashError(w, r, h.renderer, RouteLogin,
				fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	sess, err := h.client.Login(r.Context(), model.Credentials{Username: username, Password: password})
	if err != nil {
		if api.IsLogic(err) {
			slog.Warn("login rejected", "category", model.EventCategoryAuth, "username", username, "remote_addr", r.RemoteAddr)
			if h.loginProtection != nil {
				if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
					flashError(w, r, h.renderer, RouteLogin,
						fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockDuration)))
					return
				}
			}
			flashError(w, r, h.renderer, RouteLogin, api.UserMessage(err, "Invalid credentials"))
			return
		}

		slog.Error("login request failed", "category", model.EventCategoryBackend, "error", err)
		flashError(w, r, h.renderer, RouteLogin, msgBackendUnreachable)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		logAndInternalError(w, "saving session", "error", err)
		return
	}

	slog.Info("user logged in", "username", sess.User.Username, "role", sess.User.Role)
	flashSuccess(w, r, h.renderer, RouteDashboard, "Welcome back, "+sess.User.Username+"!")
}

// Register handles the registration form submission. Success switches back to
// the login view without authenticating: the new account still has to sign in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	registerURL := RouteLogin + "?view=" + viewRegister
	if !parseFormOrRedirect(w, r, h.renderer, registerURL) {
		return
	}

	creds := model.Credentials{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Role:     r.FormValue("role"),
	}
	if creds.Username == "" || creds.Password == "" {
		flashError(w, r, h.renderer, registerURL, "Username and password required")
		return
	}
	if creds.Role == "" {
		creds.Role = model.RoleMember
	}

	if err := h.client.Register(r.Context(), creds); err != nil {
		if api.IsLogic(err) {
			flashError(w, r, h.renderer, registerURL, api.UserMessage(err, "Registration failed"))
			return
		}
		slog.Error("register request failed", "category", model.EventCategoryBackend, "error", err)
		flashError(w, r, h.renderer, registerURL, msgBackendUnreachable)
		return
	}

	slog.Info("user registered", "username", creds.Username, "role", creds.Role)
	flashSuccess(w, r, h.renderer, RouteLogin, "Registration successful! Please login.")
}

// formatDuration formats a duration for user-facing lockout messages.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// Logout clears the session and returns to the login page. Logging out an
// already-anonymous visitor is a no-op redirect; no backend call is made
// either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context()); err != nil {
		logAndInternalError(w, "clearing session", "error", err)
		return
	}
	http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
}
