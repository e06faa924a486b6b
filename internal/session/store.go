// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session persists the authenticated session (backend token plus user
// profile) across page loads. Handlers receive the Store by injection and
// never read session state ambiently.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"libris/internal/model"
)

// Session keys for the token and user profile.
const (
	keyToken = "token"
	keyUser  = "user"
)

// Store wraps the session manager with the session lifecycle contract:
// Save persists token and user together, Load returns the last saved session
// or reports absence, Clear removes both and is idempotent.
type Store struct {
	sm *scs.SessionManager
}

// NewStore creates a Store over the given session manager.
func NewStore(sm *scs.SessionManager) *Store {
	return &Store{sm: sm}
}

// Manager exposes the underlying session manager for middleware wiring
// (LoadAndSave) and flash messages.
func (s *Store) Manager() *scs.SessionManager {
	return s.sm
}

// Save persists the session. The token is rotated first to prevent session
// fixation, then both parts are written; scs commits them in a single store
// write at the end of the request, so the caller observes both-or-neither.
func (s *Store) Save(ctx context.Context, sess model.Session) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	data, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encoding user profile: %w", err)
	}

	s.sm.Put(ctx, keyToken, sess.Token)
	s.sm.Put(ctx, keyUser, string(data))
	return nil
}

// Load returns the saved session, or false if none was saved or it was
// cleared. A corrupt user profile counts as absent.
func (s *Store) Load(ctx context.Context) (model.Session, bool) {
	token := s.sm.GetString(ctx, keyToken)
	userJSON := s.sm.GetString(ctx, keyUser)
	if token == "" || userJSON == "" {
		return model.Session{}, false
	}

	var user model.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return model.Session{}, false
	}

	return model.Session{Token: token, User: user}, true
}

// Clear destroys the session. Safe to call when no session exists.
func (s *Store) Clear(ctx context.Context) error {
	return s.sm.Destroy(ctx)
}
