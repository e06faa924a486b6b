// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"testing"

	"github.com/alexedwards/scs/v2"

	"libris/internal/model"
)

// sessionContext creates a context carrying fresh scs session data, the same
// state a request has inside LoadAndSave.
func sessionContext(t *testing.T, sm *scs.SessionManager) context.Context {
	t.Helper()
	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	return ctx
}

func testStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	sm := scs.New() // in-memory store is enough for contract tests
	return NewStore(sm), sessionContext(t, sm)
}

func TestSaveAndLoad(t *testing.T) {
	store, ctx := testStore(t)

	want := model.Session{
		Token: "abc123",
		User:  model.User{ID: 7, Username: "alice", Role: model.RoleAdmin},
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, ok := store.Load(ctx)
	if !ok {
		t.Fatal("Load reported absent after Save")
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestLoad_AbsentByDefault(t *testing.T) {
	store, ctx := testStore(t)

	if _, ok := store.Load(ctx); ok {
		t.Error("Load should report absent before any Save")
	}
}

func TestLoad_AbsentAfterClear(t *testing.T) {
	store, ctx := testStore(t)

	sess := model.Session{Token: "t", User: model.User{ID: 1, Username: "bob", Role: model.RoleMember}}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}

	if _, ok := store.Load(ctx); ok {
		t.Error("Load should report absent after Clear")
	}
}

func TestClear_Idempotent(t *testing.T) {
	store, ctx := testStore(t)

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty session error: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear error: %v", err)
	}
	if _, ok := store.Load(ctx); ok {
		t.Error("session should remain absent")
	}
}

func TestSave_Overwrites(t *testing.T) {
	store, ctx := testStore(t)

	first := model.Session{Token: "t1", User: model.User{ID: 1, Username: "old", Role: model.RoleMember}}
	second := model.Session{Token: "t2", User: model.User{ID: 2, Username: "new", Role: model.RoleMember}}

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, ok := store.Load(ctx)
	if !ok {
		t.Fatal("Load reported absent")
	}
	if got != second {
		t.Errorf("Load = %+v, want %+v", got, second)
	}
}
