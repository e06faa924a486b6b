// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"libris/internal/model"
	"libris/internal/store"
)

func testLogger(t *testing.T) (*slog.Logger, *store.Events) {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewEventLogHandler(inner, db))
	return logger, store.NewEvents(db)
}

func TestEventLogHandler_RecordsWarnAndError(t *testing.T) {
	logger, events := testLogger(t)
	ctx := context.Background()

	logger.Warn("backend unreachable", "category", model.EventCategoryBackend, "url", "http://localhost:5000")
	logger.Error("something broke")

	got, err := events.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	byMessage := make(map[string]model.Event)
	for _, ev := range got {
		byMessage[ev.Message] = ev
	}

	warn, ok := byMessage["backend unreachable"]
	if !ok {
		t.Fatal("warn event not recorded")
	}
	if warn.Level != model.EventLevelWarning {
		t.Errorf("warn Level = %q", warn.Level)
	}
	if warn.Category != model.EventCategoryBackend {
		t.Errorf("warn Category = %q", warn.Category)
	}
	if warn.Metadata == "" {
		t.Error("warn metadata should include the url attribute")
	}

	errEv, ok := byMessage["something broke"]
	if !ok {
		t.Fatal("error event not recorded")
	}
	if errEv.Level != model.EventLevelError {
		t.Errorf("error Level = %q", errEv.Level)
	}
	if errEv.Category != model.EventCategorySystem {
		t.Errorf("error Category = %q, want system default", errEv.Category)
	}
}

func TestEventLogHandler_SkipsInfo(t *testing.T) {
	logger, events := testLogger(t)

	logger.Info("routine message")
	logger.Debug("noise")

	count, err := events.CountEvents(context.Background())
	if err != nil {
		t.Fatalf("CountEvents error: %v", err)
	}
	if count != 0 {
		t.Errorf("CountEvents = %d, want 0", count)
	}
}
