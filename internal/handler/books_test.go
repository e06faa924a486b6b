// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"libris/internal/model"
)

func TestAdminRoutes_MemberForbidden(t *testing.T) {
	app := newTestApp(t)
	app.loginAs(t, "reader", "reader123")
	app.calls.reset()

	paths := []struct {
		method string
		path   string
	}{
		{"GET", RouteDashboard + RouteBookNew},
		{"POST", RouteDashboard + RouteBooks},
		{"GET", RouteDashboard + "/books/1/edit"},
		{"POST", RouteDashboard + "/books/1"},
		{"POST", RouteDashboard + "/books/1/delete"},
	}

	for _, p := range paths {
		var resp *http.Response
		if p.method == "GET" {
			resp = app.getNoFollow(t, p.path)
		} else {
			resp = app.postFormNoFollow(t, p.path, url.Values{})
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s %s: status = %d, want 403", p.method, p.path, resp.StatusCode)
		}
	}

	// The guard rejects before any handler runs.
	if app.calls.total() != 0 {
		t.Errorf("forbidden requests made %d backend calls", app.calls.total())
	}
}

func TestAddBook_AdminFlow(t *testing.T) {
	app := newTestApp(t)
	app.loginAs(t, "admin", "admin123")

	status, body := app.get(t, RouteDashboard+RouteBookNew)
	if status != http.StatusOK || !strings.Contains(body, "Add Book") {
		t.Fatalf("add form: status=%d", status)
	}

	_, body = app.postForm(t, RouteDashboard+RouteBooks, url.Values{
		"title":    {"Clean Architecture"},
		"author":   {"Robert C. Martin"},
		"isbn":     {"978-0134494166"},
		"category": {"Programming"},
		"copies":   {"2"},
	})
	if !strings.Contains(body, "Book added successfully") {
		t.Error("missing success flash")
	}
	if !strings.Contains(body, "Clean Architecture") || !strings.Contains(body, "2 / 2") {
		t.Error("new book not listed with its copies")
	}
}

func TestAddBook_InvalidCopiesRejectedLocally(t *testing.T) {
	app := newTestApp(t)
	app.loginAs(t, "admin", "admin123")
	app.calls.reset()

	resp := app.postFormNoFollow(t, RouteDashboard+RouteBooks, url.Values{
		"title":  {"Broken"},
		"author": {"Nobody"},
		"copies": {"0"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if app.calls.count("CreateBook") != 0 {
		t.Error("invalid form must not reach the backend")
	}

	_, body := app.get(t, RouteDashboard+RouteBookNew)
	if !strings.Contains(body, "Copies must be a positive number") {
		t.Error("missing validation message")
	}
}

func TestEditBook_AdminFlow(t *testing.T) {
	app := newTestApp(t)
	app.loginAs(t, "admin", "admin123")

	books, _ := app.backend.ListBooks(context.Background(), "Pride")
	id := books[0].ID

	status, body := app.get(t, fmt.Sprintf("%s/books/%d/edit", RouteDashboard, id))
	if status != http.StatusOK {
		t.Fatalf("edit form: status = %d", status)
	}
	if !strings.Contains(body, `value="Pride and Prejudice"`) || !strings.Contains(body, `value="Jane Austen"`) {
		t.Error("edit form not prefilled")
	}

	_, body = app.postForm(t, fmt.Sprintf("%s/books/%d", RouteDashboard, id), url.Values{
		"title":    {"Pride and Prejudice"},
		"author":   {"Jane Austen"},
		"category": {"Classics"},
		"copies":   {"3"},
	})
	if !strings.Contains(body, "Book updated successfully") {
		t.Error("missing success flash")
	}
	if !strings.Contains(body, "Classics") || !strings.Contains(body, "3 / 3") {
		t.Error("updated fields not reflected")
	}
}

func TestEditBookForm_UnknownBook(t *testing.T) {
	app := newTestApp(t)
	app.loginAs(t, "admin", "admin123")

	_, body := app.get(t, RouteDashboard+"/books/9999/edit")
	if !strings.Contains(body, "Book not found") {
		t.Error("missing not-found flash")
	}
}

func TestDeleteBook_AdminFlow(t *testing.T) {
	app := newTestApp(t)
	app.loginAs(t, "admin", "admin123")

	books, _ := app.backend.ListBooks(context.Background(), "Hawking")
	id := books[0].ID

	_, body := app.postForm(t, fmt.Sprintf("%s/books/%d/delete", RouteDashboard, id), nil)
	if !strings.Contains(body, "Book deleted successfully") {
		t.Error("missing success flash")
	}
	if strings.Contains(body, "A Brief History of Time") {
		t.Error("deleted book still listed")
	}
}

func TestDeleteBook_BlockedByActiveLoan(t *testing.T) {
	app := newTestApp(t)
	app.loginAs(t, "admin", "admin123")

	books, _ := app.backend.ListBooks(context.Background(), "Pride")
	id := books[0].ID

	sess, err := app.backend.Login(context.Background(), model.Credentials{Username: "reader", Password: "reader123"})
	if err != nil {
		t.Fatal(err)
	}
	if err := app.backend.IssueBook(context.Background(), sess.Token, id); err != nil {
		t.Fatal(err)
	}

	_, body := app.postForm(t, fmt.Sprintf("%s/books/%d/delete", RouteDashboard, id), nil)
	if !strings.Contains(body, "Cannot delete book with active transactions") {
		t.Error("backend rejection message not flashed")
	}
	if !strings.Contains(body, "Pride and Prejudice") {
		t.Error("book must survive a rejected delete")
	}
}
