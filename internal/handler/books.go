// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"libris/internal/api"
	"libris/internal/middleware"
	"libris/internal/model"
	"libris/internal/render"
)

// BookHandler handles the admin book management routes. Every route sits
// behind the admin guard; the backend re-checks the role on each call.
type BookHandler struct {
	client   api.Client
	renderer *render.Renderer
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(client api.Client, renderer *render.Renderer) *BookHandler {
	return &BookHandler{client: client, renderer: renderer}
}

// bookFormData is the data for the book form template.
type bookFormData struct {
	Heading string
	Action  string
	Book    bookFormValues
}

// bookFormValues carries the form fields for both the add and edit forms.
type bookFormValues struct {
	Title    string
	Author   string
	ISBN     string
	Category string
	Copies   int
}

// AddBookForm renders the empty add-book form.
func (h *BookHandler) AddBookForm(w http.ResponseWriter, r *http.Request) {
	data := bookFormData{
		Heading: "Add Book",
		Action:  RouteDashboard + RouteBooks,
		Book:    bookFormValues{Copies: 1},
	}
	h.renderForm(w, r, "Add Book", data)
}

// AddBook handles the add-book form submission.
func (h *BookHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	in, ok := h.formBookInput(w, r, RouteDashboard+RouteBookNew)
	if !ok {
		return
	}
	sess, _ := middleware.GetSession(r)

	if err := h.client.CreateBook(r.Context(), sess.Token, in); err != nil {
		h.bookError(w, r, "creating book", err, RouteDashboard+RouteBookNew, "Failed to add book. Please try again.")
		return
	}

	slog.Info("book added", "username", sess.User.Username, "title", in.Title)
	flashSuccess(w, r, h.renderer, RouteDashboard, "Book added successfully")
}

// EditBookForm renders the edit form prefilled with the book's current
// values. The backend has no single-book endpoint, so the book is looked up
// in the full catalog.
func (h *BookHandler) EditBookForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlBookID(w, r)
	if !ok {
		return
	}

	books, err := h.client.ListBooks(r.Context(), "")
	if err != nil {
		h.bookError(w, r, "loading book for edit", err, RouteDashboard, "Failed to load book. Please try again.")
		return
	}

	var book *model.Book
	for i := range books {
		if books[i].ID == id {
			book = &books[i]
			break
		}
	}
	if book == nil {
		flashError(w, r, h.renderer, RouteDashboard, "Book not found")
		return
	}

	data := bookFormData{
		Heading: "Edit Book",
		Action:  fmt.Sprintf("%s%s/%d", RouteDashboard, RouteBooks, id),
		Book: bookFormValues{
			Title:    book.Title,
			Author:   book.Author,
			ISBN:     book.ISBN,
			Category: book.Category,
			Copies:   book.TotalCopies,
		},
	}
	h.renderForm(w, r, "Edit Book", data)
}

// EditBook handles the edit-book form submission.
func (h *BookHandler) EditBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlBookID(w, r)
	if !ok {
		return
	}

	editURL := fmt.Sprintf("%s%s/%d/edit", RouteDashboard, RouteBooks, id)
	in, ok := h.formBookInput(w, r, editURL)
	if !ok {
		return
	}
	sess, _ := middleware.GetSession(r)

	if err := h.client.UpdateBook(r.Context(), sess.Token, id, in); err != nil {
		h.bookError(w, r, "updating book", err, editURL, "Failed to update book. Please try again.")
		return
	}

	slog.Info("book updated", "username", sess.User.Username, "book_id", id)
	flashSuccess(w, r, h.renderer, RouteDashboard, "Book updated successfully")
}

// DeleteBook handles the delete-book form submission.
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlBookID(w, r)
	if !ok {
		return
	}
	sess, _ := middleware.GetSession(r)

	if err := h.client.DeleteBook(r.Context(), sess.Token, id); err != nil {
		h.bookError(w, r, "deleting book", err, RouteDashboard, "Failed to delete book. Please try again.")
		return
	}

	slog.Info("book deleted", "username", sess.User.Username, "book_id", id)
	flashSuccess(w, r, h.renderer, RouteDashboard, "Book deleted successfully")
}

// urlBookID parses the {id} route parameter.
func (h *BookHandler) urlBookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		flashError(w, r, h.renderer, RouteDashboard, "Invalid book")
		return 0, false
	}
	return id, true
}

// formBookInput parses and validates the book form fields.
func (h *BookHandler) formBookInput(w http.ResponseWriter, r *http.Request, backURL string) (model.BookInput, bool) {
	if !parseFormOrRedirect(w, r, h.renderer, backURL) {
		return model.BookInput{}, false
	}

	in := model.BookInput{
		Title:    r.FormValue("title"),
		Author:   r.FormValue("author"),
		ISBN:     r.FormValue("isbn"),
		Category: r.FormValue("category"),
	}
	if in.Title == "" || in.Author == "" {
		flashError(w, r, h.renderer, backURL, "Title and author are required")
		return model.BookInput{}, false
	}

	copies, err := strconv.Atoi(r.FormValue("copies"))
	if err != nil || copies < 1 {
		flashError(w, r, h.renderer, backURL, "Copies must be a positive number")
		return model.BookInput{}, false
	}
	in.Copies = copies

	return in, true
}

func (h *BookHandler) renderForm(w http.ResponseWriter, r *http.Request, title string, data bookFormData) {
	sess, _ := middleware.GetSession(r)
	err := h.renderer.Render(w, r, "dashboard/book_form", render.TemplateData{
		Title: title,
		User:  &sess.User,
		Data:  data,
	})
	if err != nil {
		logAndInternalError(w, "rendering book form", "error", err)
	}
}

// bookError flashes a backend rejection or a generic transport message and
// redirects to backURL.
func (h *BookHandler) bookError(w http.ResponseWriter, r *http.Request, logMsg string, err error, backURL, fallback string) {
	if api.IsLogic(err) {
		slog.Warn(logMsg+" rejected", "category", model.EventCategoryBackend, "error", err)
	} else {
		slog.Error(logMsg+" failed", "category", model.EventCategoryBackend, "error", err)
	}
	flashError(w, r, h.renderer, backURL, api.UserMessage(err, fallback))
}
