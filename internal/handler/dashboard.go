// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"libris/internal/api"
	"libris/internal/middleware"
	"libris/internal/model"
	"libris/internal/render"
	"libris/internal/view"
)

// DashboardHandler handles the dashboard page and the issue/return actions.
type DashboardHandler struct {
	client   api.Client
	renderer *render.Renderer
	views    *view.Views
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(client api.Client, renderer *render.Renderer, views *view.Views) *DashboardHandler {
	return &DashboardHandler{
		client:   client,
		renderer: renderer,
		views:    views,
	}
}

// dashboardData is the data for the dashboard page template.
type dashboardData struct {
	Search     string
	Books      template.HTML
	Loans      template.HTML
	BooksError string
	LoansError string
	CanManage  bool
}

type booksResult struct {
	books []model.Book
	err   error
}

type loansResult struct {
	loans []model.Loan
	err   error
}

// Dashboard renders the dashboard page. The catalog and the visitor's loans
// are fetched concurrently and rendered independently: a failure in one
// region shows a notice there while the other still renders its data.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r)
	if !ok {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
		return
	}

	search := r.URL.Query().Get("search")

	booksCh := make(chan booksResult, 1)
	loansCh := make(chan loansResult, 1)

	go func() {
		books, err := h.client.ListBooks(r.Context(), search)
		booksCh <- booksResult{books: books, err: err}
	}()
	go func() {
		loans, err := h.client.MyLoans(r.Context(), sess.Token)
		loansCh <- loansResult{loans: loans, err: err}
	}()

	data := dashboardData{
		Search:    search,
		CanManage: sess.User.IsAdmin(),
	}

	if res := <-booksCh; res.err != nil {
		slog.Error("loading book list", "category", model.EventCategoryBackend, "error", res.err)
		data.BooksError = api.UserMessage(res.err, "Failed to load books. Please try again.")
	} else {
		html, err := h.views.BookList(res.books, sess.User.Role)
		if err != nil {
			logAndInternalError(w, "rendering book list", "error", err)
			return
		}
		data.Books = html
	}

	if res := <-loansCh; res.err != nil {
		slog.Error("loading loan list", "category", model.EventCategoryBackend, "error", res.err)
		data.LoansError = api.UserMessage(res.err, "Failed to load your books. Please try again.")
	} else {
		html, err := h.views.LoanList(res.loans, time.Now())
		if err != nil {
			logAndInternalError(w, "rendering loan list", "error", err)
			return
		}
		data.Loans = html
	}

	err := h.renderer.Render(w, r, "dashboard/index", render.TemplateData{
		Title: "Dashboard",
		User:  &sess.User,
		Data:  data,
	})
	if err != nil {
		logAndInternalError(w, "rendering dashboard", "error", err)
	}
}

// Issue handles the issue-book form submission. On success the redirect back
// to the dashboard refetches both lists, so the page always shows the
// backend's counts rather than locally adjusted ones. On a backend rejection
// nothing is refetched here; only the flash message changes.
func (h *DashboardHandler) Issue(w http.ResponseWriter, r *http.Request) {
	bookID, ok := h.formBookID(w, r)
	if !ok {
		return
	}
	sess, _ := middleware.GetSession(r)

	if err := h.client.IssueBook(r.Context(), sess.Token, bookID); err != nil {
		h.actionError(w, r, "issuing book", err, "Failed to issue book. Please try again.")
		return
	}

	slog.Info("book issued", "username", sess.User.Username, "book_id", bookID)
	flashSuccess(w, r, h.renderer, RouteDashboard, "Book issued successfully")
}

// Return handles the return-book form submission.
func (h *DashboardHandler) Return(w http.ResponseWriter, r *http.Request) {
	bookID, ok := h.formBookID(w, r)
	if !ok {
		return
	}
	sess, _ := middleware.GetSession(r)

	if err := h.client.ReturnBook(r.Context(), sess.Token, bookID); err != nil {
		h.actionError(w, r, "returning book", err, "Failed to return book. Please try again.")
		return
	}

	slog.Info("book returned", "username", sess.User.Username, "book_id", bookID)
	flashSuccess(w, r, h.renderer, RouteDashboard, "Book returned successfully")
}

// formBookID parses the book_id form field, redirecting with an error flash
// when it is missing or malformed.
func (h *DashboardHandler) formBookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteDashboard) {
		return 0, false
	}

	bookID, err := strconv.ParseInt(r.FormValue("book_id"), 10, 64)
	if err != nil || bookID <= 0 {
		flashError(w, r, h.renderer, RouteDashboard, "Invalid book")
		return 0, false
	}
	return bookID, true
}

// actionError flashes a backend rejection or a generic transport message and
// redirects back to the dashboard.
func (h *DashboardHandler) actionError(w http.ResponseWriter, r *http.Request, logMsg string, err error, fallback string) {
	if api.IsLogic(err) {
		slog.Warn(logMsg+" rejected", "category", model.EventCategoryBackend, "error", err)
	} else {
		slog.Error(logMsg+" failed", "category", model.EventCategoryBackend, "error", err)
	}
	flashError(w, r, h.renderer, RouteDashboard, api.UserMessage(err, fallback))
}
