// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api implements the gateway to the library backend. Every operation
// is one HTTP round trip translating a typed request into a typed result;
// nothing is retried and nothing is cached. Client is satisfied by the real
// HTTP gateway and by an in-memory backend used for demo mode and tests.
package api

import (
	"context"

	"libris/internal/model"
)

// Client is the backend gateway consumed by the workflow handlers. The token
// parameter is the session's bearer token for operations that require auth.
type Client interface {
	// Login exchanges credentials for a session. Rejection (wrong password,
	// unknown user) is a LogicError carrying the backend's message.
	Login(ctx context.Context, creds model.Credentials) (model.Session, error)

	// Register creates an account. It does not authenticate; an empty role
	// defaults to member on the backend.
	Register(ctx context.Context, creds model.Credentials) error

	// ListBooks returns the catalog, filtered by the search term against
	// title, author and category. An empty term lists everything.
	ListBooks(ctx context.Context, search string) ([]model.Book, error)

	// MyLoans returns the caller's active loans.
	MyLoans(ctx context.Context, token string) ([]model.Loan, error)

	// CreateBook adds a book to the catalog. Admin only.
	CreateBook(ctx context.Context, token string, in model.BookInput) error

	// UpdateBook edits a catalog entry. Admin only.
	UpdateBook(ctx context.Context, token string, id int64, in model.BookInput) error

	// DeleteBook removes a catalog entry. Admin only. The backend rejects
	// deletion while copies are on loan.
	DeleteBook(ctx context.Context, token string, id int64) error

	// IssueBook borrows a copy for the caller. The backend decrements
	// availability; the client never adjusts counts locally.
	IssueBook(ctx context.Context, token string, bookID int64) error

	// ReturnBook returns the caller's loan of the given book.
	ReturnBook(ctx context.Context, token string, bookID int64) error
}
