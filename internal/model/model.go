// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the value types exchanged with the library backend.
// Every entity is a snapshot fetched fresh per view; the client never holds
// authoritative copies of backend state.
package model

import "time"

// User roles returned by the backend.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is the profile part of an authenticated session.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin returns true if the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is the authenticated identity and token held for the current
// browser session.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Credentials is a transient username/password pair. It exists only for the
// duration of a login or register submission and is never persisted beyond
// the resulting session.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=member admin"`
}

// Book is a read-only snapshot of a backend book record.
type Book struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn,omitempty"`
	Category        string `json:"category,omitempty"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// Available returns true if at least one copy can be issued.
func (b Book) Available() bool {
	return b.AvailableCopies > 0
}

// BookInput is the payload for the add-book and edit-book operations.
type BookInput struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn"`
	Category string `json:"category"`
	Copies   int    `json:"copies" validate:"required,min=1"`
}

// Loan is a book currently issued to the caller. The backend keys return
// operations by book ID, so BookID is what return-book sends back.
type Loan struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	IssueDate Timestamp `json:"issue_date"`
	DueDate   Timestamp `json:"due_date"`
	Returned  bool      `json:"returned"`
}

// Overdue reports whether the loan is past due at the given instant.
// Computed at render time, never persisted.
func (l Loan) Overdue(now time.Time) bool {
	return l.DueDate.Before(now) && !l.Returned
}
