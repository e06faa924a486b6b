// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"libris/internal/model"
)

// LoanPeriod is how long a demo-backend loan runs before it is due.
const LoanPeriod = 14 * 24 * time.Hour

// Backend rejection messages, matching the real backend's wording.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgUsernameTaken      = "Username already exists"
	msgAuthRequired       = "Authentication required"
	msgAdminRequired      = "Admin access required"
	msgBookNotAvailable   = "Book not available"
	msgAlreadyIssued      = "Book already issued to this user"
	msgBookNotFound       = "Book not found"
	msgNoActiveLoan       = "Book not issued to this user"
	msgBookOnLoan         = "Cannot delete book with active transactions"
)

type memUser struct {
	id       int64
	password string
	role     string
}

type memLoan struct {
	id       int64
	userID   int64
	bookID   int64
	issued   time.Time
	due      time.Time
	returned bool
}

// Memory is an in-memory backend satisfying the Client interface. It enforces
// the same rules the real backend does (copy accounting, duplicate issues,
// role checks), which makes it both the demo mode backend and the test double
// for the workflow handlers. A mutex serializes mutations, so of two issue
// requests racing for the last copy exactly one wins.
type Memory struct {
	mu       sync.Mutex
	users    map[string]*memUser
	sessions map[string]string // token -> username
	books    map[int64]*model.Book
	loans    []*memLoan
	nextID   int64

	// now is injectable for due-date tests.
	now func() time.Time
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*memUser),
		sessions: make(map[string]string),
		books:    make(map[int64]*model.Book),
		nextID:   1,
		now:      time.Now,
	}
}

// NewMemoryDemo creates an in-memory backend seeded with an admin account
// (admin/admin123), a member account (reader/reader123) and a small catalog.
func NewMemoryDemo() *Memory {
	m := NewMemory()
	m.seedUser("admin", "admin123", model.RoleAdmin)
	m.seedUser("reader", "reader123", model.RoleMember)
	for _, b := range []model.BookInput{
		{Title: "The Go Programming Language", Author: "Donovan & Kernighan", ISBN: "978-0134190440", Category: "Programming", Copies: 3},
		{Title: "The Pragmatic Programmer", Author: "Hunt & Thomas", ISBN: "978-0135957059", Category: "Programming", Copies: 2},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Category: "Fiction", Copies: 1},
		{Title: "A Brief History of Time", Author: "Stephen Hawking", Category: "Science", Copies: 2},
	} {
		m.seedBook(b)
	}
	return m
}

func (m *Memory) seedUser(username, password, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = &memUser{id: m.nextID, password: password, role: role}
	m.nextID++
}

func (m *Memory) seedBook(in model.BookInput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[m.nextID] = &model.Book{
		ID:              m.nextID,
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Category:        in.Category,
		TotalCopies:     in.Copies,
		AvailableCopies: in.Copies,
	}
	m.nextID++
}

// SetClock replaces the backend's clock. Test helper.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Login implements Client.
func (m *Memory) Login(_ context.Context, creds model.Credentials) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[creds.Username]
	if !ok || user.password != creds.Password {
		return model.Session{}, &LogicError{Op: "login", Message: msgInvalidCredentials}
	}

	token := uuid.NewString()
	m.sessions[token] = creds.Username
	return model.Session{
		Token: token,
		User:  model.User{ID: user.id, Username: creds.Username, Role: user.role},
	}, nil
}

// Register implements Client.
func (m *Memory) Register(_ context.Context, creds model.Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return &LogicError{Op: "register", Message: "Username and password required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[creds.Username]; exists {
		return &LogicError{Op: "register", Message: msgUsernameTaken}
	}

	role := creds.Role
	if role == "" {
		role = model.RoleMember
	}
	m.users[creds.Username] = &memUser{id: m.nextID, password: creds.Password, role: role}
	m.nextID++
	return nil
}

// ListBooks implements Client. Matching follows the backend: substring match
// on title, author or category, case-insensitive, ordered by title.
func (m *Memory) ListBooks(_ context.Context, search string) ([]model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	term := strings.ToLower(search)
	var books []model.Book
	for _, b := range m.books {
		if term != "" &&
			!strings.Contains(strings.ToLower(b.Title), term) &&
			!strings.Contains(strings.ToLower(b.Author), term) &&
			!strings.Contains(strings.ToLower(b.Category), term) {
			continue
		}
		books = append(books, *b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

// MyLoans implements Client.
func (m *Memory) MyLoans(_ context.Context, token string) ([]model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.authed(token)
	if err != nil {
		return nil, err
	}

	var loans []model.Loan
	for _, l := range m.loans {
		if l.userID != user.id || l.returned {
			continue
		}
		book := m.books[l.bookID]
		loans = append(loans, model.Loan{
			ID:        l.id,
			BookID:    l.bookID,
			Title:     book.Title,
			Author:    book.Author,
			IssueDate: model.NewTimestamp(l.issued),
			DueDate:   model.NewTimestamp(l.due),
		})
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

// CreateBook implements Client.
func (m *Memory) CreateBook(_ context.Context, token string, in model.BookInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.adminOnly(token, "create book"); err != nil {
		return err
	}

	m.books[m.nextID] = &model.Book{
		ID:              m.nextID,
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Category:        in.Category,
		TotalCopies:     in.Copies,
		AvailableCopies: in.Copies,
	}
	m.nextID++
	return nil
}

// UpdateBook implements Client. Changing the copy count adjusts availability
// by the same delta, clamped at zero, preserving 0 <= available <= total.
func (m *Memory) UpdateBook(_ context.Context, token string, id int64, in model.BookInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.adminOnly(token, "update book"); err != nil {
		return err
	}

	book, ok := m.books[id]
	if !ok {
		return &LogicError{Op: "update book", Message: msgBookNotFound}
	}

	delta := in.Copies - book.TotalCopies
	book.Title = in.Title
	book.Author = in.Author
	book.ISBN = in.ISBN
	book.Category = in.Category
	book.TotalCopies = in.Copies
	book.AvailableCopies += delta
	if book.AvailableCopies < 0 {
		book.AvailableCopies = 0
	}
	if book.AvailableCopies > book.TotalCopies {
		book.AvailableCopies = book.TotalCopies
	}
	return nil
}

// DeleteBook implements Client.
func (m *Memory) DeleteBook(_ context.Context, token string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.adminOnly(token, "delete book"); err != nil {
		return err
	}

	if _, ok := m.books[id]; !ok {
		return &LogicError{Op: "delete book", Message: msgBookNotFound}
	}
	for _, l := range m.loans {
		if l.bookID == id && !l.returned {
			return &LogicError{Op: "delete book", Message: msgBookOnLoan}
		}
	}
	delete(m.books, id)
	return nil
}

// IssueBook implements Client.
func (m *Memory) IssueBook(_ context.Context, token string, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.authed(token)
	if err != nil {
		return err
	}

	book, ok := m.books[bookID]
	if !ok || book.AvailableCopies <= 0 {
		return &LogicError{Op: "issue book", Message: msgBookNotAvailable}
	}
	for _, l := range m.loans {
		if l.userID == user.id && l.bookID == bookID && !l.returned {
			return &LogicError{Op: "issue book", Message: msgAlreadyIssued}
		}
	}

	issued := m.now()
	m.loans = append(m.loans, &memLoan{
		id:     m.nextID,
		userID: user.id,
		bookID: bookID,
		issued: issued,
		due:    issued.Add(LoanPeriod),
	})
	m.nextID++
	book.AvailableCopies--
	return nil
}

// ReturnBook implements Client.
func (m *Memory) ReturnBook(_ context.Context, token string, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.authed(token)
	if err != nil {
		return err
	}

	for _, l := range m.loans {
		if l.userID == user.id && l.bookID == bookID && !l.returned {
			l.returned = true
			if book, ok := m.books[bookID]; ok && book.AvailableCopies < book.TotalCopies {
				book.AvailableCopies++
			}
			return nil
		}
	}
	return &LogicError{Op: "return book", Message: msgNoActiveLoan}
}

// authed resolves a bearer token. Callers must hold the mutex.
func (m *Memory) authed(token string) (*memUser, error) {
	username, ok := m.sessions[token]
	if !ok {
		return nil, &LogicError{Op: "auth", Message: msgAuthRequired}
	}
	return m.users[username], nil
}

// adminOnly resolves a bearer token and requires the admin role. Callers must
// hold the mutex.
func (m *Memory) adminOnly(token, op string) error {
	user, err := m.authed(token)
	if err != nil {
		return err
	}
	if user.role != model.RoleAdmin {
		return &LogicError{Op: op, Message: msgAdminRequired}
	}
	return nil
}
