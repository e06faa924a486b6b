// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package view renders the dashboard fragments. Fragment functions are pure:
// the same books, loans, role and clock always produce the same markup, and
// nothing here touches the network or the session.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"libris/internal/model"
)

// Views holds the parsed fragment templates.
type Views struct {
	templates *template.Template
}

// New parses the fragment templates from the partials directory.
func New(templatesFS fs.FS) (*Views, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatDate": func(t model.Timestamp) string {
			return t.Format("Jan 2, 2006")
		},
	}).ParseFS(templatesFS, "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing partials: %w", err)
	}
	return &Views{templates: tmpl}, nil
}

// bookRow is one catalog entry plus its per-role controls.
type bookRow struct {
	model.Book
	Available bool
}

type bookListData struct {
	Books     []bookRow
	CanManage bool
}

// BookList renders the catalog table for the given role. Each book carries
// exactly one of an Issue button or a disabled "Not Available" control, and
// Edit/Delete controls appear only for admins. An empty list renders the
// "No books found." placeholder.
func (v *Views) BookList(books []model.Book, role string) (template.HTML, error) {
	data := bookListData{CanManage: role == model.RoleAdmin}
	for _, b := range books {
		data.Books = append(data.Books, bookRow{Book: b, Available: b.Available()})
	}
	return v.execute("book_list", data)
}

// loanRow is one active loan plus its render-time overdue flag.
type loanRow struct {
	model.Loan
	Overdue bool
}

type loanListData struct {
	Loans []loanRow
}

// LoanList renders the member's active loans. Overdue marking is derived at
// render time from the due date and the supplied clock, every row carries a
// Return button, and an empty list renders the "You have no issued books."
// placeholder.
func (v *Views) LoanList(loans []model.Loan, now time.Time) (template.HTML, error) {
	var data loanListData
	for _, l := range loans {
		data.Loans = append(data.Loans, loanRow{Loan: l, Overdue: l.Overdue(now)})
	}
	return v.execute("loan_list", data)
}

func (v *Views) execute(name string, data any) (template.HTML, error) {
	buf := new(bytes.Buffer)
	if err := v.templates.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("executing fragment %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
