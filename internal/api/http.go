// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"libris/internal/model"
)

// maxResponseBytes bounds how much of a backend response is read. The largest
// legitimate payload is a book list; anything past this is not our backend.
const maxResponseBytes = 4 << 20

// envelope is the wrapper every backend response uses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *model.User     `json:"user"`
	Books   json.RawMessage `json:"books"`
}

// HTTPClient is the real backend gateway. One HTTP call per operation,
// bearer auth where required, a hard per-request timeout, no retries.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	validate *validator.Validate
}

// NewHTTPClient creates a gateway for the backend at baseURL. The timeout
// applies to each request end to end.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		validate: validator.New(),
	}
}

// Login implements Client.
func (c *HTTPClient) Login(ctx context.Context, creds model.Credentials) (model.Session, error) {
	const op = "login"
	if err := c.checkPayload(op, loginPayload{Username: creds.Username, Password: creds.Password}); err != nil {
		return model.Session{}, err
	}

	env, err := c.do(ctx, op, http.MethodPost, "/api/login", "", loginPayload{
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		return model.Session{}, err
	}

	if env.Token == "" || env.User == nil {
		return model.Session{}, &TransportError{Op: op, Err: fmt.Errorf("success envelope missing token or user")}
	}
	return model.Session{Token: env.Token, User: *env.User}, nil
}

// Register implements Client.
func (c *HTTPClient) Register(ctx context.Context, creds model.Credentials) error {
	const op = "register"
	if err := c.checkPayload(op, creds); err != nil {
		return err
	}

	role := creds.Role
	if role == "" {
		role = model.RoleMember
	}
	_, err := c.do(ctx, op, http.MethodPost, "/api/register", "", registerPayload{
		Username: creds.Username,
		Password: creds.Password,
		Role:     role,
	})
	return err
}

// ListBooks implements Client. An empty search term lists the whole catalog.
func (c *HTTPClient) ListBooks(ctx context.Context, search string) ([]model.Book, error) {
	const op = "list books"
	path := "/api/books"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}

	env, err := c.do(ctx, op, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	var books []model.Book
	if err := decodeList(op, env.Books, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// MyLoans implements Client.
func (c *HTTPClient) MyLoans(ctx context.Context, token string) ([]model.Loan, error) {
	const op = "list loans"
	env, err := c.do(ctx, op, http.MethodGet, "/api/my-books", token, nil)
	if err != nil {
		return nil, err
	}

	var loans []model.Loan
	if err := decodeList(op, env.Books, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// CreateBook implements Client.
func (c *HTTPClient) CreateBook(ctx context.Context, token string, in model.BookInput) error {
	const op = "create book"
	if err := c.checkPayload(op, in); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodPost, "/api/books", token, in)
	return err
}

// UpdateBook implements Client.
func (c *HTTPClient) UpdateBook(ctx context.Context, token string, id int64, in model.BookInput) error {
	const op = "update book"
	if err := c.checkPayload(op, in); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodPut, fmt.Sprintf("/api/books/%d", id), token, in)
	return err
}

// DeleteBook implements Client.
func (c *HTTPClient) DeleteBook(ctx context.Context, token string, id int64) error {
	const op = "delete book"
	_, err := c.do(ctx, op, http.MethodDelete, fmt.Sprintf("/api/books/%d", id), token, nil)
	return err
}

// IssueBook implements Client.
func (c *HTTPClient) IssueBook(ctx context.Context, token string, bookID int64) error {
	const op = "issue book"
	_, err := c.do(ctx, op, http.MethodPost, "/api/issue-book", token, bookRef{BookID: bookID})
	return err
}

// ReturnBook implements Client.
func (c *HTTPClient) ReturnBook(ctx context.Context, token string, bookID int64) error {
	const op = "return book"
	_, err := c.do(ctx, op, http.MethodPost, "/api/return-book", token, bookRef{BookID: bookID})
	return err
}

// Wire payload schemas. Field names are the backend's snake_case contract.
type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type bookRef struct {
	BookID int64 `json:"book_id"`
}

// checkPayload validates a request payload before it reaches the wire.
// Validation failures are user-input problems, so they surface as
// LogicError rather than reaching the backend.
func (c *HTTPClient) checkPayload(op string, payload any) error {
	err := c.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if verrs, ok := err.(validator.ValidationErrors); ok {
		invalid = verrs
	}
	if len(invalid) == 0 {
		return &TransportError{Op: op, Err: fmt.Errorf("validating payload: %w", err)}
	}

	field := strings.ToLower(invalid[0].Field())
	switch invalid[0].Tag() {
	case "required":
		return &LogicError{Op: op, Message: field + " is required"}
	case "min":
		return &LogicError{Op: op, Message: field + " must be at least " + invalid[0].Param()}
	default:
		return &LogicError{Op: op, Message: field + " is invalid"}
	}
}

// do performs one request and decodes the response envelope. A non-2xx status
// whose body still parses as an envelope is reported as the backend's own
// rejection; only unparseable responses become transport errors.
func (c *HTTPClient) do(ctx context.Context, op, method, path, token string, payload any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("encoding payload: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("building request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("backend returned status %d", resp.StatusCode)}
		}
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decoding envelope: %w", err)}
	}

	if !env.Success {
		message := env.Message
		if message == "" {
			message = "Request failed"
		}
		return nil, &LogicError{Op: op, Message: message}
	}

	return &env, nil
}

// decodeList decodes the books field of a success envelope into out.
func decodeList(op string, raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decoding books: %w", err)}
	}
	return nil
}
