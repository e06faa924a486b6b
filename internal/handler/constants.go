// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteRegister is the register route.
	RouteRegister = "/register"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteDashboard is the dashboard route.
	RouteDashboard = "/dashboard"
	// RouteIssue is the issue-book route under the dashboard.
	RouteIssue = "/issue"
	// RouteReturn is the return-book route under the dashboard.
	RouteReturn = "/return"
	// RouteBooks is the admin book collection route under the dashboard.
	RouteBooks = "/books"
	// RouteBookNew is the add-book form route under the dashboard.
	RouteBookNew = "/books/new"
	// RouteBookEdit is the edit-book form route under the dashboard.
	RouteBookEdit = "/books/{id}/edit"
	// RouteBookUpdate is the edit-book submit route under the dashboard.
	RouteBookUpdate = "/books/{id}"
	// RouteBookDelete is the delete-book route under the dashboard.
	RouteBookDelete = "/books/{id}/delete"
)

// Register view names for the login page toggle.
const (
	viewLogin    = "login"
	viewRegister = "register"
)
