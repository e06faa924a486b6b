// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// LogicError means the backend understood and rejected the request (wrong
// credentials, no copies left, insufficient role). Retrying with the same
// input will not help; the message is meant for the user.
type LogicError struct {
	Op      string
	Message string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("api: %s rejected: %s", e.Op, e.Message)
}

// TransportError means the request never produced a usable envelope: the
// backend was unreachable, timed out, or answered with something that is not
// the envelope protocol. Retrying may help.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsLogic reports whether err is a backend rejection.
func IsLogic(err error) bool {
	var le *LogicError
	return errors.As(err, &le)
}

// UserMessage returns the text to surface for a failed operation: the
// backend's own message for rejections, the given fallback for transport
// failures. Every failure resolves to something visible.
func UserMessage(err error, fallback string) string {
	var le *LogicError
	if errors.As(err, &le) && le.Message != "" {
		return le.Message
	}
	return fallback
}
