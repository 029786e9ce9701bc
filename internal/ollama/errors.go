// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"errors"
	"fmt"
)

// ErrorType classifies client failures so callers can branch without
// string matching.
type ErrorType int

const (
	ErrTypeConnection ErrorType = iota
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeServer
	ErrTypeStream
	ErrTypeInvalidResponse
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeModelNotFound:
		return "model_not_found"
	case ErrTypeServer:
		return "server"
	case ErrTypeStream:
		return "stream"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is checks.
var (
	ErrNotRunning    = errors.New("ollama server is not running")
	ErrModelNotFound = errors.New("model not found")
	ErrTimeout       = errors.New("request timed out")
)

// ClientError is the error type every Client method returns on failure.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ollama %s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("ollama %s error: %s", e.Type, e.Message)
}

func (e *ClientError) Unwrap() error {
	switch e.Type {
	case ErrTypeConnection:
		return ErrNotRunning
	case ErrTypeModelNotFound:
		return ErrModelNotFound
	case ErrTypeTimeout:
		return ErrTimeout
	default:
		return e.Cause
	}
}

func newError(t ErrorType, msg string, cause error) *ClientError {
	return &ClientError{Type: t, Message: msg, Cause: cause}
}

// IsNotRunning reports whether err means the daemon is unreachable.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

// IsModelNotFound reports whether err means the requested model is not
// installed.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// IsTimeout reports whether err was a client-side timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
