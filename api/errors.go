// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for the ircd core.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the core.
var (
	ErrWouldBlock          = errors.New("operation would block")
	ErrListenerDead        = errors.New("listener is dead")
	ErrListenerClosed      = errors.New("listener is closed")
	ErrAlreadyRunning      = errors.New("listener already running")
	ErrNotStarted          = errors.New("not started")
	ErrUnsupportedPlatform = errors.New("platform is not supported")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

// ErrorCode represents specific error conditions in the core.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeBind
	ErrCodeAccept
	ErrCodeRebind
	ErrCodeConfig
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeBind:
		return "bind"
	case ErrCodeAccept:
		return "accept"
	case ErrCodeRebind:
		return "rebind"
	case ErrCodeConfig:
		return "config"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Context) > 0 {
		msg = fmt.Sprintf("%s (context: %+v)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Wrap attaches the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
