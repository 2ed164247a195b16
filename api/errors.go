// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-pipeline.

package api

import "fmt"

// Common errors used across the library.
var (
	// ErrDuplicateName signals that a pipeline already contains a
	// context with the requested name.
	ErrDuplicateName = fmt.Errorf("duplicate handler name")
	// ErrNotShareable signals that a handler not marked shareable was
	// bound to more than one context.
	ErrNotShareable = fmt.Errorf("handler is not shareable")
	// ErrHandlerNotFound signals that no context binds the requested
	// handler or name.
	ErrHandlerNotFound = fmt.Errorf("handler not found")
	// ErrSentinel signals an attempt to remove or replace a head/tail
	// sentinel context.
	ErrSentinel = fmt.Errorf("sentinel context is immutable")
	// ErrExecutorClosed signals a submit to a shut-down executor.
	ErrExecutorClosed = fmt.Errorf("executor is closed")
	// ErrSlotSpaceExhausted signals that the process-wide slot index
	// counter would overflow. This condition is not recoverable.
	ErrSlotSpaceExhausted = fmt.Errorf("thread-local slot index space exhausted")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeConfiguration
	ErrCodeInitialization
	ErrCodeResourceExhausted
	ErrCodeClosed
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
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
