// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr is the error vocabulary shared by services and handlers.

Services return [*AppError] values built by the constructors below; the
respond package turns them into the JSON error envelope. Anything else that
reaches a handler is reported as INTERNAL_ERROR.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Codes

const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnprocessable      = "UNPROCESSABLE"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeChapterAlreadyDone = "CHAPTER_ALREADY_DONE"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
)

var statusOf = map[string]int{
	CodeNotFound:           http.StatusNotFound,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeConflict:           http.StatusConflict,
	CodeValidation:         http.StatusBadRequest,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeUnprocessable:      http.StatusUnprocessableEntity,
	CodeInvalidTransition:  http.StatusConflict,
	CodeChapterAlreadyDone: http.StatusConflict,
	CodeInternal:           http.StatusInternalServerError,
	CodeUnavailable:        http.StatusServiceUnavailable,
}

// AppError is an error with a client-safe message and the HTTP status it
// maps to. Cause is logged server-side and never serialized.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`

	// RetryAfter, when positive, is sent as the Retry-After header in seconds.
	RetryAfter int `json:"-"`
}

// FieldError is one failed field of a VALIDATION_ERROR.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: statusOf[code]}
}

// Error returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap exposes Cause to [errors.Is] and [errors.As].
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches any [*AppError] with the same Code, so errors.Is(err,
// apperr.NotFound("")) works regardless of the message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// WithRetryAfter returns a copy of e advertising a retry delay.
func (e *AppError) WithRetryAfter(seconds int) *AppError {
	clone := *e
	clone.RetryAfter = seconds
	return &clone
}

// WithCause returns a copy of e carrying cause for server-side logging.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// # Client Errors (4xx)

// NotFound reads "<resource> not found".
func NotFound(resource string) *AppError {
	return newError(CodeNotFound, resource+" not found")
}

func Unauthorized(msg string) *AppError { return newError(CodeUnauthorized, msg) }

func Forbidden(msg string) *AppError { return newError(CodeForbidden, msg) }

// Conflict covers duplicates and unique-constraint violations.
func Conflict(msg string) *AppError { return newError(CodeConflict, msg) }

// ValidationError carries optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	err := newError(CodeValidation, msg)
	err.Details = details
	return err
}

// RateLimited asks the client to back off for retryAfterSeconds.
func RateLimited(retryAfterSeconds int) *AppError {
	err := newError(CodeRateLimited, fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
	err.RetryAfter = retryAfterSeconds
	return err
}

// Unprocessable is for well-formed input that makes no sense in context.
func Unprocessable(msg string) *AppError { return newError(CodeUnprocessable, msg) }

// InvalidTransition rejects a workflow step the current status does not allow.
func InvalidTransition(msg string) *AppError { return newError(CodeInvalidTransition, msg) }

// AlreadyDone rejects work on a chapter that is finished or published.
func AlreadyDone(msg string) *AppError { return newError(CodeChapterAlreadyDone, msg) }

// # Server Errors (5xx)

// Internal wraps an unexpected failure behind a generic message.
func Internal(cause error) *AppError {
	err := newError(CodeInternal, "An unexpected error occurred")
	err.Cause = cause
	return err
}

// ServiceUnavailable reports a dependency that is down.
func ServiceUnavailable(msg string) *AppError { return newError(CodeUnavailable, msg) }

// # Helpers

// CodeOf returns the code of the [*AppError] in err's chain, "" for nil and
// INTERNAL_ERROR for anything else.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if ae := As(err); ae != nil {
		return ae.Code
	}
	return CodeInternal
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
