// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package apperr is the error taxonomy surfaced at the HTTP boundary. Every
// handler in internal/server maps application errors to one of these kinds
// instead of inventing ad-hoc status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the purpose of HTTP status mapping.
type Kind int

const (
	// KindNotFound means the looked-up resource is absent.
	KindNotFound Kind = iota
	// KindBadRequest means malformed or empty input.
	KindBadRequest
	// KindInternal means an invariant violation or unexpected absence.
	KindInternal
	// KindDatabase means a catalog failure; the wire message is redacted.
	KindDatabase
	// KindServiceUnavailable means a downstream ML or vector store failure.
	KindServiceUnavailable
)

// Error wraps an underlying cause with a Kind for status-code mapping.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, msg: msg} }

// BadRequest builds a KindBadRequest error.
func BadRequest(msg string) *Error { return &Error{Kind: KindBadRequest, msg: msg} }

// Internal builds a KindInternal error.
func Internal(msg string) *Error { return &Error{Kind: KindInternal, msg: msg} }

// Internalf builds a KindInternal error with a wrapped cause.
func Internalf(msg string, err error) *Error {
	return &Error{Kind: KindInternal, msg: msg, err: err}
}

// Database wraps a catalog failure. The detail is logged by the caller; the
// wire message handlers produce for this kind is always the generic string.
func Database(msg string, err error) *Error {
	return &Error{Kind: KindDatabase, msg: msg, err: err}
}

// ServiceUnavailable wraps a downstream ML/vector-store failure.
func ServiceUnavailable(msg string, err error) *Error {
	return &Error{Kind: KindServiceUnavailable, msg: msg, err: err}
}

// StatusCode maps err to the HTTP status code it should be surfaced as. Any
// error that is not an *Error is treated as KindInternal.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindDatabase, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WireMessage is the message safe to return to a client. Database error
// detail is redacted to a generic string; every other kind returns its own
// message verbatim.
func WireMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	if e.Kind == KindDatabase {
		return "internal server error"
	}
	return e.Error()
}
