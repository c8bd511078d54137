// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package connector defines the capability set every data-source adapter
// implements and the in-flight RawDocument type the ingestion pipeline
// consumes. Only the file-upload synthesizer is implemented today; Notion,
// Slack, and Gmail connectors are reserved slots (see Credentials and the
// Connector interface) for later phases.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/northbound/cortex/internal/ids"
)

// RawDocument is the pipeline's input: a document fetched from a source,
// not yet persisted to the catalog or vector store.
type RawDocument struct {
	SourceID    string
	SourceType  ids.SourceType
	Title       string
	Content     string
	MimeType    string
	Metadata    json.RawMessage
	ContentHash string
	FetchedAt   time.Time
	SourceURL   *string
}

// Credentials holds OAuth2-style credentials for a connector instance.
type Credentials struct {
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *time.Time
	Scopes       []string
}

// Connector is the capability set every source adapter implements. Variants
// today are {file-upload synthesizer}; Notion/Slack/Gmail are reserved.
type Connector interface {
	FetchAll(ctx context.Context, creds Credentials) ([]RawDocument, error)
	FetchIncremental(ctx context.Context, creds Credentials, since time.Time) ([]RawDocument, error)
	ValidateCredentials(ctx context.Context, creds Credentials) (bool, error)
	SourceType() ids.SourceType
}

// Error classifies a connector-level failure.
type Error struct {
	Kind    ErrorKind
	Message string
	// RetryAfter is set only for ErrRateLimited.
	RetryAfter time.Duration
}

type ErrorKind int

const (
	ErrAuthFailed ErrorKind = iota
	ErrAPIError
	ErrRateLimited
	ErrParseError
	ErrHTTP
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrAuthFailed:
		return fmt.Sprintf("authentication failed: %s", e.Message)
	case ErrRateLimited:
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	case ErrParseError:
		return fmt.Sprintf("parse error: %s", e.Message)
	case ErrHTTP:
		return fmt.Sprintf("http error: %s", e.Message)
	default:
		return fmt.Sprintf("api error: %s", e.Message)
	}
}
