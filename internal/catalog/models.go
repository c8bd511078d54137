// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package catalog is the durable relational store for documents, connectors,
// and jobs. It owns upsert-by-natural-key semantics and content-hash lookup;
// it does not know about chunk text or vectors.
package catalog

import (
	"encoding/json"
	"time"

	"github.com/northbound/cortex/internal/ids"
)

// Document is a catalog row describing one ingested document version.
type Document struct {
	ID          ids.DocumentId
	UserID      ids.UserId
	SourceType  ids.SourceType
	SourceID    string
	Title       string
	SourceURL   *string
	ContentHash string
	ChunkCount  int
	MimeType    *string
	Metadata    json.RawMessage
	IndexedAt   time.Time
	UpdatedAt   time.Time
}

// CreateDocument carries the fields needed to upsert a Document.
type CreateDocument struct {
	UserID      ids.UserId
	SourceType  ids.SourceType
	SourceID    string
	Title       string
	SourceURL   *string
	ContentHash string
	ChunkCount  int
	MimeType    *string
	Metadata    json.RawMessage
}

// Connector is a configured source-system credential/cursor row.
type Connector struct {
	ID           ids.ConnectorId
	UserID       ids.UserId
	SourceType   ids.SourceType
	Status       ids.ConnectorStatus
	LastSyncAt   *time.Time
	SyncCursor   *string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Job is a unit of asynchronous work tracked by the worker pool.
type Job struct {
	ID             ids.JobId
	UserID         ids.UserId
	ConnectorID    *ids.ConnectorId
	JobType        ids.JobType
	Status         ids.JobStatus
	TotalItems     int
	ProcessedItems int
	ErrorMessage   *string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// CreateJob carries the fields needed to insert a new Job in the queued state.
type CreateJob struct {
	UserID      ids.UserId
	ConnectorID *ids.ConnectorId
	JobType     ids.JobType
}
