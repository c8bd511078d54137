// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package worker

import "github.com/northbound/cortex/internal/ids"

// queue.Job.Type values, each decoding Payload into the matching struct
// below.
const (
	// JobTypeFileUpload ingests an uploaded file's pre-extracted text.
	JobTypeFileUpload = "file_upload"
	// JobTypeFullSync runs a full connector sync. Reserved until
	// connectors beyond file upload are implemented.
	JobTypeFullSync = "full_sync"
	// JobTypeIncrementalSync runs an incremental connector sync. Reserved.
	JobTypeIncrementalSync = "incremental_sync"
)

// FileUploadPayload carries an uploaded file through to the ingestion
// pipeline.
type FileUploadPayload struct {
	JobID    ids.JobId  `json:"job_id"`
	UserID   ids.UserId `json:"user_id"`
	Filename string     `json:"filename"`
	Content  string     `json:"content"`
}

// SyncPayload carries a connector sync request. Dispatch for both
// full_sync and incremental_sync succeeds trivially until connectors
// beyond file upload are implemented.
type SyncPayload struct {
	JobID       ids.JobId       `json:"job_id"`
	UserID      ids.UserId      `json:"user_id"`
	ConnectorID ids.ConnectorId `json:"connector_id"`
}
