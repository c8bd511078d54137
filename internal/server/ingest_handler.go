// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/northbound/cortex/internal/apperr"
	"github.com/northbound/cortex/internal/catalog"
	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/queue"
	"github.com/northbound/cortex/internal/worker"
)

// IngestUploadRequest represents the ingestion request payload
type IngestUploadRequest struct {
	UserID   string `json:"user_id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// IngestUploadResponse is returned immediately; the job runs asynchronously.
type IngestUploadResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobProgress mirrors a job's processed/total counters.
type JobProgress struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
}

// JobStatusResponse is the poll response for a single job.
type JobStatusResponse struct {
	JobID    string      `json:"job_id"`
	Status   string      `json:"status"`
	Progress JobProgress `json:"progress"`
	Error    *string     `json:"error,omitempty"`
}

// IngestHandler holds dependencies for the ingest handler
type IngestHandler struct {
	catalog *catalog.Store
	queue   queue.Queue
}

// NewIngestHandler creates a new ingest handler with dependencies
func NewIngestHandler(cat *catalog.Store, q queue.Queue) *IngestHandler {
	return &IngestHandler{catalog: cat, queue: q}
}

// HandleUpload handles POST /api/v1/ingest/upload requests. The document is
// queued for asynchronous ingestion; the caller polls HandleJobStatus for
// progress.
func (h *IngestHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}

	var req IngestUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apperr.BadRequest(fmt.Sprintf("invalid JSON: %v", err)))
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeErr(w, apperr.BadRequest("content cannot be empty"))
		return
	}

	userID, err := ids.ParseUserId(req.UserID)
	if err != nil {
		writeErr(w, apperr.BadRequest("user_id is required and must be a valid UUID"))
		return
	}

	ctx := r.Context()
	jobID, err := h.catalog.CreateJob(ctx, catalog.CreateJob{UserID: userID, JobType: ids.JobFileUpload})
	if err != nil {
		writeErr(w, apperr.Database("create job", err))
		return
	}

	payload, err := json.Marshal(worker.FileUploadPayload{
		JobID:    jobID,
		UserID:   userID,
		Filename: req.Filename,
		Content:  req.Content,
	})
	if err != nil {
		writeErr(w, apperr.Internalf("marshal job payload", err))
		return
	}

	job := queue.Job{Type: worker.JobTypeFileUpload, Payload: payload, CreatedAt: time.Now().UTC()}
	if err := h.queue.Enqueue(ctx, job); err != nil {
		writeErr(w, apperr.Internalf("enqueue job", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(IngestUploadResponse{JobID: jobID.String(), Status: ids.JobQueued.String()})
}

// HandleJobStatus handles GET /api/v1/ingest/jobs/{job_id} requests.
func (h *IngestHandler) HandleJobStatus(w http.ResponseWriter, r *http.Request, jobIDParam string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}

	jobID, err := ids.ParseJobId(jobIDParam)
	if err != nil {
		writeErr(w, apperr.BadRequest("invalid job_id"))
		return
	}

	job, err := h.catalog.GetJob(r.Context(), jobID)
	if err != nil {
		writeErr(w, apperr.Database("get job", err))
		return
	}
	if job == nil {
		writeErr(w, apperr.NotFound(fmt.Sprintf("job %s not found", jobID)))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(JobStatusResponse{
		JobID:  job.ID.String(),
		Status: job.Status.String(),
		Progress: JobProgress{
			Total:     job.TotalItems,
			Processed: job.ProcessedItems,
		},
		Error: job.ErrorMessage,
	})
}
