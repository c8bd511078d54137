// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package worker is the bounded-concurrency job dispatcher: N workers pull
// from a shared queue, mark each job running in the catalog, dispatch on
// its payload variant, and record a terminal status. A panic inside a
// worker is caught at the worker boundary and recorded as a failed job; it
// never takes down the pool.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/northbound/cortex/internal/catalog"
	"github.com/northbound/cortex/internal/connector"
	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/ingestion"
	"github.com/northbound/cortex/internal/logger"
	"github.com/northbound/cortex/internal/queue"
)

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 4

// Pool dispatches jobs dequeued from q to the ingestion pipeline, updating
// job status/progress in the catalog as it goes.
type Pool struct {
	queue    queue.Queue
	catalog  *catalog.Store
	pipeline *ingestion.Pipeline
	log      *logger.Logger
}

// New constructs a worker Pool.
func New(q queue.Queue, cat *catalog.Store, pipeline *ingestion.Pipeline, log *logger.Logger) *Pool {
	return &Pool{queue: q, catalog: cat, pipeline: pipeline, log: log}
}

// Run spawns concurrency workers and blocks until every worker has
// stopped. A worker stops, after finishing its in-flight job, once Dequeue
// returns an error: ctx is cancelled or the queue is closed.
func (p *Pool) Run(ctx context.Context, concurrency int) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go func() {
			defer wg.Done()
			p.loop(ctx, workerID)
		}()
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context, workerID int) {
	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if p.log != nil {
				p.log.Debugf("worker %d: stopping: %v", workerID, err)
			}
			return
		}
		p.process(ctx, workerID, job)
	}
}

// process dispatches one job, recovering from any panic in the handler so
// a single bad job cannot take down the pool.
func (p *Pool) process(ctx context.Context, workerID int, job queue.Job) {
	jobID, err := p.markRunning(ctx, job)
	if err != nil {
		if p.log != nil {
			p.log.Errorf("worker %d: mark running: %v", workerID, err)
		}
		return
	}

	handlerErr := p.dispatch(ctx, job)
	if handlerErr != nil {
		msg := handlerErr.Error()
		if err := p.catalog.UpdateJobStatus(ctx, jobID, ids.JobFailed, &msg); err != nil && p.log != nil {
			p.log.Errorf("worker %d: update failed status: %v", workerID, err)
		}
		if p.log != nil {
			p.log.Errorf("worker %d: job %s failed: %v", workerID, jobID, handlerErr)
		}
		return
	}

	if err := p.catalog.UpdateJobStatus(ctx, jobID, ids.JobCompleted, nil); err != nil && p.log != nil {
		p.log.Errorf("worker %d: update completed status: %v", workerID, err)
	}
}

func (p *Pool) markRunning(ctx context.Context, job queue.Job) (ids.JobId, error) {
	jobID, err := jobIDFromPayload(job)
	if err != nil {
		return ids.JobId{}, err
	}
	if err := p.catalog.UpdateJobStatus(ctx, jobID, ids.JobRunning, nil); err != nil {
		return ids.JobId{}, fmt.Errorf("worker: update running status: %w", err)
	}
	return jobID, nil
}

func jobIDFromPayload(job queue.Job) (ids.JobId, error) {
	var header struct {
		JobID ids.JobId `json:"job_id"`
	}
	if err := json.Unmarshal(job.Payload, &header); err != nil {
		return ids.JobId{}, fmt.Errorf("worker: decode job_id: %w", err)
	}
	return header.JobID, nil
}

// dispatch runs the handler for job's Type. A panic in the handler is
// recovered here and returned as an error, which process records as a
// failed job.
func (p *Pool) dispatch(ctx context.Context, job queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch job.Type {
	case JobTypeFileUpload:
		return p.handleFileUpload(ctx, job)
	case JobTypeFullSync, JobTypeIncrementalSync:
		// Connector sync will be implemented in a later phase; succeed
		// trivially.
		if p.log != nil {
			p.log.Warnf("worker: connector sync not yet implemented, job type=%s", job.Type)
		}
		return nil
	default:
		return fmt.Errorf("worker: unknown job type %q", job.Type)
	}
}

func (p *Pool) handleFileUpload(ctx context.Context, job queue.Job) error {
	var payload FileUploadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("worker: decode file_upload payload: %w", err)
	}

	if err := p.catalog.UpdateJobProgress(ctx, payload.JobID, 0, 1); err != nil && p.log != nil {
		p.log.Warnf("worker: update progress: %v", err)
	}

	doc := connector.FromUploadedText(payload.Filename, payload.Content)
	if _, err := p.pipeline.Ingest(ctx, doc, payload.UserID); err != nil {
		return err
	}

	if err := p.catalog.UpdateJobProgress(ctx, payload.JobID, 1, 1); err != nil && p.log != nil {
		p.log.Warnf("worker: update progress: %v", err)
	}
	return nil
}
