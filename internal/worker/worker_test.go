// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/northbound/cortex/internal/catalog"
	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/ingestion"
	"github.com/northbound/cortex/internal/mlclient"
	"github.com/northbound/cortex/internal/queue"
	"github.com/northbound/cortex/internal/vectorstore"
)

func newTestPool(t *testing.T) (*Pool, *catalog.Store, queue.Queue) {
	t.Helper()
	cat, err := catalog.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	vectors := vectorstore.NewInMemoryStore()
	ml := mlclient.NewMockClient(16)
	pipeline := ingestion.New(cat, vectors, ml, nil)
	q := queue.NewChannelQueue(0)

	return New(q, cat, pipeline, nil), cat, q
}

func TestPool_FileUploadCompletes(t *testing.T) {
	pool, cat, q := newTestPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userID := ids.NewUserId()
	jobID, err := cat.CreateJob(context.Background(), catalog.CreateJob{UserID: userID, JobType: ids.JobFileUpload})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	payload, _ := json.Marshal(FileUploadPayload{JobID: jobID, UserID: userID, Filename: "notes.txt", Content: "Hello world."})
	if err := q.Enqueue(ctx, queue.Job{Type: JobTypeFileUpload, Payload: payload, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done := make(chan struct{})
	go func() {
		pool.Run(ctx, 1)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		job, err := cat.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if job.Status == ids.JobCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job did not complete in time, status=%s", job.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestPool_UnknownJobTypeFails(t *testing.T) {
	pool, cat, q := newTestPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userID := ids.NewUserId()
	jobID, err := cat.CreateJob(context.Background(), catalog.CreateJob{UserID: userID, JobType: ids.JobReindex})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	payload, _ := json.Marshal(struct {
		JobID ids.JobId `json:"job_id"`
	}{JobID: jobID})
	if err := q.Enqueue(ctx, queue.Job{Type: "bogus", Payload: payload, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done := make(chan struct{})
	go func() {
		pool.Run(ctx, 1)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		job, err := cat.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if job.Status == ids.JobFailed {
			if job.ErrorMessage == nil || *job.ErrorMessage == "" {
				t.Error("expected non-empty error_message on failed job")
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job did not fail in time, status=%s", job.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
