package catalog

import (
	"context"
	"testing"

	"github.com/northbound/cortex/internal/ids"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateDocumentUpsertsByNaturalKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := ids.NewUserId()

	create := CreateDocument{
		UserID:      user,
		SourceType:  ids.SourcePdfUpload,
		SourceID:    "src-1",
		Title:       "First Title",
		ContentHash: "hash-a",
		ChunkCount:  2,
	}

	id1, err := s.CreateDocument(ctx, create)
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	create.Title = "Updated Title"
	create.ContentHash = "hash-b"
	create.ChunkCount = 5
	if _, err := s.CreateDocument(ctx, create); err != nil {
		t.Fatalf("CreateDocument (conflict): %v", err)
	}

	docs, err := s.ListDocuments(ctx, user, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected exactly one document row after upsert, got %d", len(docs))
	}
	if docs[0].Title != "Updated Title" || docs[0].ChunkCount != 5 {
		t.Errorf("upsert did not apply update: %+v", docs[0])
	}

	doc, err := s.GetDocument(ctx, id1)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc == nil {
		t.Fatal("expected first minted id to still resolve to a row (see DESIGN.md open question 1)")
	}
}

func TestHasContentHashDedup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := ids.NewUserId()

	exists, err := s.HasContentHash(ctx, user, ids.SourcePdfUpload, "abc")
	if err != nil {
		t.Fatalf("HasContentHash: %v", err)
	}
	if exists {
		t.Fatal("expected no content hash before ingest")
	}

	if _, err := s.CreateDocument(ctx, CreateDocument{
		UserID: user, SourceType: ids.SourcePdfUpload, SourceID: "s1",
		Title: "T", ContentHash: "abc", ChunkCount: 1,
	}); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	exists, err = s.HasContentHash(ctx, user, ids.SourcePdfUpload, "abc")
	if err != nil {
		t.Fatalf("HasContentHash: %v", err)
	}
	if !exists {
		t.Fatal("expected content hash to exist after ingest")
	}
}

func TestJobStatusTransitions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := ids.NewUserId()

	jobID, err := s.CreateJob(ctx, CreateJob{UserID: user, JobType: ids.JobFileUpload})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	job, err := s.GetJob(ctx, jobID)
	if err != nil || job == nil {
		t.Fatalf("GetJob after create: %v", err)
	}
	if job.Status != ids.JobQueued {
		t.Errorf("new job status = %q, want queued", job.Status)
	}

	if err := s.UpdateJobStatus(ctx, jobID, ids.JobRunning, nil); err != nil {
		t.Fatalf("UpdateJobStatus(running): %v", err)
	}
	job, _ = s.GetJob(ctx, jobID)
	if job.StartedAt == nil {
		t.Error("expected started_at to be set on entering running")
	}

	errMsg := "ml service unreachable"
	if err := s.UpdateJobStatus(ctx, jobID, ids.JobFailed, &errMsg); err != nil {
		t.Fatalf("UpdateJobStatus(failed): %v", err)
	}
	job, _ = s.GetJob(ctx, jobID)
	if job.Status != ids.JobFailed {
		t.Errorf("job status = %q, want failed", job.Status)
	}
	if job.CompletedAt == nil {
		t.Error("expected completed_at to be set on terminal transition")
	}
	if job.ErrorMessage == nil || *job.ErrorMessage != errMsg {
		t.Errorf("error message = %v, want %q", job.ErrorMessage, errMsg)
	}
}

func TestUpdateJobStatusPreservesErrorWhenNil(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := ids.NewUserId()

	jobID, err := s.CreateJob(ctx, CreateJob{UserID: user, JobType: ids.JobFileUpload})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	errMsg := "boom"
	if err := s.UpdateJobStatus(ctx, jobID, ids.JobFailed, &errMsg); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}
	// A later status write with a nil error must not clobber the existing message.
	if err := s.UpdateJobStatus(ctx, jobID, ids.JobFailed, nil); err != nil {
		t.Fatalf("UpdateJobStatus (nil error): %v", err)
	}

	job, _ := s.GetJob(ctx, jobID)
	if job.ErrorMessage == nil || *job.ErrorMessage != errMsg {
		t.Errorf("error message was clobbered: got %v, want %q", job.ErrorMessage, errMsg)
	}
}

func TestDeleteDocumentReportsRowsAffected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := ids.NewUserId()

	id, err := s.CreateDocument(ctx, CreateDocument{
		UserID: user, SourceType: ids.SourcePdfUpload, SourceID: "s1",
		Title: "T", ContentHash: "h", ChunkCount: 1,
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	deleted, err := s.DeleteDocument(ctx, id)
	if err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if !deleted {
		t.Error("expected true when a row was deleted")
	}

	deleted, err = s.DeleteDocument(ctx, id)
	if err != nil {
		t.Fatalf("DeleteDocument (again): %v", err)
	}
	if deleted {
		t.Error("expected false when no row matched")
	}
}

func TestConnectorUpsertAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := ids.NewUserId()

	c := Connector{
		ID:         ids.NewConnectorId(),
		UserID:     user,
		SourceType: ids.SourceNotion,
		Status:     ids.ConnectorPending,
	}
	if err := s.UpsertConnector(ctx, c); err != nil {
		t.Fatalf("UpsertConnector: %v", err)
	}

	c.Status = ids.ConnectorConnected
	cursor := "cursor-1"
	c.SyncCursor = &cursor
	if err := s.UpsertConnector(ctx, c); err != nil {
		t.Fatalf("UpsertConnector (update): %v", err)
	}

	got, err := s.GetConnector(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetConnector: %v", err)
	}
	if got == nil {
		t.Fatal("expected connector row")
	}
	if got.Status != ids.ConnectorConnected {
		t.Errorf("status = %q, want connected after upsert-update", got.Status)
	}
	if got.SyncCursor == nil || *got.SyncCursor != cursor {
		t.Errorf("sync cursor = %v, want %q", got.SyncCursor, cursor)
	}

	all, err := s.ListConnectors(ctx, user)
	if err != nil {
		t.Fatalf("ListConnectors: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 connector, got %d", len(all))
	}
}
