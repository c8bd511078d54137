// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/northbound/cortex/internal/catalog"
	"github.com/northbound/cortex/internal/connector"
	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/mlclient"
	"github.com/northbound/cortex/internal/vectorstore"
)

func newTestPipeline(t *testing.T, ml mlclient.API) (*Pipeline, *catalog.Store, *vectorstore.InMemoryStore) {
	t.Helper()
	cat, err := catalog.Open(":memory:", nil)
	if err != nil {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	vectors := vectorstore.NewInMemoryStore()
	return New(cat, vectors, ml, nil), cat, vectors
}

func TestIngestIndexesDocument(t *testing.T) {
	p, cat, vectors := newTestPipeline(t, mlclient.NewMockClient(16))
	ctx := context.Background()
	user := ids.NewUserId()

	doc := connector.FromUploadedText("notes.txt", "Hello world.")
	res, err := p.Ingest(ctx, doc, user)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Outcome != Indexed {
		t.Fatalf("outcome = %v, want Indexed", res.Outcome)
	}
	if res.ChunkCount != 1 {
		t.Errorf("chunk count = %d, want 1", res.ChunkCount)
	}

	docs, err := cat.ListDocuments(ctx, user, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document row, got %d", len(docs))
	}
	if docs[0].ChunkCount != 1 {
		t.Errorf("catalog chunk_count = %d, want 1", docs[0].ChunkCount)
	}
	if vectors.Count() != 1 {
		t.Errorf("vector store chunk count = %d, want 1", vectors.Count())
	}
}

func TestIngestSameHashIsNoOp(t *testing.T) {
	p, cat, vectors := newTestPipeline(t, mlclient.NewMockClient(16))
	ctx := context.Background()
	user := ids.NewUserId()

	first := connector.FromUploadedText("notes.txt", "Hello world.")
	if _, err := p.Ingest(ctx, first, user); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	countAfterFirst := vectors.Count()

	// Same content, different filename: the hash matches, so the second
	// ingest must skip without touching either store.
	second := connector.FromUploadedText("renamed.txt", "Hello world.")
	res, err := p.Ingest(ctx, second, user)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if res.Outcome != Skipped {
		t.Fatalf("outcome = %v, want Skipped", res.Outcome)
	}

	docs, err := cat.ListDocuments(ctx, user, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected a single document row after dedup, got %d", len(docs))
	}
	if vectors.Count() != countAfterFirst {
		t.Errorf("vector store changed on skipped ingest: %d -> %d", countAfterFirst, vectors.Count())
	}
}

func TestIngestEmptyContentSkips(t *testing.T) {
	p, _, vectors := newTestPipeline(t, mlclient.NewMockClient(16))
	ctx := context.Background()

	doc := connector.FromUploadedText("empty.txt", "   \n\n  ")
	res, err := p.Ingest(ctx, doc, ids.NewUserId())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Outcome != Skipped {
		t.Fatalf("outcome = %v, want Skipped for whitespace-only content", res.Outcome)
	}
	if vectors.Count() != 0 {
		t.Errorf("expected no chunks for whitespace-only content, got %d", vectors.Count())
	}
}

func TestIngestChunkIndexesAreContiguous(t *testing.T) {
	p, cat, vectors := newTestPipeline(t, mlclient.NewMockClient(16))
	ctx := context.Background()
	user := ids.NewUserId()

	// Three long paragraphs force multiple chunks under the pdf_upload
	// strategy.
	para := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)
	content := para + "\n\n" + para + "\n\n" + para

	doc := connector.FromUploadedText("long.txt", content)
	res, err := p.Ingest(ctx, doc, user)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.ChunkCount < 3 {
		t.Fatalf("expected >= 3 chunks for 3 long paragraphs, got %d", res.ChunkCount)
	}

	docs, err := cat.ListDocuments(ctx, user, nil, 10, 0)
	if err != nil || len(docs) != 1 {
		t.Fatalf("ListDocuments: %v (%d rows)", err, len(docs))
	}

	stored := vectors.ChunksForDocument(docs[0].ID)
	if len(stored) != res.ChunkCount {
		t.Fatalf("stored %d chunks, reported %d", len(stored), res.ChunkCount)
	}
	for i, c := range stored {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d, want a contiguous 0..n prefix", i, c.ChunkIndex)
		}
		if c.UserID != user {
			t.Errorf("chunk %d missing owning user id", i)
		}
	}
}

type failingEmbedder struct {
	mlclient.MockClient
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	return nil, errors.New("ml service unreachable")
}

func TestIngestEmbedFailureLeavesNoState(t *testing.T) {
	p, cat, vectors := newTestPipeline(t, &failingEmbedder{})
	ctx := context.Background()
	user := ids.NewUserId()

	doc := connector.FromUploadedText("notes.txt", "Hello world.")
	if _, err := p.Ingest(ctx, doc, user); err == nil {
		t.Fatal("expected error when embedding fails")
	}

	docs, err := cat.ListDocuments(ctx, user, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no document row after embed failure, got %d", len(docs))
	}
	if vectors.Count() != 0 {
		t.Errorf("expected no chunks after embed failure, got %d", vectors.Count())
	}
}
