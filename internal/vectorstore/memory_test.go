package vectorstore

import (
	"context"
	"testing"

	"github.com/northbound/cortex/internal/ids"
)

func TestHybridSearchFiltersByUser(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	u1 := ids.NewUserId()
	u2 := ids.NewUserId()
	docID := ids.NewDocumentId()

	chunk := Chunk{
		ID:            ids.NewChunkId(),
		DocumentID:    docID,
		UserID:        u1,
		Text:          "hello world",
		SourceType:    ids.SourcePdfUpload,
		DocumentTitle: "notes.txt",
	}
	if err := store.BatchUpsertChunks(ctx, []Chunk{chunk}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("BatchUpsertChunks: %v", err)
	}

	results, err := store.HybridSearch(ctx, "hello", []float32{1, 0, 0}, u2, nil, 10, 0.7)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results for a different user, got %d", len(results))
	}

	results, err = store.HybridSearch(ctx, "hello", []float32{1, 0, 0}, u1, nil, 10, 0.7)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result for the owning user, got %d", len(results))
	}
	if results[0].DocumentTitle != "notes.txt" {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestDeleteChunksByDocument(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	user := ids.NewUserId()
	docA := ids.NewDocumentId()
	docB := ids.NewDocumentId()

	chunks := []Chunk{
		{ID: ids.NewChunkId(), DocumentID: docA, UserID: user, Text: "a", SourceType: ids.SourcePdfUpload},
		{ID: ids.NewChunkId(), DocumentID: docB, UserID: user, Text: "b", SourceType: ids.SourcePdfUpload},
	}
	vectors := [][]float32{{1, 0}, {0, 1}}
	if err := store.BatchUpsertChunks(ctx, chunks, vectors); err != nil {
		t.Fatalf("BatchUpsertChunks: %v", err)
	}

	if err := store.DeleteChunksByDocument(ctx, docA); err != nil {
		t.Fatalf("DeleteChunksByDocument: %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 chunk remaining, got %d", store.Count())
	}
}

func TestBatchUpsertChunksRejectsLengthMismatch(t *testing.T) {
	store := NewInMemoryStore()
	err := store.BatchUpsertChunks(context.Background(), []Chunk{{}}, nil)
	if err == nil {
		t.Fatal("expected error for mismatched chunk/vector lengths")
	}
}

func TestAlphaZeroIsPureLexical(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	user := ids.NewUserId()

	matching := Chunk{ID: ids.NewChunkId(), DocumentID: ids.NewDocumentId(), UserID: user, Text: "qdrant hybrid search", SourceType: ids.SourcePdfUpload}
	nonMatching := Chunk{ID: ids.NewChunkId(), DocumentID: ids.NewDocumentId(), UserID: user, Text: "completely unrelated content", SourceType: ids.SourcePdfUpload}

	// Give the non-matching chunk the higher raw vector similarity so a
	// pure-lexical (alpha=0) search must still rank the matching one first.
	if err := store.BatchUpsertChunks(ctx, []Chunk{matching, nonMatching}, [][]float32{{0, 1}, {1, 0}}); err != nil {
		t.Fatalf("BatchUpsertChunks: %v", err)
	}

	results, err := store.HybridSearch(ctx, "qdrant hybrid", []float32{1, 0}, user, nil, 10, 0.0)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != matching.Text {
		t.Errorf("alpha=0 should rank lexical match first, got %q first", results[0].Text)
	}
}
