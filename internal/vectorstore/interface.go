package vectorstore

import (
	"context"

	"github.com/northbound/cortex/internal/ids"
)

// VectorStore is the contract the ingestion pipeline and query path depend
// on. *Store is the Qdrant-backed production implementation; *InMemoryStore
// is a test double with identical semantics over an in-process map.
type VectorStore interface {
	EnsureSchema(ctx context.Context, dimension int) error
	BatchUpsertChunks(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	HybridSearch(ctx context.Context, queryText string, queryVector []float32, userID ids.UserId, sourceFilter *ids.SourceType, limit int, alpha float32) ([]SearchResult, error)
	DeleteChunksByDocument(ctx context.Context, documentID ids.DocumentId) error
	HealthCheck(ctx context.Context) bool
}

var (
	_ VectorStore = (*Store)(nil)
	_ VectorStore = (*InMemoryStore)(nil)
)
