package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/northbound/cortex/internal/ids"
)

// InMemoryStore is a test double for VectorStore. It follows the same
// mock-vector-db pattern used elsewhere in this codebase but carries
// enough real state (a map keyed by ChunkId) to exercise filtering and
// hybrid scoring in tests rather than no-op'ing every call.
type InMemoryStore struct {
	mu      sync.Mutex
	schema  bool
	entries map[ids.ChunkId]entry
}

type entry struct {
	chunk  Chunk
	vector []float32
}

// NewInMemoryStore constructs an empty in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[ids.ChunkId]entry)}
}

func (m *InMemoryStore) EnsureSchema(ctx context.Context, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schema = true
	return nil
}

func (m *InMemoryStore) BatchUpsertChunks(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errMismatch(len(chunks), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range chunks {
		m.entries[c.ID] = entry{chunk: c, vector: vectors[i]}
	}
	return nil
}

func (m *InMemoryStore) HybridSearch(ctx context.Context, queryText string, queryVector []float32, userID ids.UserId, sourceFilter *ids.SourceType, limit int, alpha float32) ([]SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queryTerms := tokenize(queryText)
	var scored []scoredResult
	for _, e := range m.entries {
		if e.chunk.UserID != userID {
			continue
		}
		if sourceFilter != nil && e.chunk.SourceType != *sourceFilter {
			continue
		}

		vecScore := cosineSimilarity(queryVector, e.vector)
		lexical := lexicalScore(queryTerms, e.chunk.Text, e.chunk.DocumentTitle)
		blended := alpha*vecScore + (1-alpha)*lexical

		scored = append(scored, scoredResult{
			SearchResult: SearchResult{
				ChunkID:       e.chunk.ID,
				DocumentID:    e.chunk.DocumentID,
				Text:          e.chunk.Text,
				DocumentTitle: e.chunk.DocumentTitle,
				SourceType:    e.chunk.SourceType,
				SourceURL:     e.chunk.SourceURL,
				SectionTitle:  e.chunk.SectionTitle,
			},
			blended: blended,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].blended > scored[j].blended })
	if limit > len(scored) {
		limit = len(scored)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]SearchResult, limit)
	for i := 0; i < limit; i++ {
		out[i] = scored[i].SearchResult
		out[i].Score = scored[i].blended
	}
	return out, nil
}

func (m *InMemoryStore) DeleteChunksByDocument(ctx context.Context, documentID ids.DocumentId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.chunk.DocumentID == documentID {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *InMemoryStore) HealthCheck(ctx context.Context) bool { return true }

// Count returns the number of chunks currently stored, for test assertions.
func (m *InMemoryStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ChunksForDocument returns the stored chunks for one document ordered by
// chunk index, for test assertions.
func (m *InMemoryStore) ChunksForDocument(documentID ids.DocumentId) []Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Chunk
	for _, e := range m.entries {
		if e.chunk.DocumentID == documentID {
			out = append(out, e.chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}

func errMismatch(n, m int) error {
	return fmt.Errorf("vectorstore: chunk/vector length mismatch: %d chunks, %d vectors", n, m)
}
