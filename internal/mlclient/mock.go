// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package mlclient

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// MockClient is a deterministic test double for API: embeddings are a
// hash-seeded unit vector, rerank scores each document by the fraction of
// query terms its text contains and returns the top_k by that score, and
// generation replays a fixed script of chunks.
type MockClient struct {
	Dim            int
	GenerateScript []GenerateChunk
}

// NewMockClient builds a mock with the given embedding dimension and a
// default two-chunk generation script ending in IsFinal.
func NewMockClient(dim int) *MockClient {
	return &MockClient{
		Dim: dim,
		GenerateScript: []GenerateChunk{
			{Text: "Based on the sources, "},
			{Text: "here is the answer.", IsFinal: true},
		},
	}
}

var _ API = (*MockClient)(nil)

func (m *MockClient) EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedOne(t, m.Dim)
	}
	return out, nil
}

func embedOne(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, dim)
	for i := 0; i < dim; i++ {
		vec[i] = float32(math.Sin(float64(seed*uint32(i+1)) * 0.1))
	}
	var sum float32
	for _, v := range vec {
		sum += v * v
	}
	norm := float32(math.Sqrt(float64(sum)))
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (m *MockClient) Rerank(ctx context.Context, query string, documents []RerankDocument, topK int) ([]RerankDocument, error) {
	terms := strings.Fields(strings.ToLower(query))
	scored := make([]RerankDocument, len(documents))
	copy(scored, documents)
	for i := range scored {
		scored[i].Score = overlapScore(terms, scored[i].Text)
	}
	for i := 0; i < len(scored); i++ {
		for j := i + 1; j < len(scored); j++ {
			if scored[j].Score > scored[i].Score {
				scored[i], scored[j] = scored[j], scored[i]
			}
		}
	}
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

func overlapScore(terms []string, text string) float32 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float32(hits) / float32(len(terms))
}

func (m *MockClient) GenerateStream(ctx context.Context, prompt, systemPrompt, provider, model string, onChunk func(GenerateChunk) error) error {
	for _, chunk := range m.GenerateScript {
		if err := onChunk(chunk); err != nil {
			return err
		}
		if chunk.IsFinal {
			return nil
		}
	}
	return nil
}
