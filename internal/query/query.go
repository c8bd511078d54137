// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package query implements the retrieval path shared by search and chat:
// embed the query, hybrid-search the vector store, and — for chat —
// rerank and assemble a cited, streamed answer.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/northbound/cortex/internal/apperr"
	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/mlclient"
	"github.com/northbound/cortex/internal/vectorstore"
)

const defaultAlpha = 0.7

// Service answers search and chat requests over the vector store.
type Service struct {
	vectors vectorstore.VectorStore
	ml      mlclient.API
}

// New constructs a query Service.
func New(vectors vectorstore.VectorStore, ml mlclient.API) *Service {
	return &Service{vectors: vectors, ml: ml}
}

// Search embeds query and returns the full hybrid-search result list.
func (s *Service) Search(ctx context.Context, query string, userID ids.UserId, sourceFilter *ids.SourceType, topK int, alpha float32) ([]vectorstore.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.BadRequest("query cannot be empty")
	}
	if topK <= 0 {
		return []vectorstore.SearchResult{}, nil
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.vectors.HybridSearch(ctx, query, vector, userID, sourceFilter, topK, alpha)
	if err != nil {
		return nil, apperr.ServiceUnavailable("vector store", err)
	}
	return results, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := s.ml.EmbedBatch(ctx, []string{query}, "")
	if err != nil {
		return nil, apperr.ServiceUnavailable("ML service", err)
	}
	if len(embeddings) == 0 {
		return nil, apperr.Internal("no embedding returned")
	}
	return embeddings[0], nil
}

// Citation is one entry in the citations frame, emitted before any answer
// text. index is the 1-based position matching "[Source N]" in the answer.
type Citation struct {
	Index         int     `json:"index"`
	ChunkID       string  `json:"chunk_id"`
	DocumentTitle string  `json:"document_title"`
	SourceURL     *string `json:"source_url,omitempty"`
	Snippet       string  `json:"snippet"`
}

// systemPromptPreamble mandates [Source N]-style citations; the assembled
// context blocks are appended after it.
const systemPromptPreamble = "You are a helpful AI assistant. Answer the user's question based on the provided context. " +
	"Always cite your sources using [Source N] format. If the context doesn't contain enough " +
	"information to fully answer, say so.\n\nContext:\n"

// ChatPlan is the reranked, citation-bearing plan a chat handler streams
// from: the assembled system prompt and the citations frame to emit first.
type ChatPlan struct {
	SystemPrompt string
	Citations    []Citation
}

// PlanChat embeds the query, over-fetches via hybrid search, reranks, and
// assembles the system prompt plus citation list. The caller is
// responsible for streaming the generation itself.
func (s *Service) PlanChat(ctx context.Context, queryText string, userID ids.UserId, sourceFilter *ids.SourceType, topK int) (ChatPlan, error) {
	if strings.TrimSpace(queryText) == "" {
		return ChatPlan{}, apperr.BadRequest("query cannot be empty")
	}

	vector, err := s.embedQuery(ctx, queryText)
	if err != nil {
		return ChatPlan{}, err
	}

	results, err := s.vectors.HybridSearch(ctx, queryText, vector, userID, sourceFilter, topK*3, defaultAlpha)
	if err != nil {
		return ChatPlan{}, apperr.ServiceUnavailable("vector store", err)
	}

	byChunkID := make(map[string]vectorstore.SearchResult, len(results))
	rerankDocs := make([]mlclient.RerankDocument, len(results))
	for i, r := range results {
		byChunkID[r.ChunkID.String()] = r
		rerankDocs[i] = mlclient.RerankDocument{ID: r.ChunkID.String(), Text: r.Text, Score: r.Score}
	}

	reranked, err := s.ml.Rerank(ctx, queryText, rerankDocs, topK)
	if err != nil {
		return ChatPlan{}, apperr.ServiceUnavailable("ML service rerank", err)
	}

	var blocks []string
	citations := make([]Citation, 0, len(reranked))
	for i, d := range reranked {
		source, ok := byChunkID[d.ID]
		title := "Unknown"
		if ok {
			title = source.DocumentTitle
		}
		blocks = append(blocks, fmt.Sprintf("[Source %d] (%s)\n%s", i+1, title, d.Text))

		c := Citation{Index: i + 1, ChunkID: d.ID, DocumentTitle: title, Snippet: firstRunes(d.Text, 200)}
		if ok {
			c.SourceURL = source.SourceURL
		}
		citations = append(citations, c)
	}

	systemPrompt := systemPromptPreamble + strings.Join(blocks, "\n\n---\n\n")
	return ChatPlan{SystemPrompt: systemPrompt, Citations: citations}, nil
}

// firstRunes returns the first n Unicode scalars of s.
func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
