// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package ingestion orchestrates one document through dedupe, parse,
// chunk, embed, persist, and index. The catalog row is always created
// before its chunks, and any prior chunks stored under the document ID
// returned by the catalog are deleted before the new ones are inserted.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/northbound/cortex/internal/catalog"
	"github.com/northbound/cortex/internal/chunker"
	"github.com/northbound/cortex/internal/connector"
	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/logger"
	"github.com/northbound/cortex/internal/mlclient"
	"github.com/northbound/cortex/internal/parser"
	"github.com/northbound/cortex/internal/vectorstore"
)

// Outcome is the result of one ingest call.
type Outcome int

const (
	// Indexed means the document was parsed, chunked, embedded, and
	// persisted.
	Indexed Outcome = iota
	// Skipped means the content hash was already indexed, or the content
	// produced zero chunks.
	Skipped
)

// Result carries the outcome and, for Indexed, the number of chunks
// written.
type Result struct {
	Outcome    Outcome
	ChunkCount int
}

// Pipeline wires the catalog, vector store, and ML client together.
type Pipeline struct {
	catalog *catalog.Store
	vectors vectorstore.VectorStore
	ml      mlclient.API
	log     *logger.Logger
}

// New constructs a Pipeline.
func New(cat *catalog.Store, vectors vectorstore.VectorStore, ml mlclient.API, log *logger.Logger) *Pipeline {
	return &Pipeline{catalog: cat, vectors: vectors, ml: ml, log: log}
}

// Ingest runs the dedupe -> parse -> chunk -> embed -> persist -> purge ->
// upsert sequence for one document, owned by userID.
func (p *Pipeline) Ingest(ctx context.Context, doc connector.RawDocument, userID ids.UserId) (Result, error) {
	// 1. Dedupe by content hash.
	exists, err := p.catalog.HasContentHash(ctx, userID, doc.SourceType, doc.ContentHash)
	if err != nil {
		return Result{}, fmt.Errorf("ingestion: dedupe check: %w", err)
	}
	if exists {
		if p.log != nil {
			p.log.Debugf("ingestion: source_id=%s unchanged, skipping", doc.SourceID)
		}
		return Result{Outcome: Skipped}, nil
	}

	// 2. Parse into sections.
	parsed := parser.Parse(doc.Title, doc.Content)

	// 3. Select chunking strategy and chunk each section independently,
	// preserving section order.
	tokenCount := chunker.EstimateTokens(doc.Content)
	strategy := chunker.SelectStrategy(doc.SourceType, tokenCount)

	var chunks []chunker.TextChunk
	for _, section := range parsed.Sections {
		chunks = append(chunks, chunker.Chunk(section.Content, section.Title, strategy)...)
	}

	if len(chunks) == 0 {
		if p.log != nil {
			p.log.Warnf("ingestion: source_id=%s produced no chunks, skipping", doc.SourceID)
		}
		return Result{Outcome: Skipped}, nil
	}

	// 4. Embed. Failure here is a hard error: no partial persistence.
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.ml.EmbedBatch(ctx, texts, "")
	if err != nil {
		return Result{}, fmt.Errorf("ingestion: embed batch: %w", err)
	}
	if len(vectors) != len(chunks) {
		return Result{}, fmt.Errorf("ingestion: embed batch returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	// 5. Persist the catalog row (upsert by natural key).
	metadata := doc.Metadata
	if metadata == nil {
		metadata = json.RawMessage("{}")
	}
	var mimeType *string
	if doc.MimeType != "" {
		mt := doc.MimeType
		mimeType = &mt
	}
	docID, err := p.catalog.CreateDocument(ctx, catalog.CreateDocument{
		UserID:      userID,
		SourceType:  doc.SourceType,
		SourceID:    doc.SourceID,
		Title:       doc.Title,
		SourceURL:   doc.SourceURL,
		ContentHash: doc.ContentHash,
		ChunkCount:  len(chunks),
		MimeType:    mimeType,
		Metadata:    metadata,
	})
	if err != nil {
		return Result{}, fmt.Errorf("ingestion: persist document: %w", err)
	}

	// 6. Best-effort purge of any prior chunks for this document.
	if err := p.vectors.DeleteChunksByDocument(ctx, docID); err != nil {
		if p.log != nil {
			p.log.Warnf("ingestion: purge prior chunks for document %s: %v", docID, err)
		}
	}

	// 7. Batch upsert chunks, chunk_index = position in the ordered
	// sequence.
	vsChunks := make([]vectorstore.Chunk, len(chunks))
	for i, c := range chunks {
		var sectionTitle *string
		if c.SectionTitle != "" {
			st := c.SectionTitle
			sectionTitle = &st
		}
		vsChunks[i] = vectorstore.Chunk{
			ID:            ids.NewChunkId(),
			DocumentID:    docID,
			UserID:        userID,
			Text:          c.Text,
			SourceType:    doc.SourceType,
			DocumentTitle: doc.Title,
			SourceURL:     doc.SourceURL,
			ChunkIndex:    i,
			SectionTitle:  sectionTitle,
			Metadata:      metadata,
		}
	}
	if err := p.vectors.BatchUpsertChunks(ctx, vsChunks, vectors); err != nil {
		return Result{}, fmt.Errorf("ingestion: batch upsert chunks: %w", err)
	}

	if p.log != nil {
		p.log.Printf("ingestion: source_id=%s indexed %d chunks", doc.SourceID, len(chunks))
	}
	return Result{Outcome: Indexed, ChunkCount: len(chunks)}, nil
}
