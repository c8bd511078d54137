// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package vectorstore is the Chunk object store: schema bootstrap, batch
// upsert of externally-embedded chunks, hybrid search, and document-scoped
// delete. It is backed by Qdrant; HNSW parameters and the hybrid-search
// blend follow the contract the rest of the system expects regardless of
// which vector engine sits underneath.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/logger"
)

// Chunk is the unit of indexing and retrieval.
type Chunk struct {
	ID            ids.ChunkId
	DocumentID    ids.DocumentId
	UserID        ids.UserId
	Text          string
	SourceType    ids.SourceType
	DocumentTitle string
	SourceURL     *string
	ChunkIndex    int
	SectionTitle  *string
	Metadata      json.RawMessage
}

// SearchResult is one hit returned from HybridSearch.
type SearchResult struct {
	ChunkID       ids.ChunkId
	DocumentID    ids.DocumentId
	Text          string
	Score         float32
	DocumentTitle string
	SourceType    ids.SourceType
	SourceURL     *string
	SectionTitle  *string
}

// hnsw parameters, fixed per the Chunk schema's bootstrap contract.
const (
	hnswEf             = 256
	hnswEfConstruction = 128
	hnswMaxConnections = 64
	// overFetchFactor widens the dense kNN candidate set before the
	// client-side lexical rescore, so the alpha blend has enough
	// keyword-relevant candidates to promote even when they rank low on
	// pure vector similarity.
	overFetchFactor = 4
)

// Store is the Qdrant-backed implementation of the Chunk vector store.
type Store struct {
	conn        *grpc.ClientConn
	collections qdrant.CollectionsClient
	points      qdrant.PointsClient
	collection  string
	log         *logger.Logger
}

// Dial connects to Qdrant over gRPC at addr. The configured URL may carry
// an http:// prefix; gRPC targets are host:port, so it is stripped.
func Dial(addr string, collection string, log *logger.Logger) (*Store, error) {
	addr = strings.TrimPrefix(strings.TrimPrefix(addr, "http://"), "https://")
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		collections: qdrant.NewCollectionsClient(conn),
		points:      qdrant.NewPointsClient(conn),
		collection:  collection,
		log:         log,
	}, nil
}

// Close releases the gRPC connection.
func (s *Store) Close() error { return s.conn.Close() }

// EnsureSchema idempotently creates the collection named at Dial with cosine
// distance and the HNSW parameters the schema specifies. Vectors are
// supplied externally (vectorizer=none): Qdrant has no concept of a
// vectorizer, so this is simply "never compute embeddings server-side",
// which already holds for every write path in this package.
func (s *Store) EnsureSchema(ctx context.Context, dimension int) error {
	list, err := s.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorstore: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	ef := uint64(hnswEfConstruction)
	m := uint64(hnswMaxConnections)
	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
					HnswConfig: &qdrant.HnswConfigDiff{
						M:           &m,
						EfConstruct: &ef,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", s.collection, err)
	}
	if s.log != nil {
		s.log.Printf("vectorstore: created collection %s (dim=%d)", s.collection, dimension)
	}
	return nil
}

// BatchUpsertChunks writes chunks paired one-to-one with their embedding
// vectors. Metadata is JSON-stringified at the boundary because Qdrant's
// payload indexing rejects nested objects as filterable fields.
func (s *Store) BatchUpsertChunks(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("vectorstore: chunk/vector length mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		metadata := "{}"
		if len(c.Metadata) > 0 {
			metadata = string(c.Metadata)
		}

		payload := map[string]*qdrant.Value{
			"text":           stringValue(c.Text),
			"documentId":     stringValue(c.DocumentID.String()),
			"userId":         stringValue(c.UserID.String()),
			"sourceType":     stringValue(c.SourceType.String()),
			"documentTitle":  stringValue(c.DocumentTitle),
			"chunkIndex":     &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(c.ChunkIndex)}},
			"metadata":       stringValue(metadata),
		}
		if c.SourceURL != nil {
			payload["sourceUrl"] = stringValue(*c.SourceURL)
		}
		if c.SectionTitle != nil {
			payload["sectionTitle"] = stringValue(*c.SectionTitle)
		}

		points[i] = &qdrant.PointStruct{
			Id: &qdrant.PointId{
				PointIdOptions: &qdrant.PointId_Uuid{Uuid: c.ID.String()},
			},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{Data: vectors[i]},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert %d chunks: %w", len(chunks), err)
	}
	return nil
}

// HybridSearch blends dense-vector similarity with client-side lexical
// scoring. The where predicate is always userId == userID, AND'd with
// sourceType == *sourceFilter when provided. alpha=1.0 is pure vector,
// alpha=0.0 is pure lexical.
func (s *Store) HybridSearch(ctx context.Context, queryText string, queryVector []float32, userID ids.UserId, sourceFilter *ids.SourceType, limit int, alpha float32) ([]SearchResult, error) {
	must := []*qdrant.Condition{fieldMatch("userId", userID.String())}
	if sourceFilter != nil {
		must = append(must, fieldMatch("sourceType", sourceFilter.String()))
	}

	fetchLimit := limit * overFetchFactor
	if fetchLimit < limit {
		fetchLimit = limit
	}

	ef := uint64(hnswEf)
	resp, err := s.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         queryVector,
		Limit:          uint64(fetchLimit),
		Filter:         &qdrant.Filter{Must: must},
		Params:         &qdrant.SearchParams{HnswEf: &ef},
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	queryTerms := tokenize(queryText)
	scored := make([]scoredResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		sr, err := resultFromPayload(point.GetPayload())
		if err != nil {
			if s.log != nil {
				s.log.Warnf("vectorstore: skipping malformed point: %v", err)
			}
			continue
		}
		if chunkID, err := ids.ParseChunkId(point.GetId().GetUuid()); err == nil {
			sr.ChunkID = chunkID
		}
		lexical := lexicalScore(queryTerms, sr.Text, sr.DocumentTitle)
		blended := alpha*point.GetScore() + (1-alpha)*lexical
		scored = append(scored, scoredResult{SearchResult: sr, blended: blended})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].blended > scored[j].blended })

	if limit > len(scored) {
		limit = len(scored)
	}
	out := make([]SearchResult, limit)
	for i := 0; i < limit; i++ {
		out[i] = scored[i].SearchResult
		out[i].Score = scored[i].blended
	}
	return out, nil
}

// DeleteChunksByDocument removes every chunk belonging to a document. This
// is a best-effort operation at the call site: the pipeline logs and
// continues on error.
func (s *Store) DeleteChunksByDocument(ctx context.Context, documentID ids.DocumentId) error {
	wait := true
	_, err := s.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{fieldMatch("documentId", documentID.String())},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete chunks for document %s: %w", documentID, err)
	}
	return nil
}

// HealthCheck reports whether the collection is reachable.
func (s *Store) HealthCheck(ctx context.Context) bool {
	_, err := s.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	return err == nil
}

type scoredResult struct {
	SearchResult
	blended float32
}

func resultFromPayload(payload map[string]*qdrant.Value) (SearchResult, error) {
	get := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}

	docID, err := ids.ParseDocumentId(get("documentId"))
	if err != nil {
		return SearchResult{}, fmt.Errorf("payload documentId: %w", err)
	}
	sourceType, err := ids.ParseSourceType(get("sourceType"))
	if err != nil {
		return SearchResult{}, fmt.Errorf("payload sourceType: %w", err)
	}

	sr := SearchResult{
		DocumentID:    docID,
		Text:          get("text"),
		DocumentTitle: get("documentTitle"),
		SourceType:    sourceType,
	}
	if v := get("sourceUrl"); v != "" {
		sr.SourceURL = &v
	}
	if v := get("sectionTitle"); v != "" {
		sr.SectionTitle = &v
	}
	return sr, nil
}

// tokenize lower-cases and splits on whitespace; this is deliberately the
// simplest possible lexical signal, not a BM25 implementation.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// lexicalScore is a bounded term-overlap score in [0,1]: the fraction of
// query terms present in the candidate's text or title.
func lexicalScore(queryTerms []string, fields ...string) float32 {
	if len(queryTerms) == 0 {
		return 0
	}
	haystack := strings.ToLower(strings.Join(fields, " "))
	hits := 0
	for _, term := range queryTerms {
		if strings.Contains(haystack, term) {
			hits++
		}
	}
	return float32(hits) / float32(len(queryTerms))
}

func fieldMatch(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}
