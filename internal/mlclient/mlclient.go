// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package mlclient

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultEmbedModel = "all-MiniLM-L6-v2"

// EmbeddingDimension is the vector width produced by defaultEmbedModel,
// used to bootstrap the vector store's schema at startup.
const EmbeddingDimension = 384

// API is the contract the ingestion pipeline and query path depend on.
// *Client is the gRPC-backed production implementation; *MockClient is a
// deterministic test double.
type API interface {
	EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error)
	Rerank(ctx context.Context, query string, documents []RerankDocument, topK int) ([]RerankDocument, error)
	GenerateStream(ctx context.Context, prompt, systemPrompt, provider, model string, onChunk func(GenerateChunk) error) error
}

var _ API = (*Client)(nil)

// Client wraps the hand-rolled MlServiceClient with the defaults and
// call-shape the rest of the system expects (embed, rerank, streaming
// generate).
type Client struct {
	conn *grpc.ClientConn
	rpc  MlServiceClient
}

// Dial connects to the ML service over gRPC at addr. The configured URL
// may carry an http:// prefix; gRPC targets are host:port, so it is
// stripped.
func Dial(addr string) (*Client, error) {
	addr = strings.TrimPrefix(strings.TrimPrefix(addr, "http://"), "https://")
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("mlclient: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, rpc: NewMlServiceClient(conn)}, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error { return c.conn.Close() }

// EmbedBatch embeds a batch of texts, returning one vector per text in the
// same order. model defaults to all-MiniLM-L6-v2 when empty.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if model == "" {
		model = defaultEmbedModel
	}
	resp, err := c.rpc.EmbedBatch(ctx, &EmbedRequest{Texts: texts, Model: model})
	if err != nil {
		return nil, fmt.Errorf("mlclient: embed batch: %w", err)
	}
	return resp.Embeddings, nil
}

// Rerank scores (query, document) pairs jointly and returns the top_k
// documents by relevance.
func (c *Client) Rerank(ctx context.Context, query string, documents []RerankDocument, topK int) ([]RerankDocument, error) {
	resp, err := c.rpc.Rerank(ctx, &RerankRequest{
		Query:     query,
		Documents: documents,
		TopK:      int32(topK),
	})
	if err != nil {
		return nil, fmt.Errorf("mlclient: rerank: %w", err)
	}
	return resp.Documents, nil
}

// GenerateStream streams a generation response, invoking onChunk for every
// frame received until the stream yields IsFinal=true or ends. It must not
// buffer the full response before the caller starts consuming chunks.
func (c *Client) GenerateStream(ctx context.Context, prompt, systemPrompt, provider, model string, onChunk func(GenerateChunk) error) error {
	stream, err := c.rpc.Generate(ctx, &GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Provider:     provider,
		Model:        model,
		Temperature:  0.7,
		MaxTokens:    2048,
	})
	if err != nil {
		return fmt.Errorf("mlclient: generate: %w", err)
	}
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("mlclient: generate stream: %w", err)
		}
		if err := onChunk(*chunk); err != nil {
			return err
		}
		if chunk.IsFinal {
			return nil
		}
	}
}
