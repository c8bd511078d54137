// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/northbound/cortex/internal/apperr"
	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/mlclient"
	"github.com/northbound/cortex/internal/query"
)

const defaultChatProvider = "claude"

// ChatRequest represents a chat request
type ChatRequest struct {
	Query        string `json:"query"`
	UserID       string `json:"user_id"`
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
	SourceFilter string `json:"source_filter,omitempty"`
}

// ChatHandler streams an SSE answer assembled from a reranked, cited
// retrieval over the vector store.
type ChatHandler struct {
	query    *query.Service
	ml       mlclient.API
	defaults RetrievalDefaults
}

// NewChatHandler creates a new chat handler
func NewChatHandler(q *query.Service, ml mlclient.API, defaults RetrievalDefaults) *ChatHandler {
	return &ChatHandler{query: q, ml: ml, defaults: defaults}
}

// HandleChat handles POST /api/v1/chat. The response is a Server-Sent
// Events stream: exactly one citations event, then any number of text
// events, then exactly one done or error event.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apperr.BadRequest(fmt.Sprintf("invalid JSON: %v", err)))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeErr(w, apperr.BadRequest("query cannot be empty"))
		return
	}
	userID, err := ids.ParseUserId(req.UserID)
	if err != nil {
		writeErr(w, apperr.BadRequest("user_id is required and must be a valid UUID"))
		return
	}

	var sourceFilter *ids.SourceType
	if req.SourceFilter != "" {
		st, err := ids.ParseSourceType(req.SourceFilter)
		if err != nil {
			writeErr(w, apperr.BadRequest(fmt.Sprintf("invalid source_filter: %v", err)))
			return
		}
		sourceFilter = &st
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.defaults.ChatTopK
	}
	provider := req.Provider
	if provider == "" {
		provider = defaultChatProvider
	}

	ctx := r.Context()
	plan, err := h.query.PlanChat(ctx, req.Query, userID, sourceFilter, topK)
	if err != nil {
		writeErr(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErr(w, apperr.Internal("streaming unsupported by response writer"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, "citations", plan.Citations)
	flusher.Flush()

	genErr := h.ml.GenerateStream(ctx, req.Query, plan.SystemPrompt, provider, req.Model, func(chunk mlclient.GenerateChunk) error {
		writeSSE(w, "text", map[string]string{"text": chunk.Text})
		flusher.Flush()
		return nil
	})

	if genErr != nil {
		writeSSE(w, "error", map[string]string{"error": apperr.WireMessage(genErr)})
	} else {
		writeSSE(w, "done", map[string]string{})
	}
	flusher.Flush()
}

// writeSSE writes one Server-Sent Events frame: an "event:" line naming the
// frame type and a single "data:" line carrying payload as JSON.
func writeSSE(w http.ResponseWriter, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
