// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/northbound/cortex/internal/apperr"
	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/query"
)

// RetrievalDefaults are the config-supplied values applied when a request
// omits the corresponding field.
type RetrievalDefaults struct {
	SearchTopK  int
	SearchAlpha float32
	ChatTopK    int
}

// SearchRequest represents the search request payload. TopK and Alpha are
// pointers so an explicit 0 (empty result set, pure-lexical blend) is
// distinguishable from an omitted field.
type SearchRequest struct {
	Query        string   `json:"query"`
	UserID       string   `json:"user_id"`
	TopK         *int     `json:"top_k"`
	Alpha        *float32 `json:"alpha"`
	SourceFilter string   `json:"source_filter,omitempty"`
}

// SearchMatch is one hit in a search response.
type SearchMatch struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	Text          string  `json:"text"`
	Score         float32 `json:"score"`
	DocumentTitle string  `json:"document_title"`
	SourceType    string  `json:"source_type"`
	SourceURL     *string `json:"source_url,omitempty"`
}

// SearchResponse represents the search response
type SearchResponse struct {
	Query   string        `json:"query"`
	Results []SearchMatch `json:"results"`
	Total   int           `json:"total"`
}

// SearchHandler holds dependencies for the search handler
type SearchHandler struct {
	query    *query.Service
	defaults RetrievalDefaults
}

// NewSearchHandler creates a new search handler with dependencies
func NewSearchHandler(q *query.Service, defaults RetrievalDefaults) *SearchHandler {
	return &SearchHandler{query: q, defaults: defaults}
}

// HandleSearch handles POST /api/v1/search requests
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apperr.BadRequest(fmt.Sprintf("invalid JSON: %v", err)))
		return
	}

	userID, err := ids.ParseUserId(req.UserID)
	if err != nil {
		writeErr(w, apperr.BadRequest("user_id is required and must be a valid UUID"))
		return
	}

	topK := h.defaults.SearchTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	alpha := h.defaults.SearchAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
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

	results, err := h.query.Search(r.Context(), req.Query, userID, sourceFilter, topK, alpha)
	if err != nil {
		writeErr(w, err)
		return
	}

	matches := make([]SearchMatch, len(results))
	for i, res := range results {
		matches[i] = SearchMatch{
			ChunkID:       res.ChunkID.String(),
			DocumentID:    res.DocumentID.String(),
			Text:          res.Text,
			Score:         res.Score,
			DocumentTitle: res.DocumentTitle,
			SourceType:    res.SourceType.String(),
			SourceURL:     res.SourceURL,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SearchResponse{Query: req.Query, Results: matches, Total: len(matches)})
}

// writeErr maps an apperr.Error (or any other error, treated as internal)
// to its HTTP status code and wire message.
func writeErr(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.StatusCode(err))
	json.NewEncoder(w).Encode(map[string]string{"error": apperr.WireMessage(err)})
}
