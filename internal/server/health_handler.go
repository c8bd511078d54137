// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"net/http"

	"github.com/northbound/cortex/internal/catalog"
	"github.com/northbound/cortex/internal/vectorstore"
)

// HealthHandler reports catalog and vector store reachability.
type HealthHandler struct {
	catalog *catalog.Store
	vectors vectorstore.VectorStore
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cat *catalog.Store, vectors vectorstore.VectorStore) *HealthHandler {
	return &HealthHandler{catalog: cat, vectors: vectors}
}

// healthResponse mirrors the status payload the operator dashboard polls.
type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// HandleHealth handles GET /api/v1/health requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}

	ctx := r.Context()
	services := map[string]string{
		"postgres": "up",
		"weaviate": "up",
	}

	if err := h.catalog.Ping(ctx); err != nil {
		services["postgres"] = "down"
	}
	if !h.vectors.HealthCheck(ctx) {
		services["weaviate"] = "down"
	}

	status := "ok"
	for _, s := range services {
		if s != "up" {
			status = "degraded"
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthResponse{Status: status, Services: services})
}
