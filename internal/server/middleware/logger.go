// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package middleware holds the HTTP middleware stack. TrafficLogger is the
// only member: request/response logging that stays out of the way of the
// SSE chat stream.
package middleware

import (
	"net/http"
	"time"

	"github.com/northbound/cortex/internal/logger"
)

// TrafficLogger logs one entry and one exit line per request. The health
// endpoint is polled by orchestrators and is only logged when it fails or
// is slow. The wrapped ResponseWriter preserves http.Flusher so the /chat
// SSE stream can still flush frame by frame.
func TrafficLogger(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		polling := r.URL.Path == "/api/v1/health"

		if !polling {
			log.Printf("[HTTP] -> %s %s", r.Method, r.URL.Path)
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		var rw http.ResponseWriter = rec
		if flusher, ok := w.(http.Flusher); ok {
			rw = &flushingRecorder{statusRecorder: rec, flusher: flusher}
		}

		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		if !polling || rec.status >= 400 || elapsed > time.Second {
			log.Printf("[HTTP] <- %d (%s) %s %s", rec.status, elapsed, r.Method, r.URL.Path)
		}
	})
}

// statusRecorder captures the response status code for the exit line.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// flushingRecorder keeps the Flusher interface visible through the wrapper.
type flushingRecorder struct {
	*statusRecorder
	flusher http.Flusher
}

func (f *flushingRecorder) Flush() { f.flusher.Flush() }
