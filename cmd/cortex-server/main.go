// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/northbound/cortex/internal/catalog"
	"github.com/northbound/cortex/internal/config"
	"github.com/northbound/cortex/internal/ingestion"
	"github.com/northbound/cortex/internal/logger"
	"github.com/northbound/cortex/internal/mlclient"
	"github.com/northbound/cortex/internal/query"
	"github.com/northbound/cortex/internal/queue"
	"github.com/northbound/cortex/internal/server"
	"github.com/northbound/cortex/internal/server/middleware"
	"github.com/northbound/cortex/internal/vectorstore"
	"github.com/northbound/cortex/internal/worker"
)

var dbPath = flag.String("db-path", "", "sqlite catalog path (overrides DATABASE_URL)")

func main() {
	logFile := "cortex-server.log"
	if _, err := logger.Init(logFile); err != nil {
		fmt.Printf("failed to initialize logger: %v, using stdout only\n", err)
	} else {
		logger.Printf("logger initialized, writing to %s", logFile)
	}
	log := logger.GetDefault()

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	cat, err := catalog.Open(catalogDSN(cfg, log), log)
	if err != nil {
		logger.Fatalf("failed to open catalog: %v", err)
	}
	defer cat.Close()

	vectors, err := vectorstore.Dial(cfg.WeaviateURL, "chunks", log)
	if err != nil {
		logger.Fatalf("failed to connect to vector store: %v", err)
	}
	defer vectors.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := vectors.EnsureSchema(ctx, mlclient.EmbeddingDimension); err != nil {
		cancel()
		logger.Fatalf("failed to bootstrap vector store schema: %v", err)
	}
	cancel()

	ml, err := mlclient.Dial(cfg.MlServiceURL)
	if err != nil {
		logger.Fatalf("failed to connect to ML service: %v", err)
	}
	defer ml.Close()

	jobQueue, err := buildQueue(cfg, log)
	if err != nil {
		logger.Fatalf("failed to build job queue: %v", err)
	}
	pipeline := ingestion.New(cat, vectors, ml, log)
	pool := worker.New(jobQueue, cat, pipeline, log)
	queryService := query.New(vectors, ml)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		logger.Printf("starting %d background workers (queue=%s)", cfg.WorkerCount, cfg.QueueBackend)
		pool.Run(workerCtx, cfg.WorkerCount)
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: middleware.TrafficLogger(log, routes(cat, vectors, jobQueue, queryService, ml, cfg)),
	}

	go func() {
		logger.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, jobQueue, workerCancel, workersDone)
}

// catalogDSN resolves the sqlite path for the catalog. The -db-path flag
// wins; otherwise DATABASE_URL is used, with its sqlite:// prefix stripped.
// The documented postgres:// default cannot back the sqlite driver, so it
// falls through to a local file.
func catalogDSN(cfg config.Config, log *logger.Logger) string {
	if *dbPath != "" {
		return *dbPath
	}
	url := cfg.DatabaseURL
	if strings.HasPrefix(url, "sqlite://") {
		return strings.TrimPrefix(url, "sqlite://")
	}
	if strings.HasPrefix(url, "postgres://") {
		log.Warnf("DATABASE_URL %q is not a sqlite path, using ./cortex.db", url)
		return "./cortex.db"
	}
	return url
}

// buildQueue selects the job queue backend from config: the in-process
// bounded channel by default, or a shared Redis list for multi-process
// deployments.
func buildQueue(cfg config.Config, log *logger.Logger) (queue.Queue, error) {
	switch cfg.QueueBackend {
	case config.QueueBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := config.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return queue.NewRedisQueue(client, "cortex:jobs", log)
	case config.QueueBackendChannel, "":
		return queue.NewChannelQueue(cfg.QueueCapacity), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
}

func routes(cat *catalog.Store, vectors vectorstore.VectorStore, jobQueue queue.Queue, queryService *query.Service, ml mlclient.API, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	defaults := server.RetrievalDefaults{
		SearchTopK:  cfg.SearchTopK,
		SearchAlpha: cfg.SearchAlpha,
		ChatTopK:    cfg.ChatTopK,
	}

	healthHandler := server.NewHealthHandler(cat, vectors)
	searchHandler := server.NewSearchHandler(queryService, defaults)
	ingestHandler := server.NewIngestHandler(cat, jobQueue)
	chatHandler := server.NewChatHandler(queryService, ml, defaults)

	mux.HandleFunc("GET /api/v1/health", healthHandler.HandleHealth)
	mux.HandleFunc("POST /api/v1/search", searchHandler.HandleSearch)
	mux.HandleFunc("POST /api/v1/ingest/upload", ingestHandler.HandleUpload)
	mux.HandleFunc("GET /api/v1/ingest/jobs/{job_id}", func(w http.ResponseWriter, r *http.Request) {
		ingestHandler.HandleJobStatus(w, r, r.PathValue("job_id"))
	})
	mux.HandleFunc("POST /api/v1/chat", chatHandler.HandleChat)

	return mux
}

func waitForShutdown(httpServer *http.Server, jobQueue queue.Queue, workerCancel context.CancelFunc, workersDone <-chan struct{}) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}

	// Closing the channel queue lets workers finish any in-flight job
	// before their context is cancelled; the Redis backend has no close,
	// so its workers unblock on the cancel below.
	if cq, ok := jobQueue.(*queue.ChannelQueue); ok {
		cq.Close()
		select {
		case <-workersDone:
		case <-time.After(30 * time.Second):
			logger.Warnf("workers did not drain within 30s, cancelling")
		}
	}
	workerCancel()
	<-workersDone

	if err := logger.GetDefault().Close(); err != nil {
		fmt.Printf("failed to close logger: %v\n", err)
	}
}
