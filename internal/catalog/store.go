package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/northbound/cortex/internal/ids"
	"github.com/northbound/cortex/internal/logger"
)

// migrations mirror the three ordered migrations of the original relational
// schema (init, connectors, jobs), translated to sqlite's dialect.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		title TEXT NOT NULL,
		source_url TEXT,
		content_hash TEXT NOT NULL,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		mime_type TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		indexed_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(user_id, source_type, source_id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_user_hash ON documents(user_id, source_type, content_hash);`,

	`CREATE TABLE IF NOT EXISTS connectors (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		source_type TEXT NOT NULL,
		status TEXT NOT NULL,
		last_sync_at DATETIME,
		sync_cursor TEXT,
		error_message TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		connector_id TEXT,
		job_type TEXT NOT NULL,
		status TEXT NOT NULL,
		total_items INTEGER NOT NULL DEFAULT 0,
		processed_items INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		started_at DATETIME,
		completed_at DATETIME,
		created_at DATETIME NOT NULL
	);`,
}

// Store is the sqlite-backed implementation of the catalog.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// Open connects to the sqlite database at dsn and runs pending migrations.
func Open(dsn string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		// Every new connection to an in-memory sqlite database starts
		// empty; the pool must stay on the one that ran the migrations.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	for i, stmt := range migrations {
		if s.log != nil {
			s.log.Printf("catalog: running migration %d", i+1)
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("catalog: migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the catalog database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Documents ──

// CreateDocument upserts by the natural key (user_id, source_type,
// source_id). On conflict, title/content_hash/chunk_count/metadata are
// updated and updated_at bumped; the returned ID is the newly minted one
// even on a conflict-update, matching the asymmetry the original store
// exhibits by never RETURNING the existing row's ID (see DESIGN.md).
func (s *Store) CreateDocument(ctx context.Context, doc CreateDocument) (ids.DocumentId, error) {
	id := ids.NewDocumentId()
	now := time.Now().UTC()
	metadata := doc.Metadata
	if metadata == nil {
		metadata = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, source_type, source_id, title, source_url, content_hash, chunk_count, mime_type, metadata, indexed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, source_type, source_id) DO UPDATE SET
			title = excluded.title,
			content_hash = excluded.content_hash,
			chunk_count = excluded.chunk_count,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, id.String(), doc.UserID.String(), doc.SourceType.String(), doc.SourceID, doc.Title,
		doc.SourceURL, doc.ContentHash, doc.ChunkCount, doc.MimeType, string(metadata), now, now)
	if err != nil {
		return ids.DocumentId{}, fmt.Errorf("catalog: create document: %w", err)
	}
	return id, nil
}

// GetDocument fetches a single document by ID, or (nil, nil) if absent.
func (s *Store) GetDocument(ctx context.Context, id ids.DocumentId) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, source_type, source_id, title, source_url,
		       content_hash, chunk_count, mime_type, metadata, indexed_at, updated_at
		FROM documents WHERE id = ?
	`, id.String())
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns documents for user_id, optionally filtered by
// source type, ordered by updated_at descending.
func (s *Store) ListDocuments(ctx context.Context, userID ids.UserId, sourceFilter *ids.SourceType, limit, offset int) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, source_type, source_id, title, source_url,
		       content_hash, chunk_count, mime_type, metadata, indexed_at, updated_at
		FROM documents
		WHERE user_id = ? AND (? IS NULL OR source_type = ?)
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, userID.String(), sourceFilterArg(sourceFilter), sourceFilterArg(sourceFilter), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("catalog: list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: list documents: scan: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document row; returns whether a row was deleted.
func (s *Store) DeleteDocument(ctx context.Context, id ids.DocumentId) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("catalog: delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("catalog: delete document: rows affected: %w", err)
	}
	return n > 0, nil
}

// HasContentHash reports whether a document already exists for this user,
// source type, and content hash. Used for ingest-time deduplication.
func (s *Store) HasContentHash(ctx context.Context, userID ids.UserId, sourceType ids.SourceType, contentHash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM documents WHERE user_id = ? AND source_type = ? AND content_hash = ?)
	`, userID.String(), sourceType.String(), contentHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("catalog: has content hash: %w", err)
	}
	return exists, nil
}

// ── Jobs ──

// CreateJob inserts a new job row in the queued state.
func (s *Store) CreateJob(ctx context.Context, job CreateJob) (ids.JobId, error) {
	id := ids.NewJobId()
	now := time.Now().UTC()

	var connectorID any
	if job.ConnectorID != nil {
		connectorID = job.ConnectorID.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, user_id, connector_id, job_type, status, total_items, processed_items, created_at)
		VALUES (?, ?, ?, ?, ?, 0, 0, ?)
	`, id.String(), job.UserID.String(), connectorID, job.JobType.String(), ids.JobQueued.String(), now)
	if err != nil {
		return ids.JobId{}, fmt.Errorf("catalog: create job: %w", err)
	}
	return id, nil
}

// UpdateJobStatus transitions a job's status. started_at is set on first
// entry to running; completed_at is set on any terminal transition.
// error_message is only overwritten when errMsg is non-nil (COALESCE
// semantics), matching the original store.
func (s *Store) UpdateJobStatus(ctx context.Context, id ids.JobId, status ids.JobStatus, errMsg *string) error {
	now := time.Now().UTC()
	var started, completed *time.Time
	switch status {
	case ids.JobRunning:
		started = &now
	case ids.JobCompleted, ids.JobFailed, ids.JobCancelled:
		completed = &now
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET
			status = ?,
			error_message = COALESCE(?, error_message),
			started_at = COALESCE(started_at, ?),
			completed_at = COALESCE(?, completed_at)
		WHERE id = ?
	`, status.String(), errMsg, started, completed, id.String())
	if err != nil {
		return fmt.Errorf("catalog: update job status: %w", err)
	}
	return nil
}

// UpdateJobProgress overwrites the processed/total counters (latest-write-wins).
func (s *Store) UpdateJobProgress(ctx context.Context, id ids.JobId, processed, total int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET processed_items = ?, total_items = ? WHERE id = ?
	`, processed, total, id.String())
	if err != nil {
		return fmt.Errorf("catalog: update job progress: %w", err)
	}
	return nil
}

// GetJob fetches a single job by ID, or (nil, nil) if absent.
func (s *Store) GetJob(ctx context.Context, id ids.JobId) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, connector_id, job_type, status,
		       total_items, processed_items, error_message,
		       started_at, completed_at, created_at
		FROM jobs WHERE id = ?
	`, id.String())
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get job: %w", err)
	}
	return job, nil
}

// ── Connectors ──

// UpsertConnector inserts or replaces a connector row by ID.
func (s *Store) UpsertConnector(ctx context.Context, c Connector) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connectors (id, user_id, source_type, status, last_sync_at, sync_cursor, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			last_sync_at = excluded.last_sync_at,
			sync_cursor = excluded.sync_cursor,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, c.ID.String(), c.UserID.String(), c.SourceType.String(), c.Status.String(),
		c.LastSyncAt, c.SyncCursor, c.ErrorMessage, now, now)
	if err != nil {
		return fmt.Errorf("catalog: upsert connector: %w", err)
	}
	return nil
}

// GetConnector fetches a connector by ID, or (nil, nil) if absent.
func (s *Store) GetConnector(ctx context.Context, id ids.ConnectorId) (*Connector, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, source_type, status, last_sync_at, sync_cursor, error_message, created_at, updated_at
		FROM connectors WHERE id = ?
	`, id.String())
	c, err := scanConnector(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get connector: %w", err)
	}
	return c, nil
}

// ListConnectors returns all connectors owned by a user.
func (s *Store) ListConnectors(ctx context.Context, userID ids.UserId) ([]Connector, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, source_type, status, last_sync_at, sync_cursor, error_message, created_at, updated_at
		FROM connectors WHERE user_id = ? ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("catalog: list connectors: %w", err)
	}
	defer rows.Close()

	var out []Connector
	for rows.Next() {
		c, err := scanConnector(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: list connectors: scan: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ── scanning ──

type scanner interface {
	Scan(dest ...any) error
}

func sourceFilterArg(f *ids.SourceType) any {
	if f == nil {
		return nil
	}
	return f.String()
}

func scanDocument(row scanner) (*Document, error) {
	var d Document
	var userID, sourceType, metadata string
	if err := row.Scan(&d.ID, &userID, &sourceType, &d.SourceID, &d.Title, &d.SourceURL,
		&d.ContentHash, &d.ChunkCount, &d.MimeType, &metadata, &d.IndexedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	uid, err := ids.ParseUserId(userID)
	if err != nil {
		return nil, err
	}
	d.UserID = uid
	st, err := ids.ParseSourceType(sourceType)
	if err != nil {
		return nil, err
	}
	d.SourceType = st
	d.Metadata = json.RawMessage(metadata)
	return &d, nil
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var userID, jobType, status string
	var connectorID *string
	if err := row.Scan(&j.ID, &userID, &connectorID, &jobType, &status,
		&j.TotalItems, &j.ProcessedItems, &j.ErrorMessage, &j.StartedAt, &j.CompletedAt, &j.CreatedAt); err != nil {
		return nil, err
	}
	uid, err := ids.ParseUserId(userID)
	if err != nil {
		return nil, err
	}
	j.UserID = uid
	if connectorID != nil {
		cid, err := ids.ParseConnectorId(*connectorID)
		if err != nil {
			return nil, err
		}
		j.ConnectorID = &cid
	}
	jt, err := ids.ParseJobType(jobType)
	if err != nil {
		return nil, err
	}
	j.JobType = jt
	js, err := ids.ParseJobStatus(status)
	if err != nil {
		return nil, err
	}
	j.Status = js
	return &j, nil
}

func scanConnector(row scanner) (*Connector, error) {
	var c Connector
	var userID, sourceType, status string
	if err := row.Scan(&c.ID, &userID, &sourceType, &status, &c.LastSyncAt,
		&c.SyncCursor, &c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	uid, err := ids.ParseUserId(userID)
	if err != nil {
		return nil, err
	}
	c.UserID = uid
	st, err := ids.ParseSourceType(sourceType)
	if err != nil {
		return nil, err
	}
	c.SourceType = st
	cs, err := ids.ParseConnectorStatus(status)
	if err != nil {
		return nil, err
	}
	c.Status = cs
	return &c, nil
}
