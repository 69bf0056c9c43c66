package index

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"sync"
	"time"
)

// SQLiteIndex implements the Index interface using SQLite with FTS5
type SQLiteIndex struct {
	db *sql.DB

	mu sync.Mutex
	tx *sql.Tx // active load transaction, nil when no load is open
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteIndex opens the index database at dbPath, creating it and
// applying schema migrations as needed
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteIndex{db: db}, nil
}

// Close rolls back any open load transaction and closes the database
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	s.mu.Unlock()
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Load lifecycle

// BeginLoad opens the load transaction. Only one load may be open at a time.
func (s *SQLiteIndex) BeginLoad(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return ErrLoadInProgress
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// CommitLoad commits the open load transaction, making all staged
// documents visible to readers
func (s *SQLiteIndex) CommitLoad(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNoActiveLoad
	}

	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit load transaction: %w", err)
	}
	return nil
}

// AbortLoad rolls back the open load transaction, discarding all staged
// documents. The index is left exactly as it was before BeginLoad.
func (s *SQLiteIndex) AbortLoad(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNoActiveLoad
	}

	err := s.tx.Rollback()
	s.tx = nil
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to abort load transaction: %w", err)
	}
	return nil
}

// LoadBatch stages a batch of documents inside the open load transaction
func (s *SQLiteIndex) LoadBatch(ctx context.Context, batch *Batch) error {
	return s.loadBatch(ctx, batch, false)
}

// LoadBatchWithText stages a batch whose entries may carry extracted text.
// Entries with a non-empty text content are marked extracted and their
// logical size is the text length rather than the raw content length.
func (s *SQLiteIndex) LoadBatchWithText(ctx context.Context, batch *Batch) error {
	return s.loadBatch(ctx, batch, true)
}

func (s *SQLiteIndex) loadBatch(ctx context.Context, batch *Batch, withText bool) error {
	if err := batch.Validate(withText); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNoActiveLoad
	}

	now := time.Now()
	for i := range batch.Paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc := stagedDocument{
			path:     batch.Paths[i],
			content:  batch.Contents[i],
			size:     int64(len(batch.Contents[i])),
			modTime:  batch.ModTimes[i],
			mode:     int64(batch.Modes[i]),
			loadedAt: now,
		}
		if withText && batch.TextContents[i] != "" {
			doc.text = batch.TextContents[i]
			doc.extracted = true
			doc.size = int64(len(batch.TextContents[i]))
		}

		if err := s.upsertDocumentWithQuerier(ctx, s.tx, doc); err != nil {
			return fmt.Errorf("failed to load %s: %w", doc.path, err)
		}
	}
	return nil
}

// stagedDocument is a single row staged by loadBatch
type stagedDocument struct {
	path      string
	content   []byte
	text      string
	size      int64
	modTime   time.Time
	mode      int64
	extracted bool
	loadedAt  time.Time
}

// upsertDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteIndex) upsertDocumentWithQuerier(ctx context.Context, q querier, doc stagedDocument) error {
	// Use atomic INSERT ... ON CONFLICT to avoid race conditions
	var text interface{}
	if doc.extracted {
		text = doc.text
	}

	query := `
		INSERT INTO documents (
			path, content, text_content, size_bytes, mod_time, mode,
			extracted, loaded_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path)
		DO UPDATE SET
			content = excluded.content,
			text_content = excluded.text_content,
			size_bytes = excluded.size_bytes,
			mod_time = excluded.mod_time,
			mode = excluded.mode,
			extracted = excluded.extracted,
			loaded_at = excluded.loaded_at,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		doc.path, doc.content, text, doc.size, doc.modTime, doc.mode,
		doc.extracted, doc.loadedAt, doc.loadedAt, doc.loadedAt)
	return err
}

// Read operations

// FileCount returns the number of committed documents in the index
func (s *SQLiteIndex) FileCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// getDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteIndex) getDocumentWithQuerier(ctx context.Context, q querier, path string) (*Document, error) {
	query := `
		SELECT id, path, content, text_content, size_bytes, mod_time, mode,
		       extracted, loaded_at
		FROM documents
		WHERE path = ?
	`
	var doc Document
	var text sql.NullString
	var mode int64
	var loadedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, path).Scan(
		&doc.ID, &doc.Path, &doc.Content, &text, &doc.Size, &doc.ModTime,
		&mode, &doc.Extracted, &loadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if text.Valid {
		doc.TextContent = text.String
	}
	if loadedAt.Valid {
		doc.LoadedAt = loadedAt.Time
	}
	doc.Mode = fs.FileMode(mode)
	return &doc, nil
}

// GetDocument returns the committed document stored under path
func (s *SQLiteIndex) GetDocument(ctx context.Context, path string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.db, path)
}

// SearchText performs BM25 full-text search over document bodies using FTS5
func (s *SQLiteIndex) SearchText(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	// Sanitize query for FTS5
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	// Note: In FTS5, 'rank' is a built-in virtual column representing BM25
	// relevance score. Lower rank values indicate better matches (negative
	// values in FTS5).
	sqlQuery := `
		SELECT d.path, snippet(documents_fts, 1, '[', ']', '...', 12) as snip,
		       bm25(documents_fts) as score, d.size_bytes, d.extracted
		FROM documents_fts
		INNER JOIN documents d ON documents_fts.rowid = d.id
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, sanitized, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]SearchResult, 0)
	for rows.Next() {
		var result SearchResult
		if err := rows.Scan(&result.Path, &result.Snippet, &result.Score, &result.Size, &result.Extracted); err != nil {
			return nil, err
		}

		// Convert BM25 score (negative, lower is better) to positive normalized score.
		// BM25 scores are typically in range [-50, 0].
		result.Score = 1.0 / (1.0 + math.Abs(result.Score)/50.0)
		results = append(results, result)
	}
	return results, rows.Err()
}

const defaultSearchLimit = 20

// Stats returns aggregate statistics over the committed documents
func (s *SQLiteIndex) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(extracted), 0), COALESCE(SUM(size_bytes), 0)
		FROM documents
	`
	var stats Stats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.Documents, &stats.ExtractedDocs, &stats.TotalSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read index stats: %w", err)
	}

	var lastLoadedAt sql.NullTime
	err = s.db.QueryRowContext(ctx,
		"SELECT loaded_at FROM documents ORDER BY loaded_at DESC LIMIT 1",
	).Scan(&lastLoadedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last load time: %w", err)
	}
	if lastLoadedAt.Valid {
		stats.LastLoadedAt = lastLoadedAt.Time
	}
	return &stats, nil
}

// DeleteDocument removes the committed document stored under path
func (s *SQLiteIndex) DeleteDocument(ctx context.Context, path string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// sanitizeFTSQuery sanitizes a search query for FTS5 to prevent injection attacks.
// Each whitespace-separated term becomes a quoted FTS5 phrase, so Boolean
// operators and grouping characters in user input are matched literally.
func sanitizeFTSQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		// Embedded double quotes are escaped by doubling
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
