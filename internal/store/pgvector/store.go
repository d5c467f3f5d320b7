// Package pgvector implements the document store on PostgreSQL with the
// pgvector extension.
package pgvector

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/bookmydarshan/ragserver/internal/store"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDimensionMismatch indicates the vector column dimension in the
// database disagrees with the configured embedding dimension. The service
// refuses to serve rather than silently corrupt search results, so this is
// fatal at the connection boundary.
var ErrDimensionMismatch = errors.New("pgvector: embedding dimension mismatch")

// Store implements store.DocumentStore using pgvector.
type Store struct {
	db        *sql.DB
	dimension int
	ownsDB    bool // whether this store owns the db connection
}

var _ store.DocumentStore = (*Store)(nil)

// Config contains configuration for the pgvector store.
type Config struct {
	// DSN is the PostgreSQL connection string.
	// If empty, DB must be provided.
	DSN string

	// DB is an existing database connection to reuse.
	// If provided, DSN is ignored and the store will not close the connection.
	DB *sql.DB

	// Dimension is the embedding dimension the deployment uses. The vector
	// column must match it exactly.
	Dimension int

	// RunMigrations controls whether to apply migrations on startup.
	RunMigrations bool

	// SkipDimensionCheck disables the startup dimension verification.
	// Intended for tests that run against a mocked connection.
	SkipDimensionCheck bool
}

// New creates a pgvector document store and verifies that the stored
// vector dimension matches the configured one.
func New(cfg Config) (*Store, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("pgvector: embedding dimension is required")
	}

	var db *sql.DB
	var ownsDB bool
	var err error

	if cfg.DB != nil {
		db = cfg.DB
		ownsDB = false
	} else if cfg.DSN != "" {
		db, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("pgvector: open database: %w", err)
		}
		ownsDB = true

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("pgvector: ping database: %w", err)
		}
	} else {
		return nil, fmt.Errorf("pgvector: either DSN or DB must be provided")
	}

	s := &Store{
		db:        db,
		dimension: cfg.Dimension,
		ownsDB:    ownsDB,
	}

	if cfg.RunMigrations {
		if err := s.runMigrations(context.Background()); err != nil {
			if ownsDB {
				db.Close()
			}
			return nil, fmt.Errorf("pgvector: run migrations: %w", err)
		}
	}

	if !cfg.SkipDimensionCheck {
		if err := s.verifyDimension(context.Background()); err != nil {
			if ownsDB {
				db.Close()
			}
			return nil, err
		}
	}

	return s, nil
}

// DB exposes the underlying connection for collaborators that share it
// (e.g. the chat history store).
func (s *Store) DB() *sql.DB {
	return s.db
}

// verifyDimension compares the embedding column's declared dimension with
// the configured one.
func (s *Store) verifyDimension(ctx context.Context) error {
	var dim int
	err := s.db.QueryRowContext(ctx, `
		SELECT atttypmod - 4
		FROM pg_attribute
		WHERE attrelid = 'embeddings'::regclass
		  AND attname = 'embedding'
	`).Scan(&dim)
	if err != nil {
		return fmt.Errorf("pgvector: determine stored vector dimension: %w", err)
	}
	if dim != s.dimension {
		return fmt.Errorf("%w: database=%d, configured=%d", ErrDimensionMismatch, dim, s.dimension)
	}
	return nil
}

// runMigrations applies pending database migrations.
func (s *Store) runMigrations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	migrations, err := loadMigrations(s.dimension)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.id] {
			continue
		}
		if strings.TrimSpace(m.up) == "" {
			return fmt.Errorf("missing up migration for %s", m.id)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.id, err)
		}

		if _, err := tx.ExecContext(ctx, m.up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.id, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (id) VALUES ($1)`, m.id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.id, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.id, err)
		}
	}

	return nil
}

func (s *Store) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

// CreateDocument stores a new document.
func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, file_type, category, content, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, doc.ID, doc.Filename, doc.FileType, doc.Category, doc.Content, doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, file_type, category, content, upload_date
		FROM documents
		WHERE id = $1
	`, id).Scan(&doc.ID, &doc.Filename, &doc.FileType, &doc.Category, &doc.Content, &doc.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return &doc, nil
}

// ListDocuments lists all documents, newest first, with their chunk counts.
func (s *Store) ListDocuments(ctx context.Context) ([]*models.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			d.id,
			d.filename,
			d.file_type,
			d.category,
			LENGTH(d.content) AS content_size,
			(SELECT COUNT(*) FROM embeddings e WHERE e.document_id = d.id) AS chunk_count,
			d.upload_date
		FROM documents d
		ORDER BY d.upload_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.DocumentInfo
	for rows.Next() {
		var info models.DocumentInfo
		if err := rows.Scan(&info.ID, &info.Filename, &info.FileType, &info.Category,
			&info.ContentSize, &info.ChunkCount, &info.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		info.Processed = info.ChunkCount > 0
		docs = append(docs, &info)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document; its chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// DeleteChunks removes all chunks for a document.
func (s *Store) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// InsertChunk persists one chunk with its embedding.
func (s *Store) InsertChunk(ctx context.Context, chunk *models.Chunk) error {
	if len(chunk.Embedding) != s.dimension {
		return fmt.Errorf("%w: chunk vector has dimension %d, configured %d",
			ErrDimensionMismatch, len(chunk.Embedding), s.dimension)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (document_id, chunk_text, chunk_index, embedding)
		VALUES ($1, $2, $3, $4::vector)
	`, chunk.DocumentID, chunk.Text, chunk.Index, encodeVector(chunk.Embedding))
	if err != nil {
		return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
	}
	return nil
}

// CountChunks returns the number of stored chunks for a document.
func (s *Store) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embeddings WHERE document_id = $1`, documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// SearchChunks runs a nearest-neighbor query ordered by ascending cosine
// distance. Results carry similarity = 1 - distance.
func (s *Store) SearchChunks(ctx context.Context, embedding []float32, topK int, category string) ([]models.SearchCandidate, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, configured %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}
	if topK <= 0 {
		topK = 15
	}

	query := `
		SELECT
			e.document_id,
			e.chunk_text,
			e.chunk_index,
			d.filename,
			1 - (e.embedding <=> $1::vector) AS similarity
		FROM embeddings e
		JOIN documents d ON d.id = e.document_id
	`
	args := []any{encodeVector(embedding)}
	if category != "" {
		query += ` WHERE d.category = $3`
	}
	query += `
		ORDER BY e.embedding <=> $1::vector ASC
		LIMIT $2
	`
	args = append(args, topK)
	if category != "" {
		args = append(args, category)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var candidates []models.SearchCandidate
	for rows.Next() {
		var c models.SearchCandidate
		if err := rows.Scan(&c.DocumentID, &c.Text, &c.ChunkIndex, &c.Filename, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// Ping verifies store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases resources.
func (s *Store) Close() error {
	if s.ownsDB && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migration is an up/down pair of embedded SQL files sharing an id prefix,
// e.g. 0001_init.up.sql and 0001_init.down.sql.
type migration struct {
	id   string
	up   string
	down string
}

// loadMigrations reads the embedded migration files, ordered by id, with
// the {dimension} placeholder rendered to the deployment's vector width.
func loadMigrations(dimension int) ([]migration, error) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	// Lexical order groups each id's up/down pair and sequences the ids.
	sort.Strings(names)

	dim := strconv.Itoa(dimension)
	var out []migration
	for _, name := range names {
		id, direction, ok := splitMigrationName(name)
		if !ok {
			continue
		}
		raw, err := migrationsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		rendered := strings.ReplaceAll(string(raw), "{dimension}", dim)

		if len(out) == 0 || out[len(out)-1].id != id {
			out = append(out, migration{id: id})
		}
		last := &out[len(out)-1]
		if direction == "up" {
			last.up = rendered
		} else {
			last.down = rendered
		}
	}
	return out, nil
}

func splitMigrationName(path string) (id, direction string, ok bool) {
	base := strings.TrimPrefix(path, "migrations/")
	switch {
	case strings.HasSuffix(base, ".up.sql"):
		return strings.TrimSuffix(base, ".up.sql"), "up", true
	case strings.HasSuffix(base, ".down.sql"):
		return strings.TrimSuffix(base, ".down.sql"), "down", true
	}
	return "", "", false
}
