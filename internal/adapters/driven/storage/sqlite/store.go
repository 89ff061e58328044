// Package sqlite provides a SQLite-backed RecordStore. Structured
// fields are stored as JSON columns; the schema is applied through
// embedded migrations at startup.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/poeticinspiired/llm-data-pipeline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// Store is a SQLite-based record store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the given file path, creating
// parent directories as needed.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite store requires a path", domain.ErrInvalidInput)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// SaveRecords stores a batch of records in one transaction, replacing
// same-ID entries.
func (s *Store) SaveRecords(ctx context.Context, recs []*domain.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records
			(id, source, source_id, text, tokens, token_count, quality_score,
			 quality_metrics, processing_meta, original_meta, enhanced_meta, history, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			source_id = excluded.source_id,
			text = excluded.text,
			tokens = excluded.tokens,
			token_count = excluded.token_count,
			quality_score = excluded.quality_score,
			quality_metrics = excluded.quality_metrics,
			processing_meta = excluded.processing_meta,
			original_meta = excluded.original_meta,
			enhanced_meta = excluded.enhanced_meta,
			history = excluded.history,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range recs {
		if rec == nil {
			return domain.ErrNilRecord
		}
		cols, err := marshalRecord(rec)
		if err != nil {
			return err
		}

		var score sql.NullFloat64
		if rec.QualityScore != nil {
			score = sql.NullFloat64{Float64: *rec.QualityScore, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Source, rec.SourceID, rec.Text,
			cols.tokens, rec.TokenCount, score, cols.qualityMetrics,
			cols.processingMeta, cols.originalMeta, cols.enhancedMeta, cols.history, now); err != nil {
			return fmt.Errorf("saving record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetRecord retrieves a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, source_id, text, tokens, token_count, quality_score,
		       quality_metrics, processing_meta, original_meta, enhanced_meta, history
		FROM records WHERE id = ?
	`, id)
	return scanRecord(row.Scan)
}

// ListBySource returns all records from the named source ordered by
// insertion time.
func (s *Store) ListBySource(ctx context.Context, source string) ([]*domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, source_id, text, tokens, token_count, quality_score,
		       quality_metrics, processing_meta, original_meta, enhanced_meta, history
		FROM records WHERE source = ?
		ORDER BY created_at, id
	`, source)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var recs []*domain.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return recs, nil
}

// Count returns the total number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// DeleteRecord removes a record by ID.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// recordColumns holds the JSON-encoded columns of one record.
type recordColumns struct {
	tokens         string
	qualityMetrics string
	processingMeta string
	originalMeta   string
	enhancedMeta   string
	history        string
}

func marshalRecord(rec *domain.Record) (*recordColumns, error) {
	cols := &recordColumns{}
	for _, field := range []struct {
		name string
		v    any
		dst  *string
	}{
		{"tokens", rec.Tokens, &cols.tokens},
		{"quality_metrics", rec.QualityMetrics, &cols.qualityMetrics},
		{"processing_meta", rec.ProcessingMeta, &cols.processingMeta},
		{"original_meta", rec.OriginalMeta, &cols.originalMeta},
		{"enhanced_meta", rec.EnhancedMeta, &cols.enhancedMeta},
		{"history", rec.History, &cols.history},
	} {
		data, err := json.Marshal(field.v)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s: %w", field.name, err)
		}
		*field.dst = string(data)
	}
	return cols, nil
}

// scanRecord works for both *sql.Row and *sql.Rows through their
// shared Scan signature.
func scanRecord(scan func(dest ...any) error) (*domain.Record, error) {
	var rec domain.Record
	var cols recordColumns
	var score sql.NullFloat64

	if err := scan(&rec.ID, &rec.Source, &rec.SourceID, &rec.Text,
		&cols.tokens, &rec.TokenCount, &score, &cols.qualityMetrics,
		&cols.processingMeta, &cols.originalMeta, &cols.enhancedMeta, &cols.history); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	if score.Valid {
		rec.QualityScore = &score.Float64
	}
	for _, field := range []struct {
		name string
		data string
		dst  any
	}{
		{"tokens", cols.tokens, &rec.Tokens},
		{"quality_metrics", cols.qualityMetrics, &rec.QualityMetrics},
		{"processing_meta", cols.processingMeta, &rec.ProcessingMeta},
		{"original_meta", cols.originalMeta, &rec.OriginalMeta},
		{"enhanced_meta", cols.enhancedMeta, &rec.EnhancedMeta},
		{"history", cols.history, &rec.History},
	} {
		if err := json.Unmarshal([]byte(field.data), field.dst); err != nil {
			return nil, fmt.Errorf("unmarshaling %s: %w", field.name, err)
		}
	}
	if rec.ProcessingMeta == nil {
		rec.ProcessingMeta = make(map[string]any)
	}
	if rec.OriginalMeta == nil {
		rec.OriginalMeta = make(map[string]any)
	}
	if rec.EnhancedMeta == nil {
		rec.EnhancedMeta = make(map[string]any)
	}
	if rec.QualityMetrics == nil {
		rec.QualityMetrics = make(map[string]float64)
	}
	return &rec, nil
}
