package driven

import (
	"context"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
)

// RecordStore persists processed records. Persistence, indexing and
// versioning are the store's concern; the pipeline core only hands over
// finished records.
type RecordStore interface {
	// SaveRecords stores a batch of processed records, replacing any
	// existing records with the same IDs.
	SaveRecords(ctx context.Context, recs []*domain.Record) error

	// GetRecord retrieves a record by ID.
	// Returns domain.ErrNotFound if absent.
	GetRecord(ctx context.Context, id string) (*domain.Record, error)

	// ListBySource returns all records collected from the named source.
	ListBySource(ctx context.Context, source string) ([]*domain.Record, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	// DeleteRecord removes a record by ID.
	DeleteRecord(ctx context.Context, id string) error
}
