package driven

import (
	"context"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
)

// Stage is a single transformation step in the processing pipeline.
// Every stage implements exactly one of the two capability interfaces
// below; the pipeline dispatches on that capability explicitly rather
// than inspecting concrete types.
type Stage interface {
	// Name returns the stage name recorded in processing history.
	Name() string

	// Phase returns the logical phase this stage belongs to.
	Phase() domain.Phase
}

// DocumentStage processes one record at a time. Document stages have no
// shared mutable state across records and may be mapped over a batch in
// any order, provided each record's own stage sequence stays ordered.
type DocumentStage interface {
	Stage

	// Process mutates the record in place. An error aborts the
	// remaining stages for this record only.
	Process(ctx context.Context, rec *domain.Record) error
}

// BatchStage requires visibility over an entire sub-batch at once
// (deduplication). Later records' decisions depend on earlier records
// in the same sub-batch, so a batch stage must not be parallelized
// internally.
type BatchStage interface {
	Stage

	// ProcessBatch returns the surviving records in order. Records may
	// be annotated and removed but never reordered.
	ProcessBatch(ctx context.Context, recs []*domain.Record) ([]*domain.Record, error)
}
