// Package driving defines the ports through which the outside world
// (CLI, tests) drives the core services.
package driving

import (
	"context"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
)

// RunStats summarizes one curation run.
type RunStats struct {
	// RunID uniquely identifies the run.
	RunID string

	// Collected is the number of documents the collector produced.
	Collected int

	// Processed is the number of records that came out of the pipeline.
	Processed int

	// Kept is the number of processed records that passed filtering and
	// deduplication.
	Kept int

	// Filtered counts records content filtering rejected.
	Filtered int

	// Duplicates counts records marked as duplicates.
	Duplicates int

	// Failed counts records whose processing chain was aborted by a
	// stage error.
	Failed int

	// Stored is the number of records persisted.
	Stored int
}

// Curator runs the full collect, process, store flow.
type Curator interface {
	// Run collects up to limit documents (limit <= 0 collects all),
	// processes them through the pipeline and persists the survivors.
	Run(ctx context.Context, limit int) (*RunStats, error)

	// ProcessOne runs a single document through the pipeline without
	// persisting it.
	ProcessOne(ctx context.Context, doc domain.RawDocument) (*domain.Record, error)
}
