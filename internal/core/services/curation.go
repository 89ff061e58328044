// Package services contains the core orchestration services.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driving"
	"github.com/poeticinspiired/llm-data-pipeline/internal/logger"
	"github.com/poeticinspiired/llm-data-pipeline/internal/pipeline"
)

// Ensure CurationService implements the interface.
var _ driving.Curator = (*CurationService)(nil)

// CurationService coordinates one curation flow: a collector feeding
// the processing pipeline, survivors going to the record store.
type CurationService struct {
	collector driven.Collector
	pipeline  *pipeline.Pipeline
	store     driven.RecordStore
}

// NewCurationService creates a new curation service. The store may be
// nil for dry runs; processed records are then counted but not
// persisted.
func NewCurationService(
	collector driven.Collector,
	pipe *pipeline.Pipeline,
	store driven.RecordStore,
) *CurationService {
	return &CurationService{
		collector: collector,
		pipeline:  pipe,
		store:     store,
	}
}

// Run executes the collect, process, store flow and reports counts.
func (s *CurationService) Run(ctx context.Context, limit int) (*driving.RunStats, error) {
	stats := &driving.RunStats{RunID: uuid.NewString()}
	logger.Section(fmt.Sprintf("curation run %s", stats.RunID))

	// 1. Collect
	docs, err := s.collector.Collect(ctx, limit)
	if err != nil {
		return stats, fmt.Errorf("collect from %s: %w", s.collector.Name(), err)
	}
	stats.Collected = len(docs)
	logger.Info("collected %d documents from %s", stats.Collected, s.collector.Name())
	if len(docs) == 0 {
		return stats, nil
	}

	// 2. Process
	recs, err := s.pipeline.ProcessBatch(ctx, docs)
	if err != nil {
		return stats, fmt.Errorf("process batch: %w", err)
	}
	stats.Processed = len(recs)
	for _, rec := range recs {
		switch {
		case rec.Failed():
			stats.Failed++
		case rec.Filtered():
			stats.Filtered++
		case rec.Duplicate():
			stats.Duplicates++
		default:
			stats.Kept++
		}
	}
	logger.Info("processed %d records: %d kept, %d filtered, %d duplicates, %d failed",
		stats.Processed, stats.Kept, stats.Filtered, stats.Duplicates, stats.Failed)

	// 3. Store
	if s.store != nil {
		if err := s.store.SaveRecords(ctx, recs); err != nil {
			return stats, fmt.Errorf("save records: %w", err)
		}
		stats.Stored = len(recs)
		logger.Info("stored %d records", stats.Stored)
	}
	return stats, nil
}

// ProcessOne runs a single document through the pipeline without
// persisting it.
func (s *CurationService) ProcessOne(ctx context.Context, doc domain.RawDocument) (*domain.Record, error) {
	return s.pipeline.ProcessDocument(ctx, doc)
}
