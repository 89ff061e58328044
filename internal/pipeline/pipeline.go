// Package pipeline provides the processing pipeline: an ordered stage
// chain applied to records, with sub-batch partitioning for stages that
// need batch visibility and per-record failure isolation.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/logger"
)

// DefaultBatchSize is the sub-batch size used when none is configured.
const DefaultBatchSize = 100

// Pipeline applies an ordered chain of stages to records. Stage order
// is the configured order; nothing is reordered or skipped except on a
// record's own failure.
type Pipeline struct {
	stages    []driven.Stage
	batchSize int
	workers   int
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithBatchSize sets the sub-batch size for batch processing. Batch
// stages see one sub-batch at a time, so duplicate detection scope is
// bounded by this size.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithWorkers sets the number of goroutines mapping document stages
// over a sub-batch. Batch stages always run on a single goroutine.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New creates a pipeline from an ordered stage chain. Every stage must
// implement exactly one of the two capability interfaces.
func New(stages []driven.Stage, opts ...Option) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, domain.ErrEmptyPipeline
	}
	for _, st := range stages {
		_, isDoc := st.(driven.DocumentStage)
		_, isBatch := st.(driven.BatchStage)
		if isDoc == isBatch {
			return nil, fmt.Errorf("%w: stage %q must implement exactly one of DocumentStage or BatchStage",
				domain.ErrInvalidInput, st.Name())
		}
	}

	p := &Pipeline{
		stages:    stages,
		batchSize: DefaultBatchSize,
		workers:   1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name()
	}
	return names
}

// Phases returns the phase of each stage in execution order.
func (p *Pipeline) Phases() []domain.Phase {
	phases := make([]domain.Phase, len(p.stages))
	for i, st := range p.stages {
		phases[i] = st.Phase()
	}
	return phases
}

// ProcessDocument runs a single document through the document stages.
// Batch stages are skipped: with nothing to compare against, a single
// record is trivially unique. The record is returned annotated even
// when filtering rejected it; the caller decides what to persist.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc domain.RawDocument) (*domain.Record, error) {
	return p.ProcessRecord(ctx, domain.NewRecord(doc))
}

// ProcessRecord resumes an existing record through the document stages.
// History keeps accumulating, so a record already partially processed
// picks up where it left off only if the caller passes the remaining
// stage chain.
func (p *Pipeline) ProcessRecord(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	if rec == nil {
		return nil, domain.ErrNilRecord
	}

	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		docStage, ok := st.(driven.DocumentStage)
		if !ok {
			logger.Debug("pipeline: skipping batch stage %s for single document", st.Name())
			continue
		}
		if err := docStage.Process(ctx, rec); err != nil {
			rec.ProcessingMeta[domain.MetaError] = err.Error()
			logger.Error("pipeline: stage %s failed for record %s: %v", st.Name(), rec.ID, err)
			break
		}
		if rec.Dropped() {
			break
		}
	}
	return rec, nil
}

// ProcessBatch runs documents through the full stage chain in
// sub-batches. A stage error on one record annotates that record and
// aborts its remaining stages; the rest of the batch continues.
// Records the filter marked for removal are compacted out after each
// document stage; batch stages compact their own output.
func (p *Pipeline) ProcessBatch(ctx context.Context, docs []domain.RawDocument) ([]*domain.Record, error) {
	var out []*domain.Record
	for start := 0; start < len(docs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		logger.Debug("pipeline: processing sub-batch %d..%d of %d", start, end, len(docs))

		recs, err := p.processSubBatch(ctx, docs[start:end])
		if err != nil {
			return out, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (p *Pipeline) processSubBatch(ctx context.Context, docs []domain.RawDocument) ([]*domain.Record, error) {
	recs := make([]*domain.Record, len(docs))
	for i, doc := range docs {
		recs[i] = domain.NewRecord(doc)
	}

	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return recs, err
		}

		switch stage := st.(type) {
		case driven.DocumentStage:
			p.mapStage(ctx, stage, recs)
			recs = compactDropped(recs)

		case driven.BatchStage:
			// Failed records sit out the batch stage but stay in the
			// output in their original positions.
			active := make([]*domain.Record, 0, len(recs))
			for _, rec := range recs {
				if !rec.Failed() {
					active = append(active, rec)
				}
			}
			surviving, err := stage.ProcessBatch(ctx, active)
			if err != nil {
				return recs, fmt.Errorf("stage %s: %w", stage.Name(), err)
			}
			keep := make(map[*domain.Record]struct{}, len(surviving))
			for _, rec := range surviving {
				keep[rec] = struct{}{}
			}
			merged := recs[:0]
			for _, rec := range recs {
				if _, ok := keep[rec]; ok || rec.Failed() {
					merged = append(merged, rec)
				}
			}
			recs = merged
		}
	}
	return recs, nil
}

// mapStage applies a document stage to every live record, fanning out
// over the configured worker count. Each record is owned by exactly one
// goroutine at a time, so no record-level locking is needed.
func (p *Pipeline) mapStage(ctx context.Context, stage driven.DocumentStage, recs []*domain.Record) {
	apply := func(rec *domain.Record) {
		if rec.Failed() {
			return
		}
		if err := stage.Process(ctx, rec); err != nil {
			rec.ProcessingMeta[domain.MetaError] = err.Error()
			logger.Error("pipeline: stage %s failed for record %s: %v", stage.Name(), rec.ID, err)
		}
	}

	if p.workers <= 1 || len(recs) <= 1 {
		for _, rec := range recs {
			apply(rec)
		}
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)
	for _, rec := range recs {
		wg.Add(1)
		sem <- struct{}{}
		go func(r *domain.Record) {
			defer wg.Done()
			defer func() { <-sem }()
			apply(r)
		}(rec)
	}
	wg.Wait()
}

func compactDropped(recs []*domain.Record) []*domain.Record {
	kept := recs[:0]
	for _, rec := range recs {
		if !rec.Dropped() {
			kept = append(kept, rec)
		}
	}
	return kept
}
