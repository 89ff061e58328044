package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poeticinspiired/llm-data-pipeline/internal/adapters/driven/storage/memory"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/pipeline"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/dedup"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/filter"
)

// fakeCollector returns a fixed document set.
type fakeCollector struct {
	docs []domain.RawDocument
	err  error
}

func (c *fakeCollector) Name() string             { return "fake" }
func (c *fakeCollector) Metadata() map[string]any { return map[string]any{} }

func (c *fakeCollector) Collect(_ context.Context, limit int) ([]domain.RawDocument, error) {
	if c.err != nil {
		return nil, c.err
	}
	if limit > 0 && limit < len(c.docs) {
		return c.docs[:limit], nil
	}
	return c.docs, nil
}

// failingStage fails records whose text matches failOn.
type failingStage struct {
	failOn string
}

func (s *failingStage) Name() string        { return "failing" }
func (s *failingStage) Phase() domain.Phase { return domain.PhaseCleaning }

func (s *failingStage) Process(_ context.Context, rec *domain.Record) error {
	if rec.Text == s.failOn {
		return errors.New("stage failure")
	}
	rec.AddStep(s.Name(), nil)
	return nil
}

func docs(texts ...string) []domain.RawDocument {
	out := make([]domain.RawDocument, len(texts))
	for i, text := range texts {
		out[i] = domain.RawDocument{
			ID:     fmt.Sprintf("fake:%d", i),
			Text:   text,
			Source: "fake",
		}
	}
	return out
}

func newPipeline(t *testing.T, stages ...driven.Stage) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(stages)
	require.NoError(t, err)
	return p
}

func TestCurationService_Run(t *testing.T) {
	longText := "this document is comfortably long enough to pass the default length check of the content filter stage"

	deduper, err := dedup.New(dedup.WithKeepFirst(false))
	require.NoError(t, err)
	contentFilter, err := filter.New()
	require.NoError(t, err)

	collector := &fakeCollector{docs: docs(longText, "too short", longText)}
	store := memory.NewRecordStore()
	svc := NewCurationService(collector, newPipeline(t, contentFilter, deduper), store)

	stats, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 3, stats.Collected)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 1, stats.Filtered)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 3, stats.Stored)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCurationService_Run_Failures(t *testing.T) {
	collector := &fakeCollector{docs: docs("good text", "explode", "good text again")}
	store := memory.NewRecordStore()
	svc := NewCurationService(collector, newPipeline(t, &failingStage{failOn: "explode"}), store)

	stats, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3, stats.Stored, "failed records are stored annotated")
}

func TestCurationService_Run_CollectorError(t *testing.T) {
	collector := &fakeCollector{err: errors.New("connection refused")}
	svc := NewCurationService(collector, newPipeline(t, &failingStage{}), memory.NewRecordStore())

	stats, err := svc.Run(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collect from fake")
	assert.Equal(t, 0, stats.Collected)
}

func TestCurationService_Run_EmptySource(t *testing.T) {
	collector := &fakeCollector{}
	svc := NewCurationService(collector, newPipeline(t, &failingStage{}), memory.NewRecordStore())

	stats, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Collected)
	assert.Equal(t, 0, stats.Stored)
}

func TestCurationService_Run_Limit(t *testing.T) {
	collector := &fakeCollector{docs: docs("one", "two", "three")}
	svc := NewCurationService(collector, newPipeline(t, &failingStage{}), memory.NewRecordStore())

	stats, err := svc.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Collected)
}

func TestCurationService_Run_DryRun(t *testing.T) {
	collector := &fakeCollector{docs: docs("some document text")}
	svc := NewCurationService(collector, newPipeline(t, &failingStage{}), nil)

	stats, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Stored, "nil store skips persistence")
}

func TestCurationService_ProcessOne(t *testing.T) {
	svc := NewCurationService(&fakeCollector{}, newPipeline(t, &failingStage{}), nil)

	rec, err := svc.ProcessOne(context.Background(), domain.RawDocument{ID: "d", Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "d", rec.ID)
	assert.Equal(t, []string{"initial_import", "failing"}, rec.History)
}
