package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// docStage is a DocumentStage test double applying fn to each record.
type docStage struct {
	name string
	fn   func(*domain.Record) error
}

func (s *docStage) Name() string        { return s.name }
func (s *docStage) Phase() domain.Phase { return domain.PhaseCleaning }

func (s *docStage) Process(_ context.Context, rec *domain.Record) error {
	if s.fn != nil {
		return s.fn(rec)
	}
	rec.AddStep(s.name, nil)
	return nil
}

// batchStage is a BatchStage test double applying fn to the whole batch.
type batchStage struct {
	name string
	fn   func([]*domain.Record) ([]*domain.Record, error)
}

func (s *batchStage) Name() string        { return s.name }
func (s *batchStage) Phase() domain.Phase { return domain.PhaseDeduplication }

func (s *batchStage) ProcessBatch(_ context.Context, recs []*domain.Record) ([]*domain.Record, error) {
	if s.fn != nil {
		return s.fn(recs)
	}
	return recs, nil
}

// bothStage implements both capability interfaces; New must reject it.
type bothStage struct {
	docStage
}

func (s *bothStage) ProcessBatch(_ context.Context, recs []*domain.Record) ([]*domain.Record, error) {
	return recs, nil
}

// bareStage implements neither capability interface.
type bareStage struct{}

func (s *bareStage) Name() string        { return "bare" }
func (s *bareStage) Phase() domain.Phase { return domain.PhaseCleaning }

func docs(n int) []domain.RawDocument {
	out := make([]domain.RawDocument, n)
	for i := range out {
		out[i] = domain.RawDocument{ID: fmt.Sprintf("doc-%d", i), Text: fmt.Sprintf("text %d", i)}
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("empty chain rejected", func(t *testing.T) {
		_, err := New(nil)
		if !errors.Is(err, domain.ErrEmptyPipeline) {
			t.Errorf("expected ErrEmptyPipeline, got %v", err)
		}
	})

	t.Run("stage with both capabilities rejected", func(t *testing.T) {
		_, err := New([]driven.Stage{&bothStage{docStage{name: "both"}}})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("stage with neither capability rejected", func(t *testing.T) {
		_, err := New([]driven.Stage{&bareStage{}})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("valid chain", func(t *testing.T) {
		p, err := New([]driven.Stage{&docStage{name: "a"}, &batchStage{name: "b"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.batchSize != DefaultBatchSize || p.workers != 1 {
			t.Error("unexpected defaults")
		}
	})
}

func TestPipeline_Stages(t *testing.T) {
	p, _ := New([]driven.Stage{&docStage{name: "first"}, &batchStage{name: "second"}})
	names := p.Stages()
	if len(names) != 2 || names[0] != "first" || names[1] != "second" {
		t.Errorf("unexpected stage names %v", names)
	}
	phases := p.Phases()
	if phases[0] != domain.PhaseCleaning || phases[1] != domain.PhaseDeduplication {
		t.Errorf("unexpected phases %v", phases)
	}
}

func TestPipeline_ProcessDocument(t *testing.T) {
	t.Run("runs document stages in order", func(t *testing.T) {
		p, _ := New([]driven.Stage{&docStage{name: "a"}, &docStage{name: "b"}})
		rec, err := p.ProcessDocument(context.Background(), domain.RawDocument{ID: "d", Text: "x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"initial_import", "a", "b"}
		if len(rec.History) != 3 || rec.History[1] != want[1] || rec.History[2] != want[2] {
			t.Errorf("expected history %v, got %v", want, rec.History)
		}
	})

	t.Run("skips batch stages", func(t *testing.T) {
		called := false
		batch := &batchStage{name: "dedup", fn: func(recs []*domain.Record) ([]*domain.Record, error) {
			called = true
			return recs, nil
		}}
		p, _ := New([]driven.Stage{batch, &docStage{name: "after"}})
		rec, err := p.ProcessDocument(context.Background(), domain.RawDocument{ID: "d"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called {
			t.Error("expected batch stage skipped for a single document")
		}
		if len(rec.History) != 2 || rec.History[1] != "after" {
			t.Errorf("expected later stages still run, got %v", rec.History)
		}
	})

	t.Run("stage error annotates and stops", func(t *testing.T) {
		failing := &docStage{name: "boom", fn: func(*domain.Record) error {
			return errors.New("stage blew up")
		}}
		later := &docStage{name: "later"}
		p, _ := New([]driven.Stage{failing, later})

		rec, err := p.ProcessDocument(context.Background(), domain.RawDocument{ID: "d"})
		if err != nil {
			t.Fatalf("expected record-level isolation, got %v", err)
		}
		if !rec.Failed() {
			t.Error("expected failure annotation")
		}
		if msg, _ := rec.ProcessingMeta[domain.MetaError].(string); msg != "stage blew up" {
			t.Errorf("expected error message stored, got %q", msg)
		}
		if len(rec.History) != 1 {
			t.Errorf("expected later stages skipped, got %v", rec.History)
		}
	})

	t.Run("stops after drop", func(t *testing.T) {
		dropper := &docStage{name: "drop", fn: func(rec *domain.Record) error {
			rec.ProcessingMeta[domain.MetaDropped] = true
			return nil
		}}
		later := &docStage{name: "later"}
		p, _ := New([]driven.Stage{dropper, later})

		rec, err := p.ProcessDocument(context.Background(), domain.RawDocument{ID: "d"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rec.History) != 1 {
			t.Errorf("expected processing to stop at the drop, got %v", rec.History)
		}
	})

	t.Run("resumes an existing record", func(t *testing.T) {
		p, _ := New([]driven.Stage{&docStage{name: "later"}})
		rec := domain.NewRecord(domain.RawDocument{ID: "d", Text: "x"})
		rec.AddStep("earlier", nil)

		out, err := p.ProcessRecord(context.Background(), rec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"initial_import", "earlier", "later"}
		if len(out.History) != 3 || out.History[1] != want[1] || out.History[2] != want[2] {
			t.Errorf("expected history %v, got %v", want, out.History)
		}
	})

	t.Run("nil record rejected", func(t *testing.T) {
		p, _ := New([]driven.Stage{&docStage{name: "a"}})
		_, err := p.ProcessRecord(context.Background(), nil)
		if !errors.Is(err, domain.ErrNilRecord) {
			t.Errorf("expected ErrNilRecord, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		p, _ := New([]driven.Stage{&docStage{name: "a"}})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.ProcessDocument(ctx, domain.RawDocument{ID: "d"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPipeline_ProcessBatch(t *testing.T) {
	t.Run("applies document stages to every record", func(t *testing.T) {
		p, _ := New([]driven.Stage{&docStage{name: "upper", fn: func(rec *domain.Record) error {
			rec.Text = strings.ToUpper(rec.Text)
			rec.AddStep("upper", nil)
			return nil
		}}})

		recs, err := p.ProcessBatch(context.Background(), docs(3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("expected 3 records, got %d", len(recs))
		}
		for i, rec := range recs {
			if rec.Text != fmt.Sprintf("TEXT %d", i) {
				t.Errorf("record %d not transformed: %q", i, rec.Text)
			}
		}
	})

	t.Run("failure isolated to one record", func(t *testing.T) {
		failing := &docStage{name: "picky", fn: func(rec *domain.Record) error {
			if rec.ID == "doc-1" {
				return errors.New("bad record")
			}
			rec.AddStep("picky", nil)
			return nil
		}}
		later := &docStage{name: "later", fn: func(rec *domain.Record) error {
			rec.AddStep("later", nil)
			return nil
		}}
		p, _ := New([]driven.Stage{failing, later})

		recs, err := p.ProcessBatch(context.Background(), docs(3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("expected failed record kept in output, got %d records", len(recs))
		}
		if !recs[1].Failed() {
			t.Error("expected doc-1 annotated as failed")
		}
		if len(recs[1].History) != 1 {
			t.Errorf("expected no further stages for the failed record, got %v", recs[1].History)
		}
		for _, i := range []int{0, 2} {
			if len(recs[i].History) != 3 {
				t.Errorf("record %d: expected both stages applied, got %v", i, recs[i].History)
			}
		}
	})

	t.Run("dropped records compacted", func(t *testing.T) {
		dropper := &docStage{name: "drop-odd", fn: func(rec *domain.Record) error {
			if rec.ID == "doc-1" {
				rec.ProcessingMeta[domain.MetaDropped] = true
			}
			return nil
		}}
		var seen int32
		counter := &docStage{name: "count", fn: func(rec *domain.Record) error {
			atomic.AddInt32(&seen, 1)
			return nil
		}}
		p, _ := New([]driven.Stage{dropper, counter})

		recs, err := p.ProcessBatch(context.Background(), docs(3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("expected dropped record removed, got %d records", len(recs))
		}
		if seen != 2 {
			t.Errorf("expected later stage to see 2 records, saw %d", seen)
		}
		if recs[0].ID != "doc-0" || recs[1].ID != "doc-2" {
			t.Errorf("expected order preserved, got %s, %s", recs[0].ID, recs[1].ID)
		}
	})

	t.Run("batch stage removals honored", func(t *testing.T) {
		batch := &batchStage{name: "dedup", fn: func(recs []*domain.Record) ([]*domain.Record, error) {
			return recs[:1], nil
		}}
		p, _ := New([]driven.Stage{batch})

		recs, err := p.ProcessBatch(context.Background(), docs(3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 1 || recs[0].ID != "doc-0" {
			t.Errorf("expected only the first record kept, got %v", recs)
		}
	})

	t.Run("failed records bypass batch stage but stay in output", func(t *testing.T) {
		failing := &docStage{name: "picky", fn: func(rec *domain.Record) error {
			if rec.ID == "doc-0" {
				return errors.New("bad record")
			}
			return nil
		}}
		var batchSaw []string
		batch := &batchStage{name: "dedup", fn: func(recs []*domain.Record) ([]*domain.Record, error) {
			for _, rec := range recs {
				batchSaw = append(batchSaw, rec.ID)
			}
			return recs, nil
		}}
		p, _ := New([]driven.Stage{failing, batch})

		recs, err := p.ProcessBatch(context.Background(), docs(3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batchSaw) != 2 || batchSaw[0] != "doc-1" || batchSaw[1] != "doc-2" {
			t.Errorf("expected batch stage to see only healthy records, saw %v", batchSaw)
		}
		if len(recs) != 3 || recs[0].ID != "doc-0" {
			t.Errorf("expected failed record kept in position, got %d records", len(recs))
		}
	})

	t.Run("batch stage error aborts", func(t *testing.T) {
		batch := &batchStage{name: "dedup", fn: func([]*domain.Record) ([]*domain.Record, error) {
			return nil, errors.New("batch failure")
		}}
		p, _ := New([]driven.Stage{batch})

		_, err := p.ProcessBatch(context.Background(), docs(2))
		if err == nil || !strings.Contains(err.Error(), "dedup") {
			t.Errorf("expected wrapped batch stage error, got %v", err)
		}
	})

	t.Run("sub-batch partitioning", func(t *testing.T) {
		var sizes []int
		batch := &batchStage{name: "sizes", fn: func(recs []*domain.Record) ([]*domain.Record, error) {
			sizes = append(sizes, len(recs))
			return recs, nil
		}}
		p, _ := New([]driven.Stage{batch}, WithBatchSize(2))

		recs, err := p.ProcessBatch(context.Background(), docs(5))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 5 {
			t.Errorf("expected all records back, got %d", len(recs))
		}
		want := []int{2, 2, 1}
		if len(sizes) != 3 || sizes[0] != want[0] || sizes[1] != want[1] || sizes[2] != want[2] {
			t.Errorf("expected sub-batch sizes %v, got %v", want, sizes)
		}
	})

	t.Run("concurrent workers process every record", func(t *testing.T) {
		var count int32
		counter := &docStage{name: "count", fn: func(rec *domain.Record) error {
			atomic.AddInt32(&count, 1)
			rec.AddStep("count", nil)
			return nil
		}}
		p, _ := New([]driven.Stage{counter}, WithWorkers(4))

		recs, err := p.ProcessBatch(context.Background(), docs(50))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 50 {
			t.Errorf("expected 50 applications, got %d", count)
		}
		for i, rec := range recs {
			if rec.ID != fmt.Sprintf("doc-%d", i) {
				t.Fatalf("order not preserved at %d: %s", i, rec.ID)
			}
		}
	})
}
