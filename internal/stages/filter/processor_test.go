package filter

import (
	"context"
	"strings"
	"testing"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
)

func newRecord(text string) *domain.Record {
	return domain.NewRecord(domain.RawDocument{ID: "test-doc", Text: text})
}

func TestNew(t *testing.T) {
	t.Run("bad pattern rejected", func(t *testing.T) {
		_, err := New(WithRequiredPatterns([]string{"(unclosed"}))
		if err == nil {
			t.Error("expected error for invalid pattern")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		p, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.minQualityScore != DefaultMinQualityScore || p.minLength != DefaultMinLength {
			t.Error("unexpected defaults")
		}
		if !p.keepDocument {
			t.Error("expected keepDocument true by default")
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p, _ := New()
	if p.Name() != "content_filter" {
		t.Errorf("expected name 'content_filter', got %q", p.Name())
	}
	if p.Phase() != domain.PhaseFiltering {
		t.Errorf("expected filtering phase, got %q", p.Phase())
	}
}

func TestProcessor_Process_TooShort(t *testing.T) {
	p, _ := New()
	rec := newRecord("tiny")

	if err := p.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Filtered() {
		t.Error("expected record filtered")
	}
	reason, _ := rec.ProcessingMeta[domain.MetaFilterReason].(string)
	if !strings.HasPrefix(reason, "text too short") {
		t.Errorf("expected short-text reason, got %q", reason)
	}
	if rec.Dropped() {
		t.Error("expected record kept with default keep_document")
	}
}

func TestProcessor_Process_CheckOrder(t *testing.T) {
	// Short text that also contains an excluded pattern: the length
	// check runs first and wins.
	p, _ := New(WithExcludedPatterns([]string{"spam"}))
	rec := newRecord("spam")

	if err := p.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reason, _ := rec.ProcessingMeta[domain.MetaFilterReason].(string)
	if !strings.HasPrefix(reason, "text too short") {
		t.Errorf("expected length check to fire first, got %q", reason)
	}
}

func TestProcessor_Process_QualityOnlyWhenScored(t *testing.T) {
	p, _ := New(WithMinLength(0), WithMinQualityScore(0.9))
	text := strings.Repeat("acceptable text. ", 10)

	t.Run("unscored record passes", func(t *testing.T) {
		rec := newRecord(text)
		if err := p.Process(context.Background(), rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Filtered() {
			t.Error("expected unscored record to skip the quality check")
		}
	})

	t.Run("low score rejected", func(t *testing.T) {
		rec := newRecord(text)
		low := 0.2
		rec.QualityScore = &low
		if err := p.Process(context.Background(), rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		reason, _ := rec.ProcessingMeta[domain.MetaFilterReason].(string)
		if !strings.HasPrefix(reason, "quality score too low") {
			t.Errorf("expected quality reason, got %q", reason)
		}
	})
}

func TestProcessor_Process_RequiredPatterns(t *testing.T) {
	p, _ := New(WithMinLength(0), WithRequiredPatterns([]string{"court", "ruling"}))
	rec := newRecord("the COURT issued no such thing")

	if err := p.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reason, _ := rec.ProcessingMeta[domain.MetaFilterReason].(string)
	if reason != "missing required pattern: ruling" {
		t.Errorf("expected missing-pattern reason with case-insensitive match, got %q", reason)
	}
}

func TestProcessor_Process_ExcludedPatterns(t *testing.T) {
	p, _ := New(WithMinLength(0), WithExcludedPatterns([]string{"advertisement"}))
	rec := newRecord("this Advertisement is unwanted")

	if err := p.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reason, _ := rec.ProcessingMeta[domain.MetaFilterReason].(string)
	if reason != "contains excluded pattern: advertisement" {
		t.Errorf("expected excluded-pattern reason, got %q", reason)
	}
}

func TestProcessor_Process_DropWhenNotKeeping(t *testing.T) {
	p, _ := New(WithKeepDocument(false))
	rec := newRecord("short")

	if err := p.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Dropped() {
		t.Error("expected record marked for removal")
	}
}

func TestProcessor_Process_Pass(t *testing.T) {
	p, _ := New()
	rec := newRecord(strings.Repeat("a perfectly reasonable sentence. ", 10))

	if err := p.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Filtered() {
		t.Error("expected record to pass")
	}
	if v, ok := rec.ProcessingMeta[domain.MetaFiltered].(bool); !ok || v {
		t.Error("expected explicit filtered=false annotation")
	}
	if len(rec.History) != 2 || rec.History[1] != "content_filtering" {
		t.Errorf("expected history entry on pass, got %v", rec.History)
	}
}
