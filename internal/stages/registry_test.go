package stages

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

func TestRegistry(t *testing.T) {
	t.Run("build registered stage", func(t *testing.T) {
		r := NewRegistry()
		RegisterDefaults(r)

		st, err := r.Build("basic_text_cleaner", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st.Name() != "basic_text_cleaner" {
			t.Errorf("expected matching stage name, got %q", st.Name())
		}
	})

	t.Run("unknown stage", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Build("nonexistent", nil)
		if err == nil {
			t.Error("expected error for unknown stage")
		}
	})

	t.Run("has", func(t *testing.T) {
		r := NewRegistry()
		RegisterDefaults(r)
		if !r.Has("deduplicator") {
			t.Error("expected deduplicator registered")
		}
		if r.Has("bogus") {
			t.Error("expected bogus absent")
		}
	})

	t.Run("names", func(t *testing.T) {
		r := NewRegistry()
		RegisterDefaults(r)
		names := r.Names()
		sort.Strings(names)
		want := []string{
			"basic_text_cleaner",
			"content_filter",
			"deduplicator",
			"legal_text_cleaner",
			"legal_tokenizer",
			"quality_scorer",
			"sentence_tokenizer",
			"text_normalizer",
			"word_tokenizer",
		}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("expected names %v, got %v", want, names)
		}
	})
}

func TestRegisterDefaults_BuildAll(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			st, err := r.Build(name, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if st.Name() != name {
				t.Errorf("registered name %q does not match stage name %q", name, st.Name())
			}
			_, isDoc := st.(driven.DocumentStage)
			_, isBatch := st.(driven.BatchStage)
			if isDoc == isBatch {
				t.Error("expected exactly one capability interface")
			}
		})
	}
}

func TestBuildDeduplicator_Config(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	t.Run("invalid method surfaces builder error", func(t *testing.T) {
		_, err := r.Build("deduplicator", map[string]any{"method": "fuzzy"})
		if err == nil {
			t.Error("expected error for unsupported method")
		}
	})

	t.Run("configured stage runs", func(t *testing.T) {
		st, err := r.Build("deduplicator", map[string]any{
			"method":     "simhash",
			"ngram_size": int64(4),
			"keep_first": false,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		batch, ok := st.(driven.BatchStage)
		if !ok {
			t.Fatal("expected a batch stage")
		}
		recs := []*domain.Record{
			domain.NewRecord(domain.RawDocument{ID: "a", Text: "duplicate text body here"}),
			domain.NewRecord(domain.RawDocument{ID: "b", Text: "duplicate text body here"}),
		}
		out, err := batch.ProcessBatch(context.Background(), recs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 2 {
			t.Errorf("expected keep_first=false to return the full batch, got %d", len(out))
		}
		if !out[1].Duplicate() {
			t.Error("expected second record annotated")
		}
	})
}

func TestBuildContentFilter_Config(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	st, err := r.Build("content_filter", map[string]any{
		"min_length":    int64(5),
		"keep_document": false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, ok := st.(driven.DocumentStage)
	if !ok {
		t.Fatal("expected a document stage")
	}
	rec := domain.NewRecord(domain.RawDocument{ID: "a", Text: "hi"})
	if err := doc.Process(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Dropped() {
		t.Error("expected keep_document=false honored")
	}
}

func TestConfigHelpers(t *testing.T) {
	t.Run("getInt", func(t *testing.T) {
		cfg := map[string]any{"a": 1, "b": int64(2), "c": float64(3), "d": "nope"}
		if getInt(cfg, "a") != 1 || getInt(cfg, "b") != 2 || getInt(cfg, "c") != 3 {
			t.Error("expected all numeric forms accepted")
		}
		if getInt(cfg, "d") != 0 || getInt(cfg, "missing") != 0 {
			t.Error("expected zero for wrong type and missing key")
		}
	})

	t.Run("getFloat", func(t *testing.T) {
		cfg := map[string]any{"a": 1.5, "b": 2, "c": int64(3)}
		if getFloat(cfg, "a") != 1.5 || getFloat(cfg, "b") != 2 || getFloat(cfg, "c") != 3 {
			t.Error("expected all numeric forms accepted")
		}
	})

	t.Run("getBool distinguishes unset from false", func(t *testing.T) {
		cfg := map[string]any{"off": false}
		if v, ok := getBool(cfg, "off"); !ok || v {
			t.Error("expected explicit false reported as present")
		}
		if _, ok := getBool(cfg, "missing"); ok {
			t.Error("expected missing key reported as absent")
		}
	})

	t.Run("getStringSlice", func(t *testing.T) {
		cfg := map[string]any{
			"typed": []string{"a", "b"},
			"any":   []any{"c", 7, "d"},
		}
		if got := getStringSlice(cfg, "typed"); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("unexpected typed slice %v", got)
		}
		if got := getStringSlice(cfg, "any"); !reflect.DeepEqual(got, []string{"c", "d"}) {
			t.Errorf("expected non-strings skipped, got %v", got)
		}
	})

	t.Run("getFloatMap", func(t *testing.T) {
		cfg := map[string]any{"weights": map[string]any{"x": 0.5, "y": int64(1), "z": "bad"}}
		got := getFloatMap(cfg, "weights")
		want := map[string]float64{"x": 0.5, "y": 1}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}
