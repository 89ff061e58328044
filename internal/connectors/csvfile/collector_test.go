package csvfile

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	t.Run("empty path rejected", func(t *testing.T) {
		_, err := New("")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := New("file.csv")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.textField != "text" || c.source != "file.csv" {
			t.Error("unexpected defaults")
		}
	})
}

func TestCollector_Collect(t *testing.T) {
	path := writeCSV(t, "opinions.csv",
		"id,text,court\n"+
			"1,first opinion text,ca9\n"+
			"2,second opinion text,scotus\n"+
			"3,,ca1\n"+
			"4,third opinion text,ca2\n")

	c, err := New(path,
		WithSource("test_corpus"),
		WithIDField("id"),
		WithMetadataFields([]string{"court"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, err := c.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents with the empty row skipped, got %d", len(docs))
	}
	if docs[0].ID != "test_corpus:1" || docs[0].SourceID != "1" {
		t.Errorf("unexpected identity %q / %q", docs[0].ID, docs[0].SourceID)
	}
	if docs[0].Text != "first opinion text" {
		t.Errorf("unexpected text %q", docs[0].Text)
	}
	if docs[0].Source != "test_corpus" {
		t.Errorf("unexpected source %q", docs[0].Source)
	}
	if docs[0].Metadata["court"] != "ca9" {
		t.Errorf("unexpected metadata %v", docs[0].Metadata)
	}
	if docs[2].ID != "test_corpus:4" {
		t.Errorf("expected skipped row not to shift IDs, got %q", docs[2].ID)
	}
}

func TestCollector_Collect_Limit(t *testing.T) {
	path := writeCSV(t, "many.csv", "text\none\ntwo\nthree\n")
	c, _ := New(path)

	docs, err := c.Collect(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected limit honored, got %d documents", len(docs))
	}
}

func TestCollector_Collect_UUIDWithoutIDField(t *testing.T) {
	path := writeCSV(t, "noid.csv", "text\nsome document\n")
	c, _ := New(path)

	docs, err := c.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].ID == "" {
		t.Error("expected generated ID")
	}
	if docs[0].SourceID != "" {
		t.Errorf("expected empty source ID, got %q", docs[0].SourceID)
	}
}

func TestCollector_Collect_MissingTextColumn(t *testing.T) {
	path := writeCSV(t, "bad.csv", "id,body\n1,content\n")
	c, _ := New(path)

	_, err := c.Collect(context.Background(), 0)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing column, got %v", err)
	}
}

func TestCollector_Collect_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opinions.csv.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("text\ncompressed doc\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	c, _ := New(path)
	docs, err := c.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].Text != "compressed doc" {
		t.Errorf("unexpected documents %v", docs)
	}
}

func TestCollector_Collect_MissingFile(t *testing.T) {
	c, _ := New(filepath.Join(t.TempDir(), "absent.csv"))
	if _, err := c.Collect(context.Background(), 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCollector_Metadata(t *testing.T) {
	c, _ := New("file.csv", WithTextField("plain_text"))
	meta := c.Metadata()
	if meta["text_field"] != "plain_text" || meta["path"] != "file.csv" {
		t.Errorf("unexpected metadata %v", meta)
	}
	if c.Name() != "csv" {
		t.Errorf("unexpected name %q", c.Name())
	}
}
