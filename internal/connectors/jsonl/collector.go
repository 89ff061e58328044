// Package jsonl provides a collector reading documents from JSON Lines
// files, optionally gzip-compressed.
package jsonl

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/logger"
)

// Ensure Collector implements the interface.
var _ driven.Collector = (*Collector)(nil)

// maxLineBytes bounds a single JSON line. Court opinions run long, so
// the default bufio limit is far too small.
const maxLineBytes = 16 * 1024 * 1024

// Collector reads one JSON object per line.
type Collector struct {
	path           string
	source         string
	textField      string
	idField        string
	metadataFields []string
}

// Option configures the collector.
type Option func(*Collector)

// WithSource overrides the source name recorded on documents. The
// default is the file path.
func WithSource(name string) Option {
	return func(c *Collector) { c.source = name }
}

// WithTextField sets the key holding document text (default "text").
func WithTextField(field string) Option {
	return func(c *Collector) { c.textField = field }
}

// WithIDField sets the key holding the source-local document ID.
// Without it every document gets a fresh UUID.
func WithIDField(field string) Option {
	return func(c *Collector) { c.idField = field }
}

// WithMetadataFields sets the keys copied into document metadata.
func WithMetadataFields(fields []string) Option {
	return func(c *Collector) { c.metadataFields = fields }
}

// New creates a JSONL collector for the given file. A ".gz" suffix
// selects transparent gzip decompression.
func New(path string, opts ...Option) (*Collector, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: jsonl collector requires a path", domain.ErrInvalidInput)
	}
	c := &Collector{
		path:      path,
		source:    path,
		textField: "text",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the collector name.
func (c *Collector) Name() string { return "jsonl" }

// Metadata describes the collector configuration.
func (c *Collector) Metadata() map[string]any {
	return map[string]any{
		"path":            c.path,
		"source":          c.source,
		"text_field":      c.textField,
		"id_field":        c.idField,
		"metadata_fields": c.metadataFields,
	}
}

// Collect reads up to limit documents (limit <= 0 reads all). Lines
// that fail to parse or lack text are skipped with a warning.
func (c *Collector) Collect(ctx context.Context, limit int) ([]domain.RawDocument, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(c.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", c.path, err)
		}
		defer gz.Close()
		reader = gz
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var docs []domain.RawDocument
	skipped := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		if limit > 0 && len(docs) >= limit {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			skipped++
			continue
		}
		text, _ := obj[c.textField].(string)
		if strings.TrimSpace(text) == "" {
			skipped++
			continue
		}

		doc := domain.RawDocument{
			Text:     text,
			Source:   c.source,
			Metadata: make(map[string]any),
		}
		if c.idField != "" {
			doc.SourceID = stringify(obj[c.idField])
		}
		if doc.SourceID != "" {
			doc.ID = fmt.Sprintf("%s:%s", c.source, doc.SourceID)
		} else {
			doc.ID = uuid.NewString()
		}
		for _, field := range c.metadataFields {
			if v, ok := obj[field]; ok {
				doc.Metadata[field] = v
			}
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return docs, fmt.Errorf("scan %s: %w", c.path, err)
	}

	if skipped > 0 {
		logger.Warn("jsonl collector: skipped %d unusable lines in %s", skipped, c.path)
	}
	logger.Debug("jsonl collector: collected %d documents from %s", len(docs), c.path)
	return docs, nil
}

// stringify renders an ID value however JSON decoded it.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
