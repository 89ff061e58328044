// Package csvfile provides a collector reading documents from local CSV
// files, optionally gzip-compressed.
package csvfile

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
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

// Collector reads one document per CSV row. The first row must be a
// header; the text column is required, everything else is optional.
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

// WithTextField sets the column holding document text (default "text").
func WithTextField(field string) Option {
	return func(c *Collector) { c.textField = field }
}

// WithIDField sets the column holding the source-local document ID.
// Without it every document gets a fresh UUID.
func WithIDField(field string) Option {
	return func(c *Collector) { c.idField = field }
}

// WithMetadataFields sets the columns copied into document metadata.
func WithMetadataFields(fields []string) Option {
	return func(c *Collector) { c.metadataFields = fields }
}

// New creates a CSV collector for the given file. A ".gz" suffix
// selects transparent gzip decompression.
func New(path string, opts ...Option) (*Collector, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: csv collector requires a path", domain.ErrInvalidInput)
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
func (c *Collector) Name() string { return "csv" }

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

// Collect reads up to limit documents (limit <= 0 reads all). Rows with
// a missing or empty text column are skipped with a warning rather than
// failing the run.
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

	return c.collectFrom(ctx, reader, limit)
}

func (c *Collector) collectFrom(ctx context.Context, reader io.Reader, limit int) ([]domain.RawDocument, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	textIdx, ok := index[c.textField]
	if !ok {
		return nil, fmt.Errorf("%w: column %q not in header", domain.ErrInvalidInput, c.textField)
	}

	var docs []domain.RawDocument
	skipped := 0
	for limit <= 0 || len(docs) < limit {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if textIdx >= len(row) || strings.TrimSpace(row[textIdx]) == "" {
			skipped++
			continue
		}

		doc := domain.RawDocument{
			Text:     row[textIdx],
			Source:   c.source,
			Metadata: make(map[string]any),
		}
		if idx, ok := index[c.idField]; c.idField != "" && ok && idx < len(row) {
			doc.SourceID = row[idx]
		}
		if doc.SourceID != "" {
			doc.ID = fmt.Sprintf("%s:%s", c.source, doc.SourceID)
		} else {
			doc.ID = uuid.NewString()
		}
		for _, field := range c.metadataFields {
			if idx, ok := index[field]; ok && idx < len(row) {
				doc.Metadata[field] = row[idx]
			}
		}
		docs = append(docs, doc)
	}

	if skipped > 0 {
		logger.Warn("csv collector: skipped %d unusable rows in %s", skipped, c.path)
	}
	logger.Debug("csv collector: collected %d documents from %s", len(docs), c.path)
	return docs, nil
}
