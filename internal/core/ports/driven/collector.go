package driven

import (
	"context"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
)

// Collector supplies raw documents from a data source. Implementations
// guarantee non-empty ID, Text, Source and SourceID on every document;
// Metadata may be empty.
type Collector interface {
	// Name returns the source name stamped on collected documents.
	Name() string

	// Collect fetches up to limit documents; limit <= 0 means all.
	Collect(ctx context.Context, limit int) ([]domain.RawDocument, error)

	// Metadata returns descriptive information about the source.
	Metadata() map[string]any
}
