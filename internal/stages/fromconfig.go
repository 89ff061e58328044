package stages

import (
	"fmt"

	"github.com/poeticinspiired/llm-data-pipeline/internal/config"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/pipeline"
)

// FromConfig builds each configured stage through the registry and
// assembles the pipeline in config order.
func FromConfig(r *Registry, cfg *config.Config) (*pipeline.Pipeline, error) {
	built := make([]driven.Stage, 0, len(cfg.Stages))
	for _, sc := range cfg.Stages {
		st, err := r.Build(sc.Name, sc.Options)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", sc.Name, err)
		}
		built = append(built, st)
	}

	var opts []pipeline.Option
	if cfg.BatchSize > 0 {
		opts = append(opts, pipeline.WithBatchSize(cfg.BatchSize))
	}
	if cfg.Workers > 0 {
		opts = append(opts, pipeline.WithWorkers(cfg.Workers))
	}
	return pipeline.New(built, opts...)
}
