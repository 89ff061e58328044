// Package filter provides the content filtering stage: sequential
// short-circuit checks against length bounds, quality score and
// required/excluded patterns.
package filter

import (
	"context"
	"fmt"
	"regexp"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.DocumentStage = (*Processor)(nil)

// Defaults for the filter thresholds.
const (
	DefaultMinQualityScore = 0.5
	DefaultMinLength       = 100
)

// Processor accepts, flags or drops records. Checks run in a fixed
// order (min length, max length, quality, required patterns, excluded
// patterns) and the first failure wins.
type Processor struct {
	minQualityScore  float64
	minLength        int
	maxLength        int
	requiredPatterns []string
	excludedPatterns []string
	keepDocument     bool

	requiredRegexps []*regexp.Regexp
	excludedRegexps []*regexp.Regexp
}

// Option configures the filter.
type Option func(*Processor)

// WithMinQualityScore sets the quality floor. The check only applies to
// records a quality stage has scored.
func WithMinQualityScore(s float64) Option {
	return func(p *Processor) { p.minQualityScore = s }
}

// WithMinLength sets the minimum text length in bytes.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// WithMaxLength sets the maximum text length in bytes. Zero means no
// limit.
func WithMaxLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxLength = n
		}
	}
}

// WithRequiredPatterns sets patterns that must each match somewhere in
// the text, checked in the given order. Matching is case-insensitive.
func WithRequiredPatterns(patterns []string) Option {
	return func(p *Processor) { p.requiredPatterns = patterns }
}

// WithExcludedPatterns sets patterns that must not match anywhere in
// the text. Matching is case-insensitive.
func WithExcludedPatterns(patterns []string) Option {
	return func(p *Processor) { p.excludedPatterns = patterns }
}

// WithKeepDocument controls whether failing records are retained with a
// filtered annotation (true, the default) or marked for removal from
// the output set (false). Records are never silently discarded.
func WithKeepDocument(keep bool) Option {
	return func(p *Processor) { p.keepDocument = keep }
}

// New creates a content filter. Pattern compilation errors are
// reported at construction time.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		minQualityScore: DefaultMinQualityScore,
		minLength:       DefaultMinLength,
		keepDocument:    true,
	}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	if p.requiredRegexps, err = compileInsensitive(p.requiredPatterns); err != nil {
		return nil, fmt.Errorf("required pattern: %w", err)
	}
	if p.excludedRegexps, err = compileInsensitive(p.excludedPatterns); err != nil {
		return nil, fmt.Errorf("excluded pattern: %w", err)
	}
	return p, nil
}

func compileInsensitive(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, pattern := range patterns {
		re, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			return nil, err
		}
		compiled[i] = re
	}
	return compiled, nil
}

// Name returns the stage name.
func (p *Processor) Name() string { return "content_filter" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseFiltering }

// Process runs the checks in order. The first failure annotates the
// record with filtered=true and a reason and, when keep_document is
// false, marks it for removal. Passing records get filtered=false and
// a "content_filtering" history entry.
func (p *Processor) Process(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return domain.ErrNilRecord
	}

	if reason := p.firstFailure(rec); reason != "" {
		rec.ProcessingMeta[domain.MetaFiltered] = true
		rec.ProcessingMeta[domain.MetaFilterReason] = reason
		if !p.keepDocument {
			rec.ProcessingMeta[domain.MetaDropped] = true
		}
		return nil
	}

	rec.ProcessingMeta[domain.MetaFiltered] = false
	rec.AddStep("content_filtering", map[string]any{
		"passed":                  true,
		"min_quality_score":       p.minQualityScore,
		"min_length":              p.minLength,
		"max_length":              p.maxLength,
		"required_patterns_count": len(p.requiredPatterns),
		"excluded_patterns_count": len(p.excludedPatterns),
	})
	return nil
}

// firstFailure returns the reason for the first failed check, or ""
// when all checks pass.
func (p *Processor) firstFailure(rec *domain.Record) string {
	textLength := len(rec.Text)

	if textLength < p.minLength {
		return fmt.Sprintf("text too short: %d < %d", textLength, p.minLength)
	}
	if p.maxLength > 0 && textLength > p.maxLength {
		return fmt.Sprintf("text too long: %d > %d", textLength, p.maxLength)
	}
	if rec.QualityScore != nil && *rec.QualityScore < p.minQualityScore {
		return fmt.Sprintf("quality score too low: %.3f < %.3f", *rec.QualityScore, p.minQualityScore)
	}
	for i, re := range p.requiredRegexps {
		if !re.MatchString(rec.Text) {
			return fmt.Sprintf("missing required pattern: %s", p.requiredPatterns[i])
		}
	}
	for i, re := range p.excludedRegexps {
		if re.MatchString(rec.Text) {
			return fmt.Sprintf("contains excluded pattern: %s", p.excludedPatterns[i])
		}
	}
	return ""
}
