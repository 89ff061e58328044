// Package quality provides the quality assessment stage: five clamped
// sub-scores (length, average word length, sentence count, repetition,
// alphanumeric ratio) combined into a weighted composite.
package quality

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.DocumentStage = (*Processor)(nil)

// Defaults for the scoring thresholds.
const (
	DefaultMinLength            = 100
	DefaultMinAvgWordLength     = 3.0
	DefaultMaxAvgWordLength     = 15.0
	DefaultMinSentenceCount     = 3
	DefaultMaxRepetitionRatio   = 0.3
	DefaultMinAlphanumericRatio = 0.7
)

// DefaultWeights is the default sub-score weighting; it sums to 1.0 so
// the composite stays within [0, 1].
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"length_score":          0.2,
		"avg_word_length_score": 0.1,
		"sentence_count_score":  0.2,
		"repetition_score":      0.2,
		"alphanumeric_score":    0.3,
	}
}

// Processor computes text quality metrics and the composite score.
type Processor struct {
	minLength            int
	maxLength            int
	minAvgWordLength     float64
	maxAvgWordLength     float64
	minSentenceCount     int
	maxRepetitionRatio   float64
	minAlphanumericRatio float64
	weights              map[string]float64
}

// Option configures the scorer.
type Option func(*Processor)

// WithMinLength sets the minimum text length in bytes.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
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

// WithAvgWordLengthBounds sets the average word length band scored 1.0.
func WithAvgWordLengthBounds(min, max float64) Option {
	return func(p *Processor) {
		if min > 0 {
			p.minAvgWordLength = min
		}
		if max > 0 {
			p.maxAvgWordLength = max
		}
	}
}

// WithMinSentenceCount sets the sentence count scored 1.0.
func WithMinSentenceCount(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minSentenceCount = n
		}
	}
}

// WithMaxRepetitionRatio sets the repeated-content ceiling.
func WithMaxRepetitionRatio(r float64) Option {
	return func(p *Processor) {
		if r > 0 {
			p.maxRepetitionRatio = r
		}
	}
}

// WithMinAlphanumericRatio sets the alphanumeric character floor.
func WithMinAlphanumericRatio(r float64) Option {
	return func(p *Processor) {
		if r > 0 {
			p.minAlphanumericRatio = r
		}
	}
}

// WithWeights overrides the sub-score weights. The sum is not required
// to be 1.0; with custom weights the composite ranges over
// [0, sum(weights)].
func WithWeights(w map[string]float64) Option {
	return func(p *Processor) {
		if len(w) > 0 {
			p.weights = w
		}
	}
}

// New creates a quality scorer. Negative weights are rejected.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		minLength:            DefaultMinLength,
		minAvgWordLength:     DefaultMinAvgWordLength,
		maxAvgWordLength:     DefaultMaxAvgWordLength,
		minSentenceCount:     DefaultMinSentenceCount,
		maxRepetitionRatio:   DefaultMaxRepetitionRatio,
		minAlphanumericRatio: DefaultMinAlphanumericRatio,
		weights:              DefaultWeights(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for name, w := range p.weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight %q", domain.ErrInvalidInput, name)
		}
	}
	return p, nil
}

// Name returns the stage name.
func (p *Processor) Name() string { return "quality_scorer" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseQuality }

// Process computes all sub-metrics and the composite score, storing
// them in QualityMetrics/QualityScore and appending a
// "quality_assessment" history entry.
func (p *Processor) Process(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return domain.ErrNilRecord
	}

	text := rec.Text
	metrics := make(map[string]float64)

	textLength := len(text)
	metrics["text_length"] = float64(textLength)
	metrics["length_score"] = p.lengthScore(textLength)

	// Word-based metrics.
	fields := strings.Fields(text)
	wordCount := len(fields)
	metrics["word_count"] = float64(wordCount)

	var avgWordLength float64
	if wordCount > 0 {
		total := 0
		for _, w := range fields {
			total += len(w)
		}
		avgWordLength = float64(total) / float64(wordCount)
	}
	metrics["avg_word_length"] = avgWordLength
	metrics["avg_word_length_score"] = p.avgWordLengthScore(avgWordLength, wordCount)

	// Sentence count: read from a prior segmentation stage if present,
	// otherwise estimate by counting terminators.
	sentenceCount, ok := rec.SentenceCount()
	if !ok || sentenceCount == 0 {
		sentenceCount = strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
		if sentenceCount < 1 {
			sentenceCount = 1
		}
	}
	metrics["sentence_count"] = float64(sentenceCount)
	metrics["sentence_count_score"] = clamp01(float64(sentenceCount) / float64(p.minSentenceCount))

	// Repetition: complement of the unique word ratio.
	var repetitionRatio, repetitionScore float64
	if wordCount > 0 {
		unique := make(map[string]struct{}, wordCount)
		for _, w := range fields {
			unique[w] = struct{}{}
		}
		repetitionRatio = 1.0 - float64(len(unique))/float64(wordCount)
		repetitionScore = clamp01(1.0 - repetitionRatio/p.maxRepetitionRatio)
	} else {
		repetitionRatio = 1.0
	}
	metrics["repetition_ratio"] = repetitionRatio
	metrics["repetition_score"] = repetitionScore

	// Alphanumeric ratio over runes.
	var alnum, runeCount int
	for _, r := range text {
		runeCount++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	var alnumRatio float64
	if runeCount > 0 {
		alnumRatio = float64(alnum) / float64(runeCount)
	}
	metrics["alphanumeric_ratio"] = alnumRatio

	alnumScore := 1.0
	if alnumRatio < p.minAlphanumericRatio {
		alnumScore = alnumRatio / p.minAlphanumericRatio
	}
	metrics["alphanumeric_score"] = alnumScore

	// Weighted composite over the metrics the weight map names.
	var score float64
	for name, weight := range p.weights {
		if value, ok := metrics[name]; ok {
			score += value * weight
		}
	}

	rec.QualityMetrics = metrics
	rec.QualityScore = &score

	stepMeta := map[string]any{"quality_score": score}
	for name, value := range metrics {
		stepMeta[name] = value
	}
	rec.AddStep("quality_assessment", stepMeta)
	return nil
}

// lengthScore ramps linearly between min and max length. Without a max
// it ramps up to the minimum and caps at 1.
func (p *Processor) lengthScore(length int) float64 {
	if p.maxLength > 0 {
		var score float64
		if p.maxLength > p.minLength {
			score = clamp01(float64(length-p.minLength) / float64(p.maxLength-p.minLength))
		}
		if length > p.maxLength {
			score = max0(1.0 - float64(length-p.maxLength)/float64(p.maxLength))
		}
		return score
	}
	if length >= p.minLength {
		return 1.0
	}
	return float64(length) / float64(p.minLength)
}

// avgWordLengthScore is 1.0 inside the configured band with a linear
// falloff outside either bound; 0 for an empty document.
func (p *Processor) avgWordLengthScore(avg float64, wordCount int) float64 {
	switch {
	case wordCount == 0:
		return 0.0
	case avg < p.minAvgWordLength:
		return avg / p.minAvgWordLength
	case avg > p.maxAvgWordLength:
		return max0(1.0 - (avg-p.maxAvgWordLength)/p.maxAvgWordLength)
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
