// Package sentence provides the sentence segmentation stage. The
// built-in segmenter splits on sentence-ending punctuation followed by
// whitespace; a model-backed splitter can be injected and the built-in
// split serves as the fallback when it is unavailable.
package sentence

import (
	"context"
	"strings"
	"unicode"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.DocumentStage = (*Processor)(nil)

// DefaultMinSentenceLength is the default word-count floor per sentence.
const DefaultMinSentenceLength = 3

// SplitFunc segments text into sentences. Implementations backed by an
// external language resource may return ok=false when the resource
// cannot be loaded, in which case the built-in splitter is used.
type SplitFunc func(text string) (sentences []string, ok bool)

// Processor splits text into sentences, filters them by word count and
// stores the result in the record's processing metadata.
type Processor struct {
	split      SplitFunc
	minLength  int
	maxLength  int
	storeSpans bool
}

// Option configures the segmenter.
type Option func(*Processor)

// WithSegmenter injects a model-backed sentence splitter.
func WithSegmenter(fn SplitFunc) Option {
	return func(p *Processor) { p.split = fn }
}

// WithMinSentenceLength sets the minimum sentence length in words.
func WithMinSentenceLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// WithMaxSentenceLength sets the maximum sentence length in words.
// Zero means no limit.
func WithMaxSentenceLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxLength = n
		}
	}
}

// WithSentenceSpans enables storing character spans for each sentence.
// Spans that cannot be located in the text are skipped, not errored.
func WithSentenceSpans(on bool) Option {
	return func(p *Processor) { p.storeSpans = on }
}

// New creates a sentence segmenter.
func New(opts ...Option) *Processor {
	p := &Processor{
		minLength: DefaultMinSentenceLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the stage name.
func (p *Processor) Name() string { return "sentence_tokenizer" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseTokenization }

// Process segments the record's text and stores sentences, count and
// optionally spans in processing metadata, with a
// "sentence_tokenization" history entry.
func (p *Processor) Process(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return domain.ErrNilRecord
	}

	text := rec.Text

	var sentences []string
	if p.split != nil {
		if segs, ok := p.split(text); ok {
			sentences = segs
		}
	}
	if sentences == nil {
		sentences = Split(text)
	}

	if p.minLength > 0 || p.maxLength > 0 {
		filtered := sentences[:0:0]
		for _, s := range sentences {
			wc := len(strings.Fields(s))
			if wc < p.minLength {
				continue
			}
			if p.maxLength > 0 && wc > p.maxLength {
				continue
			}
			filtered = append(filtered, s)
		}
		sentences = filtered
	}

	if p.storeSpans {
		spans := make([][2]int, 0, len(sentences))
		start := 0
		for _, s := range sentences {
			// Scan forward for the first occurrence; unfindable
			// sentences are skipped rather than asserted on.
			idx := strings.Index(text[start:], s)
			if idx < 0 {
				continue
			}
			from := start + idx
			to := from + len(s)
			spans = append(spans, [2]int{from, to})
			start = to
		}
		rec.ProcessingMeta[domain.MetaSentenceSpans] = spans
	}

	rec.ProcessingMeta[domain.MetaSentences] = sentences
	rec.ProcessingMeta[domain.MetaSentenceCount] = len(sentences)

	rec.AddStep("sentence_tokenization", map[string]any{
		"sentence_count":      len(sentences),
		"min_sentence_length": p.minLength,
		"max_sentence_length": p.maxLength,
	})
	return nil
}

// Split segments text on sentence-ending punctuation (. ! ?) followed
// by whitespace. The terminator stays attached to its sentence.
func Split(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		// Consume a run of terminators ("..." or "?!").
		end := i
		for end+1 < len(runes) && isTerminator(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
			i = end
			continue
		}

		sentences = append(sentences, string(runes[start:end+1]))

		// Skip the whitespace run to the next sentence start.
		next := end + 1
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		start = next
		i = next - 1
	}

	if start < len(runes) {
		rest := strings.TrimSpace(string(runes[start:]))
		if rest != "" {
			sentences = append(sentences, rest)
		}
	}

	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
