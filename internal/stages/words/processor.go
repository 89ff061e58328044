// Package words provides the word tokenization stage. Tokens are word
// runs or single punctuation marks; the stage consumes the sentence
// list stored by a prior segmentation stage when present.
package words

import (
	"context"
	"regexp"
	"strings"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.DocumentStage = (*Processor)(nil)

var (
	// tokenPattern captures word runs and individual non-space,
	// non-word characters.
	tokenPattern = regexp.MustCompile(`\w+|[^\w\s]`)

	// punctuationPattern matches tokens made entirely of non-word
	// characters.
	punctuationPattern = regexp.MustCompile(`^\W+$`)
)

// Processor tokenizes text into words and populates the record's
// Tokens and TokenCount.
type Processor struct {
	lowercase         bool
	removePunctuation bool
	minWordLength     int
	maxWordLength     int
}

// Option configures the tokenizer.
type Option func(*Processor)

// WithLowercase toggles lowercasing of every token.
func WithLowercase(on bool) Option {
	return func(p *Processor) { p.lowercase = on }
}

// WithPunctuationRemoval toggles dropping punctuation-only tokens.
func WithPunctuationRemoval(on bool) Option {
	return func(p *Processor) { p.removePunctuation = on }
}

// WithMinWordLength sets the minimum token length in bytes.
func WithMinWordLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minWordLength = n
		}
	}
}

// WithMaxWordLength sets the maximum token length in bytes.
// Zero means no limit.
func WithMaxWordLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxWordLength = n
		}
	}
}

// New creates a word tokenizer.
func New(opts ...Option) *Processor {
	p := &Processor{
		minWordLength: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the stage name.
func (p *Processor) Name() string { return "word_tokenizer" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseTokenization }

// Process tokenizes the stored sentence list if present, otherwise the
// raw text, and appends a "word_tokenization" history entry.
func (p *Processor) Process(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return domain.ErrNilRecord
	}

	var tokens []string
	if sentences, ok := rec.Sentences(); ok {
		for _, s := range sentences {
			tokens = append(tokens, Tokenize(s)...)
		}
	} else {
		tokens = Tokenize(rec.Text)
	}

	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if p.lowercase {
			tok = strings.ToLower(tok)
		}
		if p.removePunctuation && punctuationPattern.MatchString(tok) {
			continue
		}
		if len(tok) < p.minWordLength {
			continue
		}
		if p.maxWordLength > 0 && len(tok) > p.maxWordLength {
			continue
		}
		filtered = append(filtered, tok)
	}

	rec.Tokens = filtered
	rec.TokenCount = len(filtered)

	rec.AddStep("word_tokenization", map[string]any{
		"token_count":        len(filtered),
		"lowercase":          p.lowercase,
		"remove_punctuation": p.removePunctuation,
		"min_word_length":    p.minWordLength,
		"max_word_length":    p.maxWordLength,
	})
	return nil
}

// Tokenize splits text into word and punctuation tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}
