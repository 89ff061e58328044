// Package cleaner provides the generic text cleaning stage: Unicode
// normalization, URL/email removal, whitespace collapsing, newline
// capping, optional lowercasing and line wrapping.
package cleaner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.DocumentStage = (*Processor)(nil)

// DefaultMaxConsecutiveNewlines caps runs of blank lines.
const DefaultMaxConsecutiveNewlines = 3

var (
	urlPattern   = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+(?:/[^/\s]*)*`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Collapses horizontal whitespace runs without touching newlines, so
	// the newline cap below still has newlines to cap.
	spacePattern = regexp.MustCompile(`[^\S\n]+`)
)

// Processor normalizes text at the character and whitespace level.
// Unicode normalization runs before pattern matching so URL and email
// patterns see canonical form.
type Processor struct {
	normalizeWhitespace bool
	normalizeUnicode    bool
	removeURLs          bool
	removeEmails        bool
	lowercase           bool
	maxNewlines         int
	maxLineLength       int

	newlinePattern *regexp.Regexp
}

// Option configures the cleaner.
type Option func(*Processor)

// WithWhitespaceNormalization toggles whitespace collapsing.
func WithWhitespaceNormalization(on bool) Option {
	return func(p *Processor) { p.normalizeWhitespace = on }
}

// WithUnicodeNormalization toggles NFKC normalization.
func WithUnicodeNormalization(on bool) Option {
	return func(p *Processor) { p.normalizeUnicode = on }
}

// WithURLRemoval toggles URL stripping.
func WithURLRemoval(on bool) Option {
	return func(p *Processor) { p.removeURLs = on }
}

// WithEmailRemoval toggles email address stripping.
func WithEmailRemoval(on bool) Option {
	return func(p *Processor) { p.removeEmails = on }
}

// WithLowercase toggles lowercasing of the whole text.
func WithLowercase(on bool) Option {
	return func(p *Processor) { p.lowercase = on }
}

// WithMaxConsecutiveNewlines sets the blank-line cap.
func WithMaxConsecutiveNewlines(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxNewlines = n
		}
	}
}

// WithMaxLineLength enables hard line wrapping at the given width,
// preferring word boundaries. Zero disables wrapping.
func WithMaxLineLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxLineLength = n
		}
	}
}

// New creates a cleaner with the given options. All cleanup steps
// except lowercasing and line wrapping are enabled by default.
func New(opts ...Option) *Processor {
	p := &Processor{
		normalizeWhitespace: true,
		normalizeUnicode:    true,
		removeURLs:          true,
		removeEmails:        true,
		maxNewlines:         DefaultMaxConsecutiveNewlines,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.newlinePattern = regexp.MustCompile(fmt.Sprintf(`\n{%d,}`, p.maxNewlines+1))
	return p
}

// Name returns the stage name.
func (p *Processor) Name() string { return "basic_text_cleaner" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseCleaning }

// Process rewrites the record's text in place and appends a
// "basic_text_cleaning" history entry with before/after counts.
func (p *Processor) Process(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return domain.ErrNilRecord
	}

	text := rec.Text
	originalLength := len(text)

	if p.normalizeUnicode {
		text = norm.NFKC.String(text)
	}
	if p.removeURLs {
		text = urlPattern.ReplaceAllString(text, " ")
	}
	if p.removeEmails {
		text = emailPattern.ReplaceAllString(text, " ")
	}
	if p.normalizeWhitespace {
		text = spacePattern.ReplaceAllString(text, " ")
		text = p.newlinePattern.ReplaceAllString(text, strings.Repeat("\n", p.maxNewlines))
	}
	if p.lowercase {
		text = strings.ToLower(text)
	}
	if p.maxLineLength > 0 {
		text = wrapLines(text, p.maxLineLength)
	}

	rec.Text = text
	rec.AddStep("basic_text_cleaning", map[string]any{
		"original_length":      originalLength,
		"cleaned_length":       len(text),
		"chars_removed":        originalLength - len(text),
		"normalize_whitespace": p.normalizeWhitespace,
		"normalize_unicode":    p.normalizeUnicode,
		"remove_urls":          p.removeURLs,
		"remove_emails":        p.removeEmails,
		"lowercase":            p.lowercase,
	})
	return nil
}

// wrapLines splits lines longer than width, breaking at word boundaries
// where possible. A single word longer than width is emitted on its own
// line unsplit.
func wrapLines(text string, width int) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if len(line) <= width {
			out = append(out, line)
			continue
		}

		var current string
		for _, word := range strings.Fields(line) {
			switch {
			case current == "":
				current = word
			case len(current)+len(word)+1 <= width:
				current += " " + word
			default:
				out = append(out, current)
				current = word
			}
		}
		if current != "" {
			out = append(out, current)
		}
	}

	return strings.Join(out, "\n")
}
