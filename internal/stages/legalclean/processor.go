// Package legalclean provides the domain-specific cleaning stage for
// legal text: page-number artifacts, line numbers, redaction markers,
// section symbols, boilerplate headers and citation spacing.
package legalclean

import (
	"context"
	"regexp"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.DocumentStage = (*Processor)(nil)

var (
	pageNumberPattern = regexp.MustCompile(`\n\s*-\s*\d+\s*-\s*\n`)
	lineNumberPattern = regexp.MustCompile(`(?m)^[ \t]*\d{1,3}[ \t]+`)
	redactionPattern  = regexp.MustCompile(`\[(?:REDACTED|redacted|Redacted|\*{2,})\]`)
	sectionPattern    = regexp.MustCompile(`§+\s*(\d+)`)

	// Boilerplate phrases that appear in headers and footers of court
	// filings and transcripts.
	headerFooterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)CONFIDENTIAL`),
		regexp.MustCompile(`(?i)FILED UNDER SEAL`),
		regexp.MustCompile(`(?i)DOCUMENT SUBJECT TO PROTECTIVE ORDER`),
		regexp.MustCompile(`(?i)OFFICIAL TRANSCRIPT`),
		regexp.MustCompile(`(?i)CERTIFIED COPY`),
		regexp.MustCompile(`(?im)^\s*Page \d+ of \d+\s*$`),
		regexp.MustCompile(`(?im)^\s*Case No\.\s+[\w-]+\s*$`),
	}

	// Citation spacing. Pattern-based only: spacing is canonicalized,
	// formats are not validated.
	versusPattern  = regexp.MustCompile(`(\w)\s+v\.\s+(\w)`)
	usReporter     = regexp.MustCompile(`(\d+)\s*U\.S\.\s*(\d+)`)
	sctReporter    = regexp.MustCompile(`(\d+)\s*S\.\s*Ct\.\s*(\d+)`)
	fedReporter    = regexp.MustCompile(`(\d+)\s*F\.\s*(\d+)\s*(\d+)`)
	redactionToken = "[REDACTED]"
)

// Processor cleans legal-document formatting artifacts.
type Processor struct {
	removeHeaderFooter      bool
	removePageNumbers       bool
	normalizeCitations      bool
	removeLineNumbers       bool
	removeRedactions        bool
	normalizeSectionMarkers bool
}

// Option configures the legal cleaner.
type Option func(*Processor)

// WithHeaderFooterRemoval toggles boilerplate phrase removal.
func WithHeaderFooterRemoval(on bool) Option {
	return func(p *Processor) { p.removeHeaderFooter = on }
}

// WithPageNumberRemoval toggles "- N -" artifact removal.
func WithPageNumberRemoval(on bool) Option {
	return func(p *Processor) { p.removePageNumbers = on }
}

// WithCitationNormalization toggles citation spacing cleanup.
func WithCitationNormalization(on bool) Option {
	return func(p *Processor) { p.normalizeCitations = on }
}

// WithLineNumberRemoval toggles leading line-marker removal.
func WithLineNumberRemoval(on bool) Option {
	return func(p *Processor) { p.removeLineNumbers = on }
}

// WithRedactionNormalization toggles redaction-marker canonicalization.
func WithRedactionNormalization(on bool) Option {
	return func(p *Processor) { p.removeRedactions = on }
}

// WithSectionMarkerNormalization toggles rewriting § references.
func WithSectionMarkerNormalization(on bool) Option {
	return func(p *Processor) { p.normalizeSectionMarkers = on }
}

// New creates a legal text cleaner with all rules enabled by default.
func New(opts ...Option) *Processor {
	p := &Processor{
		removeHeaderFooter:      true,
		removePageNumbers:       true,
		normalizeCitations:      true,
		removeLineNumbers:       true,
		removeRedactions:        true,
		normalizeSectionMarkers: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the stage name.
func (p *Processor) Name() string { return "legal_text_cleaner" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseCleaning }

// Process rewrites the record's text in place and appends a
// "legal_text_cleaning" history entry.
func (p *Processor) Process(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return domain.ErrNilRecord
	}

	text := rec.Text
	originalLength := len(text)

	if p.removePageNumbers {
		text = pageNumberPattern.ReplaceAllString(text, "\n")
	}
	if p.removeLineNumbers {
		text = lineNumberPattern.ReplaceAllString(text, "")
	}
	if p.removeRedactions {
		text = redactionPattern.ReplaceAllString(text, redactionToken)
	}
	if p.normalizeSectionMarkers {
		text = sectionPattern.ReplaceAllString(text, "Section $1")
	}
	if p.removeHeaderFooter {
		for _, pattern := range headerFooterPatterns {
			text = pattern.ReplaceAllString(text, "")
		}
	}
	if p.normalizeCitations {
		text = versusPattern.ReplaceAllString(text, "$1 v. $2")
		text = usReporter.ReplaceAllString(text, "$1 U.S. $2")
		text = sctReporter.ReplaceAllString(text, "$1 S. Ct. $2")
		text = fedReporter.ReplaceAllString(text, "$1 F.${2}d $3")
	}

	rec.Text = text
	rec.AddStep("legal_text_cleaning", map[string]any{
		"original_length":      originalLength,
		"cleaned_length":       len(text),
		"chars_removed":        originalLength - len(text),
		"remove_header_footer": p.removeHeaderFooter,
		"remove_page_numbers":  p.removePageNumbers,
		"normalize_citations":  p.normalizeCitations,
		"remove_line_numbers":  p.removeLineNumbers,
	})
	return nil
}
