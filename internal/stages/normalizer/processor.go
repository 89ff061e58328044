// Package normalizer provides the character normalization stage:
// typographic quotes and dashes to ASCII, ellipsis collapsing, and
// optional ampersand, abbreviation and contraction expansion. All
// substitutions are idempotent.
package normalizer

import (
	"context"
	"regexp"
	"strings"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.DocumentStage = (*Processor)(nil)

// quoteReplacer maps typographic quote variants to ASCII.
var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"„", `"`, // double low-9 quotation mark
	"‟", `"`, // double high-reversed-9 quotation mark
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
	"‚", "'", // single low-9 quotation mark
	"‛", "'", // single high-reversed-9 quotation mark
)

// dashReplacer maps dash variants to ASCII hyphen-minus.
var dashReplacer = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"−", "-", // minus sign
)

var ellipsisPattern = regexp.MustCompile(`\.{2,}`)

// substitution is one word-boundary-safe rewrite rule. Rules are kept
// in ordered slices, longest keys first where keys overlap, so repeated
// runs produce identical output.
type substitution struct {
	from string
	to   string
}

// Common legal abbreviations. U.S.C. precedes U.S. so the longer key
// wins.
var abbreviations = []substitution{
	{"U.S.C.", "United States Code"},
	{"U.S.", "United States"},
	{"C.F.R.", "Code of Federal Regulations"},
	{"Fed. Reg.", "Federal Register"},
	{"et al.", "et alia"},
	{"et seq.", "et sequentes"},
	{"i.e.", "that is"},
	{"e.g.", "for example"},
}

// Common English contractions.
var contractions = []substitution{
	{"ain't", "is not"},
	{"aren't", "are not"},
	{"can't", "cannot"},
	{"couldn't", "could not"},
	{"didn't", "did not"},
	{"doesn't", "does not"},
	{"don't", "do not"},
	{"hadn't", "had not"},
	{"hasn't", "has not"},
	{"haven't", "have not"},
	{"he'd", "he would"},
	{"he'll", "he will"},
	{"he's", "he is"},
	{"I'd", "I would"},
	{"I'll", "I will"},
	{"I'm", "I am"},
	{"I've", "I have"},
	{"isn't", "is not"},
	{"it's", "it is"},
	{"let's", "let us"},
	{"mightn't", "might not"},
	{"mustn't", "must not"},
	{"shan't", "shall not"},
	{"she'd", "she would"},
	{"she'll", "she will"},
	{"she's", "she is"},
	{"shouldn't", "should not"},
	{"that's", "that is"},
	{"there's", "there is"},
	{"they'd", "they would"},
	{"they'll", "they will"},
	{"they're", "they are"},
	{"they've", "they have"},
	{"we'd", "we would"},
	{"we're", "we are"},
	{"we've", "we have"},
	{"weren't", "were not"},
	{"what'll", "what will"},
	{"what're", "what are"},
	{"what's", "what is"},
	{"what've", "what have"},
	{"where's", "where is"},
	{"who'd", "who would"},
	{"who'll", "who will"},
	{"who're", "who are"},
	{"who's", "who is"},
	{"who've", "who have"},
	{"won't", "will not"},
	{"wouldn't", "would not"},
	{"you'd", "you would"},
	{"you'll", "you will"},
	{"you're", "you are"},
	{"you've", "you have"},
}

// Processor standardizes punctuation and optionally expands
// abbreviations and contractions.
type Processor struct {
	normalizeQuotes        bool
	normalizeDashes        bool
	normalizeEllipses      bool
	normalizeAmpersands    bool
	normalizeAbbreviations bool
	expandContractions     bool

	abbrevPatterns      []*regexp.Regexp
	contractionPatterns []*regexp.Regexp
}

// Option configures the normalizer.
type Option func(*Processor)

// WithQuoteNormalization toggles curly-quote replacement.
func WithQuoteNormalization(on bool) Option {
	return func(p *Processor) { p.normalizeQuotes = on }
}

// WithDashNormalization toggles dash replacement.
func WithDashNormalization(on bool) Option {
	return func(p *Processor) { p.normalizeDashes = on }
}

// WithEllipsisNormalization toggles collapsing repeated periods.
func WithEllipsisNormalization(on bool) Option {
	return func(p *Processor) { p.normalizeEllipses = on }
}

// WithAmpersandExpansion toggles rewriting "&" to "and".
func WithAmpersandExpansion(on bool) Option {
	return func(p *Processor) { p.normalizeAmpersands = on }
}

// WithAbbreviationExpansion toggles legal abbreviation expansion.
func WithAbbreviationExpansion(on bool) Option {
	return func(p *Processor) { p.normalizeAbbreviations = on }
}

// WithContractionExpansion toggles English contraction expansion.
func WithContractionExpansion(on bool) Option {
	return func(p *Processor) { p.expandContractions = on }
}

// New creates a character normalizer. Quote, dash and ellipsis
// normalization are on by default; the expansions are opt-in.
func New(opts ...Option) *Processor {
	p := &Processor{
		normalizeQuotes:   true,
		normalizeDashes:   true,
		normalizeEllipses: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.normalizeAbbreviations {
		p.abbrevPatterns = compileWordBounded(abbreviations)
	}
	if p.expandContractions {
		p.contractionPatterns = compileWordBounded(contractions)
	}
	return p
}

// compileWordBounded builds word-boundary-anchored patterns for each
// substitution key. The trailing anchor is only applied when the key
// ends in a word character; a key ending in "." already terminates
// itself.
func compileWordBounded(subs []substitution) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(subs))
	for i, sub := range subs {
		expr := `\b` + regexp.QuoteMeta(sub.from)
		if last := sub.from[len(sub.from)-1]; last != '.' && last != '\'' {
			expr += `\b`
		}
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}

// Name returns the stage name.
func (p *Processor) Name() string { return "text_normalizer" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseCleaning }

// Process rewrites the record's text in place and appends a
// "text_normalization" history entry.
func (p *Processor) Process(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return domain.ErrNilRecord
	}

	text := rec.Text

	if p.normalizeQuotes {
		text = quoteReplacer.Replace(text)
	}
	if p.normalizeDashes {
		text = dashReplacer.Replace(text)
	}
	if p.normalizeEllipses {
		text = ellipsisPattern.ReplaceAllString(text, "...")
	}
	if p.normalizeAmpersands {
		text = strings.ReplaceAll(text, "&", "and")
	}
	if p.normalizeAbbreviations {
		for i, pattern := range p.abbrevPatterns {
			text = pattern.ReplaceAllString(text, abbreviations[i].to)
		}
	}
	if p.expandContractions {
		for i, pattern := range p.contractionPatterns {
			text = pattern.ReplaceAllString(text, contractions[i].to)
		}
	}

	rec.Text = text
	rec.AddStep("text_normalization", map[string]any{
		"normalize_quotes":        p.normalizeQuotes,
		"normalize_dashes":        p.normalizeDashes,
		"normalize_ellipses":      p.normalizeEllipses,
		"normalize_ampersands":    p.normalizeAmpersands,
		"normalize_abbreviations": p.normalizeAbbreviations,
		"expand_contractions":     p.expandContractions,
	})
	return nil
}
