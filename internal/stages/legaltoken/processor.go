// Package legaltoken provides the entity-preserving tokenization stage
// for legal text. Citations, case names, statute references and section
// references are masked with placeholders before generic tokenization
// and restored afterwards so they survive as single tokens.
package legaltoken

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/words"
)

// Ensure Processor implements the interface.
var _ driven.DocumentStage = (*Processor)(nil)

var (
	citationPattern = regexp.MustCompile(`\d+\s+(?:U\.S\.|S\.\s*Ct\.|F\.\d+d)\s+\d+`)
	caseNamePattern = regexp.MustCompile(`[A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+)*\s+v\.\s+[A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+)*`)
	statutePattern  = regexp.MustCompile(`\d+\s+U\.S\.C\.\s+§+\s*\d+(?:[a-z])?`)
	sectionPattern  = regexp.MustCompile(`§+\s*\d+(?:\.\d+)*(?:[a-z])?`)
)

// entity is a matched legal entity span in the original text.
type entity struct {
	class string
	text  string
	start int
	end   int
}

// Processor masks legal entities before word tokenization and restores
// them afterwards.
type Processor struct {
	preserveCitations   bool
	preserveCaseNames   bool
	preserveStatuteRefs bool
	preserveSectionRefs bool
}

// Option configures the legal tokenizer.
type Option func(*Processor)

// WithCitationPreservation toggles keeping citations as single tokens.
func WithCitationPreservation(on bool) Option {
	return func(p *Processor) { p.preserveCitations = on }
}

// WithCaseNamePreservation toggles keeping case names as single tokens.
func WithCaseNamePreservation(on bool) Option {
	return func(p *Processor) { p.preserveCaseNames = on }
}

// WithStatutePreservation toggles keeping statute references as single
// tokens.
func WithStatutePreservation(on bool) Option {
	return func(p *Processor) { p.preserveStatuteRefs = on }
}

// WithSectionPreservation toggles keeping section references as single
// tokens.
func WithSectionPreservation(on bool) Option {
	return func(p *Processor) { p.preserveSectionRefs = on }
}

// New creates a legal tokenizer with all entity classes preserved by
// default.
func New(opts ...Option) *Processor {
	p := &Processor{
		preserveCitations:   true,
		preserveCaseNames:   true,
		preserveStatuteRefs: true,
		preserveSectionRefs: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the stage name.
func (p *Processor) Name() string { return "legal_tokenizer" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseTokenization }

// Process extracts legal entities, tokenizes around them and populates
// the record's Tokens, with a "legal_tokenization" history entry.
func (p *Processor) Process(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return domain.ErrNilRecord
	}

	text := rec.Text
	entities := p.findEntities(text)

	// Build the masked text in a single left-to-right pass so
	// placeholder length differences never shift later spans.
	var masked strings.Builder
	maskMap := make(map[string]entity, len(entities))
	last := 0
	for i, ent := range entities {
		placeholder := fmt.Sprintf("__LEGAL_%s_%d__", strings.ToUpper(ent.class), i)
		maskMap[placeholder] = ent
		masked.WriteString(text[last:ent.start])
		masked.WriteString(placeholder)
		last = ent.end
	}
	masked.WriteString(text[last:])

	tokens := words.Tokenize(masked.String())

	anyPreserve := p.preserveCitations || p.preserveCaseNames ||
		p.preserveStatuteRefs || p.preserveSectionRefs

	final := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		ent, ok := maskMap[tok]
		if !ok {
			final = append(final, tok)
			continue
		}
		if anyPreserve {
			final = append(final, ent.text)
		} else {
			final = append(final, words.Tokenize(ent.text)...)
		}
	}

	rec.Tokens = final
	rec.TokenCount = len(final)

	entityMeta := make([]map[string]any, len(entities))
	for i, ent := range entities {
		entityMeta[i] = map[string]any{
			"type": ent.class,
			"text": ent.text,
			"span": [2]int{ent.start, ent.end},
		}
	}
	rec.ProcessingMeta["legal_entities"] = entityMeta

	rec.AddStep("legal_tokenization", map[string]any{
		"token_count":           len(final),
		"legal_entity_count":    len(entities),
		"preserve_citations":    p.preserveCitations,
		"preserve_case_names":   p.preserveCaseNames,
		"preserve_statute_refs": p.preserveStatuteRefs,
		"preserve_section_refs": p.preserveSectionRefs,
	})
	return nil
}

// findEntities runs the enabled patterns independently, sorts all
// matches by start offset and coalesces overlapping spans with the
// earliest-longest span winning. The four patterns can overlap (a
// statute reference contains a section reference); without the merge a
// second replacement over an already-shifted span would corrupt the
// mask.
func (p *Processor) findEntities(text string) []entity {
	var found []entity

	collect := func(class string, pattern *regexp.Regexp) {
		for _, span := range pattern.FindAllStringIndex(text, -1) {
			found = append(found, entity{
				class: class,
				text:  text[span[0]:span[1]],
				start: span[0],
				end:   span[1],
			})
		}
	}

	if p.preserveCitations {
		collect("citation", citationPattern)
	}
	if p.preserveCaseNames {
		collect("case_name", caseNamePattern)
	}
	if p.preserveStatuteRefs {
		collect("statute", statutePattern)
	}
	if p.preserveSectionRefs {
		collect("section", sectionPattern)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].start != found[j].start {
			return found[i].start < found[j].start
		}
		return found[i].end > found[j].end
	})

	merged := found[:0:0]
	lastEnd := 0
	for _, ent := range found {
		if ent.start < lastEnd {
			continue
		}
		merged = append(merged, ent)
		lastEnd = ent.end
	}
	return merged
}
