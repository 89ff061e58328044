package stages

import (
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/cleaner"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/dedup"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/filter"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/legalclean"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/legaltoken"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/normalizer"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/quality"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/sentence"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages/words"
)

// RegisterDefaults registers all built-in stages with the registry.
// Call this during application initialisation to enable standard stages.
func RegisterDefaults(r *Registry) {
	r.Register("basic_text_cleaner", buildBasicCleaner)
	r.Register("legal_text_cleaner", buildLegalCleaner)
	r.Register("text_normalizer", buildNormalizer)
	r.Register("sentence_tokenizer", buildSentenceTokenizer)
	r.Register("word_tokenizer", buildWordTokenizer)
	r.Register("legal_tokenizer", buildLegalTokenizer)
	r.Register("quality_scorer", buildQualityScorer)
	r.Register("content_filter", buildContentFilter)
	r.Register("deduplicator", buildDeduplicator)
}

// buildBasicCleaner creates a basic text cleaner from generic config.
// Supported config keys:
//   - normalize_whitespace (bool): Collapse whitespace runs (default: true)
//   - normalize_unicode (bool): Apply NFKC normalization (default: true)
//   - remove_urls (bool): Strip URLs (default: true)
//   - remove_emails (bool): Strip email addresses (default: true)
//   - lowercase (bool): Lowercase the whole text (default: false)
//   - max_consecutive_newlines (int): Blank-line cap (default: 3)
//   - max_line_length (int): Wrap lines longer than this (default: 0, off)
func buildBasicCleaner(cfg map[string]any) (driven.Stage, error) {
	var opts []cleaner.Option
	if v, ok := getBool(cfg, "normalize_whitespace"); ok {
		opts = append(opts, cleaner.WithWhitespaceNormalization(v))
	}
	if v, ok := getBool(cfg, "normalize_unicode"); ok {
		opts = append(opts, cleaner.WithUnicodeNormalization(v))
	}
	if v, ok := getBool(cfg, "remove_urls"); ok {
		opts = append(opts, cleaner.WithURLRemoval(v))
	}
	if v, ok := getBool(cfg, "remove_emails"); ok {
		opts = append(opts, cleaner.WithEmailRemoval(v))
	}
	if v, ok := getBool(cfg, "lowercase"); ok {
		opts = append(opts, cleaner.WithLowercase(v))
	}
	if n := getInt(cfg, "max_consecutive_newlines"); n > 0 {
		opts = append(opts, cleaner.WithMaxConsecutiveNewlines(n))
	}
	if n := getInt(cfg, "max_line_length"); n > 0 {
		opts = append(opts, cleaner.WithMaxLineLength(n))
	}
	return cleaner.New(opts...), nil
}

// buildLegalCleaner creates a legal text cleaner from generic config.
// All keys are bools defaulting to true: remove_headers_footers,
// remove_page_numbers, normalize_citations, remove_line_numbers,
// normalize_redactions, normalize_section_markers.
func buildLegalCleaner(cfg map[string]any) (driven.Stage, error) {
	var opts []legalclean.Option
	if v, ok := getBool(cfg, "remove_headers_footers"); ok {
		opts = append(opts, legalclean.WithHeaderFooterRemoval(v))
	}
	if v, ok := getBool(cfg, "remove_page_numbers"); ok {
		opts = append(opts, legalclean.WithPageNumberRemoval(v))
	}
	if v, ok := getBool(cfg, "normalize_citations"); ok {
		opts = append(opts, legalclean.WithCitationNormalization(v))
	}
	if v, ok := getBool(cfg, "remove_line_numbers"); ok {
		opts = append(opts, legalclean.WithLineNumberRemoval(v))
	}
	if v, ok := getBool(cfg, "normalize_redactions"); ok {
		opts = append(opts, legalclean.WithRedactionNormalization(v))
	}
	if v, ok := getBool(cfg, "normalize_section_markers"); ok {
		opts = append(opts, legalclean.WithSectionMarkerNormalization(v))
	}
	return legalclean.New(opts...), nil
}

// buildNormalizer creates a text normalizer from generic config.
// All keys are bools defaulting to true: normalize_quotes,
// normalize_dashes, normalize_ellipses, expand_ampersands,
// expand_abbreviations, expand_contractions.
func buildNormalizer(cfg map[string]any) (driven.Stage, error) {
	var opts []normalizer.Option
	if v, ok := getBool(cfg, "normalize_quotes"); ok {
		opts = append(opts, normalizer.WithQuoteNormalization(v))
	}
	if v, ok := getBool(cfg, "normalize_dashes"); ok {
		opts = append(opts, normalizer.WithDashNormalization(v))
	}
	if v, ok := getBool(cfg, "normalize_ellipses"); ok {
		opts = append(opts, normalizer.WithEllipsisNormalization(v))
	}
	if v, ok := getBool(cfg, "expand_ampersands"); ok {
		opts = append(opts, normalizer.WithAmpersandExpansion(v))
	}
	if v, ok := getBool(cfg, "expand_abbreviations"); ok {
		opts = append(opts, normalizer.WithAbbreviationExpansion(v))
	}
	if v, ok := getBool(cfg, "expand_contractions"); ok {
		opts = append(opts, normalizer.WithContractionExpansion(v))
	}
	return normalizer.New(opts...), nil
}

// buildSentenceTokenizer creates a sentence segmenter from generic
// config. Supported config keys:
//   - min_sentence_length (int): Minimum words per sentence (default: 3)
//   - max_sentence_length (int): Maximum words per sentence (default: 0, off)
//   - record_spans (bool): Store character spans (default: false)
func buildSentenceTokenizer(cfg map[string]any) (driven.Stage, error) {
	var opts []sentence.Option
	if n := getInt(cfg, "min_sentence_length"); n > 0 {
		opts = append(opts, sentence.WithMinSentenceLength(n))
	}
	if n := getInt(cfg, "max_sentence_length"); n > 0 {
		opts = append(opts, sentence.WithMaxSentenceLength(n))
	}
	if v, ok := getBool(cfg, "record_spans"); ok {
		opts = append(opts, sentence.WithSentenceSpans(v))
	}
	return sentence.New(opts...), nil
}

// buildWordTokenizer creates a word tokenizer from generic config.
// Supported config keys:
//   - lowercase (bool): Lowercase tokens (default: false)
//   - remove_punctuation (bool): Drop punctuation tokens (default: false)
//   - min_word_length (int): Minimum token length (default: 1)
//   - max_word_length (int): Maximum token length (default: 0, off)
func buildWordTokenizer(cfg map[string]any) (driven.Stage, error) {
	var opts []words.Option
	if v, ok := getBool(cfg, "lowercase"); ok {
		opts = append(opts, words.WithLowercase(v))
	}
	if v, ok := getBool(cfg, "remove_punctuation"); ok {
		opts = append(opts, words.WithPunctuationRemoval(v))
	}
	if n := getInt(cfg, "min_word_length"); n > 0 {
		opts = append(opts, words.WithMinWordLength(n))
	}
	if n := getInt(cfg, "max_word_length"); n > 0 {
		opts = append(opts, words.WithMaxWordLength(n))
	}
	return words.New(opts...), nil
}

// buildLegalTokenizer creates a legal tokenizer from generic config.
// All keys are bools defaulting to true: preserve_citations,
// preserve_case_names, preserve_statute_refs, preserve_section_refs.
func buildLegalTokenizer(cfg map[string]any) (driven.Stage, error) {
	var opts []legaltoken.Option
	if v, ok := getBool(cfg, "preserve_citations"); ok {
		opts = append(opts, legaltoken.WithCitationPreservation(v))
	}
	if v, ok := getBool(cfg, "preserve_case_names"); ok {
		opts = append(opts, legaltoken.WithCaseNamePreservation(v))
	}
	if v, ok := getBool(cfg, "preserve_statute_refs"); ok {
		opts = append(opts, legaltoken.WithStatutePreservation(v))
	}
	if v, ok := getBool(cfg, "preserve_section_refs"); ok {
		opts = append(opts, legaltoken.WithSectionPreservation(v))
	}
	return legaltoken.New(opts...), nil
}

// buildQualityScorer creates a quality scorer from generic config.
// Supported config keys:
//   - min_length, max_length (int)
//   - min_avg_word_length, max_avg_word_length (float)
//   - min_sentence_count (int)
//   - max_repetition_ratio, min_alphanumeric_ratio (float)
//   - weights (table of float sub-score weights)
func buildQualityScorer(cfg map[string]any) (driven.Stage, error) {
	var opts []quality.Option
	if n := getInt(cfg, "min_length"); n > 0 {
		opts = append(opts, quality.WithMinLength(n))
	}
	if n := getInt(cfg, "max_length"); n > 0 {
		opts = append(opts, quality.WithMaxLength(n))
	}
	minAvg := getFloat(cfg, "min_avg_word_length")
	maxAvg := getFloat(cfg, "max_avg_word_length")
	if minAvg > 0 || maxAvg > 0 {
		opts = append(opts, quality.WithAvgWordLengthBounds(minAvg, maxAvg))
	}
	if n := getInt(cfg, "min_sentence_count"); n > 0 {
		opts = append(opts, quality.WithMinSentenceCount(n))
	}
	if f := getFloat(cfg, "max_repetition_ratio"); f > 0 {
		opts = append(opts, quality.WithMaxRepetitionRatio(f))
	}
	if f := getFloat(cfg, "min_alphanumeric_ratio"); f > 0 {
		opts = append(opts, quality.WithMinAlphanumericRatio(f))
	}
	if w := getFloatMap(cfg, "weights"); len(w) > 0 {
		opts = append(opts, quality.WithWeights(w))
	}
	return quality.New(opts...)
}

// buildContentFilter creates a content filter from generic config.
// Supported config keys:
//   - min_quality_score (float)
//   - min_length, max_length (int)
//   - required_patterns, excluded_patterns (array of string)
//   - keep_document (bool): Retain failing records annotated (default: true)
func buildContentFilter(cfg map[string]any) (driven.Stage, error) {
	var opts []filter.Option
	if v, ok := cfg["min_quality_score"]; v != nil && ok {
		opts = append(opts, filter.WithMinQualityScore(getFloat(cfg, "min_quality_score")))
	}
	if n := getInt(cfg, "min_length"); n > 0 {
		opts = append(opts, filter.WithMinLength(n))
	}
	if n := getInt(cfg, "max_length"); n > 0 {
		opts = append(opts, filter.WithMaxLength(n))
	}
	if ps := getStringSlice(cfg, "required_patterns"); len(ps) > 0 {
		opts = append(opts, filter.WithRequiredPatterns(ps))
	}
	if ps := getStringSlice(cfg, "excluded_patterns"); len(ps) > 0 {
		opts = append(opts, filter.WithExcludedPatterns(ps))
	}
	if v, ok := getBool(cfg, "keep_document"); ok {
		opts = append(opts, filter.WithKeepDocument(v))
	}
	return filter.New(opts...)
}

// buildDeduplicator creates a deduplicator from generic config.
// Supported config keys:
//   - method (string): exact, simhash or minhash (default: exact)
//   - similarity_threshold (float): Duplicate cutoff (default: 0.9)
//   - hash_function (string): md5, sha1 or sha256 (default: md5)
//   - ngram_size (int): Character k-gram width (default: 3)
//   - keep_first (bool): Return only uniques (default: true)
func buildDeduplicator(cfg map[string]any) (driven.Stage, error) {
	var opts []dedup.Option
	if s := getString(cfg, "method"); s != "" {
		opts = append(opts, dedup.WithMethod(dedup.Method(s)))
	}
	if f := getFloat(cfg, "similarity_threshold"); f > 0 {
		opts = append(opts, dedup.WithSimilarityThreshold(f))
	}
	if s := getString(cfg, "hash_function"); s != "" {
		opts = append(opts, dedup.WithHashFunction(s))
	}
	if n := getInt(cfg, "ngram_size"); n > 0 {
		opts = append(opts, dedup.WithNgramSize(n))
	}
	if v, ok := getBool(cfg, "keep_first"); ok {
		opts = append(opts, dedup.WithKeepFirst(v))
	}
	return dedup.New(opts...)
}
