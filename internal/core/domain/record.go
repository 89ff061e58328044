package domain

// RawDocument represents a single document as extracted from a data
// source. It is the collector's output and is never mutated by the
// processing pipeline.
type RawDocument struct {
	// ID is the unique identifier for the document.
	ID string

	// Text is the raw text content.
	Text string

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any

	// Source names the data source that produced this document.
	Source string

	// SourceID is the identifier local to the originating source.
	SourceID string
}

// Well-known ProcessingMeta keys shared between stages.
const (
	// MetaSentences holds the []string sentence list stored by the
	// sentence segmenter and consumed by the word tokenizer.
	MetaSentences = "sentences"

	// MetaSentenceCount holds the int sentence count stored by the
	// sentence segmenter and consumed by the quality scorer.
	MetaSentenceCount = "sentence_count"

	// MetaSentenceSpans holds [][2]int character spans of sentences.
	MetaSentenceSpans = "sentence_spans"

	// MetaFiltered marks a record that failed (true) or passed (false)
	// content filtering.
	MetaFiltered = "filtered"

	// MetaFilterReason holds the reason string for the first failed check.
	MetaFilterReason = "filter_reason"

	// MetaDropped marks a record the filter decided to remove from the
	// output set (keep_document=false).
	MetaDropped = "dropped"

	// MetaDuplicate marks a record detected as a duplicate.
	MetaDuplicate = "duplicate"

	// MetaDuplicateOf holds the keeper's record ID for a duplicate.
	MetaDuplicateOf = "duplicate_of"

	// MetaSimilarity holds the similarity to the keeper for approximate
	// deduplication methods.
	MetaSimilarity = "similarity"

	// MetaError holds the error message of a stage failure that aborted
	// this record's processing chain.
	MetaError = "processing_error"
)

// Record is the mutable unit the pipeline operates on. It is created
// from exactly one RawDocument; its ID is stable through the whole
// pipeline. Stages rewrite Text in place, populate Tokens and the
// quality fields, and append one History entry per stage applied.
type Record struct {
	// ID, Source and SourceID are copied from the RawDocument and are
	// immutable thereafter.
	ID       string
	Source   string
	SourceID string

	// Text is rewritten in place by normalization stages.
	Text string

	// Tokens is set once by a tokenization stage; nil until then.
	Tokens []string

	// TokenCount is the length of Tokens.
	TokenCount int

	// QualityScore is the composite quality score; nil until a quality
	// stage has run. Once set it is only overwritten by a subsequent
	// quality stage.
	QualityScore *float64

	// QualityMetrics holds all quality sub-metrics by name.
	QualityMetrics map[string]float64

	// ProcessingMeta is the per-stage side channel: filter verdicts,
	// duplicate flags, extracted sentence lists and the like.
	ProcessingMeta map[string]any

	// OriginalMeta is a verbatim copy of RawDocument.Metadata, never
	// mutated by stages.
	OriginalMeta map[string]any

	// EnhancedMeta is reserved for stages that derive new metadata.
	EnhancedMeta map[string]any

	// History is the append-only ordered list of stage names applied to
	// this record, one entry per stage actually run.
	History []string
}

// NewRecord creates a Record from a RawDocument, copying identity
// fields and metadata and seeding the processing history.
func NewRecord(doc RawDocument) *Record {
	return &Record{
		ID:             doc.ID,
		Source:         doc.Source,
		SourceID:       doc.SourceID,
		Text:           doc.Text,
		QualityMetrics: make(map[string]float64),
		ProcessingMeta: make(map[string]any),
		OriginalMeta:   copyMeta(doc.Metadata),
		EnhancedMeta:   make(map[string]any),
		History:        []string{"initial_import"},
	}
}

// AddStep records a processing step in the record's history. The step
// name is appended to History; non-nil metadata is stored under
// ProcessingMeta[name].
func (r *Record) AddStep(name string, meta map[string]any) {
	r.History = append(r.History, name)
	if meta != nil {
		r.ProcessingMeta[name] = meta
	}
}

// Filtered reports whether content filtering rejected this record.
func (r *Record) Filtered() bool {
	v, ok := r.ProcessingMeta[MetaFiltered].(bool)
	return ok && v
}

// Dropped reports whether the filter decided this record should be
// removed from the output set.
func (r *Record) Dropped() bool {
	v, ok := r.ProcessingMeta[MetaDropped].(bool)
	return ok && v
}

// Duplicate reports whether deduplication marked this record as a
// duplicate of an earlier one.
func (r *Record) Duplicate() bool {
	v, ok := r.ProcessingMeta[MetaDuplicate].(bool)
	return ok && v
}

// Failed reports whether a stage failure aborted this record's
// processing chain.
func (r *Record) Failed() bool {
	_, ok := r.ProcessingMeta[MetaError]
	return ok
}

// Sentences returns the sentence list stored by a prior segmentation
// stage, if any.
func (r *Record) Sentences() ([]string, bool) {
	s, ok := r.ProcessingMeta[MetaSentences].([]string)
	return s, ok
}

// SentenceCount returns the sentence count stored by a prior
// segmentation stage, if any.
func (r *Record) SentenceCount() (int, bool) {
	n, ok := r.ProcessingMeta[MetaSentenceCount].(int)
	return n, ok
}

// copyMeta creates a shallow copy of metadata.
func copyMeta(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
