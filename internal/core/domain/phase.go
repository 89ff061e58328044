package domain

// Phase identifies the logical processing phase a stage belongs to.
// Phases group stages for introspection; they do not affect execution
// order, which follows the configured stage list.
type Phase string

const (
	// PhaseCleaning covers text rewriting stages.
	PhaseCleaning Phase = "cleaning"

	// PhaseTokenization covers sentence and word segmentation stages.
	PhaseTokenization Phase = "tokenization"

	// PhaseQuality covers quality assessment stages.
	PhaseQuality Phase = "quality_assessment"

	// PhaseFiltering covers accept/reject stages.
	PhaseFiltering Phase = "filtering"

	// PhaseDeduplication covers batch-scoped duplicate detection.
	PhaseDeduplication Phase = "deduplication"
)
