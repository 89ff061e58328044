package connectors

import (
	"github.com/poeticinspiired/llm-data-pipeline/internal/connectors/courtlistener"
	"github.com/poeticinspiired/llm-data-pipeline/internal/connectors/csvfile"
	"github.com/poeticinspiired/llm-data-pipeline/internal/connectors/jsonl"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// RegisterDefaults registers all built-in collectors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("csv", buildCSV)
	r.Register("jsonl", buildJSONL)
	r.Register("courtlistener", buildCourtListener)
}

// buildCSV creates a CSV file collector from generic config.
// Supported config keys:
//   - path (string, required): CSV file, ".gz" for gzip
//   - source (string): Source name recorded on documents
//   - text_field (string): Text column (default "text")
//   - id_field (string): Source ID column
//   - metadata_fields (array of string): Columns copied into metadata
func buildCSV(cfg map[string]any) (driven.Collector, error) {
	var opts []csvfile.Option
	if s := getString(cfg, "source"); s != "" {
		opts = append(opts, csvfile.WithSource(s))
	}
	if s := getString(cfg, "text_field"); s != "" {
		opts = append(opts, csvfile.WithTextField(s))
	}
	if s := getString(cfg, "id_field"); s != "" {
		opts = append(opts, csvfile.WithIDField(s))
	}
	if fields := getStringSlice(cfg, "metadata_fields"); len(fields) > 0 {
		opts = append(opts, csvfile.WithMetadataFields(fields))
	}
	return csvfile.New(getString(cfg, "path"), opts...)
}

// buildJSONL creates a JSON Lines collector from generic config.
// Same keys as the CSV collector, with field names instead of columns.
func buildJSONL(cfg map[string]any) (driven.Collector, error) {
	var opts []jsonl.Option
	if s := getString(cfg, "source"); s != "" {
		opts = append(opts, jsonl.WithSource(s))
	}
	if s := getString(cfg, "text_field"); s != "" {
		opts = append(opts, jsonl.WithTextField(s))
	}
	if s := getString(cfg, "id_field"); s != "" {
		opts = append(opts, jsonl.WithIDField(s))
	}
	if fields := getStringSlice(cfg, "metadata_fields"); len(fields) > 0 {
		opts = append(opts, jsonl.WithMetadataFields(fields))
	}
	return jsonl.New(getString(cfg, "path"), opts...)
}

// buildCourtListener creates a CourtListener API collector from generic
// config. Supported config keys:
//   - base_url (string): API root override
//   - api_token (string): Authorization token
//   - court (string): Court identifier filter, e.g. "scotus"
//   - page_size (int): API page size
//   - requests_per_second (float): Client-side rate limit
func buildCourtListener(cfg map[string]any) (driven.Collector, error) {
	var opts []courtlistener.Option
	if s := getString(cfg, "base_url"); s != "" {
		opts = append(opts, courtlistener.WithBaseURL(s))
	}
	if s := getString(cfg, "api_token"); s != "" {
		opts = append(opts, courtlistener.WithAPIToken(s))
	}
	if s := getString(cfg, "court"); s != "" {
		opts = append(opts, courtlistener.WithCourt(s))
	}
	if n := getInt(cfg, "page_size"); n > 0 {
		opts = append(opts, courtlistener.WithPageSize(n))
	}
	if f := getFloat(cfg, "requests_per_second"); f > 0 {
		opts = append(opts, courtlistener.WithRequestsPerSecond(f))
	}
	return courtlistener.New(opts...), nil
}

// getString safely extracts a string from generic config.
func getString(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return s
}

// getInt safely extracts an int from generic config.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getInt(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getFloat safely extracts a float64 from generic config.
func getFloat(cfg map[string]any, key string) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// getStringSlice extracts a string slice; TOML arrays decode as []any.
func getStringSlice(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
