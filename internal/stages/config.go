package stages

// Config helpers tolerant of the value types TOML and JSON decoders
// produce for the same document.

// getInt safely extracts an int from generic config.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getInt(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
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
	val, ok := cfg[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
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

// getBool extracts a bool and reports whether the key was present, so
// callers can distinguish "unset" from "explicitly false".
func getBool(cfg map[string]any, key string) (bool, bool) {
	val, ok := cfg[key]
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// getString safely extracts a string from generic config.
func getString(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return s
}

// getStringSlice extracts a string slice. TOML arrays decode as []any,
// so both forms are accepted; non-string elements are skipped.
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

// getFloatMap extracts a nested table of float values.
func getFloatMap(cfg map[string]any, key string) map[string]float64 {
	raw, ok := cfg[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		switch f := v.(type) {
		case float64:
			out[k] = f
		case int:
			out[k] = float64(f)
		case int64:
			out[k] = float64(f)
		}
	}
	return out
}
