package logging

// RedactedText replaces sensitive values in redacted payloads.
const RedactedText = "<redacted>"

// RedactionPolicy is a provider profile's secrets redaction policy.
// Only redact_keys is honored; key matching applies recursively on
// object nodes.
type RedactionPolicy struct {
	RedactKeys []string `json:"redact_keys"`
}

// RedactConfig returns a deep copy of config with every value whose key
// appears in the policy's redact_keys replaced. Non-map inputs pass
// through untouched; a nil config yields an empty map so callers can
// serialize the result directly.
func RedactConfig(config map[string]any, policy RedactionPolicy) map[string]any {
	if config == nil {
		return map[string]any{}
	}
	keys := make(map[string]bool, len(policy.RedactKeys))
	for _, k := range policy.RedactKeys {
		keys[k] = true
	}
	out, _ := redactValue(config, keys).(map[string]any)
	return out
}

func redactValue(v any, keys map[string]bool) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			if keys[k] {
				out[k] = RedactedText
			} else {
				out[k] = redactValue(val, keys)
			}
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = redactValue(val, keys)
		}
		return out
	default:
		return v
	}
}
