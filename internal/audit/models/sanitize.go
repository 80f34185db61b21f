package models

// RedactionMarker replaces sensitive values in audited request bodies.
const RedactionMarker = "[REDACTED]"

// sensitiveFields are matched by exact, case-sensitive field name at the top
// level of the body only. Nested objects are stored as-is: the contract is a
// shallow scrub of well-known credential fields, not a deep search.
var sensitiveFields = map[string]bool{
	"password": true,
	"token":    true,
	"secret":   true,
	"key":      true,
}

// SanitizeBody returns a copy of the decoded request body with sensitive
// top-level fields replaced by the redaction marker. Sibling fields are
// untouched. The input map is never modified.
func SanitizeBody(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	sanitized := make(map[string]any, len(body))
	for k, v := range body {
		if sensitiveFields[k] {
			sanitized[k] = RedactionMarker
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}
