package shared

import (
	"strings"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD. An empty value yields the zero time.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	return time.Parse(time.DateOnly, value)
}

// OptionalDate parses an optional date field, recording an issue on bad input.
func (v *Validator) OptionalDate(field, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parsed, ok := v.Date(field, raw)
	if !ok {
		return nil
	}
	return &parsed
}
