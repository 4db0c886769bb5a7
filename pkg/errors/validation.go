package errors

import (
	"strconv"
	"unicode"
)

// maxNameLength bounds flowchart names so they stay usable in logs,
// cache keys, and rendered output.
const maxNameLength = 256

// ValidateFlowchartName validates a caller-supplied flowchart name.
// Names are optional; an empty name is accepted.
func ValidateFlowchartName(name string) error {
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "flowchart name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "flowchart name contains control characters")
		}
	}
	return nil
}

// ValidateNodeID validates a caller-supplied node identifier.
// Node IDs must be non-empty and free of control characters.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node ID cannot be empty")
	}
	if len(id) > maxNameLength {
		return New(ErrCodeInvalidInput, "node ID too long (max %d characters)", maxNameLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node ID contains control characters")
		}
	}
	return nil
}

// ParseFlowchartID parses a flowchart ID from its string form (e.g. a URL
// path segment). IDs are positive integers assigned by the store.
func ParseFlowchartID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, New(ErrCodeInvalidID, "invalid flowchart ID: %q", raw)
	}
	return id, nil
}
