package errors

import (
	"strings"
	"unicode"
)

// MaxNameLength bounds world names and node IDs.
const MaxNameLength = 128

// ValidateWorldName validates a world name used as a document key and as a
// file name by the file store.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of MaxNameLength characters
func ValidateWorldName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "world name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "world name too long (max %d characters)", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "world name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "world name cannot contain path components: %q", name)
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "world name cannot start with a dot")
	}
	return nil
}

// ValidateNodeID validates a node ID taken from user input such as an HTTP
// request or an editor command.
func ValidateNodeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > MaxNameLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", MaxNameLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}
	return nil
}

// ValidateEngine validates a layout engine name against the known engines.
func ValidateEngine(name string, known []string) error {
	for _, k := range known {
		if name == k {
			return nil
		}
	}
	return New(ErrCodeInvalidEngine, "unknown layout engine %q (must be one of: %s)", name, strings.Join(known, ", "))
}
