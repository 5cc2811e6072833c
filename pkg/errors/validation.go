package errors

import (
	"strings"
	"unicode"
)

// MaxIdentifierLength is the longest identifier the warehouse accepts.
const MaxIdentifierLength = 255

// ValidateIdentifier checks a single database, schema or object name part.
// It rejects empty names, control characters and over-long identifiers. The
// kind ("database", "schema", "object") is used in the message only.
func ValidateIdentifier(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidIdentifier, "%s name cannot be empty", kind)
	}
	if len(name) > MaxIdentifierLength {
		return New(ErrCodeInvalidIdentifier, "%s name too long (max %d characters)", kind, MaxIdentifierLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidIdentifier, "%s name contains invalid control characters", kind)
		}
	}
	return nil
}
