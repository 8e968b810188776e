package errors

import (
	"strings"
	"unicode"
)

// ValidateSegment validates one segment of an artifact coordinate.
// Segments end up as directory names inside the extraction root and the
// local repository, so anything that could escape a directory is rejected.
//
// The validation rules are intentionally conservative:
//   - No empty segments
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateSegment(kind, value string) error {
	if value == "" {
		return New(ErrCodeParse, "%s cannot be empty", kind)
	}

	if len(value) > 256 {
		return New(ErrCodeParse, "%s too long (max 256 characters)", kind)
	}

	for _, r := range value {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeParse, "%s %q contains invalid characters", kind, value)
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return New(ErrCodeParse, "%s %q contains invalid characters: %q", kind, value, pattern)
		}
	}

	return nil
}

// ValidateRepositoryURL validates a repository base URL.
// Only http, https and file schemes are accepted.
func ValidateRepositoryURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "repository URL cannot be empty")
	}

	for _, scheme := range []string{"http://", "https://", "file://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "repository URL %q must use http, https or file scheme", rawURL)
}
