package errors

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Limits applied to untrusted input.
const (
	MaxNameLength   = 128
	MaxPackedLength = 1 << 20
	MaxTicks        = 100_000
)

var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]*$`)

// ValidateName validates the display name of a saved frame.
//
// Names start with a letter or digit and may contain letters, digits,
// spaces, dots, dashes and underscores.
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid name: %q", name)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// ValidatePacked checks the envelope of a packed frame string before it is
// decompressed: it must be non-empty valid UTF-8 of bounded length.
func ValidatePacked(packed string) error {
	if packed == "" {
		return New(ErrCodeInvalidFormat, "packed data cannot be empty")
	}
	if len(packed) > MaxPackedLength {
		return New(ErrCodeInvalidFormat, "packed data too long (max %d bytes)", MaxPackedLength)
	}
	if !utf8.ValidString(packed) {
		return New(ErrCodeInvalidFormat, "packed data is not valid UTF-8")
	}
	return nil
}

// ValidateTicks checks a requested solver iteration count.
func ValidateTicks(n int) error {
	if n < 0 {
		return New(ErrCodeInvalidInput, "ticks cannot be negative")
	}
	if n > MaxTicks {
		return New(ErrCodeInvalidInput, "too many ticks (max %d)", MaxTicks)
	}
	return nil
}
