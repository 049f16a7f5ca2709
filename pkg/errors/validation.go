package errors

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLabelLength is the longest label accepted from external input, in runes.
const MaxLabelLength = 256

// ValidateLabel validates label text received from files or the API.
//
// The rules are conservative:
//   - Valid UTF-8
//   - Maximum length of MaxLabelLength runes
//   - No control characters other than tab
//
// Empty labels are allowed; they still reserve a box.
func ValidateLabel(label string) error {
	if !utf8.ValidString(label) {
		return New(ErrCodeInvalidLabel, "label is not valid UTF-8")
	}

	if n := utf8.RuneCountInString(label); n > MaxLabelLength {
		return New(ErrCodeInvalidLabel, "label too long (%d runes, max %d)", n, MaxLabelLength)
	}

	for _, r := range label {
		if r != '\t' && unicode.IsControl(r) {
			return New(ErrCodeInvalidLabel, "label contains invalid control characters: %q", label)
		}
	}

	return nil
}

// ValidateCoordinate rejects NaN and infinite coordinates.
func ValidateCoordinate(x, y float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return New(ErrCodeInvalidInput, "coordinate (%g, %g) is not finite", x, y)
	}
	return nil
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	if strings.ContainsFunc(path, unicode.IsControl) {
		return New(ErrCodeInvalidPath, "path contains invalid characters")
	}

	return nil
}
