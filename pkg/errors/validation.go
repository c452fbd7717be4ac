package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateOutlineName checks that an outline name can be used as a file
// basename when exporting. Names are chosen by config authors, so anything
// resembling a path is rejected.
func ValidateOutlineName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "outline name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "outline name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "outline name contains control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPath, "outline name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateEpsilon checks a quantization step: it must be finite and positive.
func ValidateEpsilon(name string, eps float64) error {
	if math.IsNaN(eps) || math.IsInf(eps, 0) || eps <= 0 {
		return New(ErrCodeInvalidEpsilon, "%s must be finite and > 0, got %v", name, eps)
	}
	return nil
}
