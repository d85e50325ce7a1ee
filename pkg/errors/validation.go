package errors

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits for user-supplied configuration values.
const (
	MaxResolution = 4096
	MaxSamples    = 4096
	MaxImageSize  = 16384
)

// ValidateResolution checks the grid resolution budget.
func ValidateResolution(r int) error {
	if r < 1 {
		return New(ErrCodeInvalidOption, "resolution must be at least 1, got %d", r)
	}
	if r > MaxResolution {
		return New(ErrCodeInvalidOption, "resolution too large (max %d), got %d", MaxResolution, r)
	}
	return nil
}

// ValidateDelta checks the fractional widening of the normalization window.
//
// The window is [d^(1+delta), d^(1-delta)] for a global density d in (0,1),
// which is non-empty exactly when delta > 0. Values of delta at or above 1
// are accepted: the upper bound then exceeds 1 and the top of the ramp is
// never reached, but the window is still well formed.
func ValidateDelta(delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return New(ErrCodeInvalidWindow, "delta must be finite, got %v", delta)
	}
	if delta <= 0 {
		return New(ErrCodeInvalidWindow, "delta must be positive, got %v", delta)
	}
	return nil
}

// ValidateSamples checks the number of colors sampled from the ramp.
func ValidateSamples(n int) error {
	if n < 2 {
		return New(ErrCodeInvalidOption, "samples must be at least 2, got %d", n)
	}
	if n > MaxSamples {
		return New(ErrCodeInvalidOption, "samples too large (max %d), got %d", MaxSamples, n)
	}
	return nil
}

// ValidateImageSize checks the length in pixels of the image's longest side.
func ValidateImageSize(size int) error {
	if size < 1 {
		return New(ErrCodeInvalidOption, "size must be at least 1 pixel, got %d", size)
	}
	if size > MaxImageSize {
		return New(ErrCodeInvalidOption, "size too large (max %d), got %d", MaxImageSize, size)
	}
	return nil
}

// ValidateMatrixName validates a matrix name supplied by a remote caller.
// The name is only used to label outputs, so it must be a plain base name.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 256 characters
//   - No control characters
//   - No path separators or parent directory references
func ValidateMatrixName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidOption, "matrix name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidOption, "matrix name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidOption, "matrix name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) || name == ".." || filepath.Base(name) != name {
		return New(ErrCodeInvalidOption, "matrix name must be a plain file name: %q", name)
	}
	return nil
}
