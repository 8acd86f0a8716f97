package services

import (
	"errors"
	"strings"
)

var (
	// ErrManualActionRequired means the target platform has no publish API.
	// The caller should fall back to the clipboard or the platform's editor.
	ErrManualActionRequired = errors.New("manual publish required for this platform")

	ErrNoStyleProfile = errors.New("style profile not found")
	ErrNoPosts        = errors.New("at least one post is required for style analysis")
	ErrNotFound       = errors.New("not found")
)

// ValidationError carries every rule violation so they can be shown at once.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, ", ")
}
