package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks a submission with missing fields.
	ErrValidation = errors.New("validation failed")
	// ErrStore marks a persistence failure.
	ErrStore = errors.New("store append failed")
	// ErrNotifier marks a notification delivery failure.
	ErrNotifier = errors.New("notification delivery failed")
)

// ValidationError lists the fields that were missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
