package render

import (
	"errors"
	"fmt"

	"insightviz/internal/models"
)

// ErrSkipped marks a suggestion that could not be interpreted at all.
var ErrSkipped = errors.New("chart skipped")

// SkipError explains why no image was produced for a suggestion.
type SkipError struct {
	Kind   models.ChartKind
	Title  string
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s chart %q skipped: %s", kindLabel(e.Kind), e.Title, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return ErrSkipped
}

// DrawError is returned next to a placeholder image when drawing failed.
type DrawError struct {
	Kind  models.ChartKind
	Title string
	Err   error
}

func (e *DrawError) Error() string {
	return fmt.Sprintf("%s chart %q: %v", kindLabel(e.Kind), e.Title, e.Err)
}

func (e *DrawError) Unwrap() error {
	return e.Err
}

func kindLabel(k models.ChartKind) string {
	if k == "" {
		return "untyped"
	}
	return string(k)
}

func skip(spec models.ChartSpec, format string, args ...interface{}) *SkipError {
	return &SkipError{Kind: spec.Type, Title: spec.Title, Reason: fmt.Sprintf(format, args...)}
}
