package document

import "fmt"

// ExtractionError reports a file that could not be parsed as its detected kind.
type ExtractionError struct {
	Kind  Kind
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s content: %v", e.Kind, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ValidationError reports document text that is outside the accepted bounds.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// RenderError reports a failure to produce an export file.
type RenderError struct {
	Format string
	Cause  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Format, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
