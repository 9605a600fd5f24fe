package llm

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a call exceeds its stage budget.
var ErrTimeout = errors.New("generation exceeded its time budget")

// ErrEmptyOutput is returned when a provider answers with no text.
var ErrEmptyOutput = errors.New("generation returned empty output")

// ProviderError wraps a failure reported by an LLM provider SDK.
type ProviderError struct {
	Provider Provider
	Model    string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s) call failed: %v", e.Provider, e.Model, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
