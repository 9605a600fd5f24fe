// Package server provides the HTTP API for ResumeForge.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/types"
)

// ErrStorageDisabled is returned by the report endpoints when no store is configured.
var ErrStorageDisabled = errors.New("report storage is disabled")

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		validationErr *types.ValidationError
		docErr        *document.ValidationError
		extractErr    *document.ExtractionError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &docErr), errors.As(err, &extractErr):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrStorageDisabled):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the caller-facing text for err. op names the workflow, e.g.
// "Optimization failed", and prefixes server-side failures.
func errorMessage(op string, err error) string {
	var (
		validationErr *types.ValidationError
		docErr        *document.ValidationError
		extractErr    *document.ExtractionError
		stageErr      *pipeline.StageError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Reason
	case errors.As(err, &docErr):
		return "Invalid file content: " + docErr.Reason
	case errors.As(err, &extractErr):
		return "Invalid file content: " + extractErr.Error()
	case errors.Is(err, types.ErrBusy), errors.Is(err, ErrStorageDisabled):
		return err.Error()
	case errors.As(err, &stageErr):
		return fmt.Sprintf("%s: %s stage failed", op, stageErr.Stage)
	default:
		return op
	}
}
