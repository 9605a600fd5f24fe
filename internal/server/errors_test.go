package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/types"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "request validation",
			err:     &types.ValidationError{Field: "job_title", Reason: "Job title is required"},
			status:  http.StatusBadRequest,
			message: "Job title is required",
		},
		{
			name:    "document bounds",
			err:     &document.ValidationError{Reason: "Document appears to be empty"},
			status:  http.StatusBadRequest,
			message: "Invalid file content: Document appears to be empty",
		},
		{
			name:    "extraction",
			err:     &document.ExtractionError{Kind: document.KindPDF, Cause: errors.New("bad xref")},
			status:  http.StatusBadRequest,
			message: "Invalid file content: failed to extract pdf content: bad xref",
		},
		{
			name:    "busy",
			err:     fmt.Errorf("acquire: %w", types.ErrBusy),
			status:  http.StatusServiceUnavailable,
			message: "acquire: server is busy, try again later",
		},
		{
			name:    "stage",
			err:     &pipeline.StageError{Stage: "evaluation", Err: context.DeadlineExceeded},
			status:  http.StatusInternalServerError,
			message: "Optimization failed: evaluation stage failed",
		},
		{
			name:    "storage disabled",
			err:     ErrStorageDisabled,
			status:  http.StatusNotFound,
			message: "report storage is disabled",
		},
		{
			name:    "unknown",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "Optimization failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.message, errorMessage(opOptimize, tt.err))
		})
	}
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "cv.pdf", attachmentName("cv.pdf", "resume.pdf"))
	assert.Equal(t, "cv.pdf", attachmentName(`..\..\cv.pdf`, "resume.pdf"))
	assert.Equal(t, "resume.pdf", attachmentName("  ", "resume.pdf"))
	assert.Equal(t, "resume.pdf", attachmentName("/", "resume.pdf"))
}
