// Package types provides the request, result and error types shared by the service,
// the HTTP server, the MCP tools and the CLI.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "errors"

// ErrBusy is returned when no pipeline run slot frees up before the request ends.
var ErrBusy = errors.New("server is busy, try again later")

// ValidationError is an input problem detected before any stage runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
