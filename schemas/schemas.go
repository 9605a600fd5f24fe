// Package schemas embeds the JSON Schemas for the structured records the service produces.
package schemas

import (
	"embed"
	"fmt"
)

// Schema file names.
const (
	Evaluation = "evaluation.schema.json"
	Report     = "report.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Load returns the raw bytes of an embedded schema.
func Load(name string) ([]byte, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("schema %s not found: %w", name, err)
	}
	return data, nil
}

// Names lists every embedded schema.
func Names() []string {
	entries, _ := files.ReadDir(".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
