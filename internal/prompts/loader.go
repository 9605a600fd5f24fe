// Package prompts holds the stage instruction templates and the builder that fills them.
// Templates are stored as JSON files and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Embedded prompt files.
const (
	StagesFile   = "stages.json"
	PersonasFile = "personas.json"
	FormatFile   = "format.json"
)

//go:embed *.json
var promptFiles embed.FS

// parsed maps a file name to its decoded key/template table.
var parsed sync.Map

// Get returns the template stored under key in filename (e.g. "stages.json").
func Get(filename, key string) (string, error) {
	table, err := loadFile(filename)
	if err != nil {
		return "", err
	}
	tmpl, ok := table[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// MustGet is Get for templates that must exist; a miss is a build defect.
func MustGet(filename, key string) string {
	tmpl, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Format substitutes {{.Key}} placeholders. Unknown placeholders are left as-is.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, 2*len(data))
	for key, value := range data {
		pairs = append(pairs, placeholder(key), value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Persona returns the backstory text for a persona key, or "" when none is defined.
func Persona(key string) string {
	persona, err := Get(PersonasFile, key)
	if err != nil {
		return ""
	}
	return persona
}

// FormatTemplate returns the canonical resume layout followed by the formatting rules.
func FormatTemplate() string {
	return MustGet(FormatFile, "layout") + "\n\n" + MustGet(FormatFile, "rules")
}

func placeholder(key string) string {
	return "{{." + key + "}}"
}

func loadFile(filename string) (map[string]string, error) {
	if table, ok := parsed.Load(filename); ok {
		return table.(map[string]string), nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	actual, _ := parsed.LoadOrStore(filename, table)
	return actual.(map[string]string), nil
}

// ClearCache drops decoded files so the next Get re-reads them.
func ClearCache() {
	parsed.Clear()
}

// List returns the keys of filename, sorted.
func List(filename string) ([]string, error) {
	table, err := loadFile(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
