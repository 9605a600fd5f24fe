package pipeline

import "errors"

// ErrStageCached is returned when a stage already has an entry in the run cache.
var ErrStageCached = errors.New("stage output already cached for this run")

// StageResult is one stage output, produced once per stage per run.
type StageResult struct {
	Stage  string `json:"stage"`
	Output string `json:"output"`
}

// Cache is the append-only record of stage outputs for a single run.
// Entries keep completion order and are never overwritten.
type Cache struct {
	entries []StageResult
	index   map[string]int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{index: make(map[string]int)}
}

// Append records a stage output. A stage name may appear only once.
func (c *Cache) Append(stage, output string) error {
	if _, ok := c.index[stage]; ok {
		return ErrStageCached
	}
	c.index[stage] = len(c.entries)
	c.entries = append(c.entries, StageResult{Stage: stage, Output: output})
	return nil
}

// Get returns the output for a stage and whether it exists.
func (c *Cache) Get(stage string) (string, bool) {
	i, ok := c.index[stage]
	if !ok {
		return "", false
	}
	return c.entries[i].Output, true
}

// Has reports whether a stage has output.
func (c *Cache) Has(stage string) bool {
	_, ok := c.index[stage]
	return ok
}

// Results returns a copy of all entries in completion order.
func (c *Cache) Results() []StageResult {
	out := make([]StageResult, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of cached stages.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries = nil
	c.index = make(map[string]int)
}
