package pipeline

// Progress event messages
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// emitProgress calls the progress callback if configured
func (p *Pipeline) emitProgress(step, category, message string, content any) {
	if p.onProgress == nil {
		return
	}
	p.onProgress(ProgressEvent{
		Step:     step,
		Category: category,
		Message:  message,
		RunID:    p.runID.String(),
		Content:  content,
	})
}
