package llm

import (
	"strings"
	"time"
)

// Request is one call to the text-generation delegate: who the model should act as,
// what it should achieve and the instructions (with embedded input previews) to follow.
type Request struct {
	Role           string
	Goal           string
	Persona        string
	Instructions   string
	ExpectedOutput string
	Temperature    float64
	Tier           ModelTier
	Budget         time.Duration
	JSON           bool // ask the provider for a JSON response where supported
}

// SystemPrompt renders role, goal and persona as the system instruction.
func (r Request) SystemPrompt() string {
	var sb strings.Builder
	if r.Role != "" {
		sb.WriteString("You are a ")
		sb.WriteString(r.Role)
		sb.WriteString(".")
	}
	if r.Persona != "" {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(r.Persona)
	}
	if r.Goal != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Your goal: ")
		sb.WriteString(r.Goal)
	}
	return sb.String()
}

// UserPrompt renders the instructions followed by the expected output description.
func (r Request) UserPrompt() string {
	if r.ExpectedOutput == "" {
		return r.Instructions
	}
	return r.Instructions + "\n\nEXPECTED OUTPUT: " + r.ExpectedOutput
}
