package document

import (
	"strings"
	"unicode/utf8"
)

// Bounds on accepted document text, counted in characters after trimming.
const (
	MinChars = 100
	MaxChars = 50000
	MinWords = 20
)

// Validate checks that text is long enough, short enough and wordy enough to optimize.
func Validate(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ValidationError{Reason: "Document appears to be empty"}
	}

	n := utf8.RuneCountInString(trimmed)
	if n < MinChars {
		return &ValidationError{Reason: "Document content is too short (minimum 100 characters)"}
	}
	if n > MaxChars {
		return &ValidationError{Reason: "Document content is too long (maximum 50,000 characters)"}
	}
	if len(strings.Fields(trimmed)) < MinWords {
		return &ValidationError{Reason: "Document does not contain enough words"}
	}
	return nil
}

var requiredSections = []string{"SUMMARY", "SKILLS", "EXPERIENCE"}

// CheckFormat lists the ways text departs from the canonical resume layout.
// An empty result means the layout looks right.
func CheckFormat(text string) []string {
	issues := []string{}

	if !strings.Contains(text, "---") {
		issues = append(issues, "Missing section dividers (---)")
	}
	if !strings.Contains(text, "**") {
		issues = append(issues, "Missing bold formatting for headers")
	}

	upper := strings.ToUpper(text)
	for _, section := range requiredSections {
		if !strings.Contains(upper, section) {
			issues = append(issues, "Missing required section: "+section)
		}
	}

	if !strings.Contains(text, "\n-") {
		issues = append(issues, "Bullet points should use '- ' format")
	}
	return issues
}
