package prompts

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Placeholder fields used by the stage templates.
const (
	FieldResume       = "Resume"
	FieldRequirements = "Requirements"
	FieldTargetRole   = "TargetRole"
	FieldFormat       = "Format"
)

var unresolvedRe = regexp.MustCompile(`\{\{\.[A-Za-z_][A-Za-z0-9_]*\}\}`)

// UnresolvedError reports placeholders left in a built prompt.
type UnresolvedError struct {
	Key          string
	Placeholders []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("prompt %q has unresolved placeholders: %s", e.Key, strings.Join(e.Placeholders, ", "))
}

// Truncate keeps the first ceiling runes of text and appends "..." when text is longer.
// A ceiling of 0 or less disables truncation.
func Truncate(text string, ceiling int) string {
	if ceiling <= 0 || utf8.RuneCountInString(text) <= ceiling {
		return text
	}
	runes := []rune(text)
	return string(runes[:ceiling]) + "..."
}

// Build fills the stage template stored under key in stages.json.
// Each field is truncated by its ceiling first; fields without a ceiling are embedded whole.
// The canonical format is supplied for {{.Format}} unless fields sets it.
func Build(key string, ceilings map[string]int, fields map[string]string) (string, error) {
	template, err := Get(StagesFile, key)
	if err != nil {
		return "", err
	}

	data := make(map[string]string, len(fields)+1)
	for name, value := range fields {
		data[name] = Truncate(value, ceilings[name])
	}
	if _, ok := data[FieldFormat]; !ok && strings.Contains(template, placeholder(FieldFormat)) {
		data[FieldFormat] = FormatTemplate()
	}

	var left []string
	for _, ph := range unresolvedRe.FindAllString(template, -1) {
		if _, ok := data[ph[3:len(ph)-2]]; !ok {
			left = append(left, ph)
		}
	}
	if len(left) > 0 {
		return "", &UnresolvedError{Key: key, Placeholders: left}
	}
	return Format(template, data), nil
}
