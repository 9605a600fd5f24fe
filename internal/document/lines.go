package document

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineDivider
	lineTitle
	lineHeading
	lineBullet
	lineText
)

type line struct {
	kind lineKind
	text string
}

// classify splits resume text into render-ready lines. The first non-empty line is the title.
func classify(text string) []line {
	var out []line
	titleSeen := false

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		s := strings.TrimSpace(raw)
		switch {
		case s == "":
			out = append(out, line{kind: lineBlank})
		case !titleSeen:
			titleSeen = true
			out = append(out, line{kind: lineTitle, text: stripBold(s)})
		case isDivider(s):
			out = append(out, line{kind: lineDivider})
		case strings.HasPrefix(s, "-") || strings.HasPrefix(s, "•"):
			body := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "-"), "•"))
			out = append(out, line{kind: lineBullet, text: body})
		case isHeading(s):
			out = append(out, line{kind: lineHeading, text: stripBold(s)})
		default:
			out = append(out, line{kind: lineText, text: s})
		}
	}
	return out
}

func isDivider(s string) bool {
	return strings.HasPrefix(s, "---") || strings.HasPrefix(s, "___")
}

func isHeading(s string) bool {
	if len(s) > 4 && strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**") &&
		!strings.Contains(s[2:len(s)-2], "**") {
		return true
	}
	if utf8.RuneCountInString(s) >= 50 {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func stripBold(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}

// splitBold splits s around its first **x** span.
func splitBold(s string) (before, bold, after string, ok bool) {
	start := strings.Index(s, "**")
	if start < 0 {
		return s, "", "", false
	}
	end := strings.Index(s[start+2:], "**")
	if end < 0 {
		return s, "", "", false
	}
	end += start + 2
	return s[:start], s[start+2 : end], s[end+2:], true
}

type run struct {
	text string
	bold bool
}

// boldRuns splits s into alternating plain and bold segments on ** markers.
func boldRuns(s string) []run {
	parts := strings.Split(s, "**")
	if len(parts)%2 == 0 {
		// unbalanced markers: render literally
		return []run{{text: s}}
	}
	runs := make([]run, 0, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		runs = append(runs, run{text: p, bold: i%2 == 1})
	}
	return runs
}
