package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// words returns n space-separated words padded with 'x' to exactly size characters.
func words(n, size int) string {
	s := strings.TrimSpace(strings.Repeat("word ", n))
	if len(s) < size {
		s += strings.Repeat("x", size-len(s))
	}
	return s[:size]
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason string
	}{
		{"empty", "", "Document appears to be empty"},
		{"whitespace", " \n\t ", "Document appears to be empty"},
		{"99 chars", words(20, 99), "Document content is too short (minimum 100 characters)"},
		{"100 chars 20 words", words(20, 100), ""},
		{"padding is trimmed", "   " + words(20, 99) + "   ", "Document content is too short (minimum 100 characters)"},
		{"50000 chars", words(20, 50000), ""},
		{"50001 chars", words(20, 50001), "Document content is too long (maximum 50,000 characters)"},
		{"too few words", strings.Repeat("a", 150), "Document does not contain enough words"},
		{"19 words", words(19, 200), "Document does not contain enough words"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.text)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestValidate_CountsRunes(t *testing.T) {
	// 60 runes of multibyte text plus 20 words stays under 100 characters
	text := strings.Repeat("é", 60) + strings.Repeat(" a", 19)
	err := Validate(text)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestCheckFormat(t *testing.T) {
	good := "**Jane**\n---\n**SUMMARY**\ntext\n**SKILLS**\n- Go\n**EXPERIENCE**\n- Built"
	assert.Empty(t, CheckFormat(good))

	issues := CheckFormat("Jane\nSummary only\n* bullet")
	assert.Equal(t, []string{
		"Missing section dividers (---)",
		"Missing bold formatting for headers",
		"Missing required section: SKILLS",
		"Missing required section: EXPERIENCE",
		"Bullet points should use '- ' format",
	}, issues)
}
