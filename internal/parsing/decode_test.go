package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bareEvaluation = `{"overall_score": 88, "breakdown": {"keyword_match": 4.5}, "missing_keywords": ["Terraform"], "quick_wins": ["Quantify impact"], "summary": "Strong match"}`

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"other tag", "```javascript\n{\"a\":1}\n```", `{"a":1}`},
		{"inline fence", "```json {\"a\":1}```", `{"a":1}`},
		{"no fence", "  {\"a\":1}  ", `{"a":1}`},
		{"only trailing", "{\"a\":1}\n```", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.input))
		})
	}
}

func TestDecode_FencesAndProseMatchBare(t *testing.T) {
	want, _, err := Decode(bareEvaluation)
	require.NoError(t, err)

	inputs := []string{
		"```json\n" + bareEvaluation + "\n```",
		"```\n" + bareEvaluation + "\n```",
		"Here is the evaluation you asked for:\n" + bareEvaluation + "\nLet me know if you need more.",
		"Sure!\n```json\n" + bareEvaluation + "\n```\nThanks",
	}
	for _, input := range inputs {
		got, method, err := Decode(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
		assert.Equal(t, MethodBraceSpan, method)
	}
}

func TestDecode_Tiers(t *testing.T) {
	_, method, err := Decode(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, MethodBraceSpan, method)

	_, _, err = Decode(`no braces here`)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "whole_text")

	_, _, err = Decode(`[1, 2, 3]`)
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "not an object")

	_, _, err = Decode(`"just a string"`)
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "not an object")
}

func TestDecode_Failures(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"no json here at all",
		"{ broken: json ",
		"{\"a\": 1,}",
		"} reversed {",
	}
	for _, input := range inputs {
		_, _, err := Decode(input)
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr, "input %q", input)
	}
}

func TestDecode_NumbersAreFloat(t *testing.T) {
	record, _, err := Decode(`{"overall_score": 90, "nested": {"x": [1, "two"]}}`)
	require.NoError(t, err)
	assert.Equal(t, 90.0, record["overall_score"])
	assert.Equal(t, map[string]any{"x": []any{1.0, "two"}}, record["nested"])
}
