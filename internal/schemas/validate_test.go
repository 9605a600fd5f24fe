package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemafiles "github.com/jonathan/resume-forge/schemas"
)

func validEvaluation() map[string]any {
	return map[string]any{
		"overall_score":    82.0,
		"breakdown":        map[string]any{"keyword_match": 4.0},
		"missing_keywords": []any{"kubernetes"},
		"quick_wins":       []any{"Add metrics"},
		"summary":          "Good fit",
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	assert.NoError(t, ValidateRecord(schemafiles.Evaluation, validEvaluation()))
}

func TestValidateRecord_MissingField(t *testing.T) {
	record := validEvaluation()
	delete(record, "summary")
	delete(record, "quick_wins")

	err := ValidateRecord(schemafiles.Evaluation, record)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.ElementsMatch(t, []string{"summary", "quick_wins"}, validationErr.Properties())
}

func TestValidateRecord_WrongType(t *testing.T) {
	record := validEvaluation()
	record["overall_score"] = "high"
	record["breakdown"] = map[string]any{"keyword_match": "four"}

	err := ValidateRecord(schemafiles.Evaluation, record)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"overall_score", "breakdown"}, validationErr.Properties())
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateRecord_ScoreOutOfRange(t *testing.T) {
	record := validEvaluation()
	record["overall_score"] = 140.0

	err := ValidateRecord(schemafiles.Evaluation, record)
	require.Error(t, err)
	assert.Equal(t, []string{"overall_score"}, err.(*ValidationError).Properties())
}

func TestValidateRecord_UnknownSchema(t *testing.T) {
	err := ValidateRecord("missing.schema.json", map[string]any{})
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "missing.schema.json")
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name":"x"}`))

	err := ValidateJSONString(schema, `{}`)
	require.Error(t, err)
	assert.Equal(t, []string{"name"}, err.(*ValidationError).Properties())

	err = ValidateJSONString(`{not json`, `{}`)
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}
