package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-forge/internal/llm"
	"github.com/jonathan/resume-forge/internal/prompts"
)

type doneSet map[string]bool

func (d doneSet) Has(stage string) bool { return d[stage] }

func TestRegistry(t *testing.T) {
	expected := []string{
		Sanitization, Optimization, Enhancement, Evaluation,
		CareerGuidance, QualityScoring,
	}
	require.Len(t, Registry, len(expected))

	for _, name := range expected {
		def, ok := Registry[name]
		require.True(t, ok, "stage %s should be in registry", name)
		assert.Equal(t, name, def.Name)
		assert.NotEmpty(t, def.Category)
		assert.NotEmpty(t, def.Role)
		assert.NotEmpty(t, def.Goal)
		assert.Equal(t, DefaultBudget, def.Budget)

		_, err := prompts.Get(prompts.StagesFile, def.PromptKey)
		assert.NoError(t, err, "prompt for %s", name)
	}
}

func TestRegistryCeilings(t *testing.T) {
	tests := []struct {
		stage        string
		resume       int
		requirements int
	}{
		{Sanitization, 1000, 0},
		{Optimization, 800, 200},
		{Enhancement, 700, 0},
		{Evaluation, 600, 150},
		{CareerGuidance, 800, 300},
		{QualityScoring, 800, 0},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			def := Registry[tt.stage]
			assert.Equal(t, tt.resume, def.Ceilings[prompts.FieldResume])
			assert.Equal(t, tt.requirements, def.Ceilings[prompts.FieldRequirements])
		})
	}
}

func TestRegistryTemperatures(t *testing.T) {
	assert.Equal(t, 0.0, Registry[Sanitization].Temperature)
	assert.Equal(t, 0.3, Registry[Optimization].Temperature)
	assert.Equal(t, 0.2, Registry[Enhancement].Temperature)
	assert.Equal(t, 0.0, Registry[Evaluation].Temperature)
	assert.Equal(t, 0.2, Registry[CareerGuidance].Temperature)
	assert.Equal(t, 0.0, Registry[QualityScoring].Temperature)
}

func TestFullOptimizationChain(t *testing.T) {
	assert.Equal(t, []string{Sanitization, Optimization, Enhancement, Evaluation}, FullOptimization)
	for i := 1; i < len(FullOptimization); i++ {
		assert.Equal(t, []string{FullOptimization[i-1]}, Registry[FullOptimization[i]].Dependencies)
	}
	assert.Empty(t, Registry[Sanitization].Dependencies)
	assert.Empty(t, Registry[CareerGuidance].Dependencies)
	assert.Empty(t, Registry[QualityScoring].Dependencies)
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{
		Stage:               "enhancement",
		MissingDependencies: []string{"optimization"},
	}

	assert.Contains(t, err.Error(), "missing dependencies")
	assert.Contains(t, err.Error(), "enhancement")
}

func TestValidateDependencies(t *testing.T) {
	assert.NoError(t, ValidateDependencies(doneSet{}, Sanitization))
	assert.NoError(t, ValidateDependencies(nil, CareerGuidance))
	assert.NoError(t, ValidateDependencies(doneSet{Optimization: true}, Enhancement))

	err := ValidateDependencies(doneSet{Sanitization: true}, Enhancement)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, Enhancement, depErr.Stage)
	assert.Equal(t, []string{Optimization}, depErr.MissingDependencies)
}

func TestValidateDependencies_UnknownStage(t *testing.T) {
	err := ValidateDependencies(doneSet{}, "unknown_stage")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestDefinitionRequest(t *testing.T) {
	def := Registry[Evaluation]
	req := def.Request("instructions", 0)

	assert.Equal(t, "ATS Compatibility Analyst", req.Role)
	assert.Equal(t, "instructions", req.Instructions)
	assert.Equal(t, DefaultBudget, req.Budget)
	assert.Equal(t, llm.TierStandard, req.Tier)
	assert.True(t, req.JSON)
	assert.NotEmpty(t, req.Persona)

	assert.Equal(t, int64(5e9), int64(def.Request("x", 5e9).Budget))
}
