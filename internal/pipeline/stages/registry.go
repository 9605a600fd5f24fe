// Package stages provides the closed set of stage definitions and dependency validation
// for the resume optimization pipeline.
package stages

import (
	"fmt"
	"time"

	"github.com/jonathan/resume-forge/internal/llm"
	"github.com/jonathan/resume-forge/internal/prompts"
)

// Stage names. They double as cache keys and prompt keys.
const (
	Sanitization   = "sanitization"
	Optimization   = "optimization"
	Enhancement    = "enhancement"
	Evaluation     = "evaluation"
	CareerGuidance = "career_guidance"
	QualityScoring = "quality_scoring"
)

// Stage categories, used for progress events.
const (
	CategoryCleanup   = "cleanup"
	CategoryTailoring = "tailoring"
	CategoryRewriting = "rewriting"
	CategoryScoring   = "scoring"
	CategoryGuidance  = "guidance"
)

// DefaultBudget is the wall-clock limit for a single stage call.
const DefaultBudget = 60 * time.Second

// Definition is the fixed configuration of one stage.
type Definition struct {
	Name           string
	Category       string
	Role           string
	Goal           string
	PersonaKey     string
	PromptKey      string
	ExpectedOutput string
	Temperature    float64
	Tier           llm.ModelTier
	Budget         time.Duration
	Ceilings       map[string]int
	Dependencies   []string
	JSON           bool
}

// Registry holds every stage definition
var Registry = map[string]Definition{
	Sanitization: {
		Name:           Sanitization,
		Category:       CategoryCleanup,
		Role:           "Document Sanitization Specialist",
		Goal:           "Transform raw document text into clean, structured content optimized for AI processing.",
		PersonaKey:     Sanitization,
		PromptKey:      Sanitization,
		ExpectedOutput: "Sanitized resume text with preserved structure and normalized formatting using the specified format.",
		Temperature:    0.0,
		Tier:           llm.TierLite,
		Budget:         DefaultBudget,
		Ceilings:       map[string]int{prompts.FieldResume: 1000},
	},
	Optimization: {
		Name:           Optimization,
		Category:       CategoryTailoring,
		Role:           "ATS Optimization Strategist",
		Goal:           "Engineer high-performance resumes that achieve 85+ ATS compatibility scores.",
		PersonaKey:     Optimization,
		PromptKey:      Optimization,
		ExpectedOutput: "ATS-optimized resume with strategic keyword placement, professional structure, and proper formatting.",
		Temperature:    0.3,
		Tier:           llm.TierStandard,
		Budget:         DefaultBudget,
		Ceilings:       map[string]int{prompts.FieldResume: 800, prompts.FieldRequirements: 200},
		Dependencies:   []string{Sanitization},
	},
	Enhancement: {
		Name:           Enhancement,
		Category:       CategoryRewriting,
		Role:           "Achievement Architecture Specialist",
		Goal:           "Transform ordinary descriptions into quantified, high-impact achievement statements.",
		PersonaKey:     Enhancement,
		PromptKey:      Enhancement,
		ExpectedOutput: "Enhanced resume with quantified, impactful achievement statements and proper formatting.",
		Temperature:    0.2,
		Tier:           llm.TierStandard,
		Budget:         DefaultBudget,
		Ceilings:       map[string]int{prompts.FieldResume: 700},
		Dependencies:   []string{Optimization},
	},
	Evaluation: {
		Name:           Evaluation,
		Category:       CategoryScoring,
		Role:           "ATS Compatibility Analyst",
		Goal:           "Deliver precise ATS compatibility scores with actionable optimization roadmaps.",
		PersonaKey:     Evaluation,
		PromptKey:      Evaluation,
		ExpectedOutput: "Pure JSON object with scores and recommendations (no markdown formatting).",
		Temperature:    0.0,
		Tier:           llm.TierStandard,
		Budget:         DefaultBudget,
		Ceilings:       map[string]int{prompts.FieldResume: 600, prompts.FieldRequirements: 150},
		Dependencies:   []string{Enhancement},
		JSON:           true,
	},
	CareerGuidance: {
		Name:           CareerGuidance,
		Category:       CategoryGuidance,
		Role:           "Career Navigation Strategist",
		Goal:           "Provide personalized career guidance and strategic next-step recommendations.",
		PersonaKey:     CareerGuidance,
		PromptKey:      CareerGuidance,
		ExpectedOutput: "JSON-formatted career guidance with specific, actionable recommendations.",
		Temperature:    0.2,
		Tier:           llm.TierStandard,
		Budget:         DefaultBudget,
		Ceilings:       map[string]int{prompts.FieldResume: 800, prompts.FieldRequirements: 300},
		JSON:           true,
	},
	QualityScoring: {
		Name:           QualityScoring,
		Category:       CategoryScoring,
		Role:           "Resume Quality Metrics Evaluator",
		Goal:           "Conduct comprehensive resume assessments across 10+ quality dimensions.",
		PersonaKey:     QualityScoring,
		PromptKey:      QualityScoring,
		ExpectedOutput: "JSON-formatted multi-dimensional quality assessment with improvement recommendations.",
		Temperature:    0.0,
		Tier:           llm.TierStandard,
		Budget:         DefaultBudget,
		Ceilings:       map[string]int{prompts.FieldResume: 800},
		JSON:           true,
	},
}

// FullOptimization is the chained stage order of the full workflow.
var FullOptimization = []string{Sanitization, Optimization, Enhancement, Evaluation}

// Lookup returns the definition for a stage name.
func Lookup(name string) (Definition, error) {
	def, ok := Registry[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown stage: %s", name)
	}
	return def, nil
}

// Completed reports which stages already have output in the current run.
type Completed interface {
	Has(stage string) bool
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Stage               string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("stage %s: missing dependencies: %v", e.Stage, e.MissingDependencies)
}

// ValidateDependencies checks that every required dependency of a stage has completed.
func ValidateDependencies(done Completed, stageName string) error {
	def, err := Lookup(stageName)
	if err != nil {
		return err
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if done == nil || !done.Has(dep) {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Stage:               stageName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// Request turns a definition plus built instructions into a delegate request.
// A positive budget overrides the definition's.
func (d Definition) Request(instructions string, budget time.Duration) llm.Request {
	if budget <= 0 {
		budget = d.Budget
	}
	return llm.Request{
		Role:           d.Role,
		Goal:           d.Goal,
		Persona:        prompts.Persona(d.PersonaKey),
		Instructions:   instructions,
		ExpectedOutput: d.ExpectedOutput,
		Temperature:    d.Temperature,
		Tier:           d.Tier,
		Budget:         budget,
		JSON:           d.JSON,
	}
}
