package driven

import "github.com/custodia-labs/caselaw/internal/core/domain"

// PromptStore provides access to LLM prompt templates and the reasoning chain.
// Implementations may load prompts from files or embed them in the binary.
// Templates use text/template syntax.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Steps returns the ordered reasoning chain used by multi-step generation.
	Steps() ([]domain.StepDefinition, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptSystem is the system instruction sent with every call.
	PromptSystem = "system"

	// PromptAnswer grounds a research answer in retrieved passages.
	// Fields: Query, Context, History, Guidance.
	PromptAnswer = "answer"

	// PromptArguments drafts arguments for a case in one call.
	// Fields: Case, Topic, Context, History.
	PromptArguments = "arguments"

	// PromptStep runs one step of the reasoning chain.
	// Fields: Query, Case, Topic, Context, History, Step, StepNumber,
	// StepCount, Previous.
	PromptStep = "step"

	// PromptCaseSpecific and PromptGeneral hold the guidance block chosen
	// by query classification. They are plain text, not templates.
	PromptCaseSpecific = "case_specific"
	PromptGeneral      = "general"
)

// PromptNames lists every prompt a PromptStore must provide.
func PromptNames() []string {
	return []string{PromptSystem, PromptAnswer, PromptArguments, PromptStep, PromptCaseSpecific, PromptGeneral}
}
