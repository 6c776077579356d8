package domain

import "fmt"

// GenerationMode selects how an answer is produced.
type GenerationMode string

// Generation modes.
const (
	// ModeSingleCall sends one grounded prompt to the provider.
	ModeSingleCall GenerationMode = "single-call"

	// ModeMultiStep runs the fixed reasoning chain, one provider call per step.
	ModeMultiStep GenerationMode = "multi-step"
)

// IsValid returns true if the mode is recognised.
func (m GenerationMode) IsValid() bool {
	return m == ModeSingleCall || m == ModeMultiStep
}

// String returns the string representation.
func (m GenerationMode) String() string {
	return string(m)
}

// QueryType is the classification of a research question.
type QueryType string

// Query types.
const (
	QueryTypeCaseSpecific QueryType = "case_specific"
	QueryTypeGeneral      QueryType = "general"
)

// QueryClassification is the result of classifying a query.
type QueryClassification struct {
	Type       QueryType `json:"type"`
	Confidence float64   `json:"confidence"`
}

// CaseContext describes the matter a lawyer wants arguments for.
type CaseContext struct {
	Title   string
	Topic   string
	Content string
}

// GenerationRequest is the input to GenerateAnswer.
type GenerationRequest struct {
	// Query is the research question.
	Query string

	// ConversationID continues an existing conversation. Empty starts a new one.
	ConversationID string

	// Provider selects the LLM provider. Empty uses the configured default,
	// or the provider inferred from Model.
	Provider ProviderID

	// Model overrides the provider's default model.
	Model string

	// Mode selects single-call or multi-step generation.
	Mode GenerationMode

	// Topic filters retrieval to one legal topic.
	Topic string

	// TopK overrides the configured number of grounding chunks.
	TopK int

	// Case is set when drafting arguments for a specific matter.
	Case *CaseContext
}

// ArgumentsRequest is the input to BuildArguments.
type ArgumentsRequest struct {
	CaseTitle      string
	CaseTopic      string
	CaseContent    string
	Provider       ProviderID
	Model          string
	ConversationID string
	SingleCall     bool
}

// Source is a grounding chunk rendered for citation.
type Source struct {
	// Number is the 1-based citation number in presentation order.
	Number     int     `json:"number"`
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Citation   string  `json:"citation,omitempty"`
	Topic      string  `json:"topic,omitempty"`
	Position   int     `json:"position"`
	Excerpt    string  `json:"excerpt"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// RelatedCase summarises a case that grounded an argument draft.
type RelatedCase struct {
	Title          string  `json:"title"`
	URL            string  `json:"url,omitempty"`
	Citation       string  `json:"citation,omitempty"`
	Summary        string  `json:"summary,omitempty"`
	Similarity     float64 `json:"similarity_score"`
	CitationNumber int     `json:"citation_number"`
}

// StepDefinition is one step of the reasoning chain.
type StepDefinition struct {
	Name         string `yaml:"name" json:"name"`
	Instructions string `yaml:"instructions" json:"instructions"`
}

// StepRecord is a completed reasoning step, passed forward to later steps.
type StepRecord struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
	Output string `json:"output"`
}

// GenerationResponse is the result of GenerateAnswer or BuildArguments.
type GenerationResponse struct {
	// Answer is the generated text.
	Answer string `json:"answer"`

	// Sources are the grounding chunks in the order they were shown to the model.
	Sources []Source `json:"sources"`

	// ConversationID is the supplied or newly created conversation.
	ConversationID string `json:"conversation_id"`

	Mode      GenerationMode       `json:"mode"`
	Provider  ProviderID           `json:"provider"`
	Model     string               `json:"model"`
	Steps     []StepRecord         `json:"steps,omitempty"`
	QueryType *QueryClassification `json:"query_type,omitempty"`

	// Disclaimer and RelatedCases are set for argument drafts.
	Disclaimer   string        `json:"disclaimer,omitempty"`
	RelatedCases []RelatedCase `json:"related_cases,omitempty"`
}

// ArgumentsDisclaimer returns the notice attached to argument drafts.
func ArgumentsDisclaimer(model string) string {
	return fmt.Sprintf("These arguments were drafted by %s as a research aid. "+
		"They are not legal advice; verify every cited authority before relying on it.", model)
}
