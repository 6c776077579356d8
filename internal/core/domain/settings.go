package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// ProviderID is the registry key of an LLM provider.
type ProviderID string

// Available LLM providers.
const (
	// ProviderOpenAI is the OpenAI cloud API.
	ProviderOpenAI ProviderID = "openai"

	// ProviderDeepSeek is DeepSeek's OpenAI-compatible API.
	ProviderDeepSeek ProviderID = "deepseek"

	// ProviderAnthropic is the Anthropic cloud API.
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderOllama is a local Ollama instance.
	ProviderOllama ProviderID = "ollama"

	// ProviderDummy returns canned text and is used for offline runs.
	ProviderDummy ProviderID = "dummy"
)

// IsValid returns true if the provider is recognised.
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderDeepSeek, ProviderAnthropic, ProviderOllama, ProviderDummy:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p ProviderID) RequiresAPIKey() bool {
	return p == ProviderOpenAI || p == ProviderDeepSeek || p == ProviderAnthropic
}

// String returns the string representation.
func (p ProviderID) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p ProviderID) Description() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI (cloud)"
	case ProviderDeepSeek:
		return "DeepSeek (cloud, OpenAI-compatible)"
	case ProviderAnthropic:
		return "Anthropic (cloud)"
	case ProviderOllama:
		return "Ollama (local)"
	case ProviderDummy:
		return "Dummy (offline, canned output)"
	default:
		return unknownDescription
	}
}

// AllProviders returns every known provider in display order.
func AllProviders() []ProviderID {
	return []ProviderID{ProviderOpenAI, ProviderDeepSeek, ProviderAnthropic, ProviderOllama, ProviderDummy}
}

// ProviderForModel infers the provider from a model name prefix.
// The boolean is false when the model name matches no known family.
func ProviderForModel(model string) (ProviderID, bool) {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude-"):
		return ProviderAnthropic, true
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"):
		return ProviderOpenAI, true
	case strings.HasPrefix(m, "deepseek-"):
		return ProviderDeepSeek, true
	default:
		return "", false
	}
}

// EmbeddingBackend identifies the service that hosts the embedding model.
type EmbeddingBackend string

// Available embedding backends.
const (
	// EmbeddingBackendOllama is a local Ollama instance.
	EmbeddingBackendOllama EmbeddingBackend = "ollama"

	// EmbeddingBackendOpenAI is the OpenAI embeddings API.
	EmbeddingBackendOpenAI EmbeddingBackend = "openai"

	// EmbeddingBackendCompatible is any OpenAI-compatible embedding server,
	// such as text-embeddings-inference serving the e5 models.
	EmbeddingBackendCompatible EmbeddingBackend = "compatible"

	// EmbeddingBackendHash is a deterministic offline embedder for tests and demos.
	EmbeddingBackendHash EmbeddingBackend = "hash"
)

// IsValid returns true if the backend is recognised.
func (b EmbeddingBackend) IsValid() bool {
	switch b {
	case EmbeddingBackendOllama, EmbeddingBackendOpenAI, EmbeddingBackendCompatible, EmbeddingBackendHash:
		return true
	default:
		return false
	}
}

// StorageBackend identifies where documents and chunks are kept.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
	StorageChromem  StorageBackend = "chromem"
	StorageMemory   StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StoragePostgres, StorageChromem, StorageMemory:
		return true
	default:
		return false
	}
}

// ConversationBackend identifies where conversation turns are kept.
type ConversationBackend string

// Available conversation backends.
const (
	ConversationSQLite ConversationBackend = "sqlite"
	ConversationBolt   ConversationBackend = "bolt"
	ConversationMemory ConversationBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b ConversationBackend) IsValid() bool {
	switch b {
	case ConversationSQLite, ConversationBolt, ConversationMemory:
		return true
	default:
		return false
	}
}

// RerankerKind selects the second-pass relevance scorer.
type RerankerKind string

// Available rerankers.
const (
	// RerankerNone runs retrieval only.
	RerankerNone RerankerKind = "none"

	// RerankerLexical scores by query term overlap.
	RerankerLexical RerankerKind = "lexical"

	// RerankerCohere calls a hosted cross-encoder.
	RerankerCohere RerankerKind = "cohere"
)

// IsValid returns true if the reranker is recognised.
func (k RerankerKind) IsValid() bool {
	switch k {
	case RerankerNone, RerankerLexical, RerankerCohere:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding model configuration.
type EmbeddingSettings struct {
	// Backend is the service hosting the model.
	Backend EmbeddingBackend

	// Model is the model identifier, e.g. "e5-base-v2".
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key, when the backend needs one.
	APIKey string
}

// ProviderSettings holds credentials and limits for one LLM provider.
type ProviderSettings struct {
	// APIKey is the provider credential.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// Model is the provider's default model.
	Model string

	// Timeout bounds each provider call.
	Timeout time.Duration

	// RequestsPerMinute throttles calls. Zero disables throttling.
	RequestsPerMinute int
}

// LLMSettings holds generation configuration.
type LLMSettings struct {
	// ChatProvider and ChatModel are used by GenerateAnswer.
	ChatProvider ProviderID
	ChatModel    string

	// ArgumentsProvider and ArgumentsModel are used by BuildArguments.
	ArgumentsProvider ProviderID
	ArgumentsModel    string

	// Temperature and MaxTokens apply to every call.
	Temperature float64
	MaxTokens   int

	// DefaultTimeout applies to providers without their own timeout.
	DefaultTimeout time.Duration

	// Providers holds per-provider settings.
	Providers map[ProviderID]ProviderSettings
}

// Provider returns settings for id with the default timeout filled in.
func (l LLMSettings) Provider(id ProviderID) ProviderSettings {
	ps := l.Providers[id]
	if ps.Timeout <= 0 {
		ps.Timeout = l.DefaultTimeout
	}
	return ps
}

// ChunkSettings holds ingestion defaults.
type ChunkSettings struct {
	Size    int
	Overlap int
	Unit    ChunkUnit
}

// Options converts the settings to ChunkOptions.
func (c ChunkSettings) Options() ChunkOptions {
	return ChunkOptions{Size: c.Size, Overlap: c.Overlap, Unit: c.Unit}
}

// RetrievalSettings holds retrieval and rerank configuration.
type RetrievalSettings struct {
	// ChunksLimit is the default top-k for grounding chunks.
	ChunksLimit int

	// DocumentsLimit caps the related cases listed with argument drafts.
	DocumentsLimit int

	// RelevanceThreshold is halved to give the effective score cut-off.
	RelevanceThreshold float64

	// Reranker selects the second-pass scorer.
	Reranker RerankerKind

	// CandidateMultiplier scales top-k when fetching rerank candidates.
	CandidateMultiplier int

	// RerankFallback returns retrieval order when the reranker fails.
	RerankFallback bool

	// CohereAPIKey, CohereModel and CohereBaseURL configure the cross-encoder.
	CohereAPIKey  string
	CohereModel   string
	CohereBaseURL string
}

// EffectiveThreshold is the score below which grounding results are dropped.
func (r RetrievalSettings) EffectiveThreshold() float64 {
	return r.RelevanceThreshold * 0.5
}

// StorageSettings holds storage backend configuration.
type StorageSettings struct {
	// Backend stores documents and chunks.
	Backend StorageBackend

	// Conversations stores conversation turns.
	Conversations ConversationBackend

	// DataDir holds the sqlite, bolt and chromem files.
	DataDir string

	// DatabaseURL is the Postgres DSN for the pgvector backend.
	DatabaseURL string
}

// GenerationSettings holds orchestrator configuration.
type GenerationSettings struct {
	// HistoryLimit is the number of recent turns included in prompts.
	HistoryLimit int

	// DefaultMode is used when a request does not choose one.
	DefaultMode GenerationMode
}

// Settings holds all application settings.
type Settings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Chunking   ChunkSettings
	Retrieval  RetrievalSettings
	Storage    StorageSettings
	Generation GenerationSettings
}

// DefaultSettings returns settings with sensible defaults.
// Provider credentials are left empty and come from the config file or environment.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Backend: EmbeddingBackendCompatible,
			Model:   "e5-base-v2",
			BaseURL: "http://localhost:8080/v1",
		},
		LLM: LLMSettings{
			ChatProvider:      ProviderOpenAI,
			ChatModel:         "gpt-4o",
			ArgumentsProvider: ProviderDeepSeek,
			ArgumentsModel:    "deepseek-reasoner",
			Temperature:       0.2,
			MaxTokens:         4096,
			DefaultTimeout:    60 * time.Second,
			Providers:         map[ProviderID]ProviderSettings{},
		},
		Chunking: ChunkSettings{
			Size:    500,
			Overlap: 100,
			Unit:    ChunkUnitCharacters,
		},
		Retrieval: RetrievalSettings{
			ChunksLimit:         5,
			DocumentsLimit:      3,
			RelevanceThreshold:  0.5,
			Reranker:            RerankerNone,
			CandidateMultiplier: 2,
			CohereModel:         "rerank-english-v3.0",
		},
		Storage: StorageSettings{
			Backend:       StorageSQLite,
			Conversations: ConversationSQLite,
		},
		Generation: GenerationSettings{
			HistoryLimit: 10,
			DefaultMode:  ModeSingleCall,
		},
	}
}

// EmbeddingModelInfo describes a known embedding model.
type EmbeddingModelInfo struct {
	// Name is the identifier sent to the backend.
	Name string

	// Dimensions is the vector size.
	Dimensions int

	// QueryPrefix and PassagePrefix are the textual markers the model
	// was trained with. Empty for models without a convention.
	QueryPrefix   string
	PassagePrefix string
}

// e5 models were trained with "query: " and "passage: " markers.
const (
	E5QueryPrefix   = "query: "
	E5PassagePrefix = "passage: "
)

// EmbeddingModels returns the catalogue of known embedding models keyed by
// configuration identifier.
func EmbeddingModels() map[string]EmbeddingModelInfo {
	return map[string]EmbeddingModelInfo{
		"e5-base-v2":             {Name: "intfloat/e5-base-v2", Dimensions: 768, QueryPrefix: E5QueryPrefix, PassagePrefix: E5PassagePrefix},
		"e5-large-v2":            {Name: "intfloat/e5-large-v2", Dimensions: 1024, QueryPrefix: E5QueryPrefix, PassagePrefix: E5PassagePrefix},
		"e5-small-v2":            {Name: "intfloat/e5-small-v2", Dimensions: 384, QueryPrefix: E5QueryPrefix, PassagePrefix: E5PassagePrefix},
		"multilingual-e5-base":   {Name: "intfloat/multilingual-e5-base", Dimensions: 768, QueryPrefix: E5QueryPrefix, PassagePrefix: E5PassagePrefix},
		"nomic-embed-text":       {Name: "nomic-embed-text", Dimensions: 768},
		"mxbai-embed-large":      {Name: "mxbai-embed-large", Dimensions: 1024},
		"all-minilm":             {Name: "all-minilm", Dimensions: 384},
		"text-embedding-3-small": {Name: "text-embedding-3-small", Dimensions: 1536},
		"text-embedding-3-large": {Name: "text-embedding-3-large", Dimensions: 3072},
		"text-embedding-ada-002": {Name: "text-embedding-ada-002", Dimensions: 1536},
	}
}

// LookupEmbeddingModel resolves a configured model identifier.
// Full Hugging Face names ("intfloat/e5-base-v2") are accepted as well.
func LookupEmbeddingModel(id string) (EmbeddingModelInfo, bool) {
	models := EmbeddingModels()
	if info, ok := models[id]; ok {
		return info, true
	}
	for _, info := range models {
		if info.Name == id {
			return info, true
		}
	}
	return EmbeddingModelInfo{}, false
}
