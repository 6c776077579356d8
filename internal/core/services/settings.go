package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedBackend = "embedding.backend"
	keyEmbedModel   = "embedding.model"
	keyEmbedBaseURL = "embedding.base_url"
	keyEmbedAPIKey  = "embedding.api_key"

	keyChatProvider      = "llm.chat_provider"
	keyChatModel         = "llm.chat_model"
	keyArgumentsProvider = "llm.arguments_provider"
	keyArgumentsModel    = "llm.arguments_model"
	keyTemperature       = "llm.temperature"
	keyMaxTokens         = "llm.max_tokens"
	keyTimeout           = "llm.timeout"

	keyChunkSize    = "chunking.size"
	keyChunkOverlap = "chunking.overlap"
	keyChunkUnit    = "chunking.unit"

	keyChunksLimit         = "retrieval.chunks_limit"
	keyDocumentsLimit      = "retrieval.documents_limit"
	keyRelevanceThreshold  = "retrieval.relevance_threshold"
	keyReranker            = "retrieval.reranker"
	keyCandidateMultiplier = "retrieval.candidate_multiplier"

	keyRerankFallback = "rerank.fallback_on_error"
	keyCohereAPIKey   = "rerank.cohere_api_key"
	keyCohereModel    = "rerank.cohere_model"
	keyCohereBaseURL  = "rerank.cohere_base_url"

	keyStorageBackend = "storage.backend"
	keyConversations  = "storage.conversations"
	keyDataDir        = "storage.data_dir"
	keyDatabaseURL    = "storage.database_url"

	keyHistoryLimit = "generation.history_limit"
	keyDefaultMode  = "generation.default_mode"

	providerKeyPrefix = "providers."
)

// Per-provider config key suffixes, as in providers.<id>.<suffix>.
var providerKeySuffixes = []string{"api_key", "base_url", "model", "timeout", "requests_per_minute"}

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	envEmbeddingModel    = "EMBEDDING_MODEL"
	envEmbeddingProvider = "EMBEDDING_PROVIDER"
	envEmbeddingBaseURL  = "EMBEDDING_BASE_URL"
	envOpenAIKey         = "OPENAI_API_KEY"
	envAnthropicKey      = "ANTHROPIC_API_KEY"
	envDeepSeekKey       = "DEEPSEEK_API_KEY"
	envCohereKey         = "COHERE_API_KEY"
	envOllamaBaseURL     = "OLLAMA_BASE_URL"
	envChatProvider      = "CHAT_LLM_PROVIDER"
	envChatModel         = "CHAT_LLM_MODEL"
	envArgumentsProvider = "ARGUMENTS_LLM_PROVIDER"
	envArgumentsModel    = "ARGUMENTS_LLM_MODEL"
	envTemperature       = "LLM_TEMPERATURE"
	envMaxTokens         = "LLM_MAX_TOKENS"
	envChunkSize         = "CHUNK_SIZE"
	envChunkOverlap      = "CHUNK_OVERLAP"
	envTopK              = "RETRIEVAL_TOP_K"
	envRerankEnabled     = "RERANK_ENABLED"
	envDatabaseURL       = "DATABASE_URL"
	envStorageBackend    = "STORAGE_BACKEND"
)

// EnvLookup reads an environment variable, like os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// SettingsService resolves settings from defaults, the config file and the
// environment, in increasing order of precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   EnvLookup
}

// NewSettingsService creates a new settings service.
// A nil lookupEnv disables the environment overlay.
func NewSettingsService(configStore driven.ConfigStore, lookupEnv EnvLookup) *SettingsService {
	if lookupEnv == nil {
		lookupEnv = func(string) (string, bool) { return "", false }
	}
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   lookupEnv,
	}
}

// Get retrieves current application settings.
// Malformed values in the file or environment are reported as
// domain.ErrInvalidInput rather than silently replaced by defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()
	p := &parser{s: s}

	settings := &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Backend: domain.EmbeddingBackend(s.getString(keyEmbedBackend, string(d.Embedding.Backend))),
			Model:   s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL: s.getString(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:  s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			ChatProvider:      domain.ProviderID(s.getString(keyChatProvider, string(d.LLM.ChatProvider))),
			ChatModel:         s.getString(keyChatModel, d.LLM.ChatModel),
			ArgumentsProvider: domain.ProviderID(s.getString(keyArgumentsProvider, string(d.LLM.ArgumentsProvider))),
			ArgumentsModel:    s.getString(keyArgumentsModel, d.LLM.ArgumentsModel),
			Temperature:       p.float(keyTemperature, d.LLM.Temperature),
			MaxTokens:         s.getInt(keyMaxTokens, d.LLM.MaxTokens),
			DefaultTimeout:    p.duration(keyTimeout, d.LLM.DefaultTimeout),
			Providers:         s.providerSettings(p),
		},
		Chunking: domain.ChunkSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: p.int(keyChunkOverlap, d.Chunking.Overlap),
			Unit:    domain.ChunkUnit(s.getString(keyChunkUnit, string(d.Chunking.Unit))),
		},
		Retrieval: domain.RetrievalSettings{
			ChunksLimit:         s.getInt(keyChunksLimit, d.Retrieval.ChunksLimit),
			DocumentsLimit:      s.getInt(keyDocumentsLimit, d.Retrieval.DocumentsLimit),
			RelevanceThreshold:  p.float(keyRelevanceThreshold, d.Retrieval.RelevanceThreshold),
			Reranker:            domain.RerankerKind(s.getString(keyReranker, string(d.Retrieval.Reranker))),
			CandidateMultiplier: s.getInt(keyCandidateMultiplier, d.Retrieval.CandidateMultiplier),
			RerankFallback:      s.getBool(keyRerankFallback, d.Retrieval.RerankFallback),
			CohereAPIKey:        s.configStore.GetString(keyCohereAPIKey),
			CohereModel:         s.getString(keyCohereModel, d.Retrieval.CohereModel),
			CohereBaseURL:       s.configStore.GetString(keyCohereBaseURL),
		},
		Storage: domain.StorageSettings{
			Backend:       domain.StorageBackend(s.getString(keyStorageBackend, string(d.Storage.Backend))),
			Conversations: domain.ConversationBackend(s.getString(keyConversations, string(d.Storage.Conversations))),
			DataDir:       s.getString(keyDataDir, s.defaultDataDir()),
			DatabaseURL:   s.configStore.GetString(keyDatabaseURL),
		},
		Generation: domain.GenerationSettings{
			HistoryLimit: s.getInt(keyHistoryLimit, d.Generation.HistoryLimit),
			DefaultMode:  domain.GenerationMode(s.getString(keyDefaultMode, string(d.Generation.DefaultMode))),
		},
	}

	s.applyEnv(settings, p)
	if p.err != nil {
		return nil, p.err
	}
	if err := Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set persists a single config file value after checking the key is known.
func (s *SettingsService) Set(key string, value any) error {
	if !IsSettingKey(key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Unset removes a config file value so the default applies again.
func (s *SettingsService) Unset(key string) error {
	if !IsSettingKey(key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Unset(key); err != nil {
		return fmt.Errorf("unset %s: %w", key, err)
	}
	return nil
}

// Value returns the raw config file value of key.
func (s *SettingsService) Value(key string) (any, bool) {
	return s.configStore.Get(key)
}

// StoredKeys returns the keys set in the config file, sorted.
func (s *SettingsService) StoredKeys() []string {
	return s.configStore.Keys()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ConfigPath returns the config file path.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// SettingKeys returns the fixed config keys, sorted.
// Per-provider keys take the form providers.<id>.<field>.
func SettingKeys() []string {
	keys := []string{
		keyEmbedBackend, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyChatProvider, keyChatModel, keyArgumentsProvider, keyArgumentsModel,
		keyTemperature, keyMaxTokens, keyTimeout,
		keyChunkSize, keyChunkOverlap, keyChunkUnit,
		keyChunksLimit, keyDocumentsLimit, keyRelevanceThreshold, keyReranker, keyCandidateMultiplier,
		keyRerankFallback, keyCohereAPIKey, keyCohereModel, keyCohereBaseURL,
		keyStorageBackend, keyConversations, keyDataDir, keyDatabaseURL,
		keyHistoryLimit, keyDefaultMode,
	}
	sort.Strings(keys)
	return keys
}

// ProviderSettingKeys returns the config keys for one provider.
func ProviderSettingKeys(id domain.ProviderID) []string {
	keys := make([]string, len(providerKeySuffixes))
	for i, suffix := range providerKeySuffixes {
		keys[i] = providerKeyPrefix + id.String() + "." + suffix
	}
	return keys
}

// IsSettingKey reports whether key is a recognised config key.
func IsSettingKey(key string) bool {
	if rest, ok := strings.CutPrefix(key, providerKeyPrefix); ok {
		id, field, found := strings.Cut(rest, ".")
		if !found || !domain.ProviderID(id).IsValid() {
			return false
		}
		for _, suffix := range providerKeySuffixes {
			if field == suffix {
				return true
			}
		}
		return false
	}
	for _, k := range SettingKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks settings for values no component could use.
func Validate(s *domain.Settings) error {
	var problems []string
	if !s.Embedding.Backend.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown embedding backend %q", s.Embedding.Backend))
	}
	if !s.LLM.ChatProvider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown chat provider %q", s.LLM.ChatProvider))
	}
	if !s.LLM.ArgumentsProvider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown arguments provider %q", s.LLM.ArgumentsProvider))
	}
	if err := s.Chunking.Options().Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if s.Retrieval.ChunksLimit <= 0 {
		problems = append(problems, "retrieval chunks limit must be positive")
	}
	if !s.Retrieval.Reranker.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown reranker %q", s.Retrieval.Reranker))
	}
	if !s.Storage.Backend.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown storage backend %q", s.Storage.Backend))
	}
	if !s.Storage.Conversations.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown conversation backend %q", s.Storage.Conversations))
	}
	if !s.Generation.DefaultMode.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown generation mode %q", s.Generation.DefaultMode))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (s *SettingsService) providerSettings(p *parser) map[domain.ProviderID]domain.ProviderSettings {
	out := make(map[domain.ProviderID]domain.ProviderSettings)
	for _, id := range domain.AllProviders() {
		prefix := providerKeyPrefix + id.String() + "."
		ps := domain.ProviderSettings{
			APIKey:            s.configStore.GetString(prefix + "api_key"),
			BaseURL:           s.configStore.GetString(prefix + "base_url"),
			Model:             s.configStore.GetString(prefix + "model"),
			Timeout:           p.duration(prefix+"timeout", 0),
			RequestsPerMinute: s.configStore.GetInt(prefix + "requests_per_minute"),
		}
		if ps != (domain.ProviderSettings{}) {
			out[id] = ps
		}
	}
	return out
}

// applyEnv overlays environment variables on settings.
func (s *SettingsService) applyEnv(settings *domain.Settings, p *parser) {
	env := func(key string, apply func(string)) {
		if v, ok := s.lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			apply(strings.TrimSpace(v))
		}
	}
	setKey := func(id domain.ProviderID, apply func(*domain.ProviderSettings)) {
		ps := settings.LLM.Providers[id]
		apply(&ps)
		settings.LLM.Providers[id] = ps
	}

	env(envEmbeddingModel, func(v string) { settings.Embedding.Model = v })
	env(envEmbeddingProvider, func(v string) { settings.Embedding.Backend = domain.EmbeddingBackend(v) })
	env(envEmbeddingBaseURL, func(v string) { settings.Embedding.BaseURL = v })

	env(envOpenAIKey, func(v string) { setKey(domain.ProviderOpenAI, func(ps *domain.ProviderSettings) { ps.APIKey = v }) })
	env(envAnthropicKey, func(v string) { setKey(domain.ProviderAnthropic, func(ps *domain.ProviderSettings) { ps.APIKey = v }) })
	env(envDeepSeekKey, func(v string) { setKey(domain.ProviderDeepSeek, func(ps *domain.ProviderSettings) { ps.APIKey = v }) })
	env(envOllamaBaseURL, func(v string) { setKey(domain.ProviderOllama, func(ps *domain.ProviderSettings) { ps.BaseURL = v }) })
	env(envCohereKey, func(v string) { settings.Retrieval.CohereAPIKey = v })

	env(envChatProvider, func(v string) { settings.LLM.ChatProvider = domain.ProviderID(v) })
	env(envChatModel, func(v string) { settings.LLM.ChatModel = v })
	env(envArgumentsProvider, func(v string) { settings.LLM.ArgumentsProvider = domain.ProviderID(v) })
	env(envArgumentsModel, func(v string) { settings.LLM.ArgumentsModel = v })
	env(envTemperature, func(v string) { settings.LLM.Temperature = p.parseFloat(envTemperature, v) })
	env(envMaxTokens, func(v string) { settings.LLM.MaxTokens = p.parseInt(envMaxTokens, v) })

	env(envChunkSize, func(v string) { settings.Chunking.Size = p.parseInt(envChunkSize, v) })
	env(envChunkOverlap, func(v string) { settings.Chunking.Overlap = p.parseInt(envChunkOverlap, v) })
	env(envTopK, func(v string) { settings.Retrieval.ChunksLimit = p.parseInt(envTopK, v) })
	env(envRerankEnabled, func(v string) {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(envRerankEnabled, v)
			return
		}
		switch {
		case !enabled:
			settings.Retrieval.Reranker = domain.RerankerNone
		case settings.Retrieval.Reranker == domain.RerankerNone && settings.Retrieval.CohereAPIKey != "":
			settings.Retrieval.Reranker = domain.RerankerCohere
		case settings.Retrieval.Reranker == domain.RerankerNone:
			settings.Retrieval.Reranker = domain.RerankerLexical
		}
	})

	env(envDatabaseURL, func(v string) { settings.Storage.DatabaseURL = v })
	env(envStorageBackend, func(v string) { settings.Storage.Backend = domain.StorageBackend(v) })
}

func (s *SettingsService) defaultDataDir() string {
	if path := s.configStore.Path(); path != "" {
		return filepath.Dir(path)
	}
	return ""
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// parser reads typed values and remembers the first malformed one.
type parser struct {
	s   *SettingsService
	err error
}

func (p *parser) fail(key string, val any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s has invalid value %v", domain.ErrInvalidInput, key, val)
	}
}

// int reads an int where zero is a meaningful value.
func (p *parser) int(key string, defaultVal int) int {
	val, ok := p.s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		return p.parseInt(key, v)
	default:
		p.fail(key, val)
		return defaultVal
	}
}

func (p *parser) float(key string, defaultVal float64) float64 {
	val, ok := p.s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		return p.parseFloat(key, v)
	default:
		p.fail(key, val)
		return defaultVal
	}
}

func (p *parser) duration(key string, defaultVal time.Duration) time.Duration {
	val, ok := p.s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			p.fail(key, v)
			return defaultVal
		}
		return d
	case int64:
		return time.Duration(v) * time.Second
	case int:
		return time.Duration(v) * time.Second
	default:
		p.fail(key, val)
		return defaultVal
	}
}

func (p *parser) parseInt(key, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v)
	}
	return n
}

func (p *parser) parseFloat(key, v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v)
	}
	return f
}
