package driven

// ConfigStore holds user settings under dotted keys such as
// "retrieval.rerank_model". Typed getters return the zero value for a
// missing key or a value of another type. Set and Unset persist at once.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	Set(key string, value any) error
	Unset(key string) error

	// Keys lists every key holding a value, sorted.
	Keys() []string

	// Save writes the settings to their backing file, if any.
	Save() error
	// Load replaces the settings with the backing file's contents.
	Load() error
	// Path is the backing file, or "" when there is none.
	Path() string
}
