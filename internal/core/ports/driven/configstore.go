package driven

// ConfigStore persists user configuration as key-value pairs.
// Nested sections are addressed with dot-notation keys
// (e.g. "embedding.provider").
type ConfigStore interface {
	// Get retrieves a value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, empty when absent.
	GetString(key string) string

	// GetInt retrieves an integer value, zero when absent.
	GetInt(key string) int

	// GetBool retrieves a boolean value, false when absent.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice value, nil when absent.
	GetStringSlice(key string) []string

	// Keys returns all configuration keys in dot notation, sorted.
	Keys() []string

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Delete removes a key and persists immediately. Deleting an absent
	// key is not an error.
	Delete(key string) error

	// Save persists the current configuration.
	Save() error

	// Load reads the configuration from disk.
	Load() error
}
