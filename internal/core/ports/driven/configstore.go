package driven

// ConfigStore provides persistent key-value configuration.
type ConfigStore interface {
	// Get retrieves a raw configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" when unset.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 when unset.
	GetInt(key string) int

	// GetFloat retrieves a float value, or 0 when unset.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, or false when unset.
	GetBool(key string) bool

	// Set stores a configuration value.
	Set(key string, value any)

	// Save persists the configuration.
	Save() error
}
