package driven

// ConfigStore holds flat, dot-keyed settings such as "storage.root".
// Implementations persist them and convert between stored and Go types.
type ConfigStore interface {
	// Get retrieves a value and reports whether the key is set.
	Get(key string) (any, bool)

	// GetString returns "" if the key is unset or not a string.
	GetString(key string) string

	// GetInt returns 0 if the key is unset or not an integer.
	GetInt(key string) int

	// GetFloat returns 0 if the key is unset or not numeric.
	// Integers are widened.
	GetFloat(key string) float64

	// GetBool returns false if the key is unset or not a boolean.
	GetBool(key string) bool

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Keys returns every set key, sorted.
	Keys() []string

	// Save persists the current configuration.
	Save() error

	// Load re-reads configuration from storage.
	Load() error

	// Path returns the configuration file path, or "" when not file-backed.
	Path() string
}
