package driving

import "github.com/custodia-labs/policy-store/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults for unset keys.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// SetBackend updates the storage backend.
	SetBackend(backend domain.StorageBackend) error

	// SetRoot updates the storage root.
	SetRoot(root string) error
}
