package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyStorageRoot    = "storage.root"
	KeyStorageBackend = "storage.backend"
	KeyRetrievalTopK  = "retrieval.top_k"
	KeyRetrievalScore = "retrieval.min_score"
	KeyIndexPrecision = "index.precision"
	KeyLogVerbose     = "log.verbose"
)

// EnvRoot overrides storage.root when set.
const EnvRoot = "POLICYSTORE_ROOT"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
	homeDir     func() (string, error)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
		homeDir:     os.UserHomeDir,
	}
}

// Get retrieves current settings. Unset or invalid keys take their defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	root, err := s.root()
	if err != nil {
		return nil, err
	}

	settings := &domain.Settings{
		Storage: domain.StorageSettings{
			Root:    root,
			Backend: s.getBackend(defaults.Storage.Backend),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:     s.getInt(KeyRetrievalTopK, defaults.Retrieval.TopK),
			MinScore: s.getFloat(KeyRetrievalScore, defaults.Retrieval.MinScore),
		},
		Index: domain.IndexSettings{
			Precision: s.getPrecision(defaults.Index.Precision),
		},
		Verbose: s.getBool(KeyLogVerbose, defaults.Verbose),
	}
	return settings, nil
}

// Save persists settings. An empty root is not written, so the default
// keeps following the home directory.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", settings.Storage.Backend)
	}
	if !settings.Index.Precision.IsValid() {
		return fmt.Errorf("invalid index precision: %s", settings.Index.Precision)
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("invalid retrieval top_k: %d", settings.Retrieval.TopK)
	}

	if settings.Storage.Root != "" {
		if err := s.configStore.Set(KeyStorageRoot, settings.Storage.Root); err != nil {
			return fmt.Errorf("save storage root: %w", err)
		}
	}
	if err := s.configStore.Set(KeyStorageBackend, settings.Storage.Backend.String()); err != nil {
		return fmt.Errorf("save storage backend: %w", err)
	}
	if err := s.configStore.Set(KeyRetrievalTopK, settings.Retrieval.TopK); err != nil {
		return fmt.Errorf("save retrieval top_k: %w", err)
	}
	if err := s.configStore.Set(KeyRetrievalScore, settings.Retrieval.MinScore); err != nil {
		return fmt.Errorf("save retrieval min_score: %w", err)
	}
	if err := s.configStore.Set(KeyIndexPrecision, string(settings.Index.Precision)); err != nil {
		return fmt.Errorf("save index precision: %w", err)
	}
	if err := s.configStore.Set(KeyLogVerbose, settings.Verbose); err != nil {
		return fmt.Errorf("save log verbose: %w", err)
	}
	return nil
}

// SetBackend updates the storage backend.
func (s *SettingsService) SetBackend(backend domain.StorageBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", backend)
	}
	return s.configStore.Set(KeyStorageBackend, backend.String())
}

// SetRoot updates the storage root. Relative paths are made absolute.
func (s *SettingsService) SetRoot(root string) error {
	if root == "" {
		return fmt.Errorf("storage root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve storage root: %w", err)
	}
	return s.configStore.Set(KeyStorageRoot, abs)
}

// root resolves the storage root: environment, then config, then
// ~/.policystore/data.
func (s *SettingsService) root() (string, error) {
	if env := s.getenv(EnvRoot); env != "" {
		return env, nil
	}
	if root := s.configStore.GetString(KeyStorageRoot); root != "" {
		return root, nil
	}
	home, err := s.homeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".policystore", "data"), nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(KeyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getPrecision(defaultVal domain.IndexPrecision) domain.IndexPrecision {
	precision := domain.IndexPrecision(s.configStore.GetString(KeyIndexPrecision))
	if !precision.IsValid() {
		return defaultVal
	}
	return precision
}
