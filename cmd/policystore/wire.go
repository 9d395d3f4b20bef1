package main

import (
	"fmt"

	configfile "github.com/custodia-labs/policy-store/internal/adapters/driven/config/file"
	filestore "github.com/custodia-labs/policy-store/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/policy-store/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/policy-store/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/policy-store/internal/adapters/driving/cli"
	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
	"github.com/custodia-labs/policy-store/internal/core/services"
	"github.com/custodia-labs/policy-store/internal/logger"
)

// bootstrap builds every service from the config file and flag overrides.
func bootstrap(opts cli.Options) (*cli.Services, func() error, error) {
	configStore, err := configfile.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	applyOverrides(settings, opts)
	logger.SetVerbose(settings.Verbose)

	logger.Section("Bootstrap")
	logger.Debug("settings resolved",
		"config", configStore.Path(),
		"root", settings.Storage.Root,
		"backend", settings.Storage.Backend,
		"precision", settings.Index.Precision)

	blobs, changes, err := openBackend(settings.Storage)
	if err != nil {
		return nil, nil, err
	}

	precision, err := flat.ParsePrecision(string(settings.Index.Precision))
	if err != nil {
		_ = blobs.Close()
		return nil, nil, err
	}
	codec := flat.NewCodec(precision)
	store := services.NewArtifactStore(blobs)

	return &cli.Services{
		Policies:    store,
		Reports:     store,
		Ingestion:   services.NewIngestionService(store, codec),
		Retrieval:   services.NewRetrievalService(store, codec),
		Settings:    settingsService,
		NewPolicyID: services.NewPolicyID,
		NewReportID: services.NewReportID,
		Changes:     changes,
	}, blobs.Close, nil
}

// applyOverrides lets global flags win over stored settings for this run.
func applyOverrides(settings *domain.Settings, opts cli.Options) {
	if opts.Root != "" {
		settings.Storage.Root = opts.Root
	}
	if opts.Backend != "" {
		settings.Storage.Backend = opts.Backend
	}
	if opts.Verbose {
		settings.Verbose = true
	}
}

// openBackend opens the configured blob store. Only the file backend
// offers a change feed.
func openBackend(storage domain.StorageSettings) (driven.BlobStore, driven.ChangeFeed, error) {
	switch storage.Backend {
	case domain.BackendFile:
		blobs, err := filestore.NewBlobStore(storage.Root)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file storage: %w", err)
		}
		return blobs, filestore.NewWatcher(storage.Root), nil
	case domain.BackendSQLite:
		store, err := sqlite.NewStore(storage.Root)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite storage: %w", err)
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", storage.Backend)
	}
}
