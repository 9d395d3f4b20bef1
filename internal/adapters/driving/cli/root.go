// Package cli provides the cobra command tree for policystore.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
	"github.com/custodia-labs/policy-store/internal/logger"
)

// annotationNoServices marks commands that run without opening storage.
const annotationNoServices = "policystore/no-services"

// Options carries the global flag values into the bootstrap function.
type Options struct {
	ConfigPath string
	Root       string
	Backend    domain.StorageBackend
	Verbose    bool
}

// Services is the set of core services the commands call into.
type Services struct {
	Policies  driving.PolicyStore
	Reports   driving.ReportStore
	Ingestion driving.IngestionService
	Retrieval driving.RetrievalService
	Settings  driving.SettingsService

	// NewPolicyID and NewReportID mint fresh identifiers.
	NewPolicyID func() string
	NewReportID func(fileName string) string

	// Changes is nil when the backend cannot stream changes.
	Changes driven.ChangeFeed
}

// BootstrapFunc builds the services for one invocation. The returned
// closer releases backend resources.
type BootstrapFunc func(opts Options) (*Services, func() error, error)

var (
	version = "dev"

	bootstrap     BootstrapFunc
	closeServices func() error

	policyStore      driving.PolicyStore
	reportStore      driving.ReportStore
	ingestionService driving.IngestionService
	retrievalService driving.RetrievalService
	settingsService  driving.SettingsService
	changeFeed       driven.ChangeFeed
	newPolicyID      func() string
	newReportID      func(fileName string) string
)

var (
	flagConfig  string
	flagRoot    string
	flagBackend string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "policystore",
	Short: "Store policy documents and compliance reports",
	Long: `policystore persists the artifacts of policy document ingestion
(source, segments, metadata, vector index) and accessibility compliance
reports under a single storage root.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.policystore/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "storage root, overrides storage.root")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend (file or sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that builds services before a
// command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly, bypassing bootstrap.
func SetServices(s *Services) {
	policyStore = s.Policies
	reportStore = s.Reports
	ingestionService = s.Ingestion
	retrievalService = s.Retrieval
	settingsService = s.Settings
	changeFeed = s.Changes
	newPolicyID = s.NewPolicyID
	newReportID = s.NewReportID
}

// Execute runs the root command and releases services afterwards.
// Cancelling ctx stops long-running commands such as watch.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if closeErr := closeServices(); closeErr != nil && err == nil {
			err = closeErr
		}
		closeServices = nil
	}
	return err
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	if flagVerbose {
		logger.SetVerbose(true)
	}
	if bootstrap == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	opts := Options{
		ConfigPath: flagConfig,
		Root:       flagRoot,
		Backend:    domain.StorageBackend(flagBackend),
		Verbose:    flagVerbose,
	}
	if opts.Backend != "" && !opts.Backend.IsValid() {
		return errors.New("invalid --backend: must be file or sqlite")
	}

	services, closer, err := bootstrap(opts)
	if err != nil {
		return err
	}
	SetServices(services)
	closeServices = closer
	return nil
}
