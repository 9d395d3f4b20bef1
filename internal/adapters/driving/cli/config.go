package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `View and change policystore settings.

Keys:
  storage.root         base directory for all artifacts
  storage.backend      file or sqlite
  retrieval.top_k      segments returned per query
  retrieval.min_score  score below which evidence is insufficient
  index.precision      float32 or float16
  log.verbose          true or false

POLICYSTORE_ROOT overrides storage.root.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println(styleTitle.Render("Settings"))
	cmd.Println()
	cmd.Printf("  storage.root         %s\n", settings.Storage.Root)
	cmd.Printf("  storage.backend      %s %s\n", settings.Storage.Backend,
		styleMuted.Render("("+settings.Storage.Backend.Description()+")"))
	cmd.Printf("  retrieval.top_k      %d\n", settings.Retrieval.TopK)
	cmd.Printf("  retrieval.min_score  %.2f\n", settings.Retrieval.MinScore)
	cmd.Printf("  index.precision      %s\n", settings.Index.Precision)
	cmd.Printf("  log.verbose          %t\n", settings.Verbose)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	key, value := args[0], args[1]

	switch key {
	case "storage.root":
		if err := settingsService.SetRoot(value); err != nil {
			return err
		}
	case "storage.backend":
		if err := settingsService.SetBackend(domain.StorageBackend(value)); err != nil {
			return err
		}
	default:
		if err := saveSetting(key, value); err != nil {
			return err
		}
	}

	cmd.Println(styleSuccess.Render(fmt.Sprintf("Set %s = %s", key, value)))
	return nil
}

func saveSetting(key, value string) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	// The resolved root may come from the environment; do not persist it.
	settings.Storage.Root = ""

	switch key {
	case "retrieval.top_k":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retrieval.top_k %q: %w", value, err)
		}
		settings.Retrieval.TopK = n
	case "retrieval.min_score":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid retrieval.min_score %q: %w", value, err)
		}
		settings.Retrieval.MinScore = f
	case "index.precision":
		settings.Index.Precision = domain.IndexPrecision(value)
	case "log.verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid log.verbose %q: %w", value, err)
		}
		settings.Verbose = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return settingsService.Save(settings)
}
