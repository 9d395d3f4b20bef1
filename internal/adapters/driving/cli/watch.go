package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print artifact changes as they happen",
	Long: `Streams artifact writes and removals made by any process sharing
the storage root. Only the file backend supports watching. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if changeFeed == nil {
		return errors.New("watching requires the file backend")
	}

	changes, err := changeFeed.Watch(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Println(styleMuted.Render("Watching for changes..."))
	for change := range changes {
		label := styleSuccess.Render(string(change.Type))
		if change.Type == domain.ChangeRemoved {
			label = styleError.Render(string(change.Type))
		}
		cmd.Printf("%-8s %s\n", label, change.Location)
	}
	return nil
}
