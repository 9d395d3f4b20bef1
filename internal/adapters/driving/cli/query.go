package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
)

var (
	queryVector string
	queryLimit  int
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [policy-id]",
	Short: "Retrieve the segments closest to a query embedding",
	Long: `Searches a policy's stored index with an embedding read from
--vector (a JSON array of numbers) and prints the best segments.

The number of results defaults to retrieval.top_k. The evidence verdict
compares the best score against retrieval.min_score.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryVector, "vector", "", "JSON file holding the query embedding (required)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "maximum number of results (default retrieval.top_k)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

// queryResult is the JSON form of one retrieved segment.
type queryResult struct {
	Score   float64        `json:"score"`
	Segment domain.Segment `json:"segment"`
}

type queryOutput struct {
	PolicyID   string        `json:"policy_id"`
	Sufficient bool          `json:"evidence_sufficient"`
	Results    []queryResult `json:"results"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	if queryVector == "" {
		return errors.New("--vector is required")
	}

	var vector []float32
	if err := readJSONInput(cmd.InOrStdin(), queryVector, &vector); err != nil {
		return err
	}

	defaults := domain.DefaultSettings().Retrieval
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		defaults = settings.Retrieval
	}
	k := queryLimit
	if k <= 0 {
		k = defaults.TopK
	}

	results, err := retrievalService.Retrieve(cmd.Context(), args[0], vector, k)
	if err != nil {
		return err
	}
	sufficient := driving.EvidenceSufficient(results, defaults.MinScore)

	if queryJSON {
		out := queryOutput{PolicyID: args[0], Sufficient: sufficient, Results: make([]queryResult, len(results))}
		for i, r := range results {
			out.Results[i] = queryResult{Score: r.Score, Segment: r.Segment}
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	cmd.Println(styleTitle.Render("Results:"))
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] page %d (%.2f)\n", i+1, r.Segment.Page, r.Score)
		cmd.Printf("      %s\n", truncate(r.Segment.Text, 100))
	}
	cmd.Println()
	if sufficient {
		cmd.Println(styleSuccess.Render("Evidence sufficient."))
	} else {
		cmd.Println(styleWarning.Render(fmt.Sprintf("Evidence insufficient (best score below %.2f).", defaults.MinScore)))
	}
	return nil
}
