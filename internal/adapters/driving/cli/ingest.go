package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driving"
)

var (
	ingestID       string
	ingestSegments string
	ingestMetadata string
	ingestVectors  string
	ingestIndex    string
	ingestJSON     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-file]",
	Short: "Ingest a policy document with its segments and index",
	Long: `Stores a policy's source, segments, metadata and index in order.

The index is built from --vectors (a JSON array with one embedding per
segment) or read pre-serialised from --index. Without --id a fresh
identifier is minted. Re-running with the same ID and identical source
bytes resumes an interrupted ingestion.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "policy identifier (default: a fresh one)")
	ingestCmd.Flags().StringVar(&ingestSegments, "segments", "", "JSON file of segments (required)")
	ingestCmd.Flags().StringVar(&ingestMetadata, "metadata", "", "JSON file of extra metadata")
	ingestCmd.Flags().StringVar(&ingestVectors, "vectors", "", "JSON file of segment embeddings")
	ingestCmd.Flags().StringVar(&ingestIndex, "index", "", "pre-serialised index file")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the stored metadata as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	if ingestSegments == "" {
		return errors.New("--segments is required")
	}
	if ingestVectors != "" && ingestIndex != "" {
		return errors.New("--vectors and --index are mutually exclusive")
	}

	req, err := buildIngestRequest(cmd, args[0])
	if err != nil {
		return err
	}

	result, err := ingestionService.Ingest(cmd.Context(), *req)
	if err != nil {
		return err
	}

	if ingestJSON {
		return printJSON(cmd.OutOrStdout(), result.Metadata)
	}

	verb := "Ingested"
	if result.Resumed {
		verb = "Resumed"
	}
	cmd.Println(styleSuccess.Render(fmt.Sprintf("%s policy %s", verb, result.ID)))
	cmd.Printf("  segments: %d\n", len(req.Segments))
	if !result.Indexed {
		cmd.Println(styleWarning.Render("  no index stored"))
	}
	return nil
}

func buildIngestRequest(cmd *cobra.Command, sourcePath string) (*driving.IngestRequest, error) {
	req := &driving.IngestRequest{ID: ingestID}
	if req.ID == "" {
		if newPolicyID == nil {
			return nil, errors.New("--id is required")
		}
		req.ID = newPolicyID()
	}

	source, err := readInput(cmd.InOrStdin(), sourcePath)
	if err != nil {
		return nil, err
	}
	req.Source = source

	if err := readJSONInput(cmd.InOrStdin(), ingestSegments, &req.Segments); err != nil {
		return nil, err
	}
	if req.Segments == nil {
		req.Segments = []domain.Segment{}
	}

	if ingestMetadata != "" {
		if err := readJSONInput(cmd.InOrStdin(), ingestMetadata, &req.Metadata); err != nil {
			return nil, err
		}
	}
	if ingestVectors != "" {
		if err := readJSONInput(cmd.InOrStdin(), ingestVectors, &req.Vectors); err != nil {
			return nil, err
		}
	}
	if ingestIndex != "" {
		if req.Index, err = readInput(cmd.InOrStdin(), ingestIndex); err != nil {
			return nil, err
		}
	}
	return req, nil
}
