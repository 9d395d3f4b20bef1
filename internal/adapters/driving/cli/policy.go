package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

var (
	policyJSON      bool
	policyOut       string
	policyDeleteYes bool
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage policy document records",
	Long: `Read and write the artifacts of a policy record.

A record is written in order: source, segments, metadata, index.
Sources are write-once; re-ingest a changed document under a new ID.`,
}

var policyPutSourceCmd = &cobra.Command{
	Use:   "put-source [policy-id] [file]",
	Short: "Store the original document",
	Long:  `Stores the original document bytes. Use "-" to read from stdin.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyPutSource,
}

var policyPutSegmentsCmd = &cobra.Command{
	Use:   "put-segments [policy-id] [file]",
	Short: "Store the extracted segments",
	Long:  `Stores a JSON array of segments, replacing any earlier sequence.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyPutSegments,
}

var policyPutMetadataCmd = &cobra.Command{
	Use:   "put-metadata [policy-id] [file]",
	Short: "Store the ingestion metadata",
	Long:  `Stores a JSON object of metadata, replacing any earlier mapping.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyPutMetadata,
}

var policyPutIndexCmd = &cobra.Command{
	Use:   "put-index [policy-id] [file]",
	Short: "Store a serialised vector index",
	Long:  `Stores an index blob. The policy's segments must already be stored.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyPutIndex,
}

var policySourceCmd = &cobra.Command{
	Use:   "source [policy-id]",
	Short: "Write the original document to a file or stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicySource,
}

var policySegmentsCmd = &cobra.Command{
	Use:   "segments [policy-id]",
	Short: "Show the stored segments",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicySegments,
}

var policyMetadataCmd = &cobra.Command{
	Use:   "metadata [policy-id]",
	Short: "Show the stored metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyMetadata,
}

var policyIndexCmd = &cobra.Command{
	Use:   "index [policy-id]",
	Short: "Write the stored index to a file or stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyIndex,
}

var policyStatusCmd = &cobra.Command{
	Use:   "status [policy-id]",
	Short: "Show which artifacts of a policy exist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyStatus,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested policies",
	Long:  `Lists every policy that has metadata. Records mid-ingestion are not shown.`,
	Args:  cobra.NoArgs,
	RunE:  runPolicyList,
}

var policyDeleteCmd = &cobra.Command{
	Use:   "delete [policy-id]",
	Short: "Delete a policy and all of its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyDelete,
}

var policyNewIDCmd = &cobra.Command{
	Use:   "new-id",
	Short: "Print a fresh policy identifier",
	Args:  cobra.NoArgs,
	RunE:  runPolicyNewID,
}

func init() {
	policySegmentsCmd.Flags().BoolVar(&policyJSON, "json", false, "output segments as JSON")
	policyListCmd.Flags().BoolVar(&policyJSON, "json", false, "output policies as JSON")
	policySourceCmd.Flags().StringVarP(&policyOut, "out", "o", "", "output file (default stdout)")
	policyIndexCmd.Flags().StringVarP(&policyOut, "out", "o", "", "output file (default stdout)")
	policyDeleteCmd.Flags().BoolVarP(&policyDeleteYes, "yes", "y", false, "confirm deletion")

	policyCmd.AddCommand(
		policyPutSourceCmd,
		policyPutSegmentsCmd,
		policyPutMetadataCmd,
		policyPutIndexCmd,
		policySourceCmd,
		policySegmentsCmd,
		policyMetadataCmd,
		policyIndexCmd,
		policyStatusCmd,
		policyListCmd,
		policyDeleteCmd,
		policyNewIDCmd,
	)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyPutSource(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	data, err := readInput(cmd.InOrStdin(), args[1])
	if err != nil {
		return err
	}
	loc, err := policyStore.WriteSource(cmd.Context(), args[0], data)
	if err != nil {
		return err
	}
	cmd.Printf("Stored %s (%d bytes)\n", loc, len(data))
	return nil
}

func runPolicyPutSegments(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	var segments []domain.Segment
	if err := readJSONInput(cmd.InOrStdin(), args[1], &segments); err != nil {
		return err
	}
	loc, err := policyStore.WriteSegments(cmd.Context(), args[0], segments)
	if err != nil {
		return err
	}
	cmd.Printf("Stored %s (%d segments)\n", loc, len(segments))
	return nil
}

func runPolicyPutMetadata(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	var meta domain.Metadata
	if err := readJSONInput(cmd.InOrStdin(), args[1], &meta); err != nil {
		return err
	}
	loc, err := policyStore.WriteMetadata(cmd.Context(), args[0], meta)
	if err != nil {
		return err
	}
	cmd.Printf("Stored %s (%d keys)\n", loc, len(meta))
	return nil
}

func runPolicyPutIndex(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	data, err := readInput(cmd.InOrStdin(), args[1])
	if err != nil {
		return err
	}
	loc, err := policyStore.WriteIndex(cmd.Context(), args[0], data)
	if err != nil {
		return err
	}
	cmd.Printf("Stored %s (%d bytes)\n", loc, len(data))
	return nil
}

func runPolicySource(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	data, err := policyStore.ReadSource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeOutput(cmd, policyOut, data)
}

func runPolicySegments(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	segments, err := policyStore.ReadSegments(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if policyJSON {
		return printJSON(cmd.OutOrStdout(), segments)
	}

	if len(segments) == 0 {
		cmd.Println("No segments stored.")
		return nil
	}
	cmd.Println(styleTitle.Render(fmt.Sprintf("Segments of %s", args[0])))
	cmd.Println()
	for i := range segments {
		seg := segments[i]
		cmd.Printf("  [%d] page %d  %s\n", seg.Index, seg.Page, styleMuted.Render(seg.ID))
		cmd.Printf("      %s\n", truncate(seg.Text, 100))
	}
	return nil
}

func runPolicyMetadata(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	meta, err := policyStore.ReadMetadata(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), meta)
}

func runPolicyIndex(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	data, err := policyStore.ReadIndex(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeOutput(cmd, policyOut, data)
}

func runPolicyStatus(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	status, err := policyStore.PolicyStatus(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Println(styleTitle.Render("Policy " + status.ID))
	for _, kind := range domain.PolicyArtifacts() {
		cmd.Printf("  %-9s %s\n", kind, mark(status.Has(kind)))
	}
	switch {
	case status.Complete():
		cmd.Println(styleSuccess.Render("Ingestion complete."))
	case status.Exists():
		cmd.Println(styleWarning.Render("Ingestion incomplete."))
	default:
		cmd.Println(styleMuted.Render("No such policy."))
	}
	return nil
}

func runPolicyList(cmd *cobra.Command, _ []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	summaries, err := policyStore.ListPolicies(cmd.Context())
	if err != nil {
		return err
	}

	if policyJSON {
		return printJSON(cmd.OutOrStdout(), summaries)
	}

	if len(summaries) == 0 {
		cmd.Println("No policies found.")
		return nil
	}
	cmd.Println(styleTitle.Render("Policies:"))
	cmd.Println()
	for _, s := range summaries {
		cmd.Printf("  %s\n", s.ID)
		cmd.Printf("      %s\n", styleMuted.Render(fmt.Sprintf(
			"type=%s pages=%d chunks=%d model=%s", s.Type, s.Pages, s.Chunks, s.EmbeddingModel)))
	}
	return nil
}

func runPolicyDelete(cmd *cobra.Command, args []string) error {
	if policyStore == nil {
		return errors.New("policy store not configured")
	}
	if !policyDeleteYes {
		return errors.New("refusing to delete without --yes")
	}
	if err := policyStore.DeletePolicy(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted policy %s\n", args[0])
	return nil
}

func runPolicyNewID(cmd *cobra.Command, _ []string) error {
	if newPolicyID == nil {
		return errors.New("identifier generator not configured")
	}
	cmd.Println(newPolicyID())
	return nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	cmd.Printf("Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
