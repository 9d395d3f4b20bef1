package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

var (
	reportID   string
	reportJSON bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage accessibility compliance reports",
	Long: `Store and read compliance reports. Reports are write-once: every
check of a document is kept under its own identifier.`,
}

var reportPutCmd = &cobra.Command{
	Use:   "put [file]",
	Short: "Store a compliance report",
	Long: `Stores a JSON compliance report. The identifier is taken from --id,
then from the report's report_id, and is otherwise minted from its
file_name. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportPut,
}

var reportGetCmd = &cobra.Command{
	Use:   "get [report-id]",
	Short: "Show a compliance report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportGet,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List report identifiers",
	Args:  cobra.NoArgs,
	RunE:  runReportList,
}

func init() {
	reportPutCmd.Flags().StringVar(&reportID, "id", "", "report identifier")
	reportGetCmd.Flags().BoolVar(&reportJSON, "json", false, "output the report as JSON")
	reportCmd.AddCommand(reportPutCmd, reportGetCmd, reportListCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportPut(cmd *cobra.Command, args []string) error {
	if reportStore == nil {
		return errors.New("report store not configured")
	}
	var report domain.ComplianceReport
	if err := readJSONInput(cmd.InOrStdin(), args[0], &report); err != nil {
		return err
	}

	id := reportID
	if id == "" {
		id = report.ID
	}
	if id == "" {
		if newReportID == nil {
			return errors.New("--id is required")
		}
		id = newReportID(report.FileName)
	}

	loc, err := reportStore.WriteReport(cmd.Context(), id, report)
	if err != nil {
		return err
	}
	cmd.Printf("Stored report %s at %s\n", id, loc)
	return nil
}

func runReportGet(cmd *cobra.Command, args []string) error {
	if reportStore == nil {
		return errors.New("report store not configured")
	}
	report, err := reportStore.ReadReport(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if reportJSON {
		return printJSON(cmd.OutOrStdout(), report)
	}

	cmd.Println(styleTitle.Render("Report " + report.ID))
	if report.FileType != "" {
		cmd.Printf("  File:    %s (%s, %d bytes)\n", report.FileName, report.FileType, report.FileSizeBytes)
	} else {
		cmd.Printf("  File:    %s (%d bytes)\n", report.FileName, report.FileSizeBytes)
	}
	if !report.CheckedAt.IsZero() {
		cmd.Printf("  Checked: %s\n", report.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if report.Compliant {
		cmd.Printf("  Result:  %s\n", styleSuccess.Render(fmt.Sprintf("compliant (%s)", report.LevelMet)))
	} else {
		cmd.Printf("  Result:  %s\n", styleError.Render("not compliant"))
	}
	c := report.SeverityCounts
	cmd.Printf("  Issues:  %d total: %d critical, %d error, %d warning, %d info\n",
		c.Total, c.Critical, c.Error, c.Warning, c.Info)
	if report.Summary != "" {
		cmd.Println()
		cmd.Printf("  %s\n", report.Summary)
	}
	for _, issue := range report.Issues {
		cmd.Printf("  - [%s] %s %s\n", issue.Level, issue.Criterion, issue.Description)
	}
	return nil
}

func runReportList(cmd *cobra.Command, _ []string) error {
	if reportStore == nil {
		return errors.New("report store not configured")
	}
	ids, err := reportStore.ListReports(cmd.Context())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		cmd.Println("No reports found.")
		return nil
	}
	for _, id := range ids {
		cmd.Println(id)
	}
	return nil
}
