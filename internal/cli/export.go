package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/riskform/internal/aggregate"
)

var (
	exportFormID string
	exportPrint  bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export formatted responses to a new spreadsheet",
	Long: `Export reads every submitted response and writes a new spreadsheet
"<title> - Formatted Responses (YYYY-MM-DD)" with two sheets:

  Evaluation summary        one row per participant, item and agent
  Per-participant summary   one row per participant, one agreement and depth
                            column per item and agent

Ratings are reduced to their leading digit. The form is found the same way
as for link.

Example:
  riskform export
  riskform export --form-id 1FaIpQL --print`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormID, "form-id", "", "form id (default: look up form.title)")
	exportCmd.Flags().BoolVar(&exportPrint, "print", false, "print a per-agent summary table to stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	exporter := aggregate.NewExporter(s.backend.Source, s.backend.Sheets, s.cfg.Form, s.logger)
	result, err := exporter.Export(ctx, exportFormID)
	if errors.Is(err, aggregate.ErrNoResponses) {
		fmt.Fprintf(os.Stderr, "✗ No responses yet, nothing exported\n")
		return nil
	}
	if err != nil {
		return s.fail("export failed", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Exported %d rows for %d participants\n", len(result.Rows), len(result.Pivot.Rows))
	fmt.Printf("Spreadsheet: %s\n", result.SpreadsheetURL)

	if exportPrint {
		fmt.Println()
		fmt.Println(renderSummary(result.Form.Title, aggregate.Summarize(result.Rows)))
	}
	return nil
}
