package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/riskform/internal/aggregate"
	"github.com/ppiankov/riskform/internal/host"
)

var linkFormID string

// linkCmd represents the link command
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Attach a response spreadsheet to the questionnaire",
	Long: `Link creates a "<title> - Responses" spreadsheet for the questionnaire and
makes it the response destination.

The form is found by --form-id, or by the configured title when no id is
given; a title shared by several forms is an error. Backends that cannot bind
a live destination get a copy of the responses submitted so far.

Example:
  riskform link
  riskform link --form-id 1FaIpQL`,
	Args: cobra.NoArgs,
	RunE: runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)

	linkCmd.Flags().StringVar(&linkFormID, "form-id", "", "form id (default: look up form.title)")
}

func runLink(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	// The local store remembers the previous binding
	if s.store != nil {
		if form, err := host.ResolveForm(ctx, s.store, linkFormID, s.cfg.Form.Title); err == nil {
			if prev, err := s.store.Destination(ctx, form.ID); err == nil && prev != "" {
				fmt.Fprintf(os.Stderr, "⚙️  Replacing response spreadsheet %s\n", prev)
			}
		}
	}

	linker := aggregate.NewLinker(s.backend.Source, s.backend.Sheets, s.cfg.Form, s.logger)
	result, err := linker.Link(ctx, linkFormID)
	if err != nil {
		return s.fail("link failed", err)
	}

	if result.Live {
		fmt.Fprintf(os.Stderr, "✓ Responses of %q now go to the spreadsheet\n", result.Form.Title)
	} else {
		fmt.Fprintf(os.Stderr, "✓ Current responses of %q copied (this backend cannot link live)\n", result.Form.Title)
	}
	fmt.Printf("Spreadsheet: %s\n", result.SpreadsheetURL)
	return nil
}
