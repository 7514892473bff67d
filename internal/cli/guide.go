package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const guideText = `riskform workflow
═════════════════

1. Prepare the storage folder
   <folder>/
     extracted_risk_assessments_by_id.json   manifest: item id -> agent -> judgment
     images/0.jpg, images/1.png, ...         one image per item id

   Japanese manifests can be translated first:
     riskform translate manifest.json manifest_en.json --llm-provider openai

2. Check access
     riskform verify --folder <folder id>

3. Build the questionnaire
     riskform build --folder <folder id>
   Prints the edit and responder URLs. Images are shared by link.

4. Attach a response spreadsheet
     riskform link [--form-id <id>]

5. After responses arrive, export the summaries
     riskform export [--form-id <id>] [--print]
   Writes "<title> - Formatted Responses (YYYY-MM-DD)" with an
   "Evaluation summary" sheet and a "Per-participant summary" sheet.

Without --form-id the form is found by form.title; when several forms share
the title, pass the id.

Backends
  google  Drive, Forms and Sheets through a service account
          (--credentials or google.credentials_file)
  local   a directory for data, SQLite for forms and responses, CSV files
          for spreadsheets; record test responses with 'riskform submit'

Configuration
  riskform config init   write ~/.riskform/config.yaml with every option
  riskform config show   print the effective configuration
  Environment variables override the file, e.g. RISKFORM_BACKEND=local,
  RISKFORM_STORAGE_FOLDER_ID=./dataset, OPENAI_API_KEY, GEMINI_API_KEY.
`

// guideCmd represents the guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the end-to-end workflow",
	Long:  `Guide prints the steps from a storage folder to exported summaries.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), guideText)
	},
}

func init() {
	rootCmd.AddCommand(guideCmd)
}
