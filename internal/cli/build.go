package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/riskform/internal/form"
	"github.com/ppiankov/riskform/internal/loader"
)

var (
	buildTitle string
	buildJSON  string
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Create the evaluation questionnaire",
	Long: `Build loads the manifest and item images from the storage folder and creates
a questionnaire: one page per item with its image, and for every eligible
agent an agreement and a depth question on a five-point scale.

Images are made readable by anyone with the link so the form can show them.
Nothing is created when the manifest is missing or empty.

Example:
  riskform build --folder 1AbCdEf
  riskform build --backend local --folder ./dataset --json form.json`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildTitle, "title", "", "questionnaire title (default: form.title from config)")
	buildCmd.Flags().StringVar(&buildJSON, "json", "", "write the created form's ids and URLs to this JSON file")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if buildTitle != "" {
		s.cfg.Form.Title = buildTitle
	}

	fmt.Fprintf(os.Stderr, "⚙️  Loading evaluation data from %s\n", s.cfg.Storage.FolderID)
	ds := loader.New(s.backend.Docs, s.cfg.Storage, s.logger).Load(ctx, s.cfg.Storage.FolderID)
	fmt.Fprintf(os.Stderr, "✓ %d items, %d images\n", len(ds.Evaluations), len(ds.Images))

	fmt.Fprintf(os.Stderr, "⚙️  Creating questionnaire %q\n", s.cfg.Form.Title)
	artifact, stats, err := form.NewBuilder(s.backend.Forms, s.cfg, s.logger).Build(ctx, ds)
	if err != nil {
		return s.fail("build failed", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Questionnaire created: %d items, %d agent blocks, %d questions\n",
		stats.Items, stats.RaterBlocks, stats.Questions)
	if stats.NonNumeric > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d items have non-numeric ids; rename them or their answers will not export\n", stats.NonNumeric)
	}

	fmt.Printf("Form ID:       %s\n", artifact.ID)
	if artifact.EditURL != "" {
		fmt.Printf("Edit URL:      %s\n", artifact.EditURL)
	}
	if artifact.ResponderURL != "" {
		fmt.Printf("Responder URL: %s\n", artifact.ResponderURL)
	}

	if buildJSON != "" {
		data, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling form: %w", err)
		}
		if err := os.WriteFile(buildJSON, data, 0644); err != nil {
			return fmt.Errorf("error writing %s: %w", buildJSON, err)
		}
		s.logger.Debug("Form artifact written", zap.String("path", buildJSON))
		fmt.Fprintf(os.Stderr, "✓ Form details written to %s\n", buildJSON)
	}

	return nil
}
