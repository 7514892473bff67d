package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/riskform/internal/loader"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the storage folder is readable",
	Long: `Verify lists the storage folder, its sub-folders and their files without
changing anything, and reports whether the manifest and images folder are
where build expects them.

Example:
  riskform verify --folder 1AbCdEf
  riskform verify --backend local --folder ./dataset`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(os.Stderr, "⚙️  Listing folder %s (%s backend)\n", s.cfg.Storage.FolderID, s.backend.Name)

	listing, err := loader.New(s.backend.Docs, s.cfg.Storage, s.logger).Inspect(ctx, s.cfg.Storage.FolderID)
	if err != nil {
		return s.fail("verify failed", err)
	}

	fmt.Printf("Folder: %s (%s)\n", listing.Folder.Name, listing.Folder.ID)
	manifest := false
	for _, f := range listing.Files {
		fmt.Printf("  %s  [%s]\n", f.Name, f.MimeType)
		if f.Name == s.cfg.Storage.ManifestName {
			manifest = true
		}
	}

	images := -1
	for _, sub := range listing.SubFolders {
		fmt.Printf("  %s/  (%d files)\n", sub.Folder.Name, len(sub.Files))
		for _, f := range sub.Files {
			fmt.Printf("    %s\n", f.Name)
		}
		if sub.Folder.Name == s.cfg.Storage.ImagesFolder {
			images = 0
			for _, f := range sub.Files {
				if _, ok := loader.ImageItemID(f.Name); ok {
					images++
				}
			}
		}
	}
	fmt.Println()

	if manifest {
		fmt.Fprintf(os.Stderr, "✓ Manifest found: %s\n", s.cfg.Storage.ManifestName)
	} else {
		fmt.Fprintf(os.Stderr, "✗ Manifest %s not in folder (build will find no items)\n", s.cfg.Storage.ManifestName)
	}
	if images >= 0 {
		fmt.Fprintf(os.Stderr, "✓ Images folder found: %s (%d item images)\n", s.cfg.Storage.ImagesFolder, images)
	} else {
		fmt.Fprintf(os.Stderr, "✗ Images folder %s not found (build will look for images in the main folder)\n", s.cfg.Storage.ImagesFolder)
	}

	return nil
}
