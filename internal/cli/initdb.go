package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/xigt/sleipnir/internal/adapter/fs"
	"github.com/xigt/sleipnir/internal/usecase"
)

var initCmd = &cobra.Command{
	Use:   "init [files or directories...]",
	Short: "Load corpus files into the database",
	Long: `Load corpus files (Xigt XML or JSON, optionally gzipped) into the
database, one corpus per file, named after the file's basename. Directory
arguments are expanded through the configured include/exclude patterns.

Examples:
  sleipnir init odin/*.xml       # Load specific files
  sleipnir init ./corpora        # Load everything matching ingest patterns`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	db, err := openDatabase(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	ingestUC := usecase.NewIngestUseCase(db, walker)

	var bar *progressbar.ProgressBar
	progress := func(processed, total int, currentFile string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Loading"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(processed)
	}

	result, err := ingestUC.Ingest(args, progress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nLoad complete:\n")
	fmt.Printf("  Corpora added: %d\n", result.CorporaAdded)
	fmt.Printf("  IGTs added:    %d\n", result.IgtsAdded)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nDatabase at: %s\n", cfg.Database.Path)
	return nil
}
