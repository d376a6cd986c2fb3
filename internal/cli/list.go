package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show stored corpora",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	db, err := openDatabase(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	corpora, err := db.ListCorpora()
	if err != nil {
		return fmt.Errorf("failed to list corpora: %w", err)
	}
	if len(corpora) == 0 {
		fmt.Println("No corpora in database.")
		return nil
	}
	for _, c := range corpora {
		count := fmt.Sprintf("%d", c.IgtCount)
		if c.IgtCount < 0 {
			count = "?"
		}
		fmt.Printf("%s  %-30s %s IGTs\n", c.ID, c.Name, count)
	}
	return nil
}
