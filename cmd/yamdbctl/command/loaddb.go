package command

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"yamdb/database"
	"yamdb/internal/seed"
)

var dataDir string

var loaddbCmd = &cobra.Command{
	Use:   "loaddb",
	Short: "Replace database contents with the CSV fixture set",
	Long: `Reads category.csv, genre.csv, users.csv, titles.csv, genre_title.csv,
review.csv and comments.csv from --dir and imports them in one transaction.
Existing rows in those tables are deleted first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, logger, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		report, err := seed.Load(cmd.Context(), db, dataDir, logger)
		if err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}

		files := make([]string, 0, len(report))
		for f := range report {
			files = append(files, f)
		}
		sort.Strings(files)
		for _, f := range files {
			fmt.Printf("  %-16s %d rows\n", f, report[f])
		}
		color.Green("✓ Fixtures loaded from %s", dataDir)
		return nil
	},
}

func init() {
	loaddbCmd.Flags().StringVar(&dataDir, "dir", "static/data", "directory with the CSV files")
	rootCmd.AddCommand(loaddbCmd)
}
