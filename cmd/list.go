package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/moostools/mlint/internal/db"
	"github.com/moostools/mlint/internal/ui"
	"github.com/spf13/cobra"
)

var (
	errorsOnlyFlag bool
	cleanOnlyFlag  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all indexed files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.OutOrStdout(), errorsOnlyFlag, cleanOnlyFlag)
	},
}

func init() {
	listCmd.Flags().BoolVar(&errorsOnlyFlag, "errors", false, "Show only files with errors")
	listCmd.Flags().BoolVar(&cleanOnlyFlag, "clean", false, "Show only files with no findings")
	rootCmd.AddCommand(listCmd)
}

type listRow struct {
	path     string
	errors   int
	warnings int
}

func RunList(w io.Writer, errorsOnly, cleanOnly bool) error {
	if _, err := os.Stat(indexDir); os.IsNotExist(err) {
		return fmt.Errorf("run `mlint init` first")
	}

	sqlDB, err := db.Open(indexPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	rows, err := sqlDB.Query(`
		SELECT file_path, errors, warnings
		FROM files
		ORDER BY file_path
	`)
	if err != nil {
		return fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var results []listRow
	for rows.Next() {
		var r listRow
		if err := rows.Scan(&r.path, &r.errors, &r.warnings); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		if errorsOnly && r.errors == 0 {
			continue
		}
		if cleanOnly && (r.errors > 0 || r.warnings > 0) {
			continue
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	if len(results) == 0 {
		return nil
	}

	pathWidth := 0
	for _, r := range results {
		if len(r.path) > pathWidth {
			pathWidth = len(r.path)
		}
	}

	for _, r := range results {
		ui.ListRow(w, r.path, r.errors, r.warnings, pathWidth)
	}

	return nil
}
