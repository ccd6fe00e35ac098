package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/moostools/mlint/internal/db"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the indexed diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunStatus(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func RunStatus(w io.Writer) error {
	if _, err := os.Stat(indexDir); os.IsNotExist(err) {
		return fmt.Errorf("run `mlint init` first")
	}

	sqlDB, err := db.Open(indexPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	var files, withErrors, totalErrors, totalWarnings int
	err = sqlDB.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN errors > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(errors), 0),
			COALESCE(SUM(warnings), 0)
		FROM files
	`).Scan(&files, &withErrors, &totalErrors, &totalWarnings)
	if err != nil {
		return fmt.Errorf("counting files: %w", err)
	}

	fmt.Fprintf(w, "Files: %d\n", files)
	if files == 0 {
		return nil
	}
	fmt.Fprintf(w, "  with errors: %d\n", withErrors)
	fmt.Fprintf(w, "  errors: %d\n", totalErrors)
	fmt.Fprintf(w, "  warnings: %d\n", totalWarnings)

	rows, err := sqlDB.Query(`
		SELECT code, COUNT(*) AS cnt
		FROM diagnostics
		GROUP BY code
		ORDER BY cnt DESC, code
	`)
	if err != nil {
		return fmt.Errorf("querying code counts: %w", err)
	}
	defer rows.Close()

	first := true
	for rows.Next() {
		var code string
		var cnt int
		if err := rows.Scan(&code, &cnt); err != nil {
			return fmt.Errorf("scanning code row: %w", err)
		}
		if first {
			fmt.Fprintln(w, "By code:")
			first = false
		}
		fmt.Fprintf(w, "  %s: %d\n", code, cnt)
	}

	return rows.Err()
}
