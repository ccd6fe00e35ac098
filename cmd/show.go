package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/moostools/mlint/internal/db"
	"github.com/moostools/mlint/internal/ui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the indexed diagnostics and includes of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunShow(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func RunShow(w io.Writer, path string) error {
	if _, err := os.Stat(indexDir); os.IsNotExist(err) {
		return fmt.Errorf("run `mlint init` first")
	}

	sqlDB, err := db.Open(indexPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	var fileID int64
	var errors, warnings int
	err = sqlDB.QueryRow(`
		SELECT id, errors, warnings FROM files WHERE file_path = ?
	`, path).Scan(&fileID, &errors, &warnings)
	if err != nil {
		return fmt.Errorf("%s not indexed, run `mlint sync`", path)
	}

	ui.CountsLine(w, path, errors, warnings)

	diags, err := db.FileDiagnostics(sqlDB, path)
	if err != nil {
		return err
	}
	for _, d := range diags {
		ui.StoredDiagLine(w, path, d.Severity, d.Code, d.Message, d.Line, d.Col)
	}

	rows, err := sqlDB.Query(`
		SELECT path, tag, resolved FROM includes WHERE file_id = ? ORDER BY id
	`, fileID)
	if err != nil {
		return fmt.Errorf("querying includes of %s: %w", path, err)
	}
	defer rows.Close()

	first := true
	for rows.Next() {
		var incPath, tag string
		var resolved int
		if err := rows.Scan(&incPath, &tag, &resolved); err != nil {
			return fmt.Errorf("scanning include row: %w", err)
		}
		if first {
			fmt.Fprintln(w, "Includes:")
			first = false
		}
		line := "  " + incPath
		if tag != "" {
			line += " <" + tag + ">"
		}
		if resolved == 0 {
			line += " (unresolved)"
		}
		fmt.Fprintln(w, line)
	}

	return rows.Err()
}
