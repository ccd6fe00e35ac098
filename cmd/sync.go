package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moostools/mlint/internal/analysis"
	"github.com/moostools/mlint/internal/db"
	"github.com/moostools/mlint/internal/ui"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scan for mission and behavior files and index their diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSync(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

// analyzableExts are the file extensions sync picks up.
var analyzableExts = map[string]bool{
	".moos": true,
	".bhv":  true,
	".plug": true,
}

func RunSync(w io.Writer) error {
	if _, err := os.Stat(indexDir); os.IsNotExist(err) {
		return fmt.Errorf("run `mlint init` first")
	}

	sqlDB, err := db.Open(indexPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	matches, err := findAnalyzable(".")
	if err != nil {
		return fmt.Errorf("scanning for files: %w", err)
	}
	sort.Strings(matches)

	count := 0
	for _, path := range matches {
		res, err := analysis.AnalyzeFile(path, analysis.Options{})
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", path, err)
		}
		isNew, err := db.RecordFile(sqlDB, path, res)
		if err != nil {
			return err
		}
		if isNew {
			ui.NewLine(w, path)
		} else {
			ui.TrkLine(w, path)
		}
		count++
	}

	ui.SummaryLine(w, count)
	return nil
}

// findAnalyzable walks root collecting mission, behavior, and template
// files, skipping dot directories.
func findAnalyzable(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if analyzableExts[filepath.Ext(path)] {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
