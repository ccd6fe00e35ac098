package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moostools/mlint/internal/db"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the mlint index in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const (
	indexDir  = ".mlint"
	indexPath = ".mlint/index.db"
)

func RunInit(w io.Writer) error {
	// .mlint/ directory
	_, err := os.Stat(indexDir)
	dirExists := err == nil
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", indexDir, err)
	}
	if dirExists {
		fmt.Fprintln(w, indexDir+"/ already exists")
	} else {
		fmt.Fprintln(w, indexDir+"/ created")
	}

	// database
	_, err = os.Stat(indexPath)
	dbExists := err == nil
	sqlDB, err := db.Open(indexPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	sqlDB.Close()
	if dbExists {
		fmt.Fprintln(w, indexPath+" already exists")
	} else {
		fmt.Fprintln(w, indexPath+" created")
	}

	// gitignore
	msgs, err := ensureGitignore()
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

func ensureGitignore() ([]string, error) {
	const entry = indexDir + "/"

	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", entry + " added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == entry {
			return []string{entry + " already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{entry + " added to .gitignore"}, nil
}
