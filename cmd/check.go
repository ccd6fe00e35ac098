package cmd

import (
	"fmt"
	"io"

	"github.com/moostools/mlint/internal/analysis"
	"github.com/moostools/mlint/internal/ui"
	"github.com/spf13/cobra"
)

var checkDefines []string

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Analyze files and print their diagnostics",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defines, err := parseDefines(checkDefines)
		if err != nil {
			return err
		}
		return RunCheck(cmd.OutOrStdout(), args, defines)
	},
}

func init() {
	checkCmd.Flags().StringArrayVar(&checkDefines, "define", nil, "Predefine a variable as KEY=VALUE")
	rootCmd.AddCommand(checkCmd)
}

// parseDefines splits KEY=VALUE pairs; a bare KEY defines an empty
// value, matching the nsplug command line.
func parseDefines(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		for i := 0; i < len(p); i++ {
			if p[i] == '=' {
				if i == 0 {
					return nil, fmt.Errorf("invalid define %q", p)
				}
				out[p[:i]] = p[i+1:]
				p = ""
				break
			}
		}
		if p != "" {
			out[p] = ""
		}
	}
	return out, nil
}

// RunCheck analyzes each file and prints its diagnostics. The returned
// error is non-nil when any file has error-severity findings, so the
// process exits non-zero.
func RunCheck(w io.Writer, paths []string, defines map[string]string) error {
	totalErrors := 0
	for _, path := range paths {
		res, err := analysis.AnalyzeFile(path, analysis.Options{Predefined: defines})
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, d := range res.Diagnostics.Items() {
			ui.DiagLine(w, path, d)
		}
		errs, warns := res.Diagnostics.Count()
		ui.CountsLine(w, path, errs, warns)
		totalErrors += errs
	}
	if totalErrors > 0 {
		return fmt.Errorf("%d error(s) found", totalErrors)
	}
	return nil
}
