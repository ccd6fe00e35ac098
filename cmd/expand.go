package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/moostools/mlint/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	expandOutput    string
	expandDefines   []string
	expandRawQuotes bool
)

var expandCmd = &cobra.Command{
	Use:   "expand <file>",
	Short: "Expand a template: apply directives and substitute variables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defines, err := parseDefines(expandDefines)
		if err != nil {
			return err
		}
		return RunExpand(cmd.OutOrStdout(), args[0], expandOutput, defines, expandRawQuotes)
	},
}

func init() {
	expandCmd.Flags().StringVarP(&expandOutput, "output", "o", "", "Write the expansion to a file instead of stdout")
	expandCmd.Flags().StringArrayVar(&expandDefines, "define", nil, "Predefine a variable as KEY=VALUE")
	expandCmd.Flags().BoolVar(&expandRawQuotes, "raw-quotes", false, "Leave variable references inside quoted strings untouched")
	rootCmd.AddCommand(expandCmd)
}

func RunExpand(w io.Writer, path, output string, defines map[string]string, rawQuotes bool) error {
	res, err := analysis.AnalyzeFile(path, analysis.Options{
		Predefined:               defines,
		DisableQuoteSubstitution: rawQuotes,
	})
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if res.Diagnostics.HasErrors() {
		errs, _ := res.Diagnostics.Count()
		return fmt.Errorf("%s has %d error(s), run `mlint check %s`", path, errs, path)
	}

	if output == "" {
		fmt.Fprint(w, res.Expanded)
		return nil
	}
	if err := os.WriteFile(output, []byte(res.Expanded), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(w, "wrote %s\n", output)
	return nil
}
