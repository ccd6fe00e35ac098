package cmd

import (
	"fmt"
	"io"

	"github.com/moostools/mlint/internal/analysis"
	"github.com/moostools/mlint/internal/modes"
	"github.com/moostools/mlint/internal/ui"
	"github.com/spf13/cobra"
)

var modesCmd = &cobra.Command{
	Use:   "modes <file>",
	Short: "Print the mode hierarchy declared in a behavior file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunModes(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(modesCmd)
}

func RunModes(w io.Writer, path string) error {
	res, err := analysis.AnalyzeFile(path, analysis.Options{})
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	vars := res.Modes.Variables()
	if len(vars) == 0 {
		fmt.Fprintln(w, "no mode declarations")
		return nil
	}

	for _, v := range vars {
		fmt.Fprintf(w, "%s\n", v)
		for _, root := range res.Modes.Roots(v) {
			printModeTree(w, root, 1)
		}
	}
	return nil
}

func printModeTree(w io.Writer, n *modes.Node, depth int) {
	ui.ModeLine(w, depth, n.Value, n.Path, n.Realizable)
	for _, c := range n.Children {
		printModeTree(w, c, depth+1)
	}
}
