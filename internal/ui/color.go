package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/moostools/mlint/internal/diag"
)

var (
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	newStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	trkStyle  = lipgloss.NewStyle().Faint(true)
	pathStyle = lipgloss.NewStyle().Faint(true)
	codeStyle = lipgloss.NewStyle().Faint(true)
)

func severityLabel(s string) string {
	if s == "warning" {
		return warnStyle.Render("warning")
	}
	return errStyle.Render("error")
}

// DiagLine prints one diagnostic as path:line:col severity message [Code].
func DiagLine(w io.Writer, path string, d diag.Diagnostic) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		pathStyle.Render(fmt.Sprintf("%s:%d:%d", path, d.Range.Start.Line, d.Range.Start.Col)),
		severityLabel(d.Severity.String()),
		d.Message,
		codeStyle.Render("["+string(d.Code)+"]"))
}

// StoredDiagLine prints one indexed diagnostic row.
func StoredDiagLine(w io.Writer, path, severity, code, message string, line, col int) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		pathStyle.Render(fmt.Sprintf("%s:%d:%d", path, line, col)),
		severityLabel(severity),
		message,
		codeStyle.Render("["+code+"]"))
}

func NewLine(w io.Writer, path string) {
	fmt.Fprintln(w, newStyle.Render("new")+"  "+path)
}

func TrkLine(w io.Writer, path string) {
	fmt.Fprintln(w, trkStyle.Render("trk")+"  "+path)
}

func SummaryLine(w io.Writer, count int) {
	fmt.Fprintf(w, "synced %d files\n", count)
}

// CountsLine prints the error/warning tally for one analyzed target.
func CountsLine(w io.Writer, path string, errors, warnings int) {
	switch {
	case errors > 0:
		fmt.Fprintf(w, "%s: %s, %s\n", path,
			errStyle.Render(fmt.Sprintf("%d error(s)", errors)),
			warnStyle.Render(fmt.Sprintf("%d warning(s)", warnings)))
	case warnings > 0:
		fmt.Fprintf(w, "%s: %s\n", path,
			warnStyle.Render(fmt.Sprintf("%d warning(s)", warnings)))
	default:
		fmt.Fprintf(w, "%s: %s\n", path, okStyle.Render("ok"))
	}
}

// ListRow prints one indexed file with aligned columns.
func ListRow(w io.Writer, path string, errors, warnings, pathWidth int) {
	status := okStyle.Render("ok")
	if errors > 0 {
		status = errStyle.Render(fmt.Sprintf("%d error(s)", errors))
	} else if warnings > 0 {
		status = warnStyle.Render(fmt.Sprintf("%d warning(s)", warnings))
	}
	fmt.Fprintf(w, "%-*s  %s\n", pathWidth, path, status)
}

// ModeLine prints one node of a mode hierarchy at the given depth.
func ModeLine(w io.Writer, depth int, value, path string, realizable bool) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	marker := ""
	if !realizable {
		marker = " " + trkStyle.Render("(unrealizable)")
	}
	fmt.Fprintf(w, "%s%s %s%s\n", indent, value, pathStyle.Render(path), marker)
}
