package nsplug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
	"github.com/moostools/mlint/internal/lexer"
)

func runSource(t *testing.T, src string, opts Options) (*Result, *diag.List) {
	t.Helper()
	diags := &diag.List{}
	toks := lexer.Tokenize(src, diags)
	res := Run(src, toks, NewSymbols(nil), opts, diags)
	return res, diags
}

func activeTexts(res *Result) []string {
	var out []string
	for _, line := range res.ActiveLines {
		var parts []string
		for _, t := range line {
			parts = append(parts, t.Text)
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out
}

func codesOf(diags *diag.List) []diag.Code {
	var out []diag.Code
	for _, d := range diags.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestRun_DefineAndSubstitute(t *testing.T) {
	res, diags := runSource(t, "#define HOST alpha\nname = $(HOST)\n", Options{})

	require.Len(t, res.ActiveLines, 1)
	assert.Equal(t, []string{"name = alpha"}, activeTexts(res))
	assert.Equal(t, "name = alpha\n", res.Expanded)
	assert.Empty(t, diags.Items())
}

func TestRun_SubstitutionKeepsSourceRange(t *testing.T) {
	res, _ := runSource(t, "#define HOST alpha\nname = $(HOST)\n", Options{})

	line := res.ActiveLines[0]
	v := line[2]
	assert.Equal(t, "alpha", v.Text)
	// The range still points at the $(HOST) reference in the source.
	assert.Equal(t, 26, v.Range.Start.Offset)
	assert.Equal(t, 33, v.Range.End.Offset)
}

func TestRun_SubstitutionClassifiesReplacement(t *testing.T) {
	res, _ := runSource(t, "#define PORT 9000\nport = $(PORT)\n", Options{})

	v := res.ActiveLines[0][2]
	assert.Equal(t, lang.KindInt, v.Kind)
	assert.Equal(t, int64(9000), v.Int)
}

func TestRun_UpperVariableUppercases(t *testing.T) {
	res, _ := runSource(t, "#define name henry\nvehicle = %(name)\n", Options{})

	assert.Equal(t, []string{"vehicle = HENRY"}, activeTexts(res))
}

func TestRun_UndefinedVariableWarnsAndKeepsLiteral(t *testing.T) {
	res, diags := runSource(t, "name = $(MISSING)\n", Options{})

	assert.Equal(t, []string{"name = $(MISSING)"}, activeTexts(res))
	require.Len(t, diags.Items(), 1)
	d := diags.Items()[0]
	assert.Equal(t, diag.UndefinedVariableWarning, d.Code)
	assert.Equal(t, diag.Warning, d.Severity)
}

func TestRun_ExpansionPreservesSpacing(t *testing.T) {
	res, _ := runSource(t, "#define V 10\na   =   $(V)\n", Options{})

	assert.Equal(t, "a   =   10\n", res.Expanded)
}

func TestRun_MissionDefineFormBindsButIsNotParsed(t *testing.T) {
	res, diags := runSource(t, "define: HOST = alpha\nname = $(HOST)\n", Options{})

	// The define: line stays in the expansion but only the assignment
	// reaches the grammar parser.
	assert.Equal(t, []string{"name = alpha"}, activeTexts(res))
	assert.Contains(t, res.Expanded, "define: HOST = alpha\n")
	assert.Empty(t, diags.Items())
}

func TestRun_RedefineWarns(t *testing.T) {
	_, diags := runSource(t, "#define HOST alpha\n#define HOST bravo\n", Options{})

	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.VariableRedefined, diags.Items()[0].Code)
	assert.Equal(t, diag.Warning, diags.Items()[0].Severity)
}

func TestRun_IfdefSelectsBranch(t *testing.T) {
	src := "#define FEATURE on\n#ifdef FEATURE\nx = 1\n#endif\ny = 2\n"
	res, diags := runSource(t, src, Options{})

	assert.Equal(t, []string{"x = 1", "y = 2"}, activeTexts(res))
	assert.Empty(t, diags.Items())
}

func TestRun_IfdefUndefinedSuppresses(t *testing.T) {
	res, _ := runSource(t, "#ifdef FEATURE\nx = 1\n#endif\ny = 2\n", Options{})

	assert.Equal(t, []string{"y = 2"}, activeTexts(res))
}

func TestRun_IfdefValueMatch(t *testing.T) {
	src := "#define MODE alpha\n#ifdef MODE alpha\nx = 1\n#endif\n#ifdef MODE bravo\ny = 2\n#endif\n"
	res, _ := runSource(t, src, Options{})

	assert.Equal(t, []string{"x = 1"}, activeTexts(res))
}

func TestRun_IfdefDisjunction(t *testing.T) {
	src := "#define B 1\n#ifdef A || B\nx = 1\n#endif\n"
	res, _ := runSource(t, src, Options{})

	assert.Equal(t, []string{"x = 1"}, activeTexts(res))
}

func TestRun_IfdefConjunctionNeedsAll(t *testing.T) {
	src := "#define A 1\n#ifdef A && B\nx = 1\n#endif\n"
	res, _ := runSource(t, src, Options{})

	assert.Empty(t, res.ActiveLines)
}

func TestRun_MixedOperatorsAlwaysError(t *testing.T) {
	// Every name is defined; the mixed expression is still an error and
	// the branch is suppressed.
	src := "#define A 1\n#define B 1\n#define C 1\n#ifdef A && B || C\nx = 1\n#endif\n"
	res, diags := runSource(t, src, Options{})

	assert.Empty(t, res.ActiveLines)
	assert.Contains(t, codesOf(diags), diag.MixedConditionalOperators)
	assert.True(t, diags.HasErrors())
}

func TestRun_ElseIfDefTakenWhenFirstBranchIsNot(t *testing.T) {
	src := "#define B 1\n#ifdef A\na = 1\n#elseifdef B\nb = 1\n#endif\n"
	res, diags := runSource(t, src, Options{})

	assert.Equal(t, []string{"b = 1"}, activeTexts(res))
	assert.Empty(t, diags.Items())
}

func TestRun_ElseIfDefSkippedWhenFirstBranchTaken(t *testing.T) {
	src := "#define A 1\n#define B 1\n#ifdef A\na = 1\n#elseifdef B\nb = 1\n#endif\n"
	res, _ := runSource(t, src, Options{})

	assert.Equal(t, []string{"a = 1"}, activeTexts(res))
}

func TestRun_SecondElseIfDefIsMisplaced(t *testing.T) {
	src := "#ifdef A\n#elseifdef B\n#elseifdef C\n#endif\n"
	_, diags := runSource(t, src, Options{})

	assert.Contains(t, codesOf(diags), diag.MisplacedElseIfDef)
}

func TestRun_ElseIfDefWithoutIfdef(t *testing.T) {
	_, diags := runSource(t, "#elseifdef A\n", Options{})

	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.MisplacedElseIfDef, diags.Items()[0].Code)
}

func TestRun_ElseIfDefAfterIfndef(t *testing.T) {
	src := "#ifndef A\n#elseifdef B\n#endif\n"
	_, diags := runSource(t, src, Options{})

	assert.Contains(t, codesOf(diags), diag.ElseIfNDefUnsupported)
}

func TestRun_IfndefSingleName(t *testing.T) {
	res, diags := runSource(t, "#ifndef MISSING\nx = 1\n#endif\n", Options{})

	assert.Equal(t, []string{"x = 1"}, activeTexts(res))
	assert.Empty(t, diags.Items())
}

func TestRun_IfndefRejectsOperators(t *testing.T) {
	_, diags := runSource(t, "#ifndef A || B\n#endif\n", Options{})

	assert.Contains(t, codesOf(diags), diag.InvalidIfndefOperator)
	assert.True(t, diags.HasErrors())
}

func TestRun_UnmatchedEndif(t *testing.T) {
	_, diags := runSource(t, "#endif\n", Options{})

	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.UnmatchedEndif, diags.Items()[0].Code)
}

func TestRun_UnknownDirective(t *testing.T) {
	_, diags := runSource(t, "#else\n", Options{})

	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.UnknownDirective, diags.Items()[0].Code)
}

func TestRun_SuppressedRegionStillTracksNesting(t *testing.T) {
	// The inner #ifdef/#endif inside the dead branch must pair up, so
	// the trailing line is active again.
	src := "#ifdef DEAD\n#ifdef INNER\nx = 1\n#endif\ny = 2\n#endif\nz = 3\n"
	res, diags := runSource(t, src, Options{})

	assert.Equal(t, []string{"z = 3"}, activeTexts(res))
	assert.Empty(t, diags.Items())
}

func TestRun_SuppressedRegionReportsNothing(t *testing.T) {
	src := "#ifdef DEAD\n#bogus\nname = $(MISSING)\n#endif\n"
	_, diags := runSource(t, src, Options{})

	assert.Empty(t, diags.Items())
}

func TestRun_UnterminatedConditionalYieldsExactlyTwoDiagnostics(t *testing.T) {
	// Three frames left open still produce exactly one pair.
	src := "#ifdef A\n#ifdef B\n#ifdef C\n"
	_, diags := runSource(t, src, Options{})

	items := diags.Items()
	require.Len(t, items, 2)
	assert.Equal(t, diag.UnterminatedConditional, items[0].Code)
	assert.Equal(t, diag.UnterminatedConditionalOrigin, items[1].Code)

	// The first is anchored at end of file, the second at the outermost
	// opening directive, and each carries the other's range.
	assert.Equal(t, 4, items[0].Range.Start.Line)
	assert.Equal(t, 1, items[1].Range.Start.Line)
	require.NotNil(t, items[0].Secondary)
	require.NotNil(t, items[1].Secondary)
	assert.Equal(t, items[1].Range, *items[0].Secondary)
	assert.Equal(t, items[0].Range, *items[1].Secondary)
}

func TestRun_QuoteSubstitution(t *testing.T) {
	src := "#define NAME world\nmsg = \"hello $(NAME)\"\n"

	on, _ := runSource(t, src, Options{SubstituteInQuotes: true})
	assert.Equal(t, `msg = "hello world"`+"\n", on.Expanded)

	off, _ := runSource(t, src, Options{SubstituteInQuotes: false})
	assert.Equal(t, `msg = "hello $(NAME)"`+"\n", off.Expanded)
}

func TestRun_IncludeSplicesAndShares(t *testing.T) {
	files := map[string]string{
		"common.plug": "#define HOST alpha\nAppTick = 4\n",
	}
	opts := Options{Resolve: func(path, tag string) (string, bool) {
		c, ok := files[path]
		return c, ok
	}}
	src := "#include common.plug\nname = $(HOST)\n"
	res, diags := runSource(t, src, opts)

	// Defines made inside the include are visible afterwards.
	assert.Equal(t, "AppTick = 4\nname = alpha\n", res.Expanded)
	assert.Empty(t, diags.Items())

	require.Len(t, res.Includes, 1)
	assert.Equal(t, "common.plug", res.Includes[0].Path)
	assert.True(t, res.Includes[0].Resolved)
}

func TestRun_IncludeQuotedPath(t *testing.T) {
	opts := Options{Resolve: func(path, tag string) (string, bool) {
		return "x = 1\n", path == "plugs/common.plug"
	}}
	res, _ := runSource(t, "#include \"plugs/common.plug\"\n", opts)

	require.Len(t, res.Includes, 1)
	assert.True(t, res.Includes[0].Resolved)
}

func TestRun_IncludeNotFoundWarns(t *testing.T) {
	res, diags := runSource(t, "#include missing.plug\n", Options{})

	require.Len(t, diags.Items(), 1)
	d := diags.Items()[0]
	assert.Equal(t, diag.IncludeNotFound, d.Code)
	assert.Equal(t, diag.Warning, d.Severity)
	require.Len(t, res.Includes, 1)
	assert.False(t, res.Includes[0].Resolved)
}

func TestRun_IncludeTagSlicing(t *testing.T) {
	files := map[string]string{
		"multi.plug": "x = 0\n<ALPHA>\nx = 1\n<BRAVO>\nx = 2\n",
	}
	opts := Options{Resolve: func(path, tag string) (string, bool) {
		c, ok := files[path]
		return c, ok
	}}
	res, diags := runSource(t, "#include multi.plug <ALPHA>\n", opts)

	assert.Equal(t, "x = 1\n", res.Expanded)
	assert.Empty(t, diags.Items())
	require.Len(t, res.Includes, 1)
	assert.Equal(t, "ALPHA", res.Includes[0].Tag)
}

func TestRun_IncludeTagMissing(t *testing.T) {
	opts := Options{Resolve: func(path, tag string) (string, bool) {
		return "x = 1\n", true
	}}
	_, diags := runSource(t, "#include multi.plug <CHARLIE>\n", opts)

	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.IncludeNotFound, diags.Items()[0].Code)
}

func TestRun_IncludeDiagnosticsReanchored(t *testing.T) {
	opts := Options{Resolve: func(path, tag string) (string, bool) {
		return "#endif\n", true
	}}
	_, diags := runSource(t, "#include broken.plug\n", opts)

	require.Len(t, diags.Items(), 1)
	d := diags.Items()[0]
	assert.Equal(t, diag.UnmatchedEndif, d.Code)
	assert.True(t, strings.HasPrefix(d.Message, "broken.plug:1:1:"), d.Message)
	// The range points at the include site in the including file.
	assert.Equal(t, 1, d.Range.Start.Line)
}

func TestRun_IncludeCycleDetected(t *testing.T) {
	opts := Options{
		MaxIncludeDepth: 4,
		Resolve: func(path, tag string) (string, bool) {
			return "#include self.plug\n", true
		},
	}
	_, diags := runSource(t, "#include self.plug\n", opts)

	assert.Contains(t, codesOf(diags), diag.IncludeCycleDetected)
	assert.True(t, diags.HasErrors())
}
