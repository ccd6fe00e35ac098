// Package analysis runs the full pipeline over one document: lexing,
// directive interpretation, grammar parsing, and the mode hierarchy
// post-pass. One call, one immutable result.
package analysis

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
	"github.com/moostools/mlint/internal/lexer"
	"github.com/moostools/mlint/internal/modes"
	"github.com/moostools/mlint/internal/nsplug"
	"github.com/moostools/mlint/internal/parser"
)

// Options configures one analysis call. The zero value analyzes with
// quote substitution on, the default include depth, process environment
// lookups, and no include resolution.
type Options struct {
	// DisableQuoteSubstitution leaves variable references inside quoted
	// strings untouched.
	DisableQuoteSubstitution bool
	// MaxIncludeDepth guards recursive includes; zero means the engine
	// default.
	MaxIncludeDepth int
	// Resolve loads include targets. Nil means every #include reports
	// IncludeNotFound.
	Resolve nsplug.ResolveInclude
	// Env supplies environment fallback lookups for undefined variables.
	// Nil means os.LookupEnv.
	Env func(string) (string, bool)
	// Predefined seeds the symbol table before any directive runs, the
	// way nsplug command-line macros do.
	Predefined map[string]string
}

// Result is the analysis of one document.
type Result struct {
	Source      string
	Tokens      []lang.Token
	Document    *parser.Document
	Modes       *modes.Forest
	Symbols     *nsplug.Symbols
	Diagnostics *diag.List
	// Expanded is the template output: active lines with variables
	// substituted and includes spliced in.
	Expanded string
	Links    []nsplug.IncludeLink
}

// Analyze runs the pipeline over content. It never fails: malformed
// input degrades into diagnostics on the result.
func Analyze(content string, opts Options) *Result {
	diags := &diag.List{}
	tokens := lexer.Tokenize(content, diags)

	env := opts.Env
	if env == nil {
		env = os.LookupEnv
	}
	syms := nsplug.NewSymbols(env)
	for _, name := range sortedKeys(opts.Predefined) {
		syms.Define(name, opts.Predefined[name])
	}

	res := nsplug.Run(content, tokens, syms, nsplug.Options{
		SubstituteInQuotes: !opts.DisableQuoteSubstitution,
		MaxIncludeDepth:    opts.MaxIncludeDepth,
		Resolve:            opts.Resolve,
	}, diags)

	doc := parser.Parse(content, res.ActiveLines, diags)
	mergeIncludes(doc, res.Includes)
	forest := modes.Build(doc.ModeDeclarations(), diags)

	return &Result{
		Source:      content,
		Tokens:      tokens,
		Document:    doc,
		Modes:       forest,
		Symbols:     syms,
		Diagnostics: diags,
		Expanded:    res.Expanded,
		Links:       res.Includes,
	}
}

// AnalyzeFile reads path and analyzes it with includes resolved
// relative to the file's directory.
func AnalyzeFile(path string, opts Options) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if opts.Resolve == nil {
		opts.Resolve = FileResolver(filepath.Dir(path))
	}
	return Analyze(string(content), opts), nil
}

// FileResolver resolves include paths against baseDir; absolute paths
// are used as given.
func FileResolver(baseDir string) nsplug.ResolveInclude {
	return func(path, tag string) (string, bool) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return "", false
		}
		return string(content), true
	}
}

// mergeIncludes interleaves include sites into the document tree so
// tree walks see them in source order.
func mergeIncludes(doc *parser.Document, links []nsplug.IncludeLink) {
	for _, l := range links {
		doc.Nodes = append(doc.Nodes, &parser.IncludeDirective{
			Path:     l.Path,
			Tag:      l.Tag,
			Resolved: l.Resolved,
			Rng:      l.Range,
		})
	}
	sort.SliceStable(doc.Nodes, func(i, j int) bool {
		return doc.Nodes[i].Span().Start.Offset < doc.Nodes[j].Span().Start.Offset
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
