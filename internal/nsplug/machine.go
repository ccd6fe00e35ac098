package nsplug

import (
	"fmt"
	"strings"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
	"github.com/moostools/mlint/internal/lexer"
)

// DefaultMaxIncludeDepth bounds recursive include analysis; exceeding it
// is reported as an include cycle.
const DefaultMaxIncludeDepth = 32

// ResolveInclude asks the hosting layer for the content of an include
// target. The engine performs tag slicing on the returned content; the
// tag is passed through for context only.
type ResolveInclude func(path, tag string) (string, bool)

// Options controls the directive machine for one analysis call.
type Options struct {
	// SubstituteInQuotes controls whether variable references inside
	// quoted strings are substituted. The façade defaults this to true.
	SubstituteInQuotes bool
	// MaxIncludeDepth guards recursive includes; zero means
	// DefaultMaxIncludeDepth.
	MaxIncludeDepth int
	Resolve         ResolveInclude
}

// IncludeLink is one #include occurrence: its expanded path, optional
// tag, and the source range of the path argument.
type IncludeLink struct {
	Path     string
	Tag      string
	Range    lang.Range
	Resolved bool
}

// Result is the machine's output: the active substituted token lines for
// the grammar parser, the expanded template text, and include links.
type Result struct {
	ActiveLines [][]lang.Token
	Expanded    string
	Includes    []IncludeLink
}

// Run interprets directives over the token stream, maintaining the
// conditional stack and the symbol table, and filters the stream down to
// active lines. Diagnostics from every stage land in diags; analysis
// never aborts.
func Run(source string, tokens []lang.Token, syms *Symbols, opts Options, diags *diag.List) *Result {
	return run(source, tokens, syms, opts, diags, 0)
}

type machine struct {
	source string
	syms   *Symbols
	opts   Options
	diags  *diag.List
	depth  int

	stack    []frame
	out      *Result
	expanded strings.Builder
}

func run(source string, tokens []lang.Token, syms *Symbols, opts Options, diags *diag.List, depth int) *Result {
	if opts.MaxIncludeDepth <= 0 {
		opts.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	m := &machine{
		source: source,
		syms:   syms,
		opts:   opts,
		diags:  diags,
		depth:  depth,
		out:    &Result{},
	}
	for _, line := range lang.Lines(tokens) {
		m.processLine(line)
	}
	m.finish()
	return m.out
}

// active reports the current conditional state: Active when the stack is
// empty or the top frame's branch is live.
func (m *machine) active() bool {
	if len(m.stack) == 0 {
		return true
	}
	return m.stack[len(m.stack)-1].active
}

func (m *machine) processLine(line []lang.Token) {
	if len(line) > 0 && line[0].Kind == lang.KindDirective {
		m.handleDirective(line)
		return
	}
	if !m.active() {
		return
	}
	if len(line) == 0 {
		m.expanded.WriteByte('\n')
		return
	}
	if line[0].Kind == lang.KindIdent && strings.EqualFold(line[0].Text, "define:") {
		m.handleMissionDefine(line)
		return
	}
	subst := m.substituteTokens(line)
	m.out.ActiveLines = append(m.out.ActiveLines, subst)
	m.writeExpandedLine(line, subst)
}

func (m *machine) writeExpandedLine(orig, subst []lang.Token) {
	text, start := m.lineTextFor(orig[0])
	m.expanded.WriteString(renderLine(text, start, orig, subst))
	m.expanded.WriteByte('\n')
}

// lineTextFor returns the raw source line containing tok and the byte
// offset of its first character.
func (m *machine) lineTextFor(tok lang.Token) (string, int) {
	start := tok.Range.Start.Offset
	for start > 0 && m.source[start-1] != '\n' {
		start--
	}
	end := tok.Range.End.Offset
	for end < len(m.source) && m.source[end] != '\n' {
		end++
	}
	return m.source[start:end], start
}

// handleMissionDefine processes a mission-file `define: NAME=VALUE` line.
// It populates the symbol table; the line is kept in the expansion output
// but not forwarded to the grammar parser.
func (m *machine) handleMissionDefine(line []lang.Token) {
	subst := m.substituteTokens(line)
	rest := subst[1:]
	if len(rest) >= 2 && rest[1].Kind == lang.KindOp && rest[1].Text == "=" {
		name := rest[0].Text
		value := joinTokens(m.source, line[3:], rest[2:])
		if m.syms.Define(name, value) {
			m.diags.Add(diag.VariableRedefined, rest[0].Range, "variable %s redefined", name)
		}
	} else {
		m.diags.Add(diag.UnrecognizedConstruct, lineRange(line), "malformed define: line, expected define: NAME=VALUE")
	}
	m.writeExpandedLine(line, subst)
}

func (m *machine) handleDirective(line []lang.Token) {
	dir := line[0]
	args := line[1:]
	switch dir.DirectiveKeyword() {
	case "ifdef":
		m.handleIfDef(dir, args)
	case "ifndef":
		m.handleIfNDef(dir, args)
	case "elseifdef":
		m.handleElseIfDef(dir, args)
	case "endif":
		if len(m.stack) == 0 {
			m.diags.Add(diag.UnmatchedEndif, dir.Range, "#endif without a matching #ifdef or #ifndef")
			return
		}
		m.stack = m.stack[:len(m.stack)-1]
	case "define":
		if m.active() {
			m.handleDefine(dir, args)
		}
	case "include":
		if m.active() {
			m.handleInclude(dir, args)
		}
	default:
		if m.active() {
			m.diags.Add(diag.UnknownDirective, dir.Range,
				"unknown directive %q", strings.TrimSpace(dir.Text))
		}
	}
}

// handleIfDef pushes a new frame. When the enclosing state is suppressed
// the condition is not evaluated against the symbol table; the frame is
// still pushed so the matching #endif is consumed correctly.
func (m *machine) handleIfDef(dir lang.Token, args []lang.Token) {
	parent := m.active()
	f := frame{kind: frameIfDef, parentActive: parent, open: dir.Range}
	if parent {
		subst := m.substituteTokens(args)
		terms, op := parseCondition(subst, lineRange(append([]lang.Token{dir}, args...)), m.diags)
		f.active = evalCondition(terms, op, m.syms)
		f.taken = f.active
	}
	m.stack = append(m.stack, f)
}

func (m *machine) handleIfNDef(dir lang.Token, args []lang.Token) {
	parent := m.active()
	f := frame{kind: frameIfNDef, parentActive: parent, open: dir.Range}
	if parent {
		subst := m.substituteTokens(args)
		var name *lang.Token
		for i, t := range subst {
			if t.Kind == lang.KindOp && (t.Text == "||" || t.Text == "&&") {
				m.diags.Add(diag.InvalidIfndefOperator, t.Range,
					"#ifndef accepts exactly one name, not a %s expression", t.Text)
				continue
			}
			if name == nil && t.Kind != lang.KindComment {
				name = &subst[i]
			}
		}
		if name == nil {
			m.diags.Add(diag.UnrecognizedConstruct, dir.Range, "missing name after #ifndef")
		} else {
			f.active = !m.syms.IsDefined(name.Text)
		}
		f.taken = f.active
	}
	m.stack = append(m.stack, f)
}

func (m *machine) handleElseIfDef(dir lang.Token, args []lang.Token) {
	if len(m.stack) == 0 {
		m.diags.Add(diag.MisplacedElseIfDef, dir.Range, "#elseifdef without an open #ifdef")
		return
	}
	top := &m.stack[len(m.stack)-1]
	if top.kind == frameIfNDef {
		m.diags.Add(diag.ElseIfNDefUnsupported, dir.Range, "#elseifdef cannot follow #ifndef")
		return
	}
	if top.elseifSeen {
		m.diags.Add(diag.MisplacedElseIfDef, dir.Range, "#elseifdef already used for this #ifdef")
		return
	}
	top.elseifSeen = true
	top.active = false
	if top.parentActive && !top.taken {
		subst := m.substituteTokens(args)
		terms, op := parseCondition(subst, lineRange(append([]lang.Token{dir}, args...)), m.diags)
		top.active = evalCondition(terms, op, m.syms)
		top.taken = top.active
	}
}

func (m *machine) handleDefine(dir lang.Token, args []lang.Token) {
	subst := m.substituteTokens(args)
	if len(subst) == 0 {
		m.diags.Add(diag.UnrecognizedConstruct, dir.Range, "#define requires a name")
		return
	}
	name := subst[0].Text
	value := joinTokens(m.source, args[1:], subst[1:])
	if m.syms.Define(name, value) {
		m.diags.Add(diag.VariableRedefined, subst[0].Range, "variable %s redefined", name)
	}
}

func (m *machine) handleInclude(dir lang.Token, args []lang.Token) {
	subst := m.substituteTokens(args)
	if len(subst) == 0 {
		m.diags.Add(diag.IncludeNotFound, dir.Range, "missing include path")
		return
	}

	pathToks, origToks := subst, args
	var tag string
	if last := subst[len(subst)-1].Text; len(subst) > 1 &&
		strings.HasPrefix(last, "<") && strings.HasSuffix(last, ">") && len(last) > 2 {
		tag = last
		pathToks = subst[:len(subst)-1]
		origToks = args[:len(args)-1]
	}

	path := joinTokens(m.source, origToks, pathToks)
	if len(path) >= 2 && strings.HasPrefix(path, `"`) && strings.HasSuffix(path, `"`) {
		path = path[1 : len(path)-1]
	}
	pathRange := lang.Range{Start: origToks[0].Range.Start, End: origToks[len(origToks)-1].Range.End}
	link := IncludeLink{Path: path, Tag: strings.Trim(tag, "<>"), Range: pathRange}

	if m.depth+1 > m.opts.MaxIncludeDepth {
		m.diags.Add(diag.IncludeCycleDetected, pathRange,
			"include depth limit (%d) exceeded at %s; include cycle likely", m.opts.MaxIncludeDepth, path)
		m.out.Includes = append(m.out.Includes, link)
		return
	}

	var content string
	var ok bool
	if m.opts.Resolve != nil {
		content, ok = m.opts.Resolve(path, link.Tag)
	}
	if !ok {
		m.diags.Add(diag.IncludeNotFound, pathRange, "cannot resolve include %s", path)
		m.out.Includes = append(m.out.Includes, link)
		return
	}
	link.Resolved = true

	if tag != "" {
		sliced, found := sliceTag(content, tag)
		if !found {
			m.diags.Add(diag.IncludeNotFound, pathRange, "tag %s not found in %s", tag, path)
			m.out.Includes = append(m.out.Includes, link)
			return
		}
		content = sliced
	}

	// Re-enter the full pipeline on the included text. The symbol table
	// is shared so defines made in the include are visible afterwards;
	// diagnostics are re-anchored to the include site.
	childDiags := &diag.List{}
	childToks := lexer.Tokenize(content, childDiags)
	child := run(content, childToks, m.syms, m.opts, childDiags, m.depth+1)
	for _, d := range childDiags.Items() {
		m.diags.Append(diag.Diagnostic{
			Severity: d.Severity,
			Code:     d.Code,
			Message:  fmt.Sprintf("%s:%d:%d: %s", path, d.Range.Start.Line, d.Range.Start.Col, d.Message),
			Range:    pathRange,
		})
	}
	m.expanded.WriteString(child.Expanded)
	m.out.Includes = append(m.out.Includes, link)
}

// finish reports unterminated conditionals. A non-empty stack at end of
// file always yields exactly two diagnostics: one anchored at EOF and one
// at the outermost still-open frame's opening directive.
func (m *machine) finish() {
	if len(m.stack) > 0 {
		eof := endRange(m.source)
		origin := m.stack[0].open
		m.diags.AddPaired(diag.UnterminatedConditional, eof, origin,
			"%d conditional block(s) still open at end of file", len(m.stack))
		m.diags.AddPaired(diag.UnterminatedConditionalOrigin, origin, eof,
			"conditional opened here is never closed")
	}
	m.out.Expanded = m.expanded.String()
}

func lineRange(line []lang.Token) lang.Range {
	if len(line) == 0 {
		return lang.Range{}
	}
	return lang.Range{Start: line[0].Range.Start, End: line[len(line)-1].Range.End}
}

// joinTokens rebuilds the source text covered by orig with each token's
// text replaced by its substituted counterpart, preserving the original
// gaps between tokens.
func joinTokens(source string, orig, subst []lang.Token) string {
	if len(orig) == 0 {
		return ""
	}
	var b strings.Builder
	prev := orig[0].Range.Start.Offset
	for i, t := range orig {
		if t.Range.Start.Offset > prev {
			b.WriteString(source[prev:t.Range.Start.Offset])
		}
		b.WriteString(subst[i].Text)
		prev = t.Range.End.Offset
	}
	return b.String()
}

// sliceTag returns the lines of content between a marker line equal to
// tag (e.g. "<ALPHA>") and the next marker line or end of file.
func sliceTag(content, tag string) (string, bool) {
	lines := strings.Split(content, "\n")
	var out []string
	found := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if found {
			if strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") && len(trimmed) > 2 {
				break
			}
			out = append(out, line)
			continue
		}
		if trimmed == tag {
			found = true
		}
	}
	if !found {
		return "", false
	}
	return strings.Join(out, "\n"), true
}

// endRange is a zero-width range at the very end of the source.
func endRange(source string) lang.Range {
	line := 1
	col := 1
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	p := lang.Pos{Line: line, Col: col, Offset: len(source)}
	return lang.Range{Start: p, End: p}
}
