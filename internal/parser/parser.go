package parser

import (
	"strings"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
)

// Parse consumes the active, substituted token lines produced by the
// directive machine and returns the document tree. Parse errors never
// abort the file: on an unrecognized construct the parser records a
// diagnostic and resynchronizes at the next line.
func Parse(source string, lines [][]lang.Token, diags *diag.List) *Document {
	p := &parser{source: source, lines: lines, diags: diags, doc: &Document{}}
	p.run()
	return p.doc
}

type parser struct {
	source string
	lines  [][]lang.Token
	i      int
	diags  *diag.List
	doc    *Document
}

func (p *parser) run() {
	for p.i < len(p.lines) {
		line := content(p.lines[p.i])
		if len(line) == 0 {
			p.i++
			continue
		}
		first := line[0]
		switch {
		case isKeyword(first, "processconfig"):
			p.parseProcessConfig(line)
		case isKeyword(first, "behavior"):
			p.parseBehavior(line)
		case isKeyword(first, "initialize") || isKeyword(first, "initialize_"):
			p.parseInitialize(line)
		case isKeyword(first, "set"):
			p.parseModeDeclaration(line)
		case isAssignment(line):
			p.parseAssignment(line)
		default:
			p.diags.Add(diag.UnrecognizedConstruct, lineSpan(line),
				"unrecognized construct %q", first.Text)
			p.i++
		}
	}
}

// content filters comment tokens out of a line.
func content(line []lang.Token) []lang.Token {
	var out []lang.Token
	for _, t := range line {
		if t.Kind != lang.KindComment {
			out = append(out, t)
		}
	}
	return out
}

func isKeyword(t lang.Token, kw string) bool {
	return t.Kind == lang.KindIdent && strings.EqualFold(t.Text, kw)
}

func isOp(t lang.Token, text string) bool {
	return t.Kind == lang.KindOp && t.Text == text
}

// isAssignment reports whether the line has the NAME = ... shape.
func isAssignment(line []lang.Token) bool {
	return len(line) >= 2 && !line[0].IsVariable() && line[0].Kind != lang.KindOp && isOp(line[1], "=")
}

func lineSpan(line []lang.Token) lang.Range {
	return lang.Range{Start: line[0].Range.Start, End: line[len(line)-1].Range.End}
}

func (p *parser) parseAssignment(line []lang.Token) {
	a := &Assignment{
		Name:      line[0].Text,
		NameRange: line[0].Range,
		Value:     parseValue(p.source, line[2:], p.diags),
		Rng:       lineSpan(line),
	}
	p.doc.Nodes = append(p.doc.Nodes, a)
	p.i++
}

// openBlock consumes the opening brace of a block. The brace may close
// the header line or stand on its own line below it; only a genuinely
// absent brace is reported.
func (p *parser) openBlock(header []lang.Token, headerSpan lang.Range) bool {
	if isOp(header[len(header)-1], "{") {
		p.i++
		return true
	}
	p.i++
	for p.i < len(p.lines) {
		line := content(p.lines[p.i])
		if len(line) == 0 {
			p.i++
			continue
		}
		if len(line) == 1 && isOp(line[0], "{") {
			p.i++
			return true
		}
		break
	}
	p.diags.Add(diag.MissingOpenBrace, headerSpan, "expected '{' after block header")
	return false
}

func (p *parser) parseProcessConfig(line []lang.Token) {
	if !isAssignmentHeader(line) {
		p.diags.Add(diag.UnrecognizedConstruct, lineSpan(line),
			"expected ProcessConfig = NAME")
		p.i++
		return
	}
	name, nameRange := headerName(p.source, line)
	b := &ProcessConfigBlock{AppName: name, NameRange: nameRange, Rng: lineSpan(line)}
	if p.openBlock(line, b.Rng) {
		b.Params, b.Rng.End = p.parseParams(b.Rng)
	}
	p.doc.Nodes = append(p.doc.Nodes, b)
}

func (p *parser) parseBehavior(line []lang.Token) {
	if !isAssignmentHeader(line) {
		p.diags.Add(diag.UnrecognizedConstruct, lineSpan(line),
			"expected Behavior = TYPE")
		p.i++
		return
	}
	name, nameRange := headerName(p.source, line)
	b := &BehaviorBlock{BehaviorType: name, NameRange: nameRange, Rng: lineSpan(line)}
	if p.openBlock(line, b.Rng) {
		b.Params, b.Rng.End = p.parseParams(b.Rng)
	}
	p.doc.Nodes = append(p.doc.Nodes, b)
}

// isAssignmentHeader matches `Keyword = NAME...` block headers.
func isAssignmentHeader(line []lang.Token) bool {
	return len(line) >= 3 && isOp(line[1], "=")
}

// headerName joins the header tokens after '=', dropping a trailing
// same-line brace if present.
func headerName(source string, line []lang.Token) (string, lang.Range) {
	toks := line[2:]
	if len(toks) > 0 && isOp(toks[len(toks)-1], "{") {
		toks = toks[:len(toks)-1]
	}
	if len(toks) == 0 {
		return "", lineSpan(line)
	}
	return textOf(source, toks), lineSpan(toks)
}

// parseParams consumes block body lines up to the closing brace.
// Declaration order and duplicates are preserved; bare [section] markers
// are retained as marker params.
func (p *parser) parseParams(blockSpan lang.Range) ([]Param, lang.Pos) {
	var params []Param
	for p.i < len(p.lines) {
		line := content(p.lines[p.i])
		if len(line) == 0 {
			p.i++
			continue
		}
		if isOp(line[0], "}") {
			end := line[len(line)-1].Range.End
			p.i++
			return params, end
		}
		if m, ok := sectionMarker(line); ok {
			params = append(params, Param{IsMarker: true, Name: m, Rng: lineSpan(line)})
			p.i++
			continue
		}
		if isAssignment(line) {
			params = append(params, Param{
				Name:  line[0].Text,
				Value: parseValue(p.source, line[2:], p.diags),
				Rng:   lineSpan(line),
			})
			p.i++
			continue
		}
		p.diags.Add(diag.UnrecognizedConstruct, lineSpan(line),
			"unrecognized line inside block")
		p.i++
	}
	p.diags.Add(diag.UnrecognizedConstruct, blockSpan, "block is never closed")
	return params, blockSpan.End
}

// sectionMarker matches a bare [name] line with no assignment.
func sectionMarker(line []lang.Token) (string, bool) {
	if len(line) != 1 || line[0].Kind != lang.KindIdent {
		return "", false
	}
	t := line[0].Text
	if len(t) > 2 && strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
		return t[1 : len(t)-1], true
	}
	return "", false
}

// parseInitialize handles initialize and initialize_ lines with
// comma-separated name = value pairs.
func (p *parser) parseInitialize(line []lang.Token) {
	s := &InitializeStatement{
		Deferred: strings.EqualFold(line[0].Text, "initialize_"),
		Rng:      lineSpan(line),
	}
	rest := line[1:]
	for len(rest) > 0 {
		end := len(rest)
		for j, t := range rest {
			if isOp(t, ",") {
				end = j
				break
			}
		}
		seg := rest[:end]
		if isAssignment(seg) {
			s.Pairs = append(s.Pairs, Param{
				Name:  seg[0].Text,
				Value: parseValue(p.source, seg[2:], p.diags),
				Rng:   lineSpan(seg),
			})
		} else if len(seg) > 0 {
			p.diags.Add(diag.UnrecognizedConstruct, lineSpan(seg),
				"expected name = value pair")
		}
		if end == len(rest) {
			break
		}
		rest = rest[end+1:]
	}
	p.doc.Nodes = append(p.doc.Nodes, s)
	p.i++
}

// parseModeDeclaration handles Set MODE = VALUE { conditions } [else].
// The condition line whose left side is the mode variable is the parent
// binding; all other lines are stored as opaque condition expressions.
func (p *parser) parseModeDeclaration(line []lang.Token) {
	if len(line) < 4 || line[1].Kind != lang.KindIdent || !isOp(line[2], "=") {
		p.diags.Add(diag.UnrecognizedConstruct, lineSpan(line),
			"expected Set MODE = VALUE")
		p.i++
		return
	}
	md := &ModeDeclaration{
		ModeVariable:  line[1].Text,
		VariableRange: line[1].Range,
		Rng:           lineSpan(line),
	}
	valueToks := line[3:]
	if len(valueToks) > 0 && isOp(valueToks[len(valueToks)-1], "{") {
		valueToks = valueToks[:len(valueToks)-1]
	}
	if len(valueToks) > 0 {
		md.Value = textOf(p.source, valueToks)
		md.ValueRange = lineSpan(valueToks)
	}

	if !p.openBlock(line, md.Rng) {
		p.doc.Nodes = append(p.doc.Nodes, md)
		return
	}

	closed := false
	for p.i < len(p.lines) {
		body := content(p.lines[p.i])
		if len(body) == 0 {
			p.i++
			continue
		}
		if isOp(body[0], "}") {
			if len(body) > 1 {
				md.ElseValue = textOf(p.source, body[1:])
				md.HasElse = true
			}
			md.Rng.End = body[len(body)-1].Range.End
			p.i++
			closed = true
			break
		}
		if !md.HasParent && isAssignment(body) && strings.EqualFold(body[0].Text, md.ModeVariable) {
			md.ParentValue = textOf(p.source, body[2:])
			md.ParentRange = lineSpan(body)
			md.HasParent = true
			p.i++
			continue
		}
		md.Conditions = append(md.Conditions, Condition{
			Text: textOf(p.source, body),
			Rng:  lineSpan(body),
		})
		p.i++
	}
	if !closed {
		p.diags.Add(diag.UnrecognizedConstruct, md.Rng, "Set block is never closed")
	}
	p.doc.Nodes = append(p.doc.Nodes, md)
}
