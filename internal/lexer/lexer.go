package lexer

import (
	"strconv"
	"strings"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
)

// Lexer scans MOOS mission, behavior, and plug template text into tokens.
// A Lexer runs once; call Tokenize on a fresh instance to re-scan.
type Lexer struct {
	input  string
	pos    int
	line   int
	col    int
	tokens []lang.Token
	diags  *diag.List

	atLineStart   bool
	directiveLine bool // a '#' directive opened this line: '//' is not a comment
}

// New creates a lexer over input. Malformed-primitive diagnostics are
// appended to diags.
func New(input string, diags *diag.List) *Lexer {
	return &Lexer{input: input, line: 1, col: 1, diags: diags, atLineStart: true}
}

// Tokenize is a convenience wrapper for one-shot scanning.
func Tokenize(input string, diags *diag.List) []lang.Token {
	return New(input, diags).Tokenize()
}

// Tokenize processes the entire input and returns all tokens, newline
// tokens included.
func (l *Lexer) Tokenize() []lang.Token {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\n':
			start := l.at()
			l.advance()
			l.push(lang.Token{Kind: lang.KindNewline, Text: "\n", Range: lang.Range{Start: start, End: l.at()}})
			l.atLineStart = true
			l.directiveLine = false
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '/' && l.peek() == '/' && !l.directiveLine:
			l.readComment()
		case ch == '#' && l.atLineStart:
			l.readDirective()
		case ch == '"':
			l.readQuote()
		case isVariableStart(ch, l.peek()):
			l.readVariable()
		case ch == '=' || ch == ',' || ch == '{' || ch == '}':
			start := l.at()
			l.advance()
			l.emit(lang.KindOp, start)
		case (ch == '|' && l.peek() == '|') || (ch == '&' && l.peek() == '&'):
			start := l.at()
			l.advance()
			l.advance()
			l.emit(lang.KindOp, start)
		default:
			l.readWord()
		}
	}
	return l.tokens
}

func isVariableStart(ch, next byte) bool {
	if ch == '$' {
		return next == '(' || next == '{'
	}
	return ch == '%' && next == '('
}

func (l *Lexer) at() lang.Pos {
	return lang.Pos{Line: l.line, Col: l.col, Offset: l.pos}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) peek() byte {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

func (l *Lexer) push(t lang.Token) {
	l.tokens = append(l.tokens, t)
}

// emit pushes a token whose raw text spans from start to the current
// position, and marks the line as started.
func (l *Lexer) emit(kind lang.Kind, start lang.Pos) {
	l.push(lang.Token{
		Kind:  kind,
		Text:  l.input[start.Offset:l.pos],
		Range: lang.Range{Start: start, End: l.at()},
	})
	l.atLineStart = false
}

func (l *Lexer) readComment() {
	start := l.at()
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
	l.emit(lang.KindComment, start)
}

// readDirective scans a line-leading '#' and its keyword. Whitespace
// between the marker and the keyword is skipped, so `#  ifdef` still
// reads as an ifdef.
func (l *Lexer) readDirective() {
	start := l.at()
	l.advance() // '#'
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.advance()
	}
	for l.pos < len(l.input) && isKeywordChar(l.input[l.pos]) {
		l.advance()
	}
	l.emit(lang.KindDirective, start)
	l.directiveLine = true
}

func isKeywordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// readQuote scans a quoted span including both quotes. Comment detection
// is disabled inside the span; variable references inside remain part of
// the raw text and are handled by the substitution engine.
func (l *Lexer) readQuote() {
	start := l.at()
	l.advance() // opening quote
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '"' {
			l.advance()
			l.emit(lang.KindQuote, start)
			return
		}
		if ch == '\n' {
			break
		}
		l.advance()
	}
	l.emit(lang.KindQuote, start)
	last := l.tokens[len(l.tokens)-1]
	l.diags.Add(diag.UnterminatedQuote, last.Range, "unterminated quoted string")
}

// readVariable scans $(NAME), ${NAME}, or %(NAME). A reference cut off by
// end of line becomes a partial-variable token with a warning.
func (l *Lexer) readVariable() {
	start := l.at()
	upper := l.input[l.pos] == '%'
	closer := byte(')')
	if l.peek() == '{' {
		closer = '}'
	}
	l.advance() // sigil
	l.advance() // opening bracket
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == closer {
			l.advance()
			if upper {
				l.emit(lang.KindUpperVariable, start)
			} else {
				l.emit(lang.KindVariable, start)
			}
			return
		}
		if ch == '\n' {
			break
		}
		l.advance()
	}
	if upper {
		l.emit(lang.KindPartialUpperVariable, start)
	} else {
		l.emit(lang.KindPartialVariable, start)
	}
	last := l.tokens[len(l.tokens)-1]
	l.diags.Add(diag.MalformedVariableRef, last.Range, "unterminated variable reference %q", last.Text)
}

// readWord scans a bare word and classifies it as integer, float, boolean,
// or identifier. The raw text is always retained because grammar context
// can narrow an ambiguous value later.
func (l *Lexer) readWord() {
	start := l.at()
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' ||
			ch == '"' || ch == '=' || ch == ',' || ch == '{' || ch == '}' {
			break
		}
		if ch == '/' && l.peek() == '/' && !l.directiveLine {
			break
		}
		if isVariableStart(ch, l.peek()) {
			break
		}
		if (ch == '|' && l.peek() == '|') || (ch == '&' && l.peek() == '&') {
			break
		}
		l.advance()
	}
	text := l.input[start.Offset:l.pos]
	tok := Classify(text)
	tok.Range = lang.Range{Start: start, End: l.at()}
	l.push(tok)
	l.atLineStart = false
}

// Classify builds a token for a bare word, trying integer, float, and
// boolean interpretations before falling back to identifier.
func Classify(text string) lang.Token {
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return lang.Token{Kind: lang.KindInt, Text: text, Int: v}
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return lang.Token{Kind: lang.KindFloat, Text: text, Float: v}
	}
	switch strings.ToLower(text) {
	case "true":
		return lang.Token{Kind: lang.KindBool, Text: text, Bool: true}
	case "false":
		return lang.Token{Kind: lang.KindBool, Text: text, Bool: false}
	}
	return lang.Token{Kind: lang.KindIdent, Text: text}
}
