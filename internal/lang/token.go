package lang

import "strings"

// Kind classifies a single token produced by the lexer.
type Kind int

const (
	KindComment Kind = iota
	KindNewline
	KindDirective // line-leading '#' plus keyword, e.g. "#define"
	KindIdent     // bare word that is not a recognized primitive
	KindInt
	KindFloat
	KindBool
	KindQuote    // quoted span including the quotes
	KindVariable // $(NAME) or ${NAME}
	KindUpperVariable
	KindPartialVariable // reference cut off by end of line
	KindPartialUpperVariable
	KindOp // = , { } || &&
)

func (k Kind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindNewline:
		return "newline"
	case KindDirective:
		return "directive"
	case KindIdent:
		return "ident"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindQuote:
		return "quote"
	case KindVariable:
		return "variable"
	case KindUpperVariable:
		return "upper-variable"
	case KindPartialVariable:
		return "partial-variable"
	case KindPartialUpperVariable:
		return "partial-upper-variable"
	case KindOp:
		return "op"
	}
	return "unknown"
}

// Pos is a position in the source. Line is 1-based, Col is 1-based,
// Offset is the byte offset from the start of the file.
type Pos struct {
	Line   int
	Col    int
	Offset int
}

// Range is a half-open [Start, End) source interval.
type Range struct {
	Start Pos
	End   Pos
}

// Contains reports whether the byte offset falls inside the range.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start.Offset && offset < r.End.Offset
}

// Token is one classified source span. Text always holds the raw source
// slice; the typed fields are only meaningful for the matching Kind.
type Token struct {
	Kind  Kind
	Text  string
	Range Range

	Int   int64
	Float float64
	Bool  bool
}

// IsVariable reports whether the token is any of the variable-reference
// kinds, partial forms included.
func (t Token) IsVariable() bool {
	switch t.Kind {
	case KindVariable, KindUpperVariable, KindPartialVariable, KindPartialUpperVariable:
		return true
	}
	return false
}

// VarName returns the referenced variable name for a variable token:
// "$(NAME)" -> "NAME". Partial forms return what was present before the
// line ended.
func (t Token) VarName() string {
	s := t.Text
	if len(s) < 2 {
		return ""
	}
	s = s[2:] // $( %( ${
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSuffix(s, "}")
	return s
}

// DirectiveKeyword returns the keyword of a directive token, lower-cased
// and with any whitespace between '#' and the word removed.
func (t Token) DirectiveKeyword() string {
	s := strings.TrimPrefix(t.Text, "#")
	return strings.ToLower(strings.TrimSpace(s))
}

// Lines groups a token slice into per-line slices, dropping the newline
// tokens themselves. Empty lines yield empty slices so that line indexes
// still correspond to source lines.
func Lines(tokens []Token) [][]Token {
	var lines [][]Token
	var cur []Token
	for _, t := range tokens {
		if t.Kind == KindNewline {
			lines = append(lines, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}
