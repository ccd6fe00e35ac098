package nsplug

import (
	"strings"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
	"github.com/moostools/mlint/internal/lexer"
)

// substituteTokens resolves variable-reference tokens against the symbol
// table and returns a parallel token slice. Replacement tokens keep the
// original source range so downstream ranges stay anchored to the source.
// Unresolved references warn and are left as literal text.
func (m *machine) substituteTokens(toks []lang.Token) []lang.Token {
	out := make([]lang.Token, 0, len(toks))
	for _, t := range toks {
		switch t.Kind {
		case lang.KindVariable, lang.KindUpperVariable:
			name := t.VarName()
			value, ok := m.syms.Lookup(name)
			if !ok {
				m.diags.Add(diag.UndefinedVariableWarning, t.Range,
					"variable %s is not defined", name)
				out = append(out, t)
				continue
			}
			if t.Kind == lang.KindUpperVariable {
				value = strings.ToUpper(value)
			}
			nt := lexer.Classify(value)
			nt.Range = t.Range
			out = append(out, nt)
		case lang.KindQuote:
			if !m.opts.SubstituteInQuotes {
				out = append(out, t)
				continue
			}
			nt := t
			nt.Text = m.expandInString(t.Text, t.Range)
			out = append(out, nt)
		default:
			out = append(out, t)
		}
	}
	return out
}

// expandInString substitutes $(NAME), ${NAME}, and %(NAME) occurrences
// inside raw text, used for quoted spans where the lexer does not emit
// separate variable tokens.
func (m *machine) expandInString(s string, rng lang.Range) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		ch := s[i]
		if i+1 < len(s) && ((ch == '$' && (s[i+1] == '(' || s[i+1] == '{')) || (ch == '%' && s[i+1] == '(')) {
			closer := byte(')')
			if s[i+1] == '{' {
				closer = '}'
			}
			end := strings.IndexByte(s[i+2:], closer)
			if end < 0 {
				b.WriteString(s[i:])
				break
			}
			name := s[i+2 : i+2+end]
			value, ok := m.syms.Lookup(name)
			if !ok {
				m.diags.Add(diag.UndefinedVariableWarning, rng,
					"variable %s is not defined", name)
				b.WriteString(s[i : i+2+end+1])
			} else {
				if ch == '%' {
					value = strings.ToUpper(value)
				}
				b.WriteString(value)
			}
			i += 2 + end + 1
			continue
		}
		b.WriteByte(ch)
		i++
	}
	return b.String()
}

// renderLine reconstructs one source line with substitutions applied,
// preserving the original spacing between tokens. orig and subst are
// parallel slices; lineText is the raw line and lineStart its byte
// offset.
func renderLine(lineText string, lineStart int, orig, subst []lang.Token) string {
	if len(orig) == 0 {
		return lineText
	}
	var b strings.Builder
	prev := lineStart
	for i, t := range orig {
		b.WriteString(lineText[prev-lineStart : t.Range.Start.Offset-lineStart])
		b.WriteString(subst[i].Text)
		prev = t.Range.End.Offset
	}
	b.WriteString(lineText[prev-lineStart:])
	return b.String()
}
