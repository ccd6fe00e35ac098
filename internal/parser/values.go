package parser

import (
	"strconv"
	"strings"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
)

// ValueKind tags the lazily resolved interpretation of a value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueInt
	ValueFloat
	ValueBool
	ValueQuoted
	ValueVector
)

// Value is a mission or behavior value: untyped text at the source level,
// carried with its typed interpretation where one applies. Text always
// holds the (substituted) literal.
type Value struct {
	Kind   ValueKind
	Text   string
	Int    int64
	Float  float64
	Bool   bool
	Vector *VectorLiteral
	Rng    lang.Range
}

// Unquoted returns the contents of a quoted value, or Text unchanged for
// other kinds.
func (v Value) Unquoted() string {
	if v.Kind == ValueQuoted && len(v.Text) >= 2 {
		return strings.TrimSuffix(strings.TrimPrefix(v.Text, `"`), `"`)
	}
	return v.Text
}

// VectorLiteral is a [N]{...} or [NxM]{...} literal. Cols is 1 for the
// one-dimensional form.
type VectorLiteral struct {
	Rows     int
	Cols     int
	Elements []string
}

// parseValue interprets the tokens to the right of an assignment. The
// raw text comes from gap-preserving token joining, so substituted
// values keep their spacing.
func parseValue(source string, toks []lang.Token, diags *diag.List) Value {
	if len(toks) == 0 {
		return Value{Kind: ValueString}
	}
	rng := lang.Range{Start: toks[0].Range.Start, End: toks[len(toks)-1].Range.End}
	text := textOf(source, toks)

	if len(toks) == 1 {
		t := toks[0]
		switch t.Kind {
		case lang.KindInt:
			return Value{Kind: ValueInt, Text: text, Int: t.Int, Rng: rng}
		case lang.KindFloat:
			return Value{Kind: ValueFloat, Text: text, Float: t.Float, Rng: rng}
		case lang.KindBool:
			return Value{Kind: ValueBool, Text: text, Bool: t.Bool, Rng: rng}
		case lang.KindQuote:
			return Value{Kind: ValueQuoted, Text: text, Rng: rng}
		}
	}

	if strings.HasPrefix(text, "[") {
		if vec, ok := parseVector(text, rng, diags); ok {
			return Value{Kind: ValueVector, Text: text, Vector: vec, Rng: rng}
		}
	}
	return Value{Kind: ValueString, Text: text, Rng: rng}
}

// parseVector matches [N]{e1,...} and [NxM]{e1,...}. Dimension
// mismatches are hard errors but the literal is still returned so
// downstream consumers see the elements.
func parseVector(text string, rng lang.Range, diags *diag.List) (*VectorLiteral, bool) {
	close := strings.IndexByte(text, ']')
	if close < 0 {
		return nil, false
	}
	dims := text[1:close]
	rest := strings.TrimSpace(text[close+1:])
	if !strings.HasPrefix(rest, "{") || !strings.HasSuffix(rest, "}") {
		return nil, false
	}

	rows, cols := 0, 1
	if x := strings.IndexAny(dims, "xX"); x >= 0 {
		r, err1 := strconv.Atoi(strings.TrimSpace(dims[:x]))
		c, err2 := strconv.Atoi(strings.TrimSpace(dims[x+1:]))
		if err1 != nil || err2 != nil {
			return nil, false
		}
		rows, cols = r, c
	} else {
		r, err := strconv.Atoi(strings.TrimSpace(dims))
		if err != nil {
			return nil, false
		}
		rows = r
	}

	body := strings.TrimSuffix(strings.TrimPrefix(rest, "{"), "}")
	var elems []string
	if strings.TrimSpace(body) != "" {
		for _, e := range strings.Split(body, ",") {
			elems = append(elems, strings.TrimSpace(e))
		}
	}

	want := rows * cols
	if len(elems) != want {
		diags.Add(diag.VectorDimensionMismatch, rng,
			"vector declares %d element(s) but has %d", want, len(elems))
	}
	return &VectorLiteral{Rows: rows, Cols: cols, Elements: elems}, true
}

// textOf rebuilds the text covered by toks, preserving the gaps between
// token ranges while using each token's (possibly substituted) text.
func textOf(source string, toks []lang.Token) string {
	if len(toks) == 0 {
		return ""
	}
	var b strings.Builder
	prev := toks[0].Range.Start.Offset
	for _, t := range toks {
		if t.Range.Start.Offset > prev {
			b.WriteString(source[prev:t.Range.Start.Offset])
		}
		b.WriteString(t.Text)
		prev = t.Range.End.Offset
	}
	return b.String()
}
