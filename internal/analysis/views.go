package analysis

import (
	"sort"
	"strings"

	"github.com/moostools/mlint/internal/lang"
	"github.com/moostools/mlint/internal/nsplug"
)

// TokenClass is the highlighting class of a semantic token.
type TokenClass string

const (
	ClassComment   TokenClass = "comment"
	ClassDirective TokenClass = "directive"
	ClassKeyword   TokenClass = "keyword"
	ClassNumber    TokenClass = "number"
	ClassString    TokenClass = "string"
	ClassVariable  TokenClass = "variable"
	ClassOperator  TokenClass = "operator"
)

// SemanticToken pairs a source range with its highlighting class.
type SemanticToken struct {
	Range lang.Range
	Class TokenClass
}

// blockKeywords are the identifiers that introduce structural constructs
// and deserve keyword highlighting.
var blockKeywords = map[string]bool{
	"processconfig": true,
	"behavior":      true,
	"initialize":    true,
	"initialize_":   true,
	"set":           true,
	"define:":       true,
}

// SemanticTokens projects the raw token stream into highlight spans.
// Idents are unclassed except for the structural keywords.
func (r *Result) SemanticTokens() []SemanticToken {
	var out []SemanticToken
	for _, t := range r.Tokens {
		var class TokenClass
		switch t.Kind {
		case lang.KindComment:
			class = ClassComment
		case lang.KindDirective:
			class = ClassDirective
		case lang.KindInt, lang.KindFloat:
			class = ClassNumber
		case lang.KindBool:
			class = ClassKeyword
		case lang.KindQuote:
			class = ClassString
		case lang.KindVariable, lang.KindUpperVariable,
			lang.KindPartialVariable, lang.KindPartialUpperVariable:
			class = ClassVariable
		case lang.KindOp:
			class = ClassOperator
		case lang.KindIdent:
			if !blockKeywords[strings.ToLower(t.Text)] {
				continue
			}
			class = ClassKeyword
		default:
			continue
		}
		out = append(out, SemanticToken{Range: t.Range, Class: class})
	}
	return out
}

// CompletionKind classifies what a completion request at an offset
// should offer.
type CompletionKind int

const (
	CompleteNone CompletionKind = iota
	CompleteDirective
	CompleteIncludePath
	CompleteVariable
)

// CompletionContext describes the completion surface at one offset:
// what kind of candidates apply and the known candidates themselves.
type CompletionContext struct {
	Kind       CompletionKind
	Candidates []string
}

var directiveNames = []string{"define", "elseifdef", "endif", "ifdef", "ifndef", "include"}

// Completion classifies the offset. Directive completion triggers inside
// a line-leading directive token, include-path completion inside an
// #include argument, and variable completion inside any variable
// reference, partial forms included.
func (r *Result) Completion(offset int) CompletionContext {
	lines := lang.Lines(r.Tokens)
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		span := lang.Range{Start: line[0].Range.Start, End: line[len(line)-1].Range.End}
		if offset < span.Start.Offset || offset > span.End.Offset {
			continue
		}
		for i, t := range line {
			if !t.Range.Contains(offset) && offset != t.Range.End.Offset {
				continue
			}
			switch {
			case t.Kind == lang.KindDirective:
				return CompletionContext{Kind: CompleteDirective, Candidates: directiveNames}
			case t.IsVariable():
				return CompletionContext{Kind: CompleteVariable, Candidates: r.variableCandidates()}
			case i > 0 && line[0].Kind == lang.KindDirective &&
				line[0].DirectiveKeyword() == "include":
				return CompletionContext{Kind: CompleteIncludePath, Candidates: r.includeCandidates()}
			}
		}
	}
	return CompletionContext{Kind: CompleteNone}
}

// variableCandidates lists every name the symbol table learned during
// the analysis, sorted.
func (r *Result) variableCandidates() []string {
	return r.Symbols.LocalNames()
}

// includeCandidates lists the distinct paths already included in the
// document, sorted.
func (r *Result) includeCandidates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range r.Links {
		if !seen[l.Path] {
			seen[l.Path] = true
			out = append(out, l.Path)
		}
	}
	sort.Strings(out)
	return out
}

// DocumentLinks returns the include sites that resolved to real content,
// for link navigation.
func (r *Result) DocumentLinks() []nsplug.IncludeLink {
	var out []nsplug.IncludeLink
	for _, l := range r.Links {
		if l.Resolved {
			out = append(out, l)
		}
	}
	return out
}
