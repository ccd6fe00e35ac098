package nsplug

import (
	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
)

type frameKind int

const (
	frameIfDef frameKind = iota
	frameIfNDef
)

// frame is one entry of the conditional stack. parentActive is the
// machine's active state at push time; active is whether the current
// branch of this frame emits lines; taken is whether any branch of the
// frame has been active yet; elseifSeen enforces the one-elseifdef rule.
type frame struct {
	kind         frameKind
	parentActive bool
	active       bool
	taken        bool
	elseifSeen   bool
	open         lang.Range
}

// condTerm is one clause of an #ifdef expression: a name, optionally with
// an expected value (`#ifdef KEY VALUE` matches only when KEY is bound to
// VALUE, as the reference preprocessor does).
type condTerm struct {
	name    string
	want    string
	hasWant bool
}

type condOp int

const (
	opNone condOp = iota
	opAnd
	opOr
	opMixed
)

// parseCondition splits substituted directive arguments into terms joined
// by a single logical operator. Mixing && and || is always an error here,
// never a warning.
func parseCondition(args []lang.Token, rng lang.Range, diags *diag.List) ([]condTerm, condOp) {
	var terms []condTerm
	var cur []lang.Token
	op := opNone

	flush := func() {
		if len(cur) == 0 {
			return
		}
		t := condTerm{name: cur[0].Text}
		if len(cur) > 1 {
			t.hasWant = true
			for i, w := range cur[1:] {
				if i > 0 {
					t.want += " "
				}
				t.want += w.Text
			}
		}
		terms = append(terms, t)
		cur = nil
	}

	for _, tok := range args {
		if tok.Kind == lang.KindOp && (tok.Text == "&&" || tok.Text == "||") {
			flush()
			next := opAnd
			if tok.Text == "||" {
				next = opOr
			}
			if op == opNone {
				op = next
			} else if op != next && op != opMixed {
				diags.Add(diag.MixedConditionalOperators, rng,
					"cannot mix && and || in the same #ifdef expression")
				op = opMixed
			}
			continue
		}
		if tok.Kind == lang.KindComment {
			continue
		}
		cur = append(cur, tok)
	}
	flush()
	return terms, op
}

// evalCondition evaluates a parsed condition against the symbol table.
// A mixed-operator condition evaluates to false.
func evalCondition(terms []condTerm, op condOp, syms *Symbols) bool {
	if op == opMixed || len(terms) == 0 {
		return false
	}
	satisfied := func(t condTerm) bool {
		v, ok := syms.Lookup(t.name)
		if !ok {
			return false
		}
		return !t.hasWant || v == t.want
	}
	if op == opOr {
		for _, t := range terms {
			if satisfied(t) {
				return true
			}
		}
		return false
	}
	for _, t := range terms {
		if !satisfied(t) {
			return false
		}
	}
	return true
}
