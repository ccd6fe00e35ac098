package diag

import (
	"fmt"

	"github.com/moostools/mlint/internal/lang"
)

// Severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Code identifies one condition from the fixed taxonomy.
type Code string

const (
	UnknownDirective              Code = "UnknownDirective"
	InvalidIfndefOperator         Code = "InvalidIfndefOperator"
	MixedConditionalOperators     Code = "MixedConditionalOperators"
	MisplacedElseIfDef            Code = "MisplacedElseIfDef"
	ElseIfNDefUnsupported         Code = "ElseIfNDefUnsupported"
	UnmatchedEndif                Code = "UnmatchedEndif"
	UnterminatedConditional       Code = "UnterminatedConditional"
	UnterminatedConditionalOrigin Code = "UnterminatedConditionalOrigin"
	VariableRedefined             Code = "VariableRedefined"
	UndefinedVariableWarning      Code = "UndefinedVariableWarning"
	IncludeNotFound               Code = "IncludeNotFound"
	IncludeCycleDetected          Code = "IncludeCycleDetected"
	VectorDimensionMismatch       Code = "VectorDimensionMismatch"
	MissingOpenBrace              Code = "MissingOpenBrace"
	UnrecognizedConstruct         Code = "UnrecognizedConstruct"
	ModeDeclaredBeforeParent      Code = "ModeDeclaredBeforeParent"
	AmbiguousModeReference        Code = "AmbiguousModeReference"

	// Lexer-level malformed primitives.
	UnterminatedQuote    Code = "UnterminatedQuote"
	MalformedVariableRef Code = "MalformedVariableRef"
)

// Severity returns the fixed severity for the code.
func (c Code) Severity() Severity {
	switch c {
	case VariableRedefined, UndefinedVariableWarning, IncludeNotFound, MalformedVariableRef:
		return Warning
	}
	return Error
}

// Diagnostic is one finding with a precise source range. Secondary is set
// for paired findings, such as the origin of an unterminated conditional.
type Diagnostic struct {
	Severity  Severity
	Code      Code
	Message   string
	Range     lang.Range
	Secondary *lang.Range
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d %s %s: %s",
		d.Range.Start.Line, d.Range.Start.Col, d.Severity, d.Code, d.Message)
}

// List collects diagnostics from every pipeline stage of one analysis
// call. Appending never fails and never halts analysis.
type List struct {
	items []Diagnostic
}

// Add records a diagnostic for code at rng. Severity comes from the code.
func (l *List) Add(code Code, rng lang.Range, format string, args ...any) {
	l.items = append(l.items, Diagnostic{
		Severity: code.Severity(),
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Range:    rng,
	})
}

// AddPaired records a diagnostic carrying a secondary range.
func (l *List) AddPaired(code Code, rng, secondary lang.Range, format string, args ...any) {
	sec := secondary
	l.items = append(l.items, Diagnostic{
		Severity:  code.Severity(),
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Range:     rng,
		Secondary: &sec,
	})
}

// Append records an already-built diagnostic, used when merging results
// from included files.
func (l *List) Append(d Diagnostic) {
	l.items = append(l.items, d)
}

// Items returns the collected diagnostics in insertion order.
func (l *List) Items() []Diagnostic {
	return l.items
}

// Count returns the number of errors and warnings collected.
func (l *List) Count() (errors, warnings int) {
	for _, d := range l.items {
		if d.Severity == Error {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (l *List) HasErrors() bool {
	errs, _ := l.Count()
	return errs > 0
}
