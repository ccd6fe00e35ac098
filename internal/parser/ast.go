package parser

import "github.com/moostools/mlint/internal/lang"

// Node is one top-level construct of a mission or behavior document.
type Node interface {
	Span() lang.Range
}

// Document is the ordered sequence of top-level nodes.
type Document struct {
	Nodes []Node
}

// ModeDeclarations returns the Set declarations in source order.
func (d *Document) ModeDeclarations() []*ModeDeclaration {
	var decls []*ModeDeclaration
	for _, n := range d.Nodes {
		if md, ok := n.(*ModeDeclaration); ok {
			decls = append(decls, md)
		}
	}
	return decls
}

// Assignment is a top-level NAME = VALUE line.
type Assignment struct {
	Name      string
	NameRange lang.Range
	Value     Value
	Rng       lang.Range
}

func (a *Assignment) Span() lang.Range { return a.Rng }

// Param is one entry of a configuration block: either a key = value pair
// or a bare [section] marker line. Duplicates are preserved in order;
// callers decide first-wins vs. accumulate.
type Param struct {
	IsMarker bool
	Name     string
	Value    Value
	Rng      lang.Range
}

// ProcessConfigBlock is a ProcessConfig = NAME { ... } section of a
// mission file.
type ProcessConfigBlock struct {
	AppName   string
	NameRange lang.Range
	Params    []Param
	Rng       lang.Range
}

func (b *ProcessConfigBlock) Span() lang.Range { return b.Rng }

// BehaviorBlock is a Behavior = TYPE { ... } section of a behavior file.
type BehaviorBlock struct {
	BehaviorType string
	NameRange    lang.Range
	Params       []Param
	Rng          lang.Range
}

func (b *BehaviorBlock) Span() lang.Range { return b.Rng }

// InitializeStatement is an initialize or initialize_ line. Deferred
// records the underscore form; the posting semantics are a runtime
// concern.
type InitializeStatement struct {
	Deferred bool
	Pairs    []Param
	Rng      lang.Range
}

func (s *InitializeStatement) Span() lang.Range { return s.Rng }

// Condition is one opaque condition expression line inside a Set block.
type Condition struct {
	Text string
	Rng  lang.Range
}

// ModeDeclaration is a Set MODE = VALUE { conditions } [else] block. The
// parent binding is the condition line whose left side is the mode
// variable itself.
type ModeDeclaration struct {
	ModeVariable  string
	VariableRange lang.Range
	Value         string
	ValueRange    lang.Range
	ParentValue   string
	ParentRange   lang.Range
	HasParent     bool
	Conditions    []Condition
	ElseValue     string
	HasElse       bool
	Rng           lang.Range
}

func (m *ModeDeclaration) Span() lang.Range { return m.Rng }

// IncludeDirective records a resolved or unresolved #include site. These
// nodes are produced by the directive machine and merged into the tree
// by the façade.
type IncludeDirective struct {
	Path     string
	Tag      string
	Resolved bool
	Rng      lang.Range
}

func (i *IncludeDirective) Span() lang.Range { return i.Rng }
