package modes

import (
	"strings"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
	"github.com/moostools/mlint/internal/parser"
)

// Node is one declared mode value in the hierarchy of a mode variable.
type Node struct {
	Value    string
	Path     string // colon-joined chain from the root ancestor
	Parent   *Node
	Children []*Node
	// Realizable records whether this node can be the active terminal
	// state: leaves always, interior nodes only when their declaration
	// carried an else value.
	Realizable bool
	HasElse    bool
	Decl       lang.Range
}

// Forest is the derived mode hierarchy, keyed by mode-variable name.
type Forest struct {
	roots map[string][]*Node
	nodes map[string][]*Node // all declared nodes per variable, in order
	order []string           // variables in first-declaration order
}

// Variables returns the mode-variable names in first-declaration order.
func (f *Forest) Variables() []string {
	return f.order
}

// Roots returns the root nodes declared for a mode variable.
func (f *Forest) Roots(variable string) []*Node {
	return f.roots[variable]
}

// Nodes returns every declared node for a mode variable in source order.
func (f *Forest) Nodes(variable string) []*Node {
	return f.nodes[variable]
}

// Lookup finds a node by its canonical colon-joined path.
func (f *Forest) Lookup(variable, path string) *Node {
	for _, n := range f.nodes[variable] {
		if n.Path == path {
			return n
		}
	}
	return nil
}

// Build runs the post-pass over the Set declarations, in source order.
// Parents must be declared before children; forward references and
// ambiguous short-name references are errors, and the offending node is
// placed as a root so later references still resolve somewhere.
func Build(decls []*parser.ModeDeclaration, diags *diag.List) *Forest {
	f := &Forest{
		roots: make(map[string][]*Node),
		nodes: make(map[string][]*Node),
	}
	for _, d := range decls {
		if d.Value == "" {
			continue
		}
		if _, seen := f.nodes[d.ModeVariable]; !seen {
			f.order = append(f.order, d.ModeVariable)
		}
		n := &Node{Value: d.Value, Path: d.Value, HasElse: d.HasElse, Decl: d.Span()}
		if d.HasParent {
			parent := f.resolveParent(d, diags)
			if parent != nil {
				n.Parent = parent
				n.Path = parent.Path + ":" + n.Value
				parent.Children = append(parent.Children, n)
			}
		}
		if n.Parent == nil {
			f.roots[d.ModeVariable] = append(f.roots[d.ModeVariable], n)
		}
		f.nodes[d.ModeVariable] = append(f.nodes[d.ModeVariable], n)
	}
	for _, variable := range f.order {
		for _, n := range f.nodes[variable] {
			n.Realizable = len(n.Children) == 0 || n.HasElse
		}
	}
	return f
}

// resolveParent resolves a parent reference against the nodes declared
// so far. Full colon-joined paths must match exactly. A short name must
// match exactly one declared node, and when that node is already an
// interior node it must have been declared directly realizable (with an
// else value); otherwise the reference demands the full path.
func (f *Forest) resolveParent(d *parser.ModeDeclaration, diags *diag.List) *Node {
	declared := f.nodes[d.ModeVariable]
	ref := d.ParentValue

	if strings.Contains(ref, ":") {
		for _, n := range declared {
			if n.Path == ref {
				return n
			}
		}
		diags.Add(diag.ModeDeclaredBeforeParent, d.ParentRange,
			"mode %s references parent %s before it is declared", d.Value, ref)
		return nil
	}

	var matches []*Node
	for _, n := range declared {
		if n.Value == ref {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		diags.Add(diag.ModeDeclaredBeforeParent, d.ParentRange,
			"mode %s references parent %s before it is declared", d.Value, ref)
		return nil
	case 1:
		m := matches[0]
		if len(m.Children) > 0 && !m.HasElse {
			diags.Add(diag.AmbiguousModeReference, d.ParentRange,
				"parent %s is an intermediate mode with no else value, use its full path %s", ref, m.Path)
			return nil
		}
		return m
	default:
		paths := make([]string, len(matches))
		for i, m := range matches {
			paths[i] = m.Path
		}
		diags.Add(diag.AmbiguousModeReference, d.ParentRange,
			"parent %s is ambiguous, use a full path: %s", ref, strings.Join(paths, ", "))
		return nil
	}
}
