package modes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moostools/mlint/internal/diag"
	"github.com/moostools/mlint/internal/lang"
	"github.com/moostools/mlint/internal/lexer"
	"github.com/moostools/mlint/internal/parser"
)

func buildFrom(t *testing.T, src string) (*Forest, *diag.List) {
	t.Helper()
	diags := &diag.List{}
	toks := lexer.Tokenize(src, diags)
	doc := parser.Parse(src, lang.Lines(toks), diags)
	return Build(doc.ModeDeclarations(), diags), diags
}

func TestBuild_ParentThenChild(t *testing.T) {
	src := `Set MODE = ACTIVE {
  DEPLOY = true
} INACTIVE

Set MODE = SURVEYING {
  MODE = ACTIVE
  SURVEY = true
}
`
	f, diags := buildFrom(t, src)

	assert.Empty(t, diags.Items())
	require.Equal(t, []string{"MODE"}, f.Variables())

	roots := f.Roots("MODE")
	require.Len(t, roots, 1)
	assert.Equal(t, "ACTIVE", roots[0].Value)
	assert.Equal(t, "ACTIVE", roots[0].Path)

	require.Len(t, roots[0].Children, 1)
	child := roots[0].Children[0]
	assert.Equal(t, "SURVEYING", child.Value)
	assert.Equal(t, "ACTIVE:SURVEYING", child.Path)
	assert.Equal(t, roots[0], child.Parent)
}

func TestBuild_ForwardReferenceIsAnError(t *testing.T) {
	src := `Set MODE = SURVEYING {
  MODE = ACTIVE
}

Set MODE = ACTIVE {
  DEPLOY = true
} INACTIVE
`
	f, diags := buildFrom(t, src)

	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.ModeDeclaredBeforeParent, diags.Items()[0].Code)

	// The orphan is kept as a root so the tree stays navigable.
	assert.Len(t, f.Roots("MODE"), 2)
}

func TestBuild_FullPathParentReference(t *testing.T) {
	src := `Set MODE = ACTIVE {
  DEPLOY = true
} INACTIVE

Set MODE = SURVEYING {
  MODE = ACTIVE
}

Set MODE = STATION {
  MODE = ACTIVE:SURVEYING
}
`
	f, diags := buildFrom(t, src)

	assert.Empty(t, diags.Items())
	n := f.Lookup("MODE", "ACTIVE:SURVEYING:STATION")
	require.NotNil(t, n)
	assert.Equal(t, "STATION", n.Value)
}

func TestBuild_AmbiguousShortName(t *testing.T) {
	// Two distinct SURVEYING nodes exist; a short-name reference to
	// SURVEYING cannot pick one.
	src := `Set MODE = ACTIVE {
  DEPLOY = true
} INACTIVE

Set MODE = IDLE {
  DEPLOY = false
} OFF

Set MODE = SURVEYING {
  MODE = ACTIVE
}

Set MODE = SURVEYING {
  MODE = IDLE
}

Set MODE = STATION {
  MODE = SURVEYING
}
`
	_, diags := buildFrom(t, src)

	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.AmbiguousModeReference, diags.Items()[0].Code)
}

func TestBuild_ShortNameToNonRealizableInteriorIsAmbiguous(t *testing.T) {
	// Once ACTIVE has a child, a short-name reference to it is only
	// valid if ACTIVE itself carried an else value.
	src := `Set MODE = ACTIVE {
  DEPLOY = true
}

Set MODE = SURVEYING {
  MODE = ACTIVE
}

Set MODE = RETURNING {
  MODE = ACTIVE
}
`
	f, diags := buildFrom(t, src)

	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.AmbiguousModeReference, diags.Items()[0].Code)

	// The first child attached while ACTIVE was still a leaf; the
	// second is kept as an orphan root.
	require.NotNil(t, f.Lookup("MODE", "ACTIVE:SURVEYING"))
	assert.Nil(t, f.Lookup("MODE", "ACTIVE:RETURNING"))
	ret := f.Lookup("MODE", "RETURNING")
	require.NotNil(t, ret)
	assert.Nil(t, ret.Parent)
}

func TestBuild_ShortNameToRealizableInteriorResolves(t *testing.T) {
	src := `Set MODE = ACTIVE {
  DEPLOY = true
} INACTIVE

Set MODE = SURVEYING {
  MODE = ACTIVE
}

Set MODE = RETURNING {
  MODE = ACTIVE
}
`
	f, diags := buildFrom(t, src)

	assert.Empty(t, diags.Items())
	require.NotNil(t, f.Lookup("MODE", "ACTIVE:SURVEYING"))
	require.NotNil(t, f.Lookup("MODE", "ACTIVE:RETURNING"))
}

func TestBuild_FullPathToNonRealizableInteriorResolves(t *testing.T) {
	// The full path is always unambiguous, else value or not.
	src := `Set MODE = ACTIVE {
  DEPLOY = true
}

Set MODE = SURVEYING {
  MODE = ACTIVE
}

Set MODE = RETURNING {
  MODE = ACTIVE
}

Set MODE = STATION {
  MODE = ACTIVE:SURVEYING
}
`
	f, diags := buildFrom(t, src)

	// Only the RETURNING short-name reference is rejected.
	require.Len(t, diags.Items(), 1)
	assert.Equal(t, diag.AmbiguousModeReference, diags.Items()[0].Code)
	require.NotNil(t, f.Lookup("MODE", "ACTIVE:SURVEYING:STATION"))
}

func TestBuild_Realizability(t *testing.T) {
	src := `Set MODE = ACTIVE {
  DEPLOY = true
} INACTIVE

Set MODE = SURVEYING {
  MODE = ACTIVE
}
`
	f, _ := buildFrom(t, src)

	active := f.Lookup("MODE", "ACTIVE")
	require.NotNil(t, active)
	// Interior node with an else value: realizable.
	assert.True(t, active.Realizable)

	leaf := f.Lookup("MODE", "ACTIVE:SURVEYING")
	require.NotNil(t, leaf)
	assert.True(t, leaf.Realizable)
}

func TestBuild_InteriorWithoutElseIsUnrealizable(t *testing.T) {
	src := `Set MODE = ACTIVE {
  DEPLOY = true
}

Set MODE = SURVEYING {
  MODE = ACTIVE
}
`
	f, _ := buildFrom(t, src)

	active := f.Lookup("MODE", "ACTIVE")
	require.NotNil(t, active)
	assert.False(t, active.Realizable)
}

func TestBuild_IndependentVariables(t *testing.T) {
	src := `Set MODE = ACTIVE {
  DEPLOY = true
} INACTIVE

Set OP_REGION = NORTH {
  REGION = north
} SOUTH
`
	f, diags := buildFrom(t, src)

	assert.Empty(t, diags.Items())
	assert.Equal(t, []string{"MODE", "OP_REGION"}, f.Variables())
	assert.Len(t, f.Roots("MODE"), 1)
	assert.Len(t, f.Roots("OP_REGION"), 1)
}
