package nsplug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbols_LocalOverridesEnvironment(t *testing.T) {
	env := func(name string) (string, bool) {
		if name == "HOST" {
			return "from-env", true
		}
		return "", false
	}
	s := NewSymbols(env)

	v, ok := s.Lookup("HOST")
	assert.True(t, ok)
	assert.Equal(t, "from-env", v)

	overwrote := s.Define("HOST", "local")
	assert.False(t, overwrote)
	v, _ = s.Lookup("HOST")
	assert.Equal(t, "local", v)
}

func TestSymbols_DefineReportsOverwrite(t *testing.T) {
	s := NewSymbols(nil)
	assert.False(t, s.Define("A", "1"))
	assert.True(t, s.Define("A", "2"))
}

func TestSymbols_LocalNamesSorted(t *testing.T) {
	s := NewSymbols(nil)
	s.Define("ZULU", "1")
	s.Define("ALPHA", "2")
	s.Define("MIKE", "3")

	assert.Equal(t, []string{"ALPHA", "MIKE", "ZULU"}, s.LocalNames())
}
