package nsplug

import "sort"

// Symbols is the layered variable table for one analysis call: a local
// layer populated by #define and define: lines over a read-only
// environment fallback. It is owned by a single call and never shared.
type Symbols struct {
	local map[string]string
	env   func(string) (string, bool)
}

// NewSymbols creates an empty table. env supplies the environment layer;
// pass nil for no environment fallback (tests do this).
func NewSymbols(env func(string) (string, bool)) *Symbols {
	return &Symbols{local: make(map[string]string), env: env}
}

// Define binds name in the local layer and reports whether an existing
// local binding was overwritten.
func (s *Symbols) Define(name, value string) bool {
	_, existed := s.local[name]
	s.local[name] = value
	return existed
}

// Lookup resolves name against the local layer first, then the
// environment.
func (s *Symbols) Lookup(name string) (string, bool) {
	if v, ok := s.local[name]; ok {
		return v, true
	}
	if s.env != nil {
		return s.env(name)
	}
	return "", false
}

// IsDefined reports whether name resolves in either layer.
func (s *Symbols) IsDefined(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// LocalNames returns the locally defined names in sorted order, used by
// completion.
func (s *Symbols) LocalNames() []string {
	names := make([]string, 0, len(s.local))
	for n := range s.local {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
