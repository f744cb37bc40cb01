package types

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/lexsupport"
)

// Binding is either a Value (normal let-bound or constructor value) or an
// External (FFI) binding (spec.md §3 "Bindings").
type Binding interface {
	isBinding()
	SchemeOf() *Scheme
}

// ValueBinding is a normal let-bound or constructor value.
type ValueBinding struct {
	Scheme   *Scheme
	Location string
}

func (*ValueBinding) isBinding()        {}
func (b *ValueBinding) SchemeOf() *Scheme { return b.Scheme }

// ExternalBinding is an FFI declaration, possibly overloaded by arity
// (spec.md §4.6).
type ExternalBinding struct {
	Scheme   *Scheme // representative scheme (first/only overload)
	JSName   string
	Module   string // "" when omitted
	Overloads map[int]*Scheme // arity -> scheme
}

func (*ExternalBinding) isBinding()          {}
func (b *ExternalBinding) SchemeOf() *Scheme { return b.Scheme }

// TypeInfoKind distinguishes the three declared-type shapes (spec.md §3
// "TypeInfo").
type TypeInfoKind int

const (
	TypeInfoAlias TypeInfoKind = iota
	TypeInfoVariant
	TypeInfoOpaque
)

// CtorInfo describes one constructor of a variant type.
type CtorInfo struct {
	Name     string
	ArgTypes []Type // in terms of the owning type's Params
}

// TypeInfo describes a declared type: an alias (transparent), a variant
// (closed list of constructors), or an opaque external.
type TypeInfo struct {
	Kind   TypeInfoKind
	Name   string
	Params []string // type parameter names, in declaration order
	Alias  Type      // TypeInfoAlias only
	Ctors  []CtorInfo // TypeInfoVariant only, in declaration order
}

// Env is the pair (values, types) plus the current level (spec.md §3
// "Environment"). Env is immutable from the caller's perspective: Extend*
// methods return a new Env sharing the parent's bindings via a map copy at
// the boundary the teacher's own TypeEnv takes (a fresh map per frame,
// parent chained via pointer) — adapted here to a single flat map per Env
// value plus an explicit parent pointer for scope nesting.
type Env struct {
	values map[string]Binding
	types  map[string]*TypeInfo
	// ctorOwner maps a constructor name to the TypeInfo name that declares
	// it, letting pattern/variant checking resolve nominal ownership in
	// O(1) (spec.md §4.4 Variant pattern rule).
	ctorOwner map[string]string
	parent    *Env
	Level     int
}

// NewEnv creates the root environment containing the built-in types.
func NewEnv() *Env {
	e := &Env{
		values:    map[string]Binding{},
		types:     map[string]*TypeInfo{},
		ctorOwner: map[string]string{},
		Level:     0,
	}
	e.registerBuiltinTypes()
	return e
}

func (e *Env) registerBuiltinTypes() {
	bool_ := &TypeInfo{Kind: TypeInfoVariant, Name: "Bool", Ctors: []CtorInfo{
		{Name: "True"}, {Name: "False"},
	}}
	unit := &TypeInfo{Kind: TypeInfoVariant, Name: "Unit", Ctors: []CtorInfo{
		{Name: "()"},
	}}
	list := &TypeInfo{Kind: TypeInfoVariant, Name: "List", Params: []string{"T"}, Ctors: []CtorInfo{
		{Name: "Nil"},
		{Name: "Cons", ArgTypes: []Type{&TypeParamRef{Name: "T"}, &TypeApp{Ctor: "List", Args: []Type{&TypeParamRef{Name: "T"}}}}},
	}}
	option := &TypeInfo{Kind: TypeInfoVariant, Name: "Option", Params: []string{"T"}, Ctors: []CtorInfo{
		{Name: "Some", ArgTypes: []Type{&TypeParamRef{Name: "T"}}},
		{Name: "None"},
	}}
	result := &TypeInfo{Kind: TypeInfoVariant, Name: "Result", Params: []string{"T", "E"}, Ctors: []CtorInfo{
		{Name: "Ok", ArgTypes: []Type{&TypeParamRef{Name: "T"}}},
		{Name: "Err", ArgTypes: []Type{&TypeParamRef{Name: "E"}}},
	}}
	// Ref is opaque to user type declarations but still needs exactly one
	// constructor so the desugarer's `ref(e)` lowering (represented as
	// Variant{Ctor: "Ref"}) resolves through the normal Variant/pattern
	// machinery (spec.md §4.1 "mutable let lowering").
	ref := &TypeInfo{Kind: TypeInfoOpaque, Name: "Ref", Params: []string{"T"}, Ctors: []CtorInfo{
		{Name: "Ref", ArgTypes: []Type{&TypeParamRef{Name: "T"}}},
	}}

	for _, ti := range []*TypeInfo{bool_, unit, list, option, result, ref} {
		e.types[ti.Name] = ti
		for _, c := range ti.Ctors {
			e.ctorOwner[c.Name] = ti.Name
		}
	}
}

// Child returns a new environment nested under e at level+delta, sharing
// e's bindings by parent-chaining (entering/exiting a let-RHS, spec.md §3
// "Environment").
func (e *Env) Child(levelDelta int) *Env {
	return &Env{
		values:    map[string]Binding{},
		types:     map[string]*TypeInfo{},
		ctorOwner: map[string]string{},
		parent:    e,
		Level:     e.Level + levelDelta,
	}
}

// WithValue returns a new scope extending e with name bound to b. name is
// normalized first so that two differently-composed spellings of the same
// identifier resolve to one binding.
func (e *Env) WithValue(name string, b Binding) *Env {
	child := e.Child(0)
	child.values[lexsupport.NormalizeIdent(name)] = b
	return child
}

// WithValues extends e with multiple bindings at once (used for LetRec
// groups and pattern bindings, spec.md I6).
func (e *Env) WithValues(bindings map[string]Binding) *Env {
	child := e.Child(0)
	for n, b := range bindings {
		child.values[lexsupport.NormalizeIdent(n)] = b
	}
	return child
}

// WithType registers a declared type in a new scope.
func (e *Env) WithType(ti *TypeInfo) *Env {
	child := e.Child(0)
	name := lexsupport.NormalizeIdent(ti.Name)
	child.types[name] = ti
	for _, c := range ti.Ctors {
		child.ctorOwner[lexsupport.NormalizeIdent(c.Name)] = name
	}
	return child
}

func (e *Env) LookupValue(name string) (Binding, bool) {
	name = lexsupport.NormalizeIdent(name)
	for cur := e; cur != nil; cur = cur.parent {
		if b, ok := cur.values[name]; ok {
			return b, true
		}
	}
	return nil, false
}

func (e *Env) LookupType(name string) (*TypeInfo, bool) {
	name = lexsupport.NormalizeIdent(name)
	for cur := e; cur != nil; cur = cur.parent {
		if ti, ok := cur.types[name]; ok {
			return ti, true
		}
	}
	return nil, false
}

// LookupCtor finds the TypeInfo that declares constructor name and the
// CtorInfo itself.
func (e *Env) LookupCtor(name string) (*TypeInfo, *CtorInfo, bool) {
	name = lexsupport.NormalizeIdent(name)
	for cur := e; cur != nil; cur = cur.parent {
		if owner, ok := cur.ctorOwner[name]; ok {
			ti, ok := e.LookupType(owner)
			if !ok {
				return nil, nil, false
			}
			for i := range ti.Ctors {
				if ti.Ctors[i].Name == name {
					return ti, &ti.Ctors[i], true
				}
			}
		}
	}
	return nil, nil, false
}

// Names returns every name bound in e and its ancestors, used for
// did-you-mean suggestions on lookup failure (spec.md §7).
func (e *Env) Names() []string {
	seen := map[string]bool{}
	var names []string
	for cur := e; cur != nil; cur = cur.parent {
		for n := range cur.values {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

// FreeInEnv reports the free type variables visible in the environment
// (i.e. not generalizable because some enclosing binding still depends on
// them) — used by Generalize.
func (e *Env) FreeTypeVars() map[int]bool {
	free := map[int]bool{}
	for cur := e; cur != nil; cur = cur.parent {
		for _, b := range cur.values {
			for id := range FreeTypeVars(b.SchemeOf().Body) {
				if !b.SchemeOf().Quantified[id] {
					free[id] = true
				}
			}
		}
	}
	return free
}

func (e *Env) String() string {
	return fmt.Sprintf("Env(level=%d, names=%v)", e.Level, e.Names())
}
