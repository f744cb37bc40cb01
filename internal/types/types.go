// Package types implements Vibefun's Hindley-Milner type system: types,
// type schemes, the typing environment, and unification with level-based
// generalization (spec.md §3, §4.3).
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is any member of the type language (spec.md §3).
type Type interface {
	fmt.Stringer
	isType()
}

// TypeConst is a nullary type constructor, e.g. Int, String.
type TypeConst struct {
	Name string
}

func (*TypeConst) isType() {}
func (t *TypeConst) String() string { return t.Name }

// TypeVar is a unification variable. Level is the binding depth at which it
// was allocated (spec.md glossary: "Level (rank)").
type TypeVar struct {
	ID    int
	Level int
}

func (*TypeVar) isType() {}
func (t *TypeVar) String() string { return fmt.Sprintf("t%d", t.ID) }

// TypeApp is type application: a constructor name applied to argument
// types, e.g. List<Int>. Equality is nominal (spec.md I7): two TypeApps are
// compatible only when Ctor names match.
type TypeApp struct {
	Ctor string
	Args []Type
}

func (*TypeApp) isType() {}
func (t *TypeApp) String() string {
	if len(t.Args) == 0 {
		return t.Ctor
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Ctor, strings.Join(args, ", "))
}

// Function is kept n-ary at the semantic level; unification treats an
// n-ary function as equivalent to its curried form (spec.md §4.3).
type Function struct {
	Params []Type
	Result Type
}

func (*Function) isType() {}
func (t *Function) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	if len(params) == 1 {
		return fmt.Sprintf("%s -> %s", params[0], t.Result)
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), t.Result)
}

// Record is a structurally typed record; an extra-fields record is a
// subtype of one with fewer fields (width subtyping, spec.md glossary).
type Record struct {
	Fields map[string]Type
}

func (*Record) isType() {}
func (t *Record) String() string {
	var names []string
	for n := range t.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %s", n, t.Fields[n])
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

// Union is restricted to FFI boundary use (spec.md §6, Non-goals).
type Union struct {
	Members []Type
}

func (*Union) isType() {}
func (t *Union) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

// TypeParamRef names one of the owning declaration's type parameters. It
// appears only inside a TypeInfo's Ctors/Alias before instantiation; the
// checker substitutes each TypeParamRef for a fresh TypeVar per use site
// (spec.md §4.3 Variant rule: "instantiates its scheme").
type TypeParamRef struct {
	Name string
}

func (*TypeParamRef) isType() {}
func (t *TypeParamRef) String() string { return t.Name }

// Built-in type constants.
var (
	TInt    = &TypeConst{Name: "Int"}
	TFloat  = &TypeConst{Name: "Float"}
	TString = &TypeConst{Name: "String"}
	TBool   = &TypeConst{Name: "Bool"}
	TUnit   = &TypeConst{Name: "Unit"}
)

// TList, TOption, TResult, TRef build the built-in parametric type
// applications named in spec.md §6.
func TList(elem Type) Type   { return &TypeApp{Ctor: "List", Args: []Type{elem}} }
func TOption(t Type) Type    { return &TypeApp{Ctor: "Option", Args: []Type{t}} }
func TResultOf(ok, err Type) Type { return &TypeApp{Ctor: "Result", Args: []Type{ok, err}} }
func TRef(t Type) Type       { return &TypeApp{Ctor: "Ref", Args: []Type{t}} }

// Scheme is produced only by generalization and consumed only by
// instantiation (spec.md §3).
type Scheme struct {
	Quantified map[int]bool // set of quantified TypeVar IDs
	Body       Type
}

func (s *Scheme) String() string {
	if len(s.Quantified) == 0 {
		return s.Body.String()
	}
	var ids []int
	for id := range s.Quantified {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = fmt.Sprintf("t%d", id)
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(names, " "), s.Body)
}

// MonoScheme wraps a type with no quantified variables.
func MonoScheme(t Type) *Scheme {
	return &Scheme{Quantified: map[int]bool{}, Body: t}
}
