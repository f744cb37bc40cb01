package types

import "fmt"

// Ctx carries per-inference mutable state: the fresh type-variable counter
// and the threaded substitution. It is created once per module inference
// run and passed explicitly, never stashed in a package-global (spec.md §9
// "Global state").
type Ctx struct {
	nextID int
	Sub    Substitution
}

func NewCtx() *Ctx {
	return &Ctx{Sub: Substitution{}}
}

// Fresh allocates a new TypeVar at the given level (spec.md §4.3 "fresh").
func (c *Ctx) Fresh(level int) *TypeVar {
	c.nextID++
	return &TypeVar{ID: c.nextID, Level: level}
}

// Instantiate replaces each quantified id with a fresh TypeVar at the
// current level (spec.md §4.3 "instantiate").
func (c *Ctx) Instantiate(s *Scheme, level int) Type {
	if len(s.Quantified) == 0 {
		return s.Body
	}
	sub := Substitution{}
	for id := range s.Quantified {
		sub[id] = c.Fresh(level)
	}
	return Apply(sub, s.Body)
}

// Generalize quantifies every TypeVar whose level is greater than the
// enclosing level and that is not free in env, subject to the syntactic
// value restriction (spec.md §4.3 "generalize"). isValue indicates whether
// the bound expression is a syntactic value; non-values are monomorphized
// (no variables are quantified).
func Generalize(env *Env, enclosingLevel int, t Type, isValue bool) *Scheme {
	resolved := t
	quant := map[int]bool{}
	if isValue {
		envFree := env.FreeTypeVars()
		for id, lvl := range FreeTypeVars(resolved) {
			if lvl > enclosingLevel && !envFree[id] {
				quant[id] = true
			}
		}
	}
	return &Scheme{Quantified: quant, Body: resolved}
}

// UnifyError is a single unification failure, carrying the two
// (substitution-resolved) types and a role describing where the failure
// occurred (spec.md §7 unification-failure roles).
type UnifyError struct {
	Role string
	T1   Type
	T2   Type
	Msg  string
}

func (e *UnifyError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Role, e.Msg)
	}
	return fmt.Sprintf("%s: cannot unify %s with %s", e.Role, e.T1, e.T2)
}

// Unify attempts to unify t1 and t2 under sub, returning an updated
// substitution on success (spec.md §4.3 "unify").
//
// subtype, when true, performs the width-subtyping record check used at
// function-argument positions (spec.md glossary "Width subtyping"): the
// argument's record (t1) must contain at least t2's fields. When false,
// two record types unify by intersecting and requiring common fields to
// agree, per spec.md's unification-position rule.
func Unify(sub Substitution, t1, t2 Type, role string) (Substitution, error) {
	return unify(sub, t1, t2, role, false)
}

// UnifyArg unifies an argument type against a parameter type using
// width-subtyping: the argument may carry extra fields.
func UnifyArg(sub Substitution, argType, paramType Type, role string) (Substitution, error) {
	return unify(sub, argType, paramType, role, true)
}

func unify(sub Substitution, t1, t2 Type, role string, subtype bool) (Substitution, error) {
	t1 = Apply(sub, t1)
	t2 = Apply(sub, t2)

	if v1, ok := t1.(*TypeVar); ok {
		return bindVar(sub, v1, t2, role)
	}
	if v2, ok := t2.(*TypeVar); ok {
		return bindVar(sub, v2, t1, role)
	}

	switch a := t1.(type) {
	case *TypeConst:
		b, ok := t2.(*TypeConst)
		if !ok || a.Name != b.Name {
			return nil, &UnifyError{Role: role, T1: t1, T2: t2}
		}
		return sub, nil

	case *TypeApp:
		b, ok := t2.(*TypeApp)
		if !ok || a.Ctor != b.Ctor || len(a.Args) != len(b.Args) {
			return nil, &UnifyError{Role: role, T1: t1, T2: t2,
				Msg: fmt.Sprintf("nominal type mismatch or arity mismatch (%s vs %s)", a.Ctor, describeCtor(t2))}
		}
		var err error
		for i := range a.Args {
			sub, err = unify(sub, a.Args[i], b.Args[i], role, false)
			if err != nil {
				return nil, err
			}
		}
		return sub, nil

	case *Function:
		return unifyFunc(sub, a, t2, role, subtype)

	case *Record:
		b, ok := t2.(*Record)
		if !ok {
			return nil, &UnifyError{Role: role, T1: t1, T2: t2}
		}
		return unifyRecords(sub, a, b, role, subtype)

	case *Union:
		b, ok := t2.(*Union)
		if ok {
			return unifyUnion(sub, a, b, role)
		}
		// a single type unifies with a union only when it is (unifiable
		// with) exactly one member (spec.md §4.3 Union rule).
		return unifySingleIntoUnion(sub, t2, a, role)

	default:
		return nil, &UnifyError{Role: role, T1: t1, T2: t2}
	}
}

func describeCtor(t Type) string {
	if app, ok := t.(*TypeApp); ok {
		return app.Ctor
	}
	return t.String()
}

func bindVar(sub Substitution, v *TypeVar, t Type, role string) (Substitution, error) {
	if other, ok := t.(*TypeVar); ok && other.ID == v.ID {
		return sub, nil
	}
	if Occurs(v.ID, t, sub) {
		return nil, &UnifyError{Role: role, T1: v, T2: t, Msg: "infinite type (occurs check)"}
	}
	AdjustLevels(t, v.Level, sub)
	next := Substitution{}
	for k, val := range sub {
		next[k] = val
	}
	next[v.ID] = t
	return next, nil
}

// unifyFunc treats n-ary and curried function shapes as equivalent,
// aligning head-by-head when arities differ (spec.md §4.3 Function rule:
// "(A,B)->C unifies with A->B->C").
func unifyFunc(sub Substitution, a *Function, t2 Type, role string, subtype bool) (Substitution, error) {
	b, ok := t2.(*Function)
	if !ok {
		return nil, &UnifyError{Role: role, T1: a, T2: t2}
	}
	if len(a.Params) == len(b.Params) {
		var err error
		for i := range a.Params {
			if subtype {
				sub, err = unify(sub, a.Params[i], b.Params[i], role, true)
			} else {
				sub, err = unify(sub, a.Params[i], b.Params[i], role, false)
			}
			if err != nil {
				return nil, err
			}
		}
		return unify(sub, a.Result, b.Result, role, subtype)
	}
	// Curry-align the longer side's head params against the shorter side,
	// then recurse into a trailing Function formed from the remainder.
	longer, shorter := a, b
	longerIsA := true
	if len(b.Params) > len(a.Params) {
		longer, shorter = b, a
		longerIsA = false
	}
	n := len(shorter.Params)
	if n > len(longer.Params) {
		return nil, &UnifyError{Role: role, T1: a, T2: t2, Msg: "function arity mismatch"}
	}
	var err error
	for i := 0; i < n; i++ {
		if longerIsA {
			sub, err = unify(sub, longer.Params[i], shorter.Params[i], role, subtype)
		} else {
			sub, err = unify(sub, shorter.Params[i], longer.Params[i], role, subtype)
		}
		if err != nil {
			return nil, err
		}
	}
	remainder := &Function{Params: longer.Params[n:], Result: longer.Result}
	if longerIsA {
		return unify(sub, remainder, shorter.Result, role, subtype)
	}
	return unify(sub, shorter.Result, remainder, role, subtype)
}

func unifyRecords(sub Substitution, a, b *Record, role string, subtype bool) (Substitution, error) {
	if subtype {
		// a (the argument) must contain at least b's (the parameter's)
		// fields (spec.md glossary "Width subtyping").
		for name, bt := range b.Fields {
			at, ok := a.Fields[name]
			if !ok {
				return nil, &UnifyError{Role: role, T1: a, T2: b,
					Msg: fmt.Sprintf("missing required field %q", name)}
			}
			var err error
			sub, err = unify(sub, at, bt, role, false)
			if err != nil {
				return nil, err
			}
		}
		return sub, nil
	}
	// intersect field names; common fields must unify (spec.md §4.3 Record
	// rule "at unification position").
	var err error
	for name, at := range a.Fields {
		if bt, ok := b.Fields[name]; ok {
			sub, err = unify(sub, at, bt, role, false)
			if err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}

func unifyUnion(sub Substitution, a, b *Union, role string) (Substitution, error) {
	// Accepted only when one side is a single member of the other
	// (spec.md §4.3 Union rule).
	if len(a.Members) == 1 {
		return unifySingleIntoUnion(sub, b, a.Members[0], role)
	}
	if len(b.Members) == 1 {
		return unifySingleIntoUnion(sub, a, b.Members[0], role)
	}
	return nil, &UnifyError{Role: role, T1: a, T2: b, Msg: "general union unification is not supported outside FFI boundaries"}
}

func unifySingleIntoUnion(sub Substitution, union Type, single Type, role string) (Substitution, error) {
	u, ok := union.(*Union)
	if !ok {
		return nil, &UnifyError{Role: role, T1: union, T2: single}
	}
	var lastErr error
	for _, m := range u.Members {
		if s2, err := unify(cloneSub(sub), single, m, role, false); err == nil {
			return s2, nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = &UnifyError{Role: role, T1: union, T2: single, Msg: "empty union"}
	}
	return nil, lastErr
}

func cloneSub(sub Substitution) Substitution {
	c := make(Substitution, len(sub))
	for k, v := range sub {
		c[k] = v
	}
	return c
}
