package types

// Substitution maps TypeVar IDs to types. Unlike the teacher's
// name-keyed Substitution, ours is ID-keyed since Vibefun type variables
// carry an integer ID rather than a generated string name.
type Substitution map[int]Type

// Apply resolves t through sub, chasing chains of substituted variables.
func Apply(sub Substitution, t Type) Type {
	switch t := t.(type) {
	case *TypeVar:
		if rep, ok := sub[t.ID]; ok {
			return Apply(sub, rep)
		}
		return t
	case *TypeApp:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = Apply(sub, a)
		}
		return &TypeApp{Ctor: t.Ctor, Args: args}
	case *Function:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = Apply(sub, p)
		}
		return &Function{Params: params, Result: Apply(sub, t.Result)}
	case *Record:
		fields := make(map[string]Type, len(t.Fields))
		for n, ft := range t.Fields {
			fields[n] = Apply(sub, ft)
		}
		return &Record{Fields: fields}
	case *Union:
		members := make([]Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = Apply(sub, m)
		}
		return &Union{Members: members}
	default:
		return t
	}
}

// ApplyToScheme applies sub only to the scheme's free (non-quantified)
// variables, preserving invariant I1 that quantified IDs stay quantified.
func ApplyToScheme(sub Substitution, s *Scheme) *Scheme {
	filtered := make(Substitution, len(sub))
	for id, t := range sub {
		if !s.Quantified[id] {
			filtered[id] = t
		}
	}
	return &Scheme{Quantified: s.Quantified, Body: Apply(filtered, s.Body)}
}

// SubstParamRefs replaces every TypeParamRef by name using params, used to
// instantiate a declared type's constructor argument types at a Variant
// construction or pattern site (spec.md §4.3, §4.4).
func SubstParamRefs(t Type, params map[string]Type) Type {
	switch t := t.(type) {
	case *TypeParamRef:
		if rep, ok := params[t.Name]; ok {
			return rep
		}
		return t
	case *TypeApp:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = SubstParamRefs(a, params)
		}
		return &TypeApp{Ctor: t.Ctor, Args: args}
	case *Function:
		params2 := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params2[i] = SubstParamRefs(p, params)
		}
		return &Function{Params: params2, Result: SubstParamRefs(t.Result, params)}
	case *Record:
		fields := make(map[string]Type, len(t.Fields))
		for n, ft := range t.Fields {
			fields[n] = SubstParamRefs(ft, params)
		}
		return &Record{Fields: fields}
	default:
		return t
	}
}

// FreeTypeVars collects the free TypeVar IDs appearing in t, keyed by ID,
// with the level they were allocated at.
func FreeTypeVars(t Type) map[int]int {
	out := map[int]int{}
	collectFreeTypeVars(t, out)
	return out
}

func collectFreeTypeVars(t Type, out map[int]int) {
	switch t := t.(type) {
	case *TypeVar:
		out[t.ID] = t.Level
	case *TypeApp:
		for _, a := range t.Args {
			collectFreeTypeVars(a, out)
		}
	case *Function:
		for _, p := range t.Params {
			collectFreeTypeVars(p, out)
		}
		collectFreeTypeVars(t.Result, out)
	case *Record:
		for _, ft := range t.Fields {
			collectFreeTypeVars(ft, out)
		}
	case *Union:
		for _, m := range t.Members {
			collectFreeTypeVars(m, out)
		}
	}
}

// Occurs reports whether the variable with the given ID occurs anywhere in
// t (after resolving through sub). Used by the occurs-check (spec.md
// §4.3 unify).
func Occurs(id int, t Type, sub Substitution) bool {
	t = Apply(sub, t)
	switch t := t.(type) {
	case *TypeVar:
		return t.ID == id
	case *TypeApp:
		for _, a := range t.Args {
			if Occurs(id, a, sub) {
				return true
			}
		}
		return false
	case *Function:
		for _, p := range t.Params {
			if Occurs(id, p, sub) {
				return true
			}
		}
		return Occurs(id, t.Result, sub)
	case *Record:
		for _, ft := range t.Fields {
			if Occurs(id, ft, sub) {
				return true
			}
		}
		return false
	case *Union:
		for _, m := range t.Members {
			if Occurs(id, m, sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// AdjustLevels lowers the level of every free TypeVar in t (after applying
// sub) to at most maxLevel — the SML-style level adjustment that runs
// before a variable is bound during unification (spec.md §4.3).
//
// Levels live on *TypeVar values; since those values are shared by pointer
// within a single inference run, adjusting a TypeVar's Level in place is
// safe and is how the teacher's own TVar-with-level designs behave (the
// level is bookkeeping for generalizability, never part of Equals/identity).
func AdjustLevels(t Type, maxLevel int, sub Substitution) {
	t = Apply(sub, t)
	switch t := t.(type) {
	case *TypeVar:
		if t.Level > maxLevel {
			t.Level = maxLevel
		}
	case *TypeApp:
		for _, a := range t.Args {
			AdjustLevels(a, maxLevel, sub)
		}
	case *Function:
		for _, p := range t.Params {
			AdjustLevels(p, maxLevel, sub)
		}
		AdjustLevels(t.Result, maxLevel, sub)
	case *Record:
		for _, ft := range t.Fields {
			AdjustLevels(ft, maxLevel, sub)
		}
	case *Union:
		for _, m := range t.Members {
			AdjustLevels(m, maxLevel, sub)
		}
	}
}
