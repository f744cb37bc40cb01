package core

import "fmt"

// Renamer hands out fresh names; its counter is threaded explicitly by
// callers via *Renamer rather than kept as a package-global mutable counter
// (spec.md §9 "Global state").
type Renamer struct {
	n int
}

func NewRenamer() *Renamer { return &Renamer{} }

func (r *Renamer) Fresh(base string) string {
	r.n++
	return fmt.Sprintf("%s$%d", base, r.n)
}

// FreeVars returns the set of free variable names in e.
func FreeVars(e Expr) map[string]bool {
	fv := make(map[string]bool)
	collectFreeVars(e, fv)
	return fv
}

func collectFreeVars(e Expr, fv map[string]bool) {
	switch e := e.(type) {
	case *Var:
		fv[e.Name] = true
	case *Lit:
		// no free vars
	case *Lambda:
		inner := make(map[string]bool)
		collectFreeVars(e.Body, inner)
		bound := e.Param.Names()
		mergeExcluding(fv, inner, bound)
	case *App:
		collectFreeVars(e.Func, fv)
		for _, a := range e.Args {
			collectFreeVars(a, fv)
		}
	case *Let:
		inner := make(map[string]bool)
		collectFreeVars(e.Body, inner)
		bound := e.Pattern.Names()
		if e.Recursive {
			// the bound name is in scope for the value too (I6)
			valInner := make(map[string]bool)
			collectFreeVars(e.Value, valInner)
			mergeExcluding(fv, valInner, bound)
		} else {
			collectFreeVars(e.Value, fv)
		}
		mergeExcluding(fv, inner, bound)
	case *LetRecExpr:
		var allBound []string
		for _, b := range e.Bindings {
			allBound = append(allBound, b.Pattern.Names()...)
		}
		for _, b := range e.Bindings {
			inner := make(map[string]bool)
			collectFreeVars(b.Value, inner)
			mergeExcluding(fv, inner, allBound)
		}
		inner := make(map[string]bool)
		collectFreeVars(e.Body, inner)
		mergeExcluding(fv, inner, allBound)
	case *Match:
		collectFreeVars(e.Scrutinee, fv)
		for _, c := range e.Cases {
			inner := make(map[string]bool)
			if c.Guard != nil {
				collectFreeVars(c.Guard, inner)
			}
			collectFreeVars(c.Body, inner)
			mergeExcluding(fv, inner, c.Pattern.Names())
		}
	case *Record:
		for _, entry := range e.Entries {
			switch entry := entry.(type) {
			case RecordField:
				collectFreeVars(entry.Value, fv)
			case RecordSpread:
				collectFreeVars(entry.Value, fv)
			}
		}
	case *RecordAccess:
		collectFreeVars(e.Record, fv)
	case *RecordUpdate:
		collectFreeVars(e.Record, fv)
		for _, entry := range e.Entries {
			switch entry := entry.(type) {
			case RecordField:
				collectFreeVars(entry.Value, fv)
			case RecordSpread:
				collectFreeVars(entry.Value, fv)
			}
		}
	case *Variant:
		for _, a := range e.Args {
			collectFreeVars(a, fv)
		}
	case *BinOp:
		collectFreeVars(e.Left, fv)
		collectFreeVars(e.Right, fv)
	case *UnaryOp:
		collectFreeVars(e.Operand, fv)
	case *TypeAnnotation:
		collectFreeVars(e.Expr, fv)
	case *Unsafe:
		collectFreeVars(e.Expr, fv)
	}
}

func mergeExcluding(dst, src map[string]bool, exclude []string) {
	excl := make(map[string]bool, len(exclude))
	for _, n := range exclude {
		excl[n] = true
	}
	for n := range src {
		if !excl[n] {
			dst[n] = true
		}
	}
}

// Subst replaces free occurrences of name with replacement in e, performing
// capture-avoiding alpha-renaming of any bound name that is free in
// replacement before descending under its binder (spec.md O3, §8
// "Capture avoidance").
func Subst(e Expr, name string, replacement Expr, r *Renamer) Expr {
	repFree := FreeVars(replacement)
	return subst(e, name, replacement, repFree, r)
}

func subst(e Expr, name string, replacement Expr, repFree map[string]bool, r *Renamer) Expr {
	switch e := e.(type) {
	case *Var:
		if e.Name == name {
			return replacement
		}
		return e
	case *Lit:
		return e
	case *Lambda:
		param, body := alphaRenameIfNeeded(e.Param, e.Body, name, repFree, r)
		if !patternBinds(param, name) {
			body = subst(body, name, replacement, repFree, r)
		}
		return &Lambda{Node: e.Node, Param: param, Body: body}
	case *App:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = subst(a, name, replacement, repFree, r)
		}
		return &App{Node: e.Node, Func: subst(e.Func, name, replacement, repFree, r), Args: args}
	case *Let:
		pattern, body := alphaRenameIfNeeded(e.Pattern, e.Body, name, repFree, r)
		value := e.Value
		if !e.Recursive || !patternBinds(pattern, name) {
			value = subst(value, name, replacement, repFree, r)
		}
		if !patternBinds(pattern, name) {
			body = subst(body, name, replacement, repFree, r)
		}
		return &Let{Node: e.Node, Pattern: pattern, Value: value, Body: body, Mutable: e.Mutable, Recursive: e.Recursive}
	case *LetRecExpr:
		// every binding in a mutual-recursion group is in scope for every
		// other binding's value, not just the trailing body, so a rename
		// triggered by one binding's pattern must be propagated to all of
		// them before substitution proceeds.
		patterns := make([]Pattern, len(e.Bindings))
		allRenames := map[string]string{}
		for i, b := range e.Bindings {
			pat, renames := alphaRenameIfNeededOnPattern(b.Pattern, name, repFree, r)
			patterns[i] = pat
			for old, fresh := range renames {
				allRenames[old] = fresh
			}
		}
		renameAll := func(ex Expr) Expr {
			for old, fresh := range allRenames {
				ex = subst(ex, old, &Var{Name: fresh}, map[string]bool{fresh: true}, r)
			}
			return ex
		}
		bindings := make([]RecBinding, len(e.Bindings))
		for i, b := range e.Bindings {
			bindings[i] = RecBinding{Pattern: patterns[i], Value: renameAll(b.Value), Mutable: b.Mutable}
		}
		body := renameAll(e.Body)

		groupBound := map[string]bool{}
		for _, b := range bindings {
			for _, n := range b.Pattern.Names() {
				groupBound[n] = true
			}
		}
		for i, b := range bindings {
			if !groupBound[name] {
				bindings[i].Value = subst(b.Value, name, replacement, repFree, r)
			}
		}
		if !groupBound[name] {
			body = subst(body, name, replacement, repFree, r)
		}
		return &LetRecExpr{Node: e.Node, Bindings: bindings, Body: body}
	case *Match:
		scrutinee := subst(e.Scrutinee, name, replacement, repFree, r)
		cases := make([]MatchCase, len(e.Cases))
		for i, c := range e.Cases {
			pat, renames := alphaRenameIfNeededOnPattern(c.Pattern, name, repFree, r)
			guard, body := c.Guard, c.Body
			for old, fresh := range renames {
				if guard != nil {
					guard = subst(guard, old, &Var{Name: fresh}, map[string]bool{fresh: true}, r)
				}
				body = subst(body, old, &Var{Name: fresh}, map[string]bool{fresh: true}, r)
			}
			if guard != nil && !patternBinds(pat, name) {
				guard = subst(guard, name, replacement, repFree, r)
			}
			if !patternBinds(pat, name) {
				body = subst(body, name, replacement, repFree, r)
			}
			cases[i] = MatchCase{Pattern: pat, Guard: guard, Body: body}
		}
		return &Match{Node: e.Node, Scrutinee: scrutinee, Cases: cases}
	case *Record:
		entries := make([]RecordEntry, len(e.Entries))
		for i, entry := range e.Entries {
			switch entry := entry.(type) {
			case RecordField:
				entries[i] = RecordField{Name: entry.Name, Value: subst(entry.Value, name, replacement, repFree, r)}
			case RecordSpread:
				entries[i] = RecordSpread{Value: subst(entry.Value, name, replacement, repFree, r)}
			}
		}
		return &Record{Node: e.Node, Entries: entries}
	case *RecordAccess:
		return &RecordAccess{Node: e.Node, Record: subst(e.Record, name, replacement, repFree, r), Field: e.Field}
	case *RecordUpdate:
		entries := make([]RecordEntry, len(e.Entries))
		for i, entry := range e.Entries {
			switch entry := entry.(type) {
			case RecordField:
				entries[i] = RecordField{Name: entry.Name, Value: subst(entry.Value, name, replacement, repFree, r)}
			case RecordSpread:
				entries[i] = RecordSpread{Value: subst(entry.Value, name, replacement, repFree, r)}
			}
		}
		return &RecordUpdate{Node: e.Node, Record: subst(e.Record, name, replacement, repFree, r), Entries: entries}
	case *Variant:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = subst(a, name, replacement, repFree, r)
		}
		return &Variant{Node: e.Node, Ctor: e.Ctor, Args: args}
	case *BinOp:
		return &BinOp{Node: e.Node, Op: e.Op, Left: subst(e.Left, name, replacement, repFree, r), Right: subst(e.Right, name, replacement, repFree, r)}
	case *UnaryOp:
		return &UnaryOp{Node: e.Node, Op: e.Op, Operand: subst(e.Operand, name, replacement, repFree, r)}
	case *TypeAnnotation:
		return &TypeAnnotation{Node: e.Node, Expr: subst(e.Expr, name, replacement, repFree, r), TypeText: e.TypeText}
	case *Unsafe:
		// Unsafe subtrees are never rewritten by the optimizer (I3), but
		// substitution of a genuinely free variable must still occur here;
		// only optimizer passes skip descending into Unsafe.
		return &Unsafe{Node: e.Node, Expr: subst(e.Expr, name, replacement, repFree, r)}
	default:
		return e
	}
}

func patternBinds(p Pattern, name string) bool {
	for _, n := range p.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// alphaRenameIfNeeded renames any name bound by pattern that is free in the
// substituted-in expression, before descending into body, returning the
// (possibly renamed) pattern and body.
func alphaRenameIfNeeded(pattern Pattern, body Expr, name string, repFree map[string]bool, r *Renamer) (Pattern, Expr) {
	return alphaRenamePatternInExpr(pattern, body, name, repFree, r)
}

func alphaRenameIfNeededOnPattern(pattern Pattern, name string, repFree map[string]bool, r *Renamer) (Pattern, map[string]string) {
	renames := map[string]string{}
	newPattern := renamePattern(pattern, repFree, r, renames)
	return newPattern, renames
}

func alphaRenamePatternInExpr(pattern Pattern, body Expr, name string, repFree map[string]bool, r *Renamer) (Pattern, Expr) {
	if body == nil {
		np, _ := alphaRenameIfNeededOnPattern(pattern, name, repFree, r)
		return np, nil
	}
	newPattern, renames := alphaRenameIfNeededOnPattern(pattern, name, repFree, r)
	if len(renames) == 0 {
		return newPattern, body
	}
	newBody := body
	for old, fresh := range renames {
		newBody = subst(newBody, old, &Var{Name: fresh}, map[string]bool{fresh: true}, r)
	}
	return newPattern, newBody
}

// renamePattern renames any binder in pattern that collides with repFree.
func renamePattern(p Pattern, repFree map[string]bool, r *Renamer, renames map[string]string) Pattern {
	switch p := p.(type) {
	case *VarPattern:
		if repFree[p.Name] {
			fresh := r.Fresh(p.Name)
			renames[p.Name] = fresh
			return &VarPattern{Name: fresh}
		}
		return p
	case *VariantPattern:
		args := make([]Pattern, len(p.Args))
		for i, a := range p.Args {
			args[i] = renamePattern(a, repFree, r, renames)
		}
		return &VariantPattern{Ctor: p.Ctor, Args: args}
	case *RecordPattern:
		fields := make([]RecordPatternField, len(p.Fields))
		for i, f := range p.Fields {
			fields[i] = RecordPatternField{Name: f.Name, Pattern: renamePattern(f.Pattern, repFree, r, renames)}
		}
		return &RecordPattern{Fields: fields}
	default:
		return p
	}
}

// StructEqual compares two Core expressions structurally, ignoring node
// IDs and source locations (used by the optimizer's O2 fixed-point check).
func StructEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch a := a.(type) {
	case *Var:
		b, ok := b.(*Var)
		return ok && a.Name == b.Name
	case *Lit:
		b, ok := b.(*Lit)
		return ok && a.Kind == b.Kind && fmt.Sprintf("%v", a.Value) == fmt.Sprintf("%v", b.Value)
	case *Lambda:
		b, ok := b.(*Lambda)
		return ok && patternEqual(a.Param, b.Param) && StructEqual(a.Body, b.Body)
	case *App:
		b, ok := b.(*App)
		if !ok || !StructEqual(a.Func, b.Func) || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !StructEqual(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *Let:
		b, ok := b.(*Let)
		return ok && patternEqual(a.Pattern, b.Pattern) && a.Mutable == b.Mutable &&
			a.Recursive == b.Recursive && StructEqual(a.Value, b.Value) && StructEqual(a.Body, b.Body)
	case *LetRecExpr:
		b, ok := b.(*LetRecExpr)
		if !ok || len(a.Bindings) != len(b.Bindings) {
			return false
		}
		for i := range a.Bindings {
			if !patternEqual(a.Bindings[i].Pattern, b.Bindings[i].Pattern) ||
				!StructEqual(a.Bindings[i].Value, b.Bindings[i].Value) {
				return false
			}
		}
		return StructEqual(a.Body, b.Body)
	case *Match:
		b, ok := b.(*Match)
		if !ok || !StructEqual(a.Scrutinee, b.Scrutinee) || len(a.Cases) != len(b.Cases) {
			return false
		}
		for i := range a.Cases {
			ac, bc := a.Cases[i], b.Cases[i]
			if !patternEqual(ac.Pattern, bc.Pattern) || !StructEqual(ac.Guard, bc.Guard) || !StructEqual(ac.Body, bc.Body) {
				return false
			}
		}
		return true
	case *Record:
		b, ok := b.(*Record)
		if !ok || len(a.Entries) != len(b.Entries) {
			return false
		}
		for i := range a.Entries {
			if !recordEntryEqual(a.Entries[i], b.Entries[i]) {
				return false
			}
		}
		return true
	case *RecordAccess:
		b, ok := b.(*RecordAccess)
		return ok && a.Field == b.Field && StructEqual(a.Record, b.Record)
	case *RecordUpdate:
		b, ok := b.(*RecordUpdate)
		if !ok || !StructEqual(a.Record, b.Record) || len(a.Entries) != len(b.Entries) {
			return false
		}
		for i := range a.Entries {
			if !recordEntryEqual(a.Entries[i], b.Entries[i]) {
				return false
			}
		}
		return true
	case *Variant:
		b, ok := b.(*Variant)
		if !ok || a.Ctor != b.Ctor || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !StructEqual(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *BinOp:
		b, ok := b.(*BinOp)
		return ok && a.Op == b.Op && StructEqual(a.Left, b.Left) && StructEqual(a.Right, b.Right)
	case *UnaryOp:
		b, ok := b.(*UnaryOp)
		return ok && a.Op == b.Op && StructEqual(a.Operand, b.Operand)
	case *TypeAnnotation:
		b, ok := b.(*TypeAnnotation)
		return ok && a.TypeText == b.TypeText && StructEqual(a.Expr, b.Expr)
	case *Unsafe:
		b, ok := b.(*Unsafe)
		return ok && StructEqual(a.Expr, b.Expr)
	default:
		return false
	}
}

func recordEntryEqual(a, b RecordEntry) bool {
	switch a := a.(type) {
	case RecordField:
		b, ok := b.(RecordField)
		return ok && a.Name == b.Name && StructEqual(a.Value, b.Value)
	case RecordSpread:
		b, ok := b.(RecordSpread)
		return ok && StructEqual(a.Value, b.Value)
	default:
		return false
	}
}

func patternEqual(a, b Pattern) bool {
	switch a := a.(type) {
	case *WildcardPattern:
		_, ok := b.(*WildcardPattern)
		return ok
	case *VarPattern:
		b, ok := b.(*VarPattern)
		return ok && a.Name == b.Name
	case *LitPattern:
		b, ok := b.(*LitPattern)
		return ok && a.Kind == b.Kind && fmt.Sprintf("%v", a.Value) == fmt.Sprintf("%v", b.Value)
	case *VariantPattern:
		b, ok := b.(*VariantPattern)
		if !ok || a.Ctor != b.Ctor || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !patternEqual(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *RecordPattern:
		b, ok := b.(*RecordPattern)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !patternEqual(a.Fields[i].Pattern, b.Fields[i].Pattern) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Size counts the AST nodes in e; used by the optimizer's inlining
// heuristics (spec.md §4.7, K=20 / size<=5 thresholds).
func Size(e Expr) int {
	if e == nil {
		return 0
	}
	switch e := e.(type) {
	case *Var, *Lit:
		return 1
	case *Lambda:
		return 1 + Size(e.Body)
	case *App:
		n := 1 + Size(e.Func)
		for _, a := range e.Args {
			n += Size(a)
		}
		return n
	case *Let:
		return 1 + Size(e.Value) + Size(e.Body)
	case *LetRecExpr:
		n := 1
		for _, b := range e.Bindings {
			n += Size(b.Value)
		}
		return n + Size(e.Body)
	case *Match:
		n := 1 + Size(e.Scrutinee)
		for _, c := range e.Cases {
			n += Size(c.Guard) + Size(c.Body)
		}
		return n
	case *Record:
		n := 1
		for _, entry := range e.Entries {
			switch entry := entry.(type) {
			case RecordField:
				n += Size(entry.Value)
			case RecordSpread:
				n += Size(entry.Value)
			}
		}
		return n
	case *RecordAccess:
		return 1 + Size(e.Record)
	case *RecordUpdate:
		n := 1 + Size(e.Record)
		for _, entry := range e.Entries {
			switch entry := entry.(type) {
			case RecordField:
				n += Size(entry.Value)
			case RecordSpread:
				n += Size(entry.Value)
			}
		}
		return n
	case *Variant:
		n := 1
		for _, a := range e.Args {
			n += Size(a)
		}
		return n
	case *BinOp:
		return 1 + Size(e.Left) + Size(e.Right)
	case *UnaryOp:
		return 1 + Size(e.Operand)
	case *TypeAnnotation:
		return 1 + Size(e.Expr)
	case *Unsafe:
		return 1 + Size(e.Expr)
	default:
		return 1
	}
}

// ContainsMutable reports whether e transitively contains a mutable
// reference creation, read, or assignment: a Variant named "Ref", a
// UnaryOp Deref, or a BinOp Assign (spec.md O2). Passes consult this before
// duplicating a subtree.
func ContainsMutable(e Expr) bool {
	found := false
	var walk func(Expr)
	walk = func(e Expr) {
		if found || e == nil {
			return
		}
		switch e := e.(type) {
		case *Variant:
			if e.Ctor == "Ref" {
				found = true
				return
			}
			for _, a := range e.Args {
				walk(a)
			}
		case *UnaryOp:
			// OpNot also carries the surface `!` ambiguity (logical-not vs.
			// deref, resolved only once the operand's type is known): until
			// resolved, treat it as potentially a deref so passes never
			// duplicate it.
			if e.Op == OpDeref || e.Op == OpNot {
				found = true
				return
			}
			walk(e.Operand)
		case *BinOp:
			if e.Op == OpAssignOp {
				found = true
				return
			}
			walk(e.Left)
			walk(e.Right)
		case *Lambda:
			walk(e.Body)
		case *App:
			walk(e.Func)
			for _, a := range e.Args {
				walk(a)
			}
		case *Let:
			walk(e.Value)
			walk(e.Body)
		case *LetRecExpr:
			for _, b := range e.Bindings {
				walk(b.Value)
			}
			walk(e.Body)
		case *Match:
			walk(e.Scrutinee)
			for _, c := range e.Cases {
				walk(c.Guard)
				walk(c.Body)
			}
		case *Record:
			for _, entry := range e.Entries {
				switch entry := entry.(type) {
				case RecordField:
					walk(entry.Value)
				case RecordSpread:
					walk(entry.Value)
				}
			}
		case *RecordAccess:
			walk(e.Record)
		case *RecordUpdate:
			walk(e.Record)
			for _, entry := range e.Entries {
				switch entry := entry.(type) {
				case RecordField:
					walk(entry.Value)
				case RecordSpread:
					walk(entry.Value)
				}
			}
		case *TypeAnnotation:
			walk(e.Expr)
		case *Unsafe:
			walk(e.Expr)
		}
	}
	walk(e)
	return found
}

// ContainsUnsafe reports whether e contains an Unsafe node anywhere,
// including nested inside it (used by passes that must never inline a
// value wrapping unsafe code, spec.md §4.7 Inline expansion).
func ContainsUnsafe(e Expr) bool {
	found := false
	var walk func(Expr)
	walk = func(e Expr) {
		if found || e == nil {
			return
		}
		if _, ok := e.(*Unsafe); ok {
			found = true
			return
		}
		switch e := e.(type) {
		case *Lambda:
			walk(e.Body)
		case *App:
			walk(e.Func)
			for _, a := range e.Args {
				walk(a)
			}
		case *Let:
			walk(e.Value)
			walk(e.Body)
		case *LetRecExpr:
			for _, b := range e.Bindings {
				walk(b.Value)
			}
			walk(e.Body)
		case *Match:
			walk(e.Scrutinee)
			for _, c := range e.Cases {
				walk(c.Guard)
				walk(c.Body)
			}
		case *Record:
			for _, entry := range e.Entries {
				switch entry := entry.(type) {
				case RecordField:
					walk(entry.Value)
				case RecordSpread:
					walk(entry.Value)
				}
			}
		case *RecordAccess:
			walk(e.Record)
		case *RecordUpdate:
			walk(e.Record)
			for _, entry := range e.Entries {
				switch entry := entry.(type) {
				case RecordField:
					walk(entry.Value)
				case RecordSpread:
					walk(entry.Value)
				}
			}
		case *Variant:
			for _, a := range e.Args {
				walk(a)
			}
		case *BinOp:
			walk(e.Left)
			walk(e.Right)
		case *UnaryOp:
			walk(e.Operand)
		case *TypeAnnotation:
			walk(e.Expr)
		}
	}
	walk(e)
	return found
}

// IsSyntacticValue reports whether e qualifies for generalization under the
// value restriction (spec.md §4.3): Var, literal, Lambda, Variant applied
// to syntactic values, or a Record of syntactic values. A Ref variant
// allocates a mutable cell and is never a syntactic value.
func IsSyntacticValue(e Expr) bool {
	switch e := e.(type) {
	case *Var, *Lit, *Lambda:
		return true
	case *Variant:
		if e.Ctor == "Ref" {
			return false
		}
		for _, a := range e.Args {
			if !IsSyntacticValue(a) {
				return false
			}
		}
		return true
	case *Record:
		for _, entry := range e.Entries {
			f, ok := entry.(RecordField)
			if !ok || !IsSyntacticValue(f.Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
