package optimize

import (
	"fmt"
	"sort"

	"github.com/mbcrawfo/vibefun-sub010/internal/core"
)

// betaPass reduces (\x -> body) arg to body[x := arg] when the lambda's
// parameter is a simple variable (non-var patterns need a Match, which is
// outside beta's scope). To avoid blowing up tree size it only substitutes
// an arg used more than once in body when the arg itself is small. It never
// fires when arg contains Unsafe or a mutable reference: substituting would
// duplicate the effect (if body uses x more than once) or drop it entirely
// (if body doesn't use x at all).
type betaPass struct{}

func (betaPass) Name() string { return "beta-reduction" }

func (betaPass) Apply(n core.Expr, ren *core.Renamer) (core.Expr, bool) {
	app, ok := n.(*core.App)
	if !ok || len(app.Args) != 1 {
		return n, false
	}
	lam, ok := app.Func.(*core.Lambda)
	if !ok {
		return n, false
	}
	vp, ok := lam.Param.(*core.VarPattern)
	if !ok {
		return n, false
	}
	arg := app.Args[0]
	if core.ContainsUnsafe(arg) || core.ContainsMutable(arg) {
		return n, false
	}
	if countFree(vp.Name, lam.Body) > 1 && core.Size(arg) > inlineSizeCapSingleUse {
		return n, false
	}
	return core.Subst(lam.Body, vp.Name, arg, ren), true
}

// etaPass rewrites \x -> f x to f when x is not free in f. f must itself be
// a syntactic value so the rewrite cannot change when f is evaluated.
type etaPass struct{}

func (etaPass) Name() string { return "eta-reduction" }

func (etaPass) Apply(n core.Expr, ren *core.Renamer) (core.Expr, bool) {
	lam, ok := n.(*core.Lambda)
	if !ok {
		return n, false
	}
	vp, ok := lam.Param.(*core.VarPattern)
	if !ok {
		return n, false
	}
	app, ok := lam.Body.(*core.App)
	if !ok || len(app.Args) != 1 {
		return n, false
	}
	argVar, ok := app.Args[0].(*core.Var)
	if !ok || argVar.Name != vp.Name {
		return n, false
	}
	if core.FreeVars(app.Func)[vp.Name] {
		return n, false
	}
	if !core.IsSyntacticValue(app.Func) {
		return n, false
	}
	return app.Func, true
}

// inlineSizeCapSingleUse bounds how large a single-use let-bound value may
// be before inline expansion substitutes it directly. inlineSizeCapMultiUse
// is the tighter cap applied at O2 when the name is used more than once.
const (
	inlineSizeCapSingleUse = 20
	inlineSizeCapMultiUse  = 5
)

// inlinePass substitutes a non-mutable, non-recursive let binding's value
// directly into its body, retiring the Let node, when the value is trivial,
// used at most once and small, or (at O2 only) used more than once but very
// small. It never touches a binding whose value contains Unsafe or a
// mutable reference: duplicating or dropping those would change behavior.
type inlinePass struct{ level Level }

func (inlinePass) Name() string { return "inline-expansion" }

func (p inlinePass) Apply(n core.Expr, ren *core.Renamer) (core.Expr, bool) {
	let, ok := n.(*core.Let)
	if !ok || let.Mutable || let.Recursive || let.Body == nil {
		return n, false
	}
	vp, ok := let.Pattern.(*core.VarPattern)
	if !ok {
		return n, false
	}
	if core.ContainsUnsafe(let.Value) || core.ContainsMutable(let.Value) {
		return n, false
	}
	uses := countFree(vp.Name, let.Body)
	if uses == 0 {
		// unused and pure: safe to drop outright (dead-code elimination
		// will also catch this, but doing it here lets a later inline
		// candidate see the smaller body sooner within the same sweep).
		return let.Body, true
	}
	size := core.Size(let.Value)
	switch {
	case isTrivialValue(let.Value):
		return core.Subst(let.Body, vp.Name, let.Value, ren), true
	case uses == 1 && size <= inlineSizeCapSingleUse:
		return core.Subst(let.Body, vp.Name, let.Value, ren), true
	case p.level == LevelO2 && uses > 1 && size <= inlineSizeCapMultiUse:
		return core.Subst(let.Body, vp.Name, let.Value, ren), true
	default:
		return n, false
	}
}

func isTrivialValue(e core.Expr) bool {
	switch e.(type) {
	case *core.Var, *core.Lit:
		return true
	default:
		return false
	}
}

// countFree counts the free occurrences of name in e (distinct from
// core.FreeVars, which only reports set membership).
func countFree(name string, e core.Expr) int {
	n := 0
	var walk func(core.Expr, map[string]bool)
	walk = func(e core.Expr, shadowed map[string]bool) {
		if e == nil {
			return
		}
		switch e := e.(type) {
		case *core.Var:
			if e.Name == name && !shadowed[name] {
				n++
			}
		case *core.Lit:
		case *core.Lambda:
			walk(e.Body, shadowedWith(shadowed, e.Param.Names()))
		case *core.App:
			walk(e.Func, shadowed)
			for _, a := range e.Args {
				walk(a, shadowed)
			}
		case *core.Let:
			walk(e.Value, shadowed)
			walk(e.Body, shadowedWith(shadowed, e.Pattern.Names()))
		case *core.LetRecExpr:
			var bound []string
			for _, b := range e.Bindings {
				bound = append(bound, b.Pattern.Names()...)
			}
			inner := shadowedWith(shadowed, bound)
			for _, b := range e.Bindings {
				walk(b.Value, inner)
			}
			walk(e.Body, inner)
		case *core.Match:
			walk(e.Scrutinee, shadowed)
			for _, c := range e.Cases {
				inner := shadowedWith(shadowed, c.Pattern.Names())
				walk(c.Guard, inner)
				walk(c.Body, inner)
			}
		case *core.Record:
			for _, entry := range e.Entries {
				switch entry := entry.(type) {
				case core.RecordField:
					walk(entry.Value, shadowed)
				case core.RecordSpread:
					walk(entry.Value, shadowed)
				}
			}
		case *core.RecordAccess:
			walk(e.Record, shadowed)
		case *core.RecordUpdate:
			walk(e.Record, shadowed)
			for _, entry := range e.Entries {
				switch entry := entry.(type) {
				case core.RecordField:
					walk(entry.Value, shadowed)
				case core.RecordSpread:
					walk(entry.Value, shadowed)
				}
			}
		case *core.Variant:
			for _, a := range e.Args {
				walk(a, shadowed)
			}
		case *core.BinOp:
			walk(e.Left, shadowed)
			walk(e.Right, shadowed)
		case *core.UnaryOp:
			walk(e.Operand, shadowed)
		case *core.TypeAnnotation:
			walk(e.Expr, shadowed)
		case *core.Unsafe:
			walk(e.Expr, shadowed)
		}
	}
	walk(e, map[string]bool{})
	return n
}

func shadowedWith(base map[string]bool, names []string) map[string]bool {
	if len(names) == 0 {
		return base
	}
	next := make(map[string]bool, len(base)+len(names))
	for k, v := range base {
		next[k] = v
	}
	for _, n := range names {
		next[n] = true
	}
	return next
}

// deadCodePass drops let bindings whose name is never used in their body
// (when the value is pure), and prunes Match cases made unreachable by an
// earlier unconditional catch-all or by a literal scrutinee.
type deadCodePass struct{}

func (deadCodePass) Name() string { return "dead-code-elimination" }

func (deadCodePass) Apply(n core.Expr, ren *core.Renamer) (core.Expr, bool) {
	switch e := n.(type) {
	case *core.Let:
		if e.Mutable || e.Recursive || e.Body == nil {
			return n, false
		}
		vp, ok := e.Pattern.(*core.VarPattern)
		if !ok {
			return n, false
		}
		if countFree(vp.Name, e.Body) > 0 {
			return n, false
		}
		if core.ContainsMutable(e.Value) || core.ContainsUnsafe(e.Value) {
			// the binding's evaluation may still observably matter.
			return n, false
		}
		return e.Body, true
	case *core.Match:
		return deadCodeMatch(e)
	default:
		return n, false
	}
}

func deadCodeMatch(m *core.Match) (core.Expr, bool) {
	var pruned []core.MatchCase
	for _, c := range m.Cases {
		pruned = append(pruned, c)
		if c.Guard == nil && isCatchAll(c.Pattern) {
			break
		}
	}
	changed := len(pruned) != len(m.Cases)

	if lit, ok := m.Scrutinee.(*core.Lit); ok && !core.ContainsMutable(m.Scrutinee) {
		for _, c := range pruned {
			matches := isCatchAll(c.Pattern) || litPatternMatches(c.Pattern, lit)
			if !matches {
				// this case can never be selected for lit regardless of its
				// guard (the guard only runs once the pattern matches), so
				// it's safe to skip over.
				continue
			}
			if c.Guard != nil {
				// the guard's outcome isn't known statically: folding past
				// it could skip a side effect or pick the wrong case.
				break
			}
			return c.Body, true
		}
	}

	if !changed {
		return m, false
	}
	return &core.Match{Node: m.Node, Scrutinee: m.Scrutinee, Cases: pruned}, true
}

func isCatchAll(p core.Pattern) bool {
	switch p.(type) {
	case *core.WildcardPattern, *core.VarPattern:
		return true
	default:
		return false
	}
}

func litPatternMatches(p core.Pattern, lit *core.Lit) bool {
	lp, ok := p.(*core.LitPattern)
	if !ok {
		return false
	}
	return lp.Kind == lit.Kind && fmt.Sprintf("%v", lp.Value) == fmt.Sprintf("%v", lit.Value)
}

// reorderPass reorders Match cases by pattern kind (literals, then variants,
// then records, then variables/wildcards) to put cheaper tests first. It
// only fires when no case has a guard, since guards may have effects whose
// order must not change, and a stable sort never moves the trailing
// catch-all ahead of anything (variables rank last already).
type reorderPass struct{}

func (reorderPass) Name() string { return "pattern-match-optimization" }

func (reorderPass) Apply(n core.Expr, ren *core.Renamer) (core.Expr, bool) {
	m, ok := n.(*core.Match)
	if !ok || len(m.Cases) < 2 {
		return n, false
	}
	for _, c := range m.Cases {
		if c.Guard != nil {
			return n, false
		}
	}
	idx := make([]int, len(m.Cases))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return patternRank(m.Cases[idx[i]].Pattern) < patternRank(m.Cases[idx[j]].Pattern)
	})
	same := true
	for i, v := range idx {
		if v != i {
			same = false
			break
		}
	}
	if same {
		return n, false
	}
	cases := make([]core.MatchCase, len(idx))
	for i, v := range idx {
		cases[i] = m.Cases[v]
	}
	return &core.Match{Node: m.Node, Scrutinee: m.Scrutinee, Cases: cases}, true
}

func patternRank(p core.Pattern) int {
	switch p.(type) {
	case *core.LitPattern:
		return 0
	case *core.VariantPattern:
		return 1
	case *core.RecordPattern:
		return 2
	default: // *core.VarPattern, *core.WildcardPattern
		return 3
	}
}

// constFoldPass evaluates binary and unary operators over ground literal
// operands. Integer and float arithmetic use plain Go operator semantics
// with no extra wrap-around handling layered on top. && and || short-circuit
// on a literal left operand, discarding the right operand exactly as the
// language's own short-circuit evaluation would.
type constFoldPass struct{}

func (constFoldPass) Name() string { return "constant-folding" }

func (constFoldPass) Apply(n core.Expr, ren *core.Renamer) (core.Expr, bool) {
	switch e := n.(type) {
	case *core.BinOp:
		return foldBinOp(e)
	case *core.UnaryOp:
		return foldUnaryOp(e)
	default:
		return n, false
	}
}

func foldBinOp(b *core.BinOp) (core.Expr, bool) {
	if b.Op == core.OpAnd || b.Op == core.OpOr {
		if lb, ok := asBoolLit(b.Left); ok {
			if b.Op == core.OpAnd && !lb {
				return &core.Lit{Node: b.Node, Kind: core.BoolLit, Value: false}, true
			}
			if b.Op == core.OpOr && lb {
				return &core.Lit{Node: b.Node, Kind: core.BoolLit, Value: true}, true
			}
			return b.Right, true
		}
		return b, false
	}

	ll, lok := b.Left.(*core.Lit)
	rl, rok := b.Right.(*core.Lit)
	if !lok || !rok {
		return b, false
	}
	switch b.Op {
	case core.OpAdd, core.OpSub, core.OpMul, core.OpDiv, core.OpMod:
		return foldArith(b, ll, rl)
	case core.OpConcat:
		ls, lok := asStringLit(ll)
		rs, rok := asStringLit(rl)
		if lok && rok {
			return &core.Lit{Node: b.Node, Kind: core.StringLit, Value: ls + rs}, true
		}
	case core.OpLt, core.OpLe, core.OpGt, core.OpGe, core.OpEq, core.OpNe:
		return foldCompare(b, ll, rl)
	}
	return b, false
}

func foldArith(b *core.BinOp, ll, rl *core.Lit) (core.Expr, bool) {
	if lv, lok := asIntLit(ll); lok {
		if rv, rok := asIntLit(rl); rok {
			var result int64
			switch b.Op {
			case core.OpAdd:
				result = lv + rv
			case core.OpSub:
				result = lv - rv
			case core.OpMul:
				result = lv * rv
			case core.OpDiv:
				if rv == 0 {
					return b, false
				}
				result = lv / rv
			case core.OpMod:
				if rv == 0 {
					return b, false
				}
				result = lv % rv
			}
			return &core.Lit{Node: b.Node, Kind: core.IntLit, Value: result}, true
		}
	}
	if lv, lok := asFloatLit(ll); lok {
		if rv, rok := asFloatLit(rl); rok {
			var result float64
			switch b.Op {
			case core.OpAdd:
				result = lv + rv
			case core.OpSub:
				result = lv - rv
			case core.OpMul:
				result = lv * rv
			case core.OpDiv:
				if rv == 0 {
					return b, false
				}
				result = lv / rv
			default:
				return b, false
			}
			return &core.Lit{Node: b.Node, Kind: core.FloatLit, Value: result}, true
		}
	}
	return b, false
}

func foldCompare(b *core.BinOp, ll, rl *core.Lit) (core.Expr, bool) {
	if lv, lok := asIntLit(ll); lok {
		if rv, rok := asIntLit(rl); rok {
			return boolLitOf(b.Node, compareOrdered(b.Op, cmpInt(lv, rv))), true
		}
	}
	if lv, lok := asFloatLit(ll); lok {
		if rv, rok := asFloatLit(rl); rok {
			return boolLitOf(b.Node, compareOrdered(b.Op, cmpFloat(lv, rv))), true
		}
	}
	if lv, lok := asStringLit(ll); lok {
		if rv, rok := asStringLit(rl); rok {
			if b.Op == core.OpEq {
				return boolLitOf(b.Node, lv == rv), true
			}
			if b.Op == core.OpNe {
				return boolLitOf(b.Node, lv != rv), true
			}
		}
	}
	if lv, lok := asBoolLit(ll); lok {
		if rv, rok := asBoolLit(rl); rok {
			if b.Op == core.OpEq {
				return boolLitOf(b.Node, lv == rv), true
			}
			if b.Op == core.OpNe {
				return boolLitOf(b.Node, lv != rv), true
			}
		}
	}
	return b, false
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareOrdered(op core.BinOpKind, cmp int) bool {
	switch op {
	case core.OpLt:
		return cmp < 0
	case core.OpLe:
		return cmp <= 0
	case core.OpGt:
		return cmp > 0
	case core.OpGe:
		return cmp >= 0
	case core.OpEq:
		return cmp == 0
	case core.OpNe:
		return cmp != 0
	default:
		return false
	}
}

func foldUnaryOp(u *core.UnaryOp) (core.Expr, bool) {
	lit, ok := u.Operand.(*core.Lit)
	if !ok {
		return u, false
	}
	switch u.Op {
	case core.OpNeg:
		if lv, lok := asIntLit(lit); lok {
			return &core.Lit{Node: u.Node, Kind: core.IntLit, Value: -lv}, true
		}
		if lv, lok := asFloatLit(lit); lok {
			return &core.Lit{Node: u.Node, Kind: core.FloatLit, Value: -lv}, true
		}
	case core.OpNot:
		if lv, lok := asBoolLit(lit); lok {
			return &core.Lit{Node: u.Node, Kind: core.BoolLit, Value: !lv}, true
		}
	}
	return u, false
}

func boolLitOf(node core.Node, v bool) core.Expr {
	return &core.Lit{Node: node, Kind: core.BoolLit, Value: v}
}

func asIntLit(l *core.Lit) (int64, bool) {
	if l.Kind != core.IntLit {
		return 0, false
	}
	switch v := l.Value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func asFloatLit(l *core.Lit) (float64, bool) {
	if l.Kind != core.FloatLit {
		return 0, false
	}
	switch v := l.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

func asStringLit(l *core.Lit) (string, bool) {
	if l.Kind != core.StringLit {
		return "", false
	}
	v, ok := l.Value.(string)
	return v, ok
}

func asBoolLit(e core.Expr) (bool, bool) {
	lit, ok := e.(*core.Lit)
	if !ok || lit.Kind != core.BoolLit {
		return false, false
	}
	v, ok := lit.Value.(bool)
	return v, ok
}

// csePass is a reserved no-op: spec.md §4.7 lists common-subexpression
// elimination among the seven passes but leaves it unspecified pending a
// cost model for when duplicated pure computations are worth naming. It
// participates in the registered pass list (so Metrics.Iterations accounts
// for it) but never reports a change.
type csePass struct{}

func (csePass) Name() string { return "common-subexpression-elimination" }

func (csePass) Apply(n core.Expr, ren *core.Renamer) (core.Expr, bool) {
	return n, false
}
