// Package optimize implements the pass-based fixed-point rewriter over
// Core (spec.md §4.7): a small framework that applies a sequence of passes
// to a Core expression, plus the seven passes themselves.
//
// Modeled after the dynamic-dispatch shape spec.md §9 calls for — "a
// function Core -> Core plus a canApply predicate and a name" — and on the
// registration-order driver idiom used by the static-analysis-pass style
// of other_examples/google-go-flow-levee (an analysis.Analyzer is a named,
// independently re-runnable unit of tree rewriting).
package optimize

import "github.com/mbcrawfo/vibefun-sub010/internal/core"

// rebuild performs one full post-order traversal of e, applying rewrite to
// every node after its children have already been rebuilt. It never
// descends into an Unsafe subtree (spec.md O1): that subtree is returned
// byte-for-byte identical to the input.
//
// changed reports whether rewrite (or a nested rebuild) produced a
// different tree anywhere.
func rebuild(e core.Expr, rewrite func(core.Expr) (core.Expr, bool)) (core.Expr, bool) {
	if e == nil {
		return nil, false
	}
	rebuilt, childChanged := rebuildChildren(e, rewrite)
	result, selfChanged := rewrite(rebuilt)
	return result, childChanged || selfChanged
}

func rebuildChildren(e core.Expr, rewrite func(core.Expr) (core.Expr, bool)) (core.Expr, bool) {
	switch e := e.(type) {
	case *core.Lit, *core.Var:
		return e, false

	case *core.Lambda:
		body, changed := rebuild(e.Body, rewrite)
		if !changed {
			return e, false
		}
		return &core.Lambda{Node: e.Node, Param: e.Param, Body: body}, true

	case *core.App:
		fn, fc := rebuild(e.Func, rewrite)
		args := make([]core.Expr, len(e.Args))
		changed := fc
		for i, a := range e.Args {
			na, ac := rebuild(a, rewrite)
			args[i] = na
			changed = changed || ac
		}
		if !changed {
			return e, false
		}
		return &core.App{Node: e.Node, Func: fn, Args: args}, true

	case *core.Let:
		value, vc := rebuild(e.Value, rewrite)
		body, bc := rebuild(e.Body, rewrite)
		if !vc && !bc {
			return e, false
		}
		return &core.Let{Node: e.Node, Pattern: e.Pattern, Value: value, Body: body, Mutable: e.Mutable, Recursive: e.Recursive}, true

	case *core.LetRecExpr:
		bindings := make([]core.RecBinding, len(e.Bindings))
		changed := false
		for i, b := range e.Bindings {
			nv, c := rebuild(b.Value, rewrite)
			bindings[i] = core.RecBinding{Pattern: b.Pattern, Value: nv, Mutable: b.Mutable}
			changed = changed || c
		}
		body, bc := rebuild(e.Body, rewrite)
		changed = changed || bc
		if !changed {
			return e, false
		}
		return &core.LetRecExpr{Node: e.Node, Bindings: bindings, Body: body}, true

	case *core.Match:
		scrutinee, sc := rebuild(e.Scrutinee, rewrite)
		cases := make([]core.MatchCase, len(e.Cases))
		changed := sc
		for i, c := range e.Cases {
			var guard core.Expr
			gc := false
			if c.Guard != nil {
				guard, gc = rebuild(c.Guard, rewrite)
			}
			body, bc := rebuild(c.Body, rewrite)
			cases[i] = core.MatchCase{Pattern: c.Pattern, Guard: guard, Body: body}
			changed = changed || gc || bc
		}
		if !changed {
			return e, false
		}
		return &core.Match{Node: e.Node, Scrutinee: scrutinee, Cases: cases}, true

	case *core.Record:
		entries := make([]core.RecordEntry, len(e.Entries))
		changed := false
		for i, entry := range e.Entries {
			switch entry := entry.(type) {
			case core.RecordField:
				nv, c := rebuild(entry.Value, rewrite)
				entries[i] = core.RecordField{Name: entry.Name, Value: nv}
				changed = changed || c
			case core.RecordSpread:
				nv, c := rebuild(entry.Value, rewrite)
				entries[i] = core.RecordSpread{Value: nv}
				changed = changed || c
			}
		}
		if !changed {
			return e, false
		}
		return &core.Record{Node: e.Node, Entries: entries}, true

	case *core.RecordAccess:
		rec, c := rebuild(e.Record, rewrite)
		if !c {
			return e, false
		}
		return &core.RecordAccess{Node: e.Node, Record: rec, Field: e.Field}, true

	case *core.RecordUpdate:
		rec, rc := rebuild(e.Record, rewrite)
		entries := make([]core.RecordEntry, len(e.Entries))
		changed := rc
		for i, entry := range e.Entries {
			switch entry := entry.(type) {
			case core.RecordField:
				nv, c := rebuild(entry.Value, rewrite)
				entries[i] = core.RecordField{Name: entry.Name, Value: nv}
				changed = changed || c
			case core.RecordSpread:
				nv, c := rebuild(entry.Value, rewrite)
				entries[i] = core.RecordSpread{Value: nv}
				changed = changed || c
			}
		}
		if !changed {
			return e, false
		}
		return &core.RecordUpdate{Node: e.Node, Record: rec, Entries: entries}, true

	case *core.Variant:
		args := make([]core.Expr, len(e.Args))
		changed := false
		for i, a := range e.Args {
			na, c := rebuild(a, rewrite)
			args[i] = na
			changed = changed || c
		}
		if !changed {
			return e, false
		}
		return &core.Variant{Node: e.Node, Ctor: e.Ctor, Args: args}, true

	case *core.BinOp:
		left, lc := rebuild(e.Left, rewrite)
		right, rc := rebuild(e.Right, rewrite)
		if !lc && !rc {
			return e, false
		}
		return &core.BinOp{Node: e.Node, Op: e.Op, Left: left, Right: right}, true

	case *core.UnaryOp:
		operand, c := rebuild(e.Operand, rewrite)
		if !c {
			return e, false
		}
		return &core.UnaryOp{Node: e.Node, Op: e.Op, Operand: operand}, true

	case *core.TypeAnnotation:
		inner, c := rebuild(e.Expr, rewrite)
		if !c {
			return e, false
		}
		return &core.TypeAnnotation{Node: e.Node, Expr: inner, TypeText: e.TypeText}, true

	case *core.Unsafe:
		// never descend (spec.md O1)
		return e, false

	default:
		return e, false
	}
}
