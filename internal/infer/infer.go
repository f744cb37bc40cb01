// Package infer implements Algorithm W with levels over the Core AST:
// expression and pattern inference, generalization at let boundaries, and
// per-declaration error recovery (spec.md §4.2-§4.4).
package infer

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/ffi"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// Checker threads a single types.Ctx (fresh-var counter + substitution)
// across an entire module inference run.
type Checker struct {
	Ctx       *types.Ctx
	NodeTypes map[uint64]types.Type // node-id -> inferred type, never mutates Core nodes
	Warnings  []*diag.Report        // warnings never halt inference (spec.md §7)
}

func NewChecker() *Checker {
	return &Checker{Ctx: types.NewCtx(), NodeTypes: map[uint64]types.Type{}}
}

func (c *Checker) record(e core.Expr, t types.Type) types.Type {
	c.NodeTypes[e.ID()] = t
	return t
}

// Infer infers the type of e under env at the current env.Level (spec.md
// §4.3 "Expression rules").
func (c *Checker) Infer(env *types.Env, e core.Expr) (types.Type, error) {
	switch e := e.(type) {
	case *core.Lit:
		return c.record(e, litType(e.Kind)), nil

	case *core.Var:
		b, ok := env.LookupValue(e.Name)
		if !ok {
			return nil, c.undefinedVar(e, env)
		}
		if _, isExternal := b.(*types.ExternalBinding); isExternal {
			if eb := b.(*types.ExternalBinding); len(eb.Overloads) > 1 {
				return nil, &diag.Report{
					Code: diag.FFIOverloadNotSupported, Phase: "typecheck",
					Message: fmt.Sprintf("%q is overloaded and cannot be used as a first-class value", e.Name),
					Span:    spanOf(e),
				}
			}
		}
		t := c.Ctx.Instantiate(b.SchemeOf(), env.Level)
		return c.record(e, t), nil

	case *core.Lambda:
		paramT := c.Ctx.Fresh(env.Level)
		inner := env.Child(0)
		bindings, err := c.checkPattern(inner, e.Param, paramT)
		if err != nil {
			return nil, err
		}
		inner = inner.WithValues(bindings)
		resultT, err := c.Infer(inner, e.Body)
		if err != nil {
			return nil, err
		}
		return c.record(e, &types.Function{Params: []types.Type{paramT}, Result: resultT}), nil

	case *core.App:
		fnT, err := c.inferAppliedFunc(env, e)
		if err != nil {
			return nil, err
		}
		argTs := make([]types.Type, len(e.Args))
		for i, a := range e.Args {
			at, err := c.Infer(env, a)
			if err != nil {
				return nil, err
			}
			argTs[i] = at
		}
		resultT := c.Ctx.Fresh(env.Level)
		expected := &types.Function{Params: argTs, Result: resultT}
		sub, err := types.UnifyArg(c.Ctx.Sub, expected, fnT, "argument")
		if err != nil {
			sub2, err2 := types.Unify(c.Ctx.Sub, fnT, expected, "argument")
			if err2 != nil {
				return nil, c.wrap(e, "argument", err)
			}
			sub = sub2
		}
		c.Ctx.Sub = sub
		return c.record(e, types.Apply(c.Ctx.Sub, resultT)), nil

	case *core.Let:
		return c.inferLet(env, e)

	case *core.LetRecExpr:
		return c.inferLetRec(env, e)

	case *core.Match:
		return c.inferMatch(env, e)

	case *core.Record:
		fields := map[string]types.Type{}
		for _, entry := range e.Entries {
			switch entry := entry.(type) {
			case core.RecordField:
				ft, err := c.Infer(env, entry.Value)
				if err != nil {
					return nil, err
				}
				fields[entry.Name] = ft // last field wins (I4)
			case core.RecordSpread:
				st, err := c.Infer(env, entry.Value)
				if err != nil {
					return nil, err
				}
				rt := types.Apply(c.Ctx.Sub, st)
				rec, ok := rt.(*types.Record)
				if !ok {
					return nil, c.wrap(e, "record spread", &types.UnifyError{T1: rt, T2: &types.Record{}, Msg: "spread target is not a record"})
				}
				for n, ft := range rec.Fields {
					fields[n] = ft
				}
			}
		}
		return c.record(e, &types.Record{Fields: fields}), nil

	case *core.RecordAccess:
		rt, err := c.Infer(env, e.Record)
		if err != nil {
			return nil, err
		}
		fieldT := c.Ctx.Fresh(env.Level)
		expected := &types.Record{Fields: map[string]types.Type{e.Field: fieldT}}
		sub, err := types.UnifyArg(c.Ctx.Sub, rt, expected, "record field")
		if err != nil {
			return nil, c.wrap(e, "record field", err)
		}
		c.Ctx.Sub = sub
		return c.record(e, types.Apply(c.Ctx.Sub, fieldT)), nil

	case *core.RecordUpdate:
		rt, err := c.Infer(env, e.Record)
		if err != nil {
			return nil, err
		}
		base, ok := types.Apply(c.Ctx.Sub, rt).(*types.Record)
		if !ok {
			return nil, c.wrap(e, "record update", &types.UnifyError{T1: rt, Msg: "update target is not a record"})
		}
		fields := map[string]types.Type{}
		for n, t := range base.Fields {
			fields[n] = t
		}
		for _, entry := range e.Entries {
			switch entry := entry.(type) {
			case core.RecordField:
				ft, err := c.Infer(env, entry.Value)
				if err != nil {
					return nil, err
				}
				fields[entry.Name] = ft
			case core.RecordSpread:
				st, err := c.Infer(env, entry.Value)
				if err != nil {
					return nil, err
				}
				rec, ok := types.Apply(c.Ctx.Sub, st).(*types.Record)
				if !ok {
					return nil, c.wrap(e, "record update spread", &types.UnifyError{T1: st, Msg: "spread target is not a record"})
				}
				for n, ft := range rec.Fields {
					fields[n] = ft
				}
			}
		}
		return c.record(e, &types.Record{Fields: fields}), nil

	case *core.Variant:
		ti, ctor, ok := env.LookupCtor(e.Ctor)
		if !ok {
			return nil, &diag.Report{Code: diag.UndefinedConstructor, Phase: "typecheck",
				Message: fmt.Sprintf("undefined constructor %q", e.Ctor), Span: spanOf(e)}
		}
		paramSub := map[string]types.Type{}
		for _, p := range ti.Params {
			paramSub[p] = c.Ctx.Fresh(env.Level)
		}
		if len(e.Args) != len(ctor.ArgTypes) {
			return nil, &diag.Report{Code: diag.ArityMismatch, Phase: "typecheck",
				Message: fmt.Sprintf("constructor %q expects %d argument(s), got %d", e.Ctor, len(ctor.ArgTypes), len(e.Args)),
				Span:    spanOf(e)}
		}
		for i, argExpr := range e.Args {
			argT, err := c.Infer(env, argExpr)
			if err != nil {
				return nil, err
			}
			expected := types.SubstParamRefs(ctor.ArgTypes[i], paramSub)
			sub, err := types.Unify(c.Ctx.Sub, argT, expected, "variant argument")
			if err != nil {
				return nil, c.wrap(e, "variant argument", err)
			}
			c.Ctx.Sub = sub
		}
		var resultArgs []types.Type
		for _, p := range ti.Params {
			resultArgs = append(resultArgs, types.Apply(c.Ctx.Sub, paramSub[p]))
		}
		var result types.Type
		if len(resultArgs) == 0 {
			result = &types.TypeConst{Name: ti.Name}
		} else {
			result = &types.TypeApp{Ctor: ti.Name, Args: resultArgs}
		}
		return c.record(e, result), nil

	case *core.BinOp:
		return c.inferBinOp(env, e)

	case *core.UnaryOp:
		return c.inferUnaryOp(env, e)

	case *core.TypeAnnotation:
		t, err := c.Infer(env, e.Expr)
		if err != nil {
			return nil, err
		}
		return c.record(e, t), nil

	case *core.Unsafe:
		// Infer internally but do not propagate the specific type beyond
		// the boundary unless annotated (spec.md §4.3 Unsafe rule).
		if _, err := c.Infer(env, e.Expr); err != nil {
			return nil, err
		}
		return c.record(e, c.Ctx.Fresh(env.Level)), nil

	default:
		return nil, fmt.Errorf("infer: unhandled core expression %T", e)
	}
}

// inferAppliedFunc infers the callee of an App node, special-casing a
// direct reference to an overloaded external binding: resolution is by
// argument count (spec.md §4.6), bypassing the naked-Var rule that
// otherwise rejects an overloaded external used as a first-class value.
func (c *Checker) inferAppliedFunc(env *types.Env, app *core.App) (types.Type, error) {
	if v, ok := app.Func.(*core.Var); ok {
		if b, ok := env.LookupValue(v.Name); ok {
			if eb, ok := b.(*types.ExternalBinding); ok && len(eb.Overloads) > 1 {
				scheme, err := ffi.Resolve(eb, len(app.Args), v.Name)
				if err != nil {
					return nil, err
				}
				return c.record(v, c.Ctx.Instantiate(scheme, env.Level)), nil
			}
		}
	}
	return c.Infer(env, app.Func)
}

func litType(k core.LitKind) types.Type {
	switch k {
	case core.IntLit:
		return types.TInt
	case core.FloatLit:
		return types.TFloat
	case core.StringLit:
		return types.TString
	case core.BoolLit:
		return types.TBool
	case core.UnitLit:
		return types.TUnit
	default:
		return types.TUnit
	}
}

func (c *Checker) wrap(e core.Expr, role string, err error) error {
	if ue, ok := err.(*types.UnifyError); ok {
		return &diag.Report{
			Code:    diag.TypeMismatch,
			Phase:   "typecheck",
			Message: fmt.Sprintf("cannot unify %s with %s in %s position", types.Apply(c.Ctx.Sub, ue.T1), safeStr(ue.T2, c.Ctx.Sub), role),
			Span:    spanOf(e),
			Data:    map[string]any{"role": role},
		}
	}
	return err
}

func safeStr(t types.Type, sub types.Substitution) string {
	if t == nil {
		return "?"
	}
	return types.Apply(sub, t).String()
}

func (c *Checker) undefinedVar(v *core.Var, env *types.Env) error {
	return &diag.Report{
		Code:    diag.UndefinedVariable,
		Phase:   "typecheck",
		Message: fmt.Sprintf("undefined variable %q", v.Name),
		Span:    spanOf(v),
		Hint:    diag.Suggest(v.Name, env.Names()),
	}
}

func spanOf(e core.Expr) *diagSpan {
	s := e.OriginalSpan()
	return &diagSpan{File: s.File, Line: s.Line, Column: s.Column}
}

type diagSpan = diag.Span
