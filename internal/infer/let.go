package infer

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// inferLet implements spec.md §4.3's Let rule: enter level+1; if
// recursive, pre-bind the name with a fresh var; infer the value; exit
// level; generalize only when the pattern is a simple non-mutable
// VarPattern bound to a syntactic value; bind; infer the body.
func (c *Checker) inferLet(env *types.Env, e *core.Let) (types.Type, error) {
	resolved, bindings, err := c.inferLetCore(env, e)
	if err != nil {
		return nil, err
	}
	if e.Body == nil {
		// Top-level declaration: type is the (possibly generalized) value
		// type; callers that need the bindings call inferLetBindings instead.
		return resolved, nil
	}
	bodyEnv := env.WithValues(bindings)
	return c.Infer(bodyEnv, e.Body)
}

// inferLetBindings exposes the bindings a top-level Let introduces, for the
// module driver to thread across declarations (spec.md §4.2/§4.3 "Top-level
// declaration threading").
func (c *Checker) inferLetBindings(env *types.Env, e *core.Let) (map[string]types.Binding, error) {
	_, bindings, err := c.inferLetCore(env, e)
	return bindings, err
}

func (c *Checker) inferLetCore(env *types.Env, e *core.Let) (types.Type, map[string]types.Binding, error) {
	inner := env.Child(1)

	var preBoundName string
	var preBoundVar *types.TypeVar
	if e.Recursive {
		vp, ok := e.Pattern.(*core.VarPattern)
		if !ok {
			return nil, nil, fmt.Errorf("infer: recursive let pattern must be a VarPattern")
		}
		preBoundName = vp.Name
		preBoundVar = c.Ctx.Fresh(inner.Level)
		inner = inner.WithValue(preBoundName, &types.ValueBinding{Scheme: types.MonoScheme(preBoundVar)})
	}

	valueT, err := c.Infer(inner, e.Value)
	if err != nil {
		return nil, nil, err
	}
	if e.Recursive {
		sub, err := types.Unify(c.Ctx.Sub, preBoundVar, valueT, "recursive binding")
		if err != nil {
			return nil, nil, c.wrap(e, "recursive binding", err)
		}
		c.Ctx.Sub = sub
		valueT = types.Apply(c.Ctx.Sub, preBoundVar)
	}

	resolved := types.Apply(c.Ctx.Sub, valueT)

	var scheme *types.Scheme
	vp, isVarPattern := e.Pattern.(*core.VarPattern)
	canGeneralize := isVarPattern && !e.Mutable
	isValue := core.IsSyntacticValue(e.Value)
	if canGeneralize {
		scheme = types.Generalize(env, env.Level, resolved, isValue)
	} else {
		scheme = types.MonoScheme(resolved)
	}

	var bindings map[string]types.Binding
	if isVarPattern {
		bindings = map[string]types.Binding{vp.Name: &types.ValueBinding{Scheme: scheme}}
	} else {
		if e.Mutable {
			return nil, nil, &diag.Report{Code: diag.MutableBindingMustUseSimplePattern, Phase: "desugar",
				Message: "mutable let bindings must use a simple variable pattern"}
		}
		bs, err := c.checkPattern(env, e.Pattern, resolved)
		if err != nil {
			return nil, nil, err
		}
		bindings = bs
	}

	return resolved, bindings, nil
}

// inferLetRec implements spec.md §4.3's LetRecExpr rule: pre-bind every
// name in the group, infer every RHS, unify each pre-bound var with its
// inferred type, then generalize each syntactic-value binding.
func (c *Checker) inferLetRec(env *types.Env, e *core.LetRecExpr) (types.Type, error) {
	bindings, resolvedTypes, err := c.inferLetRecCore(env, e)
	if err != nil {
		return nil, err
	}
	bodyEnv := env.WithValues(bindings)
	if e.Body == nil {
		if len(e.Bindings) == 0 {
			return types.TUnit, nil
		}
		firstName := e.Bindings[0].Pattern.(*core.VarPattern).Name
		return resolvedTypes[firstName], nil
	}
	return c.Infer(bodyEnv, e.Body)
}

// inferLetRecBindings exposes the bindings a top-level `let rec ... and
// ...` group introduces, for the module driver.
func (c *Checker) inferLetRecBindings(env *types.Env, e *core.LetRecExpr) (map[string]types.Binding, error) {
	bindings, _, err := c.inferLetRecCore(env, e)
	return bindings, err
}

func (c *Checker) inferLetRecCore(env *types.Env, e *core.LetRecExpr) (map[string]types.Binding, map[string]types.Type, error) {
	inner := env.Child(1)
	preBound := map[string]*types.TypeVar{}
	for _, b := range e.Bindings {
		vp, ok := b.Pattern.(*core.VarPattern)
		if !ok {
			return nil, nil, fmt.Errorf("infer: let rec binding pattern must be a VarPattern")
		}
		fv := c.Ctx.Fresh(inner.Level)
		preBound[vp.Name] = fv
		inner = inner.WithValue(vp.Name, &types.ValueBinding{Scheme: types.MonoScheme(fv)})
	}

	resolvedTypes := map[string]types.Type{}
	isValue := map[string]bool{}
	for _, b := range e.Bindings {
		vp := b.Pattern.(*core.VarPattern)
		vt, err := c.Infer(inner, b.Value)
		if err != nil {
			return nil, nil, err
		}
		sub, err := types.Unify(c.Ctx.Sub, preBound[vp.Name], vt, "recursive binding")
		if err != nil {
			return nil, nil, c.wrap(e, "recursive binding", err)
		}
		c.Ctx.Sub = sub
		resolvedTypes[vp.Name] = types.Apply(c.Ctx.Sub, preBound[vp.Name])
		isValue[vp.Name] = core.IsSyntacticValue(b.Value)
	}

	bindings := map[string]types.Binding{}
	for name, t := range resolvedTypes {
		scheme := types.Generalize(env, env.Level, t, isValue[name])
		bindings[name] = &types.ValueBinding{Scheme: scheme}
	}
	return bindings, resolvedTypes, nil
}
