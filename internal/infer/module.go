package infer

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/ast"
	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// BuildEnv implements spec.md §4.2 "Environment Construction": declared
// types and external (FFI) overload groups are registered into env before
// any expression is checked, so forward references within one module
// resolve. Errors are collected rather than returned on first failure —
// later declarations are still registered where they don't conflict.
func BuildEnv(base *types.Env, mod *ast.Module) (*types.Env, []error) {
	env := base
	var errs []error

	for _, d := range mod.Decls {
		td, ok := d.(*ast.TypeDecl)
		if !ok {
			continue
		}
		if _, exists := env.LookupType(td.Name); exists {
			errs = append(errs, &diag.Report{Code: diag.DuplicateDeclaration, Phase: "typecheck",
				Message: fmt.Sprintf("type %q is already declared", td.Name), Span: spanFromAST(td.Position())})
			continue
		}

		params := map[string]bool{}
		for _, p := range td.Params {
			params[p] = true
		}

		var ti *types.TypeInfo
		if td.Alias != nil {
			ti = &types.TypeInfo{
				Kind: types.TypeInfoAlias, Name: td.Name, Params: td.Params,
				Alias: astTypeToType(td.Alias, params),
			}
		} else {
			var ctorErr error
			ctors := make([]types.CtorInfo, len(td.Constructors))
			for i, cd := range td.Constructors {
				if _, _, ok := env.LookupCtor(cd.Name); ok {
					errs = append(errs, &diag.Report{Code: diag.DuplicateDeclaration, Phase: "typecheck",
						Message: fmt.Sprintf("constructor %q is already declared", cd.Name), Span: spanFromAST(td.Position())})
					ctorErr = fmt.Errorf("duplicate constructor")
				}
				argTypes := make([]types.Type, len(cd.Args))
				for j, a := range cd.Args {
					argTypes[j] = astTypeToType(a, params)
				}
				ctors[i] = types.CtorInfo{Name: cd.Name, ArgTypes: argTypes}
			}
			if ctorErr != nil {
				continue
			}
			ti = &types.TypeInfo{Kind: types.TypeInfoVariant, Name: td.Name, Params: td.Params, Ctors: ctors}
		}
		env = env.WithType(ti)
	}

	env, externalErrs := buildExternals(env, mod)
	errs = append(errs, externalErrs...)

	return env, errs
}

type overloadGroup struct {
	jsName  string
	module  string
	byArity map[int]*types.Scheme
	set     bool
}

// buildExternals merges every `external` declaration sharing a name into
// one arity-indexed overload table (spec.md §4.6 "Overload merge
// invariants"): same JS name, same `from` module, every overload a
// function type, no two overloads of the same arity.
func buildExternals(env *types.Env, mod *ast.Module) (*types.Env, []error) {
	var errs []error
	groups := map[string]*overloadGroup{}
	order := []string{}

	addOverload := func(name string, fn *types.Function, jsName, module string, pos ast.Pos) {
		g, ok := groups[name]
		if !ok {
			g = &overloadGroup{byArity: map[int]*types.Scheme{}}
			groups[name] = g
			order = append(order, name)
		}
		if g.set && (g.jsName != jsName || g.module != module) {
			errs = append(errs, &diag.Report{Code: diag.FFIInconsistentOverload, Phase: "typecheck",
				Message: fmt.Sprintf("external %q overloads disagree on JS binding target", name), Span: spanFromAST(pos)})
			return
		}
		g.jsName, g.module, g.set = jsName, module, true
		arity := len(fn.Params)
		if _, dup := g.byArity[arity]; dup {
			errs = append(errs, &diag.Report{Code: diag.FFIInconsistentOverload, Phase: "typecheck",
				Message: fmt.Sprintf("external %q already has an overload of arity %d", name, arity), Span: spanFromAST(pos)})
			return
		}
		g.byArity[arity] = types.MonoScheme(fn)
	}

	for _, d := range mod.Decls {
		ed, ok := d.(*ast.ExternalDecl)
		if !ok {
			continue
		}
		if ed.Type != nil {
			t := astTypeToType(ed.Type, nil)
			fn, ok := t.(*types.Function)
			if !ok {
				errs = append(errs, &diag.Report{Code: diag.FFIOverloadNotAFunction, Phase: "typecheck",
					Message: fmt.Sprintf("external %q must declare a function type", ed.Name), Span: spanFromAST(ed.Position())})
				continue
			}
			addOverload(ed.Name, fn, ed.JSName, ed.Module, ed.Position())
		}
		for _, ov := range ed.Overloads {
			params := make([]types.Type, len(ov.Params))
			for i, p := range ov.Params {
				params[i] = astTypeToType(p, nil)
			}
			fn := &types.Function{Params: params, Result: astTypeToType(ov.Result, nil)}
			addOverload(ed.Name, fn, ed.JSName, ed.Module, ed.Position())
		}
	}

	for _, name := range order {
		g := groups[name]
		if len(g.byArity) == 0 {
			continue
		}
		minArity := -1
		for a := range g.byArity {
			if minArity == -1 || a < minArity {
				minArity = a
			}
		}
		env = env.WithValue(name, &types.ExternalBinding{
			Scheme: g.byArity[minArity], JSName: g.jsName, Module: g.module, Overloads: g.byArity,
		})
	}
	return env, errs
}

func astTypeToType(te ast.TypeExpr, params map[string]bool) types.Type {
	switch te := te.(type) {
	case *ast.TypeName:
		if len(te.Args) == 0 && params[te.Name] {
			return &types.TypeParamRef{Name: te.Name}
		}
		if len(te.Args) == 0 {
			return &types.TypeConst{Name: te.Name}
		}
		args := make([]types.Type, len(te.Args))
		for i, a := range te.Args {
			args[i] = astTypeToType(a, params)
		}
		return &types.TypeApp{Ctor: te.Name, Args: args}

	case *ast.FuncTypeExpr:
		ps := make([]types.Type, len(te.Params))
		for i, p := range te.Params {
			ps[i] = astTypeToType(p, params)
		}
		return &types.Function{Params: ps, Result: astTypeToType(te.Result, params)}

	case *ast.RecordTypeExpr:
		fields := make(map[string]types.Type, len(te.Fields))
		for n, f := range te.Fields {
			fields[n] = astTypeToType(f, params)
		}
		return &types.Record{Fields: fields}

	case *ast.UnionTypeExpr:
		members := make([]types.Type, len(te.Members))
		for i, m := range te.Members {
			members[i] = astTypeToType(m, params)
		}
		return &types.Union{Members: members}

	default:
		return types.TUnit
	}
}

func spanFromAST(p ast.Pos) *diag.Span {
	return &diag.Span{File: p.File, Line: p.Line, Column: p.Column}
}

// InferProgram runs inference over each top-level Core declaration in
// textual order, threading env so each declaration sees every previous
// declaration's (possibly generalized) bindings. A declaration that fails
// to check is reported once and its name(s) are bound to an unconstrained
// placeholder so later, independent declarations can still be checked
// (spec.md §4.3 "Failure semantics": "one declaration's failure does not
// block checking of unrelated declarations").
func (c *Checker) InferProgram(env *types.Env, prog *core.Program) (*types.Env, []error) {
	var errs []error
	for _, decl := range prog.Decls {
		bindings, err := c.inferTopLevelDecl(env, decl.Expr)
		if err != nil {
			errs = append(errs, err)
			placeholder := types.MonoScheme(c.Ctx.Fresh(env.Level))
			names := decl.Names
			if len(names) == 0 && decl.Name != "" {
				names = []string{decl.Name}
			}
			fallback := map[string]types.Binding{}
			for _, n := range names {
				fallback[n] = &types.ValueBinding{Scheme: placeholder}
			}
			env = env.WithValues(fallback)
			continue
		}
		env = env.WithValues(bindings)
	}
	return env, errs
}

func (c *Checker) inferTopLevelDecl(env *types.Env, e core.Expr) (map[string]types.Binding, error) {
	switch e := e.(type) {
	case *core.Let:
		return c.inferLetBindings(env, e)
	case *core.LetRecExpr:
		return c.inferLetRecBindings(env, e)
	default:
		return nil, fmt.Errorf("inferTopLevelDecl: unsupported top-level declaration shape %T", e)
	}
}
