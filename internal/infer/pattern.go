package infer

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// checkPattern checks pat against expected, returning the bindings it
// introduces (spec.md §4.4). Linearity (I5) is enforced by the caller
// collecting names via pat.Names() before calling this, or here directly
// for single-pattern checks.
func (c *Checker) checkPattern(env *types.Env, pat core.Pattern, expected types.Type) (map[string]types.Binding, error) {
	if err := checkLinear(pat); err != nil {
		return nil, err
	}
	return c.checkPatternInner(env, pat, expected)
}

func checkLinear(pat core.Pattern) error {
	seen := map[string]bool{}
	for _, n := range pat.Names() {
		if seen[n] {
			return &diag.Report{Code: diag.DuplicatePatternBinding, Phase: "typecheck",
				Message: fmt.Sprintf("name %q is bound more than once in this pattern", n)}
		}
		seen[n] = true
	}
	return nil
}

func (c *Checker) checkPatternInner(env *types.Env, pat core.Pattern, expected types.Type) (map[string]types.Binding, error) {
	switch pat := pat.(type) {
	case *core.WildcardPattern:
		return map[string]types.Binding{}, nil

	case *core.VarPattern:
		return map[string]types.Binding{
			pat.Name: &types.ValueBinding{Scheme: types.MonoScheme(expected)},
		}, nil

	case *core.LitPattern:
		lt := litType(pat.Kind)
		sub, err := types.Unify(c.Ctx.Sub, expected, lt, "pattern literal")
		if err != nil {
			return nil, wrapUnify(err, "pattern literal")
		}
		c.Ctx.Sub = sub
		return map[string]types.Binding{}, nil

	case *core.VariantPattern:
		ti, ctor, ok := env.LookupCtor(pat.Ctor)
		if !ok {
			return nil, &diag.Report{Code: diag.UndefinedConstructor, Phase: "typecheck",
				Message: fmt.Sprintf("undefined constructor %q", pat.Ctor)}
		}
		paramSub := map[string]types.Type{}
		for _, p := range ti.Params {
			paramSub[p] = c.Ctx.Fresh(env.Level)
		}
		var scrutineeType types.Type
		if len(ti.Params) == 0 {
			scrutineeType = &types.TypeConst{Name: ti.Name}
		} else {
			var args []types.Type
			for _, p := range ti.Params {
				args = append(args, paramSub[p])
			}
			scrutineeType = &types.TypeApp{Ctor: ti.Name, Args: args}
		}
		sub, err := types.Unify(c.Ctx.Sub, expected, scrutineeType, "pattern variant")
		if err != nil {
			return nil, wrapUnify(err, "pattern variant")
		}
		c.Ctx.Sub = sub
		if len(pat.Args) != len(ctor.ArgTypes) {
			return nil, &diag.Report{Code: diag.ArityMismatch, Phase: "typecheck",
				Message: fmt.Sprintf("constructor %q expects %d argument(s), got %d", pat.Ctor, len(ctor.ArgTypes), len(pat.Args))}
		}
		bindings := map[string]types.Binding{}
		for i, argPat := range pat.Args {
			argExpected := types.SubstParamRefs(ctor.ArgTypes[i], paramSub)
			argBindings, err := c.checkPatternInner(env, argPat, argExpected)
			if err != nil {
				return nil, err
			}
			for n, b := range argBindings {
				bindings[n] = b
			}
		}
		return bindings, nil

	case *core.RecordPattern:
		fieldTypes := map[string]types.Type{}
		bindings := map[string]types.Binding{}
		for _, f := range pat.Fields {
			ft := c.Ctx.Fresh(env.Level)
			fieldTypes[f.Name] = ft
			fb, err := c.checkPatternInner(env, f.Pattern, ft)
			if err != nil {
				return nil, err
			}
			for n, b := range fb {
				bindings[n] = b
			}
		}
		// the scrutinee must unify with at least these fields (width
		// subtyping in the record-pattern direction, spec.md §4.4).
		sub, err := types.UnifyArg(c.Ctx.Sub, expected, &types.Record{Fields: fieldTypes}, "pattern record")
		if err != nil {
			return nil, wrapUnify(err, "pattern record")
		}
		c.Ctx.Sub = sub
		return bindings, nil

	default:
		return nil, fmt.Errorf("checkPattern: unhandled pattern %T", pat)
	}
}

func wrapUnify(err error, role string) error {
	if ue, ok := err.(*types.UnifyError); ok {
		return &diag.Report{Code: diag.TypeMismatch, Phase: "typecheck",
			Message: fmt.Sprintf("cannot unify %s with %s in %s", ue.T1, ue.T2, role)}
	}
	return err
}
