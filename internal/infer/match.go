package infer

import (
	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// inferMatch implements spec.md §4.3's Match rule: infer the scrutinee;
// for each case, check the pattern against the scrutinee type, check the
// guard against Bool if present, infer the body; unify all bodies to one
// result type.
func (c *Checker) inferMatch(env *types.Env, e *core.Match) (types.Type, error) {
	if len(e.Cases) == 0 {
		return nil, &diag.Report{Code: diag.EmptyMatch, Phase: "typecheck", Message: "match has no cases"}
	}

	scrutineeT, err := c.Infer(env, e.Scrutinee)
	if err != nil {
		return nil, err
	}

	resultT := c.Ctx.Fresh(env.Level)
	for _, cs := range e.Cases {
		bindings, err := c.checkPattern(env, cs.Pattern, scrutineeT)
		if err != nil {
			return nil, err
		}
		caseEnv := env.WithValues(bindings)
		if cs.Guard != nil {
			guardT, err := c.Infer(caseEnv, cs.Guard)
			if err != nil {
				return nil, err
			}
			sub, err := types.Unify(c.Ctx.Sub, guardT, types.TBool, "guard")
			if err != nil {
				return nil, c.wrap(e, "guard", err)
			}
			c.Ctx.Sub = sub
		}
		bodyT, err := c.Infer(caseEnv, cs.Body)
		if err != nil {
			return nil, err
		}
		sub, err := types.Unify(c.Ctx.Sub, resultT, bodyT, "match branch")
		if err != nil {
			return nil, c.wrap(e, "match branch", err)
		}
		c.Ctx.Sub = sub
	}

	finalScrutinee := types.Apply(c.Ctx.Sub, scrutineeT)
	if err := c.checkExhaustiveness(env, e, finalScrutinee); err != nil {
		return nil, err
	}

	return c.record(e, types.Apply(c.Ctx.Sub, resultT)), nil
}
