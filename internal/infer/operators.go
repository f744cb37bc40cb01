package infer

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// inferBinOp implements spec.md §4.3's operator rules. Arithmetic operators
// are monomorphic over Int and Float separately (no numeric-tower
// unification); & is String concatenation; :: is List cons; comparisons and
// equality produce Bool; && and || are short-circuiting Bool ops; := is the
// Ref assignment operator.
func (c *Checker) inferBinOp(env *types.Env, e *core.BinOp) (types.Type, error) {
	switch e.Op {
	case core.OpAdd, core.OpSub, core.OpMul, core.OpDiv, core.OpMod:
		return c.inferArith(env, e)

	case core.OpConcat:
		lt, err := c.Infer(env, e.Left)
		if err != nil {
			return nil, err
		}
		rt, err := c.Infer(env, e.Right)
		if err != nil {
			return nil, err
		}
		if sub, err := types.Unify(c.Ctx.Sub, lt, types.TString, "concat left"); err == nil {
			c.Ctx.Sub = sub
		} else {
			return nil, c.wrap(e, "concat left", err)
		}
		if sub, err := types.Unify(c.Ctx.Sub, rt, types.TString, "concat right"); err == nil {
			c.Ctx.Sub = sub
		} else {
			return nil, c.wrap(e, "concat right", err)
		}
		return c.record(e, types.TString), nil

	case core.OpCons:
		headT, err := c.Infer(env, e.Left)
		if err != nil {
			return nil, err
		}
		tailT, err := c.Infer(env, e.Right)
		if err != nil {
			return nil, err
		}
		sub, err := types.Unify(c.Ctx.Sub, tailT, types.TList(headT), "cons")
		if err != nil {
			return nil, c.wrap(e, "cons", err)
		}
		c.Ctx.Sub = sub
		return c.record(e, types.Apply(c.Ctx.Sub, tailT)), nil

	case core.OpLt, core.OpLe, core.OpGt, core.OpGe:
		lt, err := c.Infer(env, e.Left)
		if err != nil {
			return nil, err
		}
		rt, err := c.Infer(env, e.Right)
		if err != nil {
			return nil, err
		}
		sub, err := types.Unify(c.Ctx.Sub, lt, rt, "comparison")
		if err != nil {
			return nil, c.wrap(e, "comparison", err)
		}
		c.Ctx.Sub = sub
		return c.record(e, types.TBool), nil

	case core.OpEq, core.OpNe:
		lt, err := c.Infer(env, e.Left)
		if err != nil {
			return nil, err
		}
		rt, err := c.Infer(env, e.Right)
		if err != nil {
			return nil, err
		}
		sub, err := types.Unify(c.Ctx.Sub, lt, rt, "equality")
		if err != nil {
			return nil, c.wrap(e, "equality", err)
		}
		c.Ctx.Sub = sub
		return c.record(e, types.TBool), nil

	case core.OpAnd, core.OpOr:
		lt, err := c.Infer(env, e.Left)
		if err != nil {
			return nil, err
		}
		rt, err := c.Infer(env, e.Right)
		if err != nil {
			return nil, err
		}
		if sub, err := types.Unify(c.Ctx.Sub, lt, types.TBool, "logical operand"); err == nil {
			c.Ctx.Sub = sub
		} else {
			return nil, c.wrap(e, "logical operand", err)
		}
		if sub, err := types.Unify(c.Ctx.Sub, rt, types.TBool, "logical operand"); err == nil {
			c.Ctx.Sub = sub
		} else {
			return nil, c.wrap(e, "logical operand", err)
		}
		return c.record(e, types.TBool), nil

	case core.OpAssignOp:
		refT, err := c.Infer(env, e.Left)
		if err != nil {
			return nil, err
		}
		valT, err := c.Infer(env, e.Right)
		if err != nil {
			return nil, err
		}
		sub, err := types.Unify(c.Ctx.Sub, refT, types.TRef(valT), "assignment")
		if err != nil {
			return nil, c.wrap(e, "assignment", err)
		}
		c.Ctx.Sub = sub
		return c.record(e, types.TUnit), nil

	default:
		return nil, fmt.Errorf("inferBinOp: unhandled operator %q", e.Op)
	}
}

// inferArith unifies both operands together, then requires the common type
// to be Int or Float (spec.md §6: arithmetic is monomorphic per numeric
// type, no implicit widening).
func (c *Checker) inferArith(env *types.Env, e *core.BinOp) (types.Type, error) {
	lt, err := c.Infer(env, e.Left)
	if err != nil {
		return nil, err
	}
	rt, err := c.Infer(env, e.Right)
	if err != nil {
		return nil, err
	}
	sub, err := types.Unify(c.Ctx.Sub, lt, rt, "arithmetic")
	if err != nil {
		return nil, c.wrap(e, "arithmetic", err)
	}
	c.Ctx.Sub = sub
	resolved := types.Apply(c.Ctx.Sub, lt)

	if tv, ok := resolved.(*types.TypeVar); ok {
		// Operand type still unresolved: default to Int, matching the
		// teacher's numeric-literal defaulting behavior.
		sub, err := types.Unify(c.Ctx.Sub, tv, types.TInt, "arithmetic")
		if err != nil {
			return nil, c.wrap(e, "arithmetic", err)
		}
		c.Ctx.Sub = sub
		return c.record(e, types.TInt), nil
	}

	tc, ok := resolved.(*types.TypeConst)
	if !ok || (tc.Name != "Int" && tc.Name != "Float") {
		return nil, &diag.Report{
			Code:    diag.TypeMismatch,
			Phase:   "typecheck",
			Message: fmt.Sprintf("operator %q requires Int or Float operands, got %s", e.Op, resolved),
			Span:    spanOf(e),
		}
	}
	return c.record(e, resolved), nil
}

// inferUnaryOp implements spec.md §4.3's unary rules. OpNeg requires Int or
// Float. OpDeref requires Ref<α> and produces α. OpNot carries the surface
// `!` ambiguity: it means logical-not when the operand is Bool and
// dereference when the operand is Ref<α>; the desugarer defers the choice
// here, where the operand's type is available.
func (c *Checker) inferUnaryOp(env *types.Env, e *core.UnaryOp) (types.Type, error) {
	switch e.Op {
	case core.OpNot:
		t, err := c.Infer(env, e.Operand)
		if err != nil {
			return nil, err
		}
		resolved := types.Apply(c.Ctx.Sub, t)
		if sub, err := types.Unify(c.Ctx.Sub, resolved, types.TBool, "logical not"); err == nil {
			c.Ctx.Sub = sub
			return c.record(e, types.TBool), nil
		}
		innerT := c.Ctx.Fresh(env.Level)
		sub, err := types.Unify(c.Ctx.Sub, resolved, types.TRef(innerT), "dereference")
		if err != nil {
			return nil, &diag.Report{
				Code:    diag.TypeMismatch,
				Phase:   "typecheck",
				Message: fmt.Sprintf("\"!\" requires a Bool (logical not) or a Ref (dereference), got %s", resolved),
				Span:    spanOf(e),
			}
		}
		c.Ctx.Sub = sub
		return c.record(e, types.Apply(c.Ctx.Sub, innerT)), nil

	case core.OpNeg:
		t, err := c.Infer(env, e.Operand)
		if err != nil {
			return nil, err
		}
		resolved := types.Apply(c.Ctx.Sub, t)
		if tv, ok := resolved.(*types.TypeVar); ok {
			sub, err := types.Unify(c.Ctx.Sub, tv, types.TInt, "negation")
			if err != nil {
				return nil, c.wrap(e, "negation", err)
			}
			c.Ctx.Sub = sub
			return c.record(e, types.TInt), nil
		}
		tc, ok := resolved.(*types.TypeConst)
		if !ok || (tc.Name != "Int" && tc.Name != "Float") {
			return nil, &diag.Report{
				Code:    diag.TypeMismatch,
				Phase:   "typecheck",
				Message: fmt.Sprintf("unary - requires Int or Float, got %s", resolved),
				Span:    spanOf(e),
			}
		}
		return c.record(e, resolved), nil

	case core.OpDeref:
		t, err := c.Infer(env, e.Operand)
		if err != nil {
			return nil, err
		}
		innerT := c.Ctx.Fresh(env.Level)
		sub, err := types.Unify(c.Ctx.Sub, t, types.TRef(innerT), "dereference")
		if err != nil {
			return nil, c.wrap(e, "dereference", err)
		}
		c.Ctx.Sub = sub
		return c.record(e, types.Apply(c.Ctx.Sub, innerT)), nil

	default:
		return nil, fmt.Errorf("inferUnaryOp: unhandled operator %q", e.Op)
	}
}
