// Package exhaust checks match exhaustiveness and case reachability by
// compiling pattern columns into a decision-tree-style specialization
// matrix (spec.md §4.5), grounded on the teacher's matrix/specialization
// approach in internal/dtree.DecisionTreeCompiler, extended to synthesize a
// constructive counter-example when a match is non-exhaustive.
package exhaust

import (
	"fmt"
	"strings"

	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// Result reports whether a match covers every value of the scrutinee type
// and which case clauses (by index) can never fire.
type Result struct {
	Exhaustive  bool
	Witness     string // human-readable counter-example, set when !Exhaustive
	Unreachable []int  // indices into the original case list
}

// ctorSig describes one constructor of a finite, statically known
// signature: a declared variant constructor, including the built-in Bool's
// True/False.
type ctorSig struct {
	Tag      string
	ArgTypes []types.Type
}

type matrixRow struct {
	pats []core.Pattern
	case_ int
}

type matrix struct {
	rows     []matrixRow
	colTypes []types.Type
}

// Check analyzes e's cases against the (already substitution-resolved)
// scrutinee type.
func Check(env *types.Env, sub types.Substitution, scrutineeType types.Type, cases []core.MatchCase) Result {
	m := matrix{colTypes: []types.Type{scrutineeType}}
	for i, cs := range cases {
		m.rows = append(m.rows, matrixRow{pats: []core.Pattern{cs.Pattern}, case_: i})
	}

	wildcardQuery := []core.Pattern{&core.WildcardPattern{}}
	missing, witness := useful(env, sub, m, wildcardQuery)

	var unreachable []int
	for i, cs := range cases {
		if cs.Guard != nil {
			continue // conservative: guarded clauses are never flagged redundant
		}
		prefix := matrix{colTypes: []types.Type{scrutineeType}}
		for _, row := range m.rows {
			if row.case_ >= i {
				break
			}
			prefix.rows = append(prefix.rows, row)
		}
		isUseful, _ := useful(env, sub, prefix, []core.Pattern{cs.Pattern})
		if !isUseful {
			unreachable = append(unreachable, i)
		}
	}

	return Result{Exhaustive: !missing, Witness: strings.Join(witnessParts(witness), ""), Unreachable: unreachable}
}

func witnessParts(w []string) []string {
	if w == nil {
		return nil
	}
	return w
}

// useful reports whether query q is not covered by m: some value matches q
// but no row of m. When true, it also returns a human-readable witness
// built from q's shape.
func useful(env *types.Env, sub types.Substitution, m matrix, q []core.Pattern) (bool, []string) {
	if len(m.colTypes) == 0 {
		if len(m.rows) == 0 {
			return true, nil
		}
		return false, nil
	}

	col0 := types.Apply(sub, m.colTypes[0])
	head := q[0]

	if !isWildcard(head) {
		switch p := head.(type) {
		case *core.LitPattern:
			tag := litTag(p)
			spec := specializeTag(m, tag, nil)
			ok, w := useful(env, sub, spec, q[1:])
			if !ok {
				return false, nil
			}
			return true, append([]string{fmt.Sprintf("%v", p.Value)}, w...)

		case *core.VariantPattern:
			ti, ctor, ok := env.LookupCtor(p.Ctor)
			var argTypes []types.Type
			if ok {
				argTypes = substCtorArgs(ti, ctor, col0)
			}
			argN := len(argTypes)
			spec := specializeTag(m, p.Ctor, argTypes)
			subQ := append(append([]core.Pattern{}, patternsOrWild(p.Args, argTypes)...), q[1:]...)
			isU, w := useful(env, sub, spec, subQ)
			if !isU {
				return false, nil
			}
			if argN > 0 {
				label := fmt.Sprintf("%s(%s)", p.Ctor, strings.Join(w[:argN], ", "))
				return true, append([]string{label}, w[argN:]...)
			}
			return true, append([]string{p.Ctor}, w...)

		case *core.RecordPattern:
			spec := dropColumn(m)
			return useful(env, sub, spec, q[1:])
		}
	}

	// head is wildcard/variable.
	sig, complete := signature(env, col0)
	if complete {
		for _, ctor := range sig {
			argN := len(ctor.ArgTypes)
			spec := specializeTag(m, ctor.Tag, ctor.ArgTypes)
			wildArgs := make([]core.Pattern, argN)
			for i := range wildArgs {
				wildArgs[i] = &core.WildcardPattern{}
			}
			subQ := append(append([]core.Pattern{}, wildArgs...), q[1:]...)
			isU, w := useful(env, sub, spec, subQ)
			if isU {
				if argN > 0 {
					label := fmt.Sprintf("%s(%s)", ctor.Tag, strings.Join(w[:argN], ", "))
					return true, append([]string{label}, w[argN:]...)
				}
				return true, append([]string{ctor.Tag}, w...)
			}
		}
		return false, nil
	}

	spec := dropColumnWildcardOnly(m)
	isU, w := useful(env, sub, spec, q[1:])
	if !isU {
		return false, nil
	}
	return true, append([]string{"_"}, w...)
}

func patternsOrWild(args []core.Pattern, argTypes []types.Type) []core.Pattern {
	if len(args) == 0 && len(argTypes) > 0 {
		out := make([]core.Pattern, len(argTypes))
		for i := range out {
			out[i] = &core.WildcardPattern{}
		}
		return out
	}
	return args
}

func isWildcard(p core.Pattern) bool {
	switch p.(type) {
	case *core.WildcardPattern, *core.VarPattern:
		return true
	}
	return false
}

// litTag returns the tag a literal pattern specializes against. Bool
// literals share the True/False tag space with core.VariantPattern{Ctor:
// "True"/"False"} (the desugarer's if-lowering, spec.md §4.1) and with the
// Bool TypeInfo's constructor names (internal/types/env.go), since a single
// match can mix a literal `true`/`false` pattern with an if-derived one over
// the same scrutinee.
func litTag(p *core.LitPattern) string {
	if p.Kind == core.BoolLit {
		if b, ok := p.Value.(bool); ok {
			if b {
				return "True"
			}
			return "False"
		}
	}
	return fmt.Sprintf("%v", p.Value)
}

// signature returns the finite set of constructors for t, when known
// (Bool, or a declared nominal variant type). Int/Float/String/records/
// functions/unresolved type variables have no finite signature.
func signature(env *types.Env, t types.Type) ([]ctorSig, bool) {
	name, args := typeHead(t)
	if name == "" {
		return nil, false
	}
	ti, ok := env.LookupType(name)
	if !ok || ti.Kind != types.TypeInfoVariant {
		return nil, false
	}
	paramSub := map[string]types.Type{}
	for i, p := range ti.Params {
		if i < len(args) {
			paramSub[p] = args[i]
		}
	}
	sigs := make([]ctorSig, len(ti.Ctors))
	for i, c := range ti.Ctors {
		argTypes := make([]types.Type, len(c.ArgTypes))
		for j, at := range c.ArgTypes {
			argTypes[j] = types.SubstParamRefs(at, paramSub)
		}
		sigs[i] = ctorSig{Tag: c.Name, ArgTypes: argTypes}
	}
	return sigs, true
}

func substCtorArgs(ti *types.TypeInfo, ctor *types.CtorInfo, scrutinee types.Type) []types.Type {
	_, args := typeHead(scrutinee)
	paramSub := map[string]types.Type{}
	for i, p := range ti.Params {
		if i < len(args) {
			paramSub[p] = args[i]
		}
	}
	out := make([]types.Type, len(ctor.ArgTypes))
	for i, at := range ctor.ArgTypes {
		out[i] = types.SubstParamRefs(at, paramSub)
	}
	return out
}

func typeHead(t types.Type) (string, []types.Type) {
	switch t := t.(type) {
	case *types.TypeConst:
		return t.Name, nil
	case *types.TypeApp:
		return t.Ctor, t.Args
	default:
		return "", nil
	}
}

// specializeTag filters m's rows to those matching tag in column 0,
// expanding constructor arguments (or fresh wildcards, for wildcard rows)
// into argTypes-many new leading columns.
func specializeTag(m matrix, tag string, argTypes []types.Type) matrix {
	out := matrix{colTypes: append(append([]types.Type{}, argTypes...), m.colTypes[1:]...)}
	for _, row := range m.rows {
		head := row.pats[0]
		switch p := head.(type) {
		case *core.WildcardPattern, *core.VarPattern:
			expanded := make([]core.Pattern, len(argTypes))
			for i := range expanded {
				expanded[i] = &core.WildcardPattern{}
			}
			out.rows = append(out.rows, matrixRow{pats: append(expanded, row.pats[1:]...), case_: row.case_})
		case *core.VariantPattern:
			if p.Ctor != tag {
				continue
			}
			args := patternsOrWild(p.Args, argTypes)
			out.rows = append(out.rows, matrixRow{pats: append(append([]core.Pattern{}, args...), row.pats[1:]...), case_: row.case_})
		case *core.LitPattern:
			if litTag(p) != tag {
				continue
			}
			out.rows = append(out.rows, matrixRow{pats: row.pats[1:], case_: row.case_})
		default:
			continue
		}
	}
	return out
}

// dropColumn drops column 0 unconditionally, used for record columns where
// every pattern (record literal or wildcard) structurally matches.
func dropColumn(m matrix) matrix {
	out := matrix{colTypes: m.colTypes[1:]}
	for _, row := range m.rows {
		out.rows = append(out.rows, matrixRow{pats: row.pats[1:], case_: row.case_})
	}
	return out
}

// dropColumnWildcardOnly builds the default matrix: rows whose column-0
// pattern is a wildcard (or record, which never fails to match) survive
// with that column dropped; concrete literal rows are excluded, since they
// only cover their own value.
func dropColumnWildcardOnly(m matrix) matrix {
	out := matrix{colTypes: m.colTypes[1:]}
	for _, row := range m.rows {
		switch row.pats[0].(type) {
		case *core.WildcardPattern, *core.VarPattern, *core.RecordPattern:
			out.rows = append(out.rows, matrixRow{pats: row.pats[1:], case_: row.case_})
		}
	}
	return out
}
