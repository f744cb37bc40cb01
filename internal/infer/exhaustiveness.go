package infer

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/exhaust"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// checkExhaustiveness bridges Algorithm W to the exhaust package (spec.md
// §4.5). A non-exhaustive match is reported as an error carrying a
// constructive counter-example; unreachable cases are recorded as warnings
// that never halt inference.
//
// Known limitation: when the scrutinee type still contains unresolved type
// variables (no annotation pinned it down), the analysis degrades to
// treating the column as having no finite signature, which under-reports
// missing variant cases rather than risk a false positive.
func (c *Checker) checkExhaustiveness(env *types.Env, e *core.Match, scrutineeType types.Type) error {
	result := exhaust.Check(env, c.Ctx.Sub, scrutineeType, e.Cases)

	for _, idx := range result.Unreachable {
		c.Warnings = append(c.Warnings, &diag.Report{
			Code:    diag.UnreachablePattern,
			Phase:   "typecheck",
			Message: fmt.Sprintf("case %d is unreachable: an earlier case already covers every value it matches", idx+1),
			Span:    spanOf(e),
		})
	}

	if !result.Exhaustive {
		msg := "match does not cover every value of the scrutinee's type"
		if result.Witness != "" {
			msg = fmt.Sprintf("%s; unmatched case: %s", msg, result.Witness)
		}
		return &diag.Report{
			Code:    diag.NonExhaustiveMatch,
			Phase:   "typecheck",
			Message: msg,
			Span:    spanOf(e),
			Data:    map[string]any{"witness": result.Witness},
		}
	}
	return nil
}
