// Package ffi resolves overloaded external (FFI) bindings to a single
// concrete signature at an application site (spec.md §4.6: "overload
// resolution is by argument count").
package ffi

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// Resolve picks the overload of eb whose parameter count equals arity.
// Construction-time merging (internal/infer.buildExternals) already
// guarantees at most one overload per arity, so a match here is always
// unique — diag.AmbiguousOverload exists in the taxonomy for a resolver
// that relaxes this to structural matching, which this implementation does
// not do.
func Resolve(eb *types.ExternalBinding, arity int, name string) (*types.Scheme, error) {
	if s, ok := eb.Overloads[arity]; ok {
		return s, nil
	}
	arities := make([]int, 0, len(eb.Overloads))
	for a := range eb.Overloads {
		arities = append(arities, a)
	}
	return nil, &diag.Report{
		Code:    diag.NoMatchingOverload,
		Phase:   "typecheck",
		Message: fmt.Sprintf("external %q has no overload accepting %d argument(s) (available: %v)", name, arity, arities),
	}
}
