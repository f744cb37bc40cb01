package main

import (
	"github.com/mbcrawfo/vibefun-sub010/internal/ast"
	"github.com/mbcrawfo/vibefun-sub010/internal/desugar"
	"github.com/mbcrawfo/vibefun-sub010/internal/infer"
	"github.com/mbcrawfo/vibefun-sub010/internal/optimize"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

// pipelineResult is everything worth showing about one run: the types
// inferred for each top-level binding, the optimizer metrics, and any
// reports collected along the way (errors from desugar/infer are
// collected rather than aborting the whole run, mirroring
// infer.InferProgram's per-declaration recovery, spec.md §4.3 "Failure
// semantics").
type pipelineResult struct {
	bindingNames []string // in declaration order, for stable output
	bindingTypes map[string]string
	metrics      optimize.Metrics
	reports      []error
}

// run pushes one module through desugar -> environment construction ->
// inference -> optimization, in that order (spec.md §4.1-§4.7). Nothing
// here evaluates the program: this repository's scope stops at the
// semantic core, not an evaluator (spec.md §1 Non-goals).
func run(mod *ast.Module, level optimize.Level, maxIterations int) *pipelineResult {
	result := &pipelineResult{bindingTypes: map[string]string{}}

	d := desugar.New()
	prog, errs := d.Module(mod)
	result.reports = append(result.reports, errs...)

	env, envErrs := infer.BuildEnv(types.NewEnv(), mod)
	result.reports = append(result.reports, envErrs...)

	checker := infer.NewChecker()
	finalEnv, inferErrs := checker.InferProgram(env, prog)
	result.reports = append(result.reports, inferErrs...)

	optimized, metrics := optimize.OptimizeProgram(prog, level, maxIterations)
	result.metrics = metrics

	for _, decl := range optimized.Decls {
		names := decl.Names
		if len(names) == 0 && decl.Name != "" {
			names = []string{decl.Name}
		}
		for _, n := range names {
			b, ok := finalEnv.LookupValue(n)
			if !ok {
				continue
			}
			if _, seen := result.bindingTypes[n]; !seen {
				result.bindingNames = append(result.bindingNames, n)
			}
			result.bindingTypes[n] = types.Apply(checker.Ctx.Sub, b.SchemeOf().Body).String()
		}
	}

	return result
}
