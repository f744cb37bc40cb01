package optimize

import (
	"time"

	"github.com/mbcrawfo/vibefun-sub010/internal/core"
)

// Level selects the optimizer driver (spec.md §4.7).
type Level int

const (
	// LevelO0 performs no rewriting; the tree is returned unchanged.
	LevelO0 Level = iota
	// LevelO1 runs one sweep of each registered pass, in registration
	// order, and stops.
	LevelO1
	// LevelO2 repeats a full sweep of all passes until the tree stops
	// changing or maxIterations is reached.
	LevelO2
)

func (l Level) String() string {
	switch l {
	case LevelO0:
		return "O0"
	case LevelO1:
		return "O1"
	case LevelO2:
		return "O2"
	default:
		return "?"
	}
}

// Pass is one optimization rule: a name for diagnostics/metrics, and a
// rewrite applied to a single node after its children have already been
// rebuilt by the traversal driving it. Apply reports whether it rewrote the
// node; Sweep uses that to track whether any pass fired during a sweep.
//
// Modeled as the tagged name+predicate+rewrite shape spec.md §9 calls for:
// CanApply is folded into Apply's returned bool rather than kept as a
// separate method, since every pass here can decide applicability and
// perform the rewrite in one structural match.
type Pass interface {
	Name() string
	Apply(node core.Expr, ren *core.Renamer) (core.Expr, bool)
}

// DefaultPasses returns the seven passes in the registration order the
// driver sweeps them in (spec.md §4.7).
func DefaultPasses(level Level) []Pass {
	return []Pass{
		betaPass{},
		etaPass{},
		inlinePass{level: level},
		deadCodePass{},
		reorderPass{},
		constFoldPass{},
		csePass{},
	}
}

// Sweep applies one pass across the entire tree in post-order, rewriting
// every node the pass matches.
func Sweep(pass Pass, e core.Expr, ren *core.Renamer) (core.Expr, bool) {
	return rebuild(e, func(n core.Expr) (core.Expr, bool) {
		return pass.Apply(n, ren)
	})
}

// oneFullSweep runs every pass, in order, once each, threading each pass's
// output into the next.
func oneFullSweep(passes []Pass, e core.Expr, ren *core.Renamer) (core.Expr, bool) {
	changed := false
	for _, p := range passes {
		var c bool
		e, c = Sweep(p, e, ren)
		changed = changed || c
	}
	return e, changed
}

// Metrics reports what an Optimize call did, for callers (the CLI, tests)
// that want to display or assert on optimizer behavior.
type Metrics struct {
	Level      Level
	PreNodes   int
	PostNodes  int
	Iterations int
	Converged  bool
	Duration   time.Duration
}

// Optimize rewrites e per level and returns the result plus Metrics.
// maxIterations bounds O2's fixed-point loop; reaching it without
// convergence is reported via Metrics.Converged == false, not an error.
func Optimize(e core.Expr, level Level, maxIterations int) (core.Expr, Metrics) {
	start := time.Now()
	pre := core.Size(e)
	ren := core.NewRenamer()

	switch level {
	case LevelO0:
		return e, Metrics{Level: level, PreNodes: pre, PostNodes: pre, Iterations: 0, Converged: true, Duration: time.Since(start)}

	case LevelO1:
		passes := DefaultPasses(level)
		result, _ := oneFullSweep(passes, e, ren)
		return result, Metrics{
			Level:      level,
			PreNodes:   pre,
			PostNodes:  core.Size(result),
			Iterations: 1,
			Converged:  true,
			Duration:   time.Since(start),
		}

	case LevelO2:
		passes := DefaultPasses(level)
		cur := e
		iterations := 0
		converged := false
		for iterations < maxIterations {
			next, changed := oneFullSweep(passes, cur, ren)
			iterations++
			if !changed {
				cur = next
				converged = true
				break
			}
			if core.StructEqual(next, cur) {
				cur = next
				converged = true
				break
			}
			cur = next
		}
		return cur, Metrics{
			Level:      level,
			PreNodes:   pre,
			PostNodes:  core.Size(cur),
			Iterations: iterations,
			Converged:  converged,
			Duration:   time.Since(start),
		}

	default:
		return e, Metrics{Level: level, PreNodes: pre, PostNodes: pre, Iterations: 0, Converged: true, Duration: time.Since(start)}
	}
}

// OptimizeProgram optimizes every declaration's expression independently
// and sums their metrics (spec.md §4.7 operates over a single Core
// expression; a Program is just a sequence of top-level ones).
func OptimizeProgram(prog *core.Program, level Level, maxIterations int) (*core.Program, Metrics) {
	out := &core.Program{Decls: make([]core.Decl, len(prog.Decls))}
	agg := Metrics{Level: level, Converged: true}
	start := time.Now()
	for i, d := range prog.Decls {
		optimized, m := Optimize(d.Expr, level, maxIterations)
		out.Decls[i] = core.Decl{Name: d.Name, Names: d.Names, Expr: optimized}
		agg.PreNodes += m.PreNodes
		agg.PostNodes += m.PostNodes
		if m.Iterations > agg.Iterations {
			agg.Iterations = m.Iterations
		}
		agg.Converged = agg.Converged && m.Converged
	}
	agg.Duration = time.Since(start)
	return out, agg
}
