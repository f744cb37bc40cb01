// Command vibefunc is a demonstration CLI over the desugar -> infer ->
// optimize pipeline (spec.md §4.1-§4.7). There is no lexer or parser in
// this repository (spec.md §1 Non-goals), so "source" here means one of a
// fixed catalog of hand-built Surface AST examples rather than a file on
// disk; `list`/`check`/`repl` exist to make that pipeline inspectable the
// way cmd/typecheck's test* functions did for the teacher's checker.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/optimize"
)

var (
	// Version and BuildTime are set by -ldflags at release build time.
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "print version information")
		optFlag     = flag.String("O", "1", "optimizer level: 0, 1, or 2")
		maxIterFlag = flag.Int("max-iterations", 10, "O2 fixed-point iteration cap")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("vibefunc %s (built %s)\n", Version, BuildTime)
		return
	}

	level, err := parseLevel(*optFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		printHelp()
		return
	}

	switch cmd := flag.Arg(0); cmd {
	case "list":
		listExamples()
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: vibefunc check <example-name>")
			os.Exit(1)
		}
		checkExample(flag.Arg(1), level, *maxIterFlag)
	case "repl":
		runREPL(level, *maxIterFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		printHelp()
		os.Exit(1)
	}
}

func parseLevel(s string) (optimize.Level, error) {
	switch s {
	case "0":
		return optimize.LevelO0, nil
	case "1":
		return optimize.LevelO1, nil
	case "2":
		return optimize.LevelO2, nil
	default:
		return 0, fmt.Errorf("invalid -O level %q (want 0, 1, or 2)", s)
	}
}

func printHelp() {
	fmt.Println(`vibefunc - desugar/infer/optimize pipeline demo

Usage:
  vibefunc [-O 0|1|2] [-max-iterations N] <command> [args]

Commands:
  list              list the built-in example programs
  check <name>      desugar, infer, and optimize one example, printing its
                     inferred types and optimizer metrics
  repl              step through the example catalog interactively`)
}

func listExamples() {
	for _, ex := range examples {
		fmt.Printf("%-30s %s\n", ex.name, ex.source)
	}
}

func checkExample(name string, level optimize.Level, maxIterations int) {
	ex, ok := findExample(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "no such example %q (see `vibefunc list`)\n", name)
		os.Exit(1)
	}
	printResult(ex, run(ex.module, level, maxIterations))
}

func printResult(ex example, result *pipelineResult) {
	fmt.Printf("%s\n  %s\n\n", ex.name, ex.source)

	for _, n := range result.bindingNames {
		fmt.Printf("  %s : %s\n", n, result.bindingTypes[n])
	}

	m := result.metrics
	fmt.Printf("\n  optimizer: %s  nodes %d -> %d  iterations %d  converged %v  (%s)\n",
		m.Level, m.PreNodes, m.PostNodes, m.Iterations, m.Converged, m.Duration)

	if len(result.reports) > 0 {
		renderer := diag.NewRenderer(os.Stderr)
		for _, err := range result.reports {
			if rep, ok := diag.AsReport(err); ok {
				renderer.Render(rep)
				continue
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
