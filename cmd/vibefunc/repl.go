package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mbcrawfo/vibefun-sub010/internal/optimize"
	"github.com/peterh/liner"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// runREPL steps an operator through the example catalog: `:list` shows the
// names, `:run <name>` (or a bare name) desugars/infers/optimizes it and
// prints the result. There is no expression syntax to read here (spec.md
// §1 Non-goals exclude lexing/parsing), so this is a browser over
// examples.go rather than a general read-eval-print loop.
func runREPL(level optimize.Level, maxIterations int) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	historyFile := filepath.Join(os.TempDir(), ".vibefunc_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(prefix string) []string {
		var out []string
		for _, ex := range examples {
			if strings.HasPrefix(ex.name, prefix) {
				out = append(out, ex.name)
			}
		}
		return out
	})

	fmt.Printf("%s %s\n", bold("vibefunc"), dim(level.String()))
	fmt.Println(dim("type an example name (see :list), or :quit"))

	for {
		input, err := line.Prompt(cyan("vibefunc> "))
		if err != nil {
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch {
		case input == ":quit" || input == ":q":
			if f, err := os.Create(historyFile); err == nil {
				_, _ = line.WriteHistory(f)
				f.Close()
			}
			return
		case input == ":list":
			listExamples()
		case input == ":help":
			fmt.Println(":list            list examples\n:quit            exit\n<name>           run the named example")
		default:
			name := strings.TrimPrefix(input, ":run ")
			ex, ok := findExample(strings.TrimSpace(name))
			if !ok {
				fmt.Println(yellow(fmt.Sprintf("no such example %q", name)))
				continue
			}
			printResult(ex, run(ex.module, level, maxIterations))
		}
	}
}
