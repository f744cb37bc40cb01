package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Renderer prints Reports to a writer, coloring by severity the way the
// teacher's CLI colors REPL/diagnostic output (internal/repl, cmd/ailang).
// Rendering is ambient CLI texture, not part of the §7 taxonomy itself —
// the taxonomy only has to produce Reports; this is how cmd/vibefunc shows
// them to a human.
type Renderer struct {
	w      io.Writer
	color  bool
	errC   *color.Color
	warnC  *color.Color
	hintC  *color.Color
}

// NewRenderer builds a Renderer that auto-detects whether w is a terminal
// (via go-isatty) when w is an *os.File, matching the teacher's own
// TTY-gated color behavior.
func NewRenderer(w io.Writer) *Renderer {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{
		w:     w,
		color: useColor,
		errC:  color.New(color.FgRed, color.Bold),
		warnC: color.New(color.FgYellow, color.Bold),
		hintC: color.New(color.FgCyan),
	}
}

// Render prints one Report as a single human-readable line plus an
// optional hint line.
func (r *Renderer) Render(rep *Report) {
	sev := rep.Severity()
	label := "error"
	c := r.errC
	if sev == SeverityWarning {
		label = "warning"
		c = r.warnC
	}
	loc := ""
	if rep.Span != nil {
		loc = rep.Span.String() + ": "
	}
	line := fmt.Sprintf("%s%s[%s]: %s", loc, label, rep.Code, rep.Message)
	if r.color {
		c.Fprintln(r.w, line)
	} else {
		fmt.Fprintln(r.w, line)
	}
	if rep.Hint != "" {
		hint := "  hint: " + rep.Hint
		if r.color {
			r.hintC.Fprintln(r.w, hint)
		} else {
			fmt.Fprintln(r.w, hint)
		}
	}
}

// RenderAll renders a batch of reports in order.
func (r *Renderer) RenderAll(reps []*Report) {
	for _, rep := range reps {
		r.Render(rep)
	}
}
