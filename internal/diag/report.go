package diag

import "fmt"

// Span is a source range; File/Line/Column are carried for reporting only
// and never consulted by the type checker or optimizer (spec.md §3).
type Span struct {
	File   string
	Line   int
	Column int
}

func (s *Span) String() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Report is the canonical structured diagnostic (spec.md §7): a stable
// code, a severity, a source range, a templated message, optional
// structured data, and a hint.
type Report struct {
	Code    string
	Phase   string
	Message string
	Span    *Span
	Data    map[string]any
	Hint    string
	Related []string
}

// Severity looks up the registered severity for Code, defaulting to error
// for unregistered codes rather than panicking.
func (r *Report) Severity() Severity {
	if info, ok := Lookup(r.Code); ok {
		return info.Severity
	}
	return SeverityError
}

// Error implements the error interface so a *Report can be returned and
// propagated like any other Go error, while still round-tripping through
// errors.As (spec.md §7 "Propagation policy").
func (r *Report) Error() string {
	if r == nil {
		return "<nil diagnostic>"
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// ReportError wraps a *Report so structured reports survive an error chain
// built with fmt.Errorf("...: %w", err) the way the teacher's
// internal/errors.ReportError does.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return e.Rep.Error()
}

func (e *ReportError) Unwrap() error { return e.Rep }

// AsReport extracts a *Report from err, looking through both a bare
// *Report and a wrapped *ReportError.
func AsReport(err error) (*Report, bool) {
	switch e := err.(type) {
	case *Report:
		return e, true
	case *ReportError:
		return e.Rep, true
	default:
		return nil, false
	}
}
