// Package core defines the Core AST that the desugarer produces and the
// type checker and optimizer consume (spec.md §3).
//
// Core nodes are immutable after desugaring: the type checker annotates a
// parallel node-id -> type map but never mutates a node, and the optimizer
// always returns new trees rather than aliasing rewritten subtrees.
package core

import (
	"fmt"
	"strings"

	"github.com/mbcrawfo/vibefun-sub010/internal/ast"
)

// IDGen hands out stable node identifiers at desugar time. It is owned
// by whichever component allocates nodes (the desugarer, or a pass that
// synthesizes new nodes) rather than kept as process-global mutable state;
// callers thread an *IDGen explicitly.
type IDGen struct{ n uint64 }

func NewIDGen() *IDGen { return &IDGen{} }

func (g *IDGen) Next() uint64 {
	g.n++
	return g.n
}

// Node carries the identity and locations every Core expression needs.
type Node struct {
	NodeID   uint64
	CoreSpan ast.Pos
	OrigSpan ast.Pos
}

func (n Node) ID() uint64          { return n.NodeID }
func (n Node) Span() ast.Pos       { return n.CoreSpan }
func (n Node) OriginalSpan() ast.Pos { return n.OrigSpan }

// Expr is the base interface for every Core expression.
type Expr interface {
	ID() uint64
	Span() ast.Pos
	OriginalSpan() ast.Pos
	String() string
	coreExpr()
}

// ---- literals ----

type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	BoolLit
	UnitLit
)

func (k LitKind) String() string {
	switch k {
	case IntLit:
		return "Int"
	case FloatLit:
		return "Float"
	case StringLit:
		return "String"
	case BoolLit:
		return "Bool"
	case UnitLit:
		return "Unit"
	default:
		return "?"
	}
}

type Lit struct {
	Node
	Kind  LitKind
	Value interface{}
}

func (*Lit) coreExpr()     {}
func (l *Lit) String() string { return fmt.Sprintf("%v", l.Value) }

// ---- variables ----

type Var struct {
	Node
	Name string
}

func (*Var) coreExpr()       {}
func (v *Var) String() string { return v.Name }

// ---- lambda: always single-parameter at the Core level (spec.md §3) ----

type Lambda struct {
	Node
	Param Pattern
	Body  Expr
}

func (*Lambda) coreExpr() {}
func (l *Lambda) String() string {
	return fmt.Sprintf("(\\%s -> %s)", l.Param, l.Body)
}

// ---- application: a single App node holds all args; currying is a typing
// concern handled by the checker, not a shape the AST encodes (spec.md §4.3) ----

type App struct {
	Node
	Func Expr
	Args []Expr
}

func (*App) coreExpr() {}
func (a *App) String() string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", a.Func, strings.Join(args, ", "))
}

// ---- let ----

type Let struct {
	Node
	Pattern   Pattern
	Value     Expr
	Body      Expr
	Mutable   bool
	Recursive bool // Recursive ⇒ Pattern is a VarPattern (spec.md I on Let)
}

func (*Let) coreExpr() {}
func (l *Let) String() string {
	kw := "let"
	if l.Recursive {
		kw = "let rec"
	}
	return fmt.Sprintf("%s %s = %s in %s", kw, l.Pattern, l.Value, l.Body)
}

// ---- let rec with mutual recursion group ----

type RecBinding struct {
	Pattern Pattern
	Value   Expr
	Mutable bool
}

type LetRecExpr struct {
	Node
	Bindings []RecBinding
	Body     Expr
}

func (*LetRecExpr) coreExpr() {}
func (l *LetRecExpr) String() string {
	parts := make([]string, len(l.Bindings))
	for i, b := range l.Bindings {
		parts[i] = fmt.Sprintf("%s = %s", b.Pattern, b.Value)
	}
	return fmt.Sprintf("let rec %s in %s", strings.Join(parts, " and "), l.Body)
}

// ---- match ----

type MatchCase struct {
	Pattern Pattern
	Guard   Expr // optional
	Body    Expr
}

type Match struct {
	Node
	Scrutinee Expr
	Cases     []MatchCase
}

func (*Match) coreExpr() {}
func (m *Match) String() string {
	parts := make([]string, len(m.Cases))
	for i, c := range m.Cases {
		parts[i] = fmt.Sprintf("%s -> %s", c.Pattern, c.Body)
	}
	return fmt.Sprintf("match %s { %s }", m.Scrutinee, strings.Join(parts, " | "))
}

// ---- records ----

type RecordField struct {
	Name  string
	Value Expr
}

// RecordSpread spreads another record's fields into the literal.
type RecordSpread struct {
	Value Expr
}

// RecordEntry is either a RecordField or a RecordSpread, in left-to-right
// textual order; later entries override earlier ones for the same field
// name (spec.md I4).
type RecordEntry interface {
	recordEntry()
}

func (RecordField) recordEntry()  {}
func (RecordSpread) recordEntry() {}

type Record struct {
	Node
	Entries []RecordEntry
}

func (*Record) coreExpr() {}
func (r *Record) String() string {
	parts := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		switch e := e.(type) {
		case RecordField:
			parts[i] = fmt.Sprintf("%s: %s", e.Name, e.Value)
		case RecordSpread:
			parts[i] = fmt.Sprintf("...%s", e.Value)
		}
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

type RecordAccess struct {
	Node
	Record Expr
	Field  string
}

func (*RecordAccess) coreExpr() {}
func (r *RecordAccess) String() string {
	return fmt.Sprintf("%s.%s", r.Record, r.Field)
}

// RecordUpdate produces a new record (spec.md §3).
type RecordUpdate struct {
	Node
	Record  Expr
	Entries []RecordEntry
}

func (*RecordUpdate) coreExpr() {}
func (r *RecordUpdate) String() string {
	return fmt.Sprintf("{...%s, ...}", r.Record)
}

// ---- variants ----

type Variant struct {
	Node
	Ctor string
	Args []Expr
}

func (*Variant) coreExpr() {}
func (v *Variant) String() string {
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", v.Ctor, strings.Join(args, ", "))
}

// ---- operators ----

type BinOpKind string

const (
	OpAdd      BinOpKind = "+"
	OpSub      BinOpKind = "-"
	OpMul      BinOpKind = "*"
	OpDiv      BinOpKind = "/"
	OpMod      BinOpKind = "%"
	OpConcat   BinOpKind = "&"
	OpCons     BinOpKind = "::"
	OpLt       BinOpKind = "<"
	OpLe       BinOpKind = "<="
	OpGt       BinOpKind = ">"
	OpGe       BinOpKind = ">="
	OpEq       BinOpKind = "=="
	OpNe       BinOpKind = "!="
	OpAnd      BinOpKind = "&&"
	OpOr       BinOpKind = "||"
	OpAssignOp BinOpKind = ":="
)

type BinOp struct {
	Node
	Op    BinOpKind
	Left  Expr
	Right Expr
}

func (*BinOp) coreExpr() {}
func (b *BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

type UnOpKind string

const (
	OpNot   UnOpKind = "!not"
	OpDeref UnOpKind = "!deref"
	OpNeg   UnOpKind = "-"
)

type UnaryOp struct {
	Node
	Op      UnOpKind
	Operand Expr
}

func (*UnaryOp) coreExpr() {}
func (u *UnaryOp) String() string {
	return fmt.Sprintf("%s%s", u.Op, u.Operand)
}

// ---- annotation / unsafe ----

type TypeAnnotation struct {
	Node
	Expr     Expr
	TypeText string // surface type rendered for diagnostics; the checker
	                 // resolves the real ast.TypeExpr separately
}

func (*TypeAnnotation) coreExpr() {}
func (t *TypeAnnotation) String() string {
	return fmt.Sprintf("(%s : %s)", t.Expr, t.TypeText)
}

// Unsafe is opaque to the type checker (after internal checks) and to the
// optimizer (spec.md I3, O1).
type Unsafe struct {
	Node
	Expr Expr
}

func (*Unsafe) coreExpr() {}
func (u *Unsafe) String() string { return fmt.Sprintf("unsafe(%s)", u.Expr) }

// ---- patterns ----

type Pattern interface {
	fmt.Stringer
	patternNode()
	// Names returns the binder names introduced by this pattern, in the
	// order they appear, for linearity checking (spec.md I5).
	Names() []string
}

type WildcardPattern struct{}

func (*WildcardPattern) patternNode()       {}
func (*WildcardPattern) String() string     { return "_" }
func (*WildcardPattern) Names() []string    { return nil }

type VarPattern struct {
	Name string
}

func (*VarPattern) patternNode()    {}
func (v *VarPattern) String() string { return v.Name }
func (v *VarPattern) Names() []string { return []string{v.Name} }

type LitPattern struct {
	Kind  LitKind
	Value interface{}
}

func (*LitPattern) patternNode()     {}
func (l *LitPattern) String() string { return fmt.Sprintf("%v", l.Value) }
func (l *LitPattern) Names() []string { return nil }

type VariantPattern struct {
	Ctor string
	Args []Pattern
}

func (*VariantPattern) patternNode() {}
func (v *VariantPattern) String() string {
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", v.Ctor, strings.Join(args, ", "))
}
func (v *VariantPattern) Names() []string {
	var names []string
	for _, a := range v.Args {
		names = append(names, a.Names()...)
	}
	return names
}

type RecordPatternField struct {
	Name    string
	Pattern Pattern
}

type RecordPattern struct {
	Fields []RecordPatternField
}

func (*RecordPattern) patternNode() {}
func (r *RecordPattern) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Pattern)
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}
func (r *RecordPattern) Names() []string {
	var names []string
	for _, f := range r.Fields {
		names = append(names, f.Pattern.Names()...)
	}
	return names
}

// ---- program ----

// Decl is a single top-level binding or group produced by the desugarer.
type Decl struct {
	Name  string // representative name for single bindings; "" for groups
	Names []string
	Expr  Expr // Let/LetRecExpr with Body == nil marks a top-level decl
}

type Program struct {
	Decls []Decl
}

// IsAtomic reports whether an expression may appear directly as an operand
// without further let-binding (used by passes and ANF-adjacent checks).
func IsAtomic(e Expr) bool {
	switch e.(type) {
	case *Var, *Lit, *Lambda:
		return true
	default:
		return false
	}
}
