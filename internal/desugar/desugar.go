// Package desugar translates the Surface AST into the small Core AST
// (spec.md §4.1). Every rewrite it performs is semantics-preserving: n-ary
// lambdas curry, if/then/else lowers to a two-case Match, pipe/compose
// lower to App/Lambda, blocks fold into a Let chain, list sugar lowers to
// Cons, and record-update sugar lowers to an explicit RecordUpdate node.
//
// Grounded on the teacher's internal/elaborate.Elaborator: a single struct
// owning an ID generator that walks the surface tree once and returns Core
// nodes, with syntax errors surfaced as *diag.Report values rather than
// panics.
package desugar

import (
	"fmt"

	"github.com/mbcrawfo/vibefun-sub010/internal/ast"
	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
)

// Desugarer walks one module's surface AST, handing out stable Core node
// IDs from a single generator (spec.md §9 "Global state": threaded
// explicitly, never a package-global counter).
type Desugarer struct {
	ids *core.IDGen
	ren *core.Renamer
}

func New() *Desugarer {
	return &Desugarer{ids: core.NewIDGen(), ren: core.NewRenamer()}
}

func (d *Desugarer) node(pos ast.Pos) core.Node {
	return core.Node{NodeID: d.ids.Next(), CoreSpan: pos, OrigSpan: pos}
}

// Module desugars every top-level declaration into a core.Program. Type
// and external declarations are not lowered to Core expressions — they
// are consumed directly from the Surface AST by the environment builder
// (spec.md §4.2) — so only *ast.Let and *ast.LetRec produce core.Decl
// entries here.
func (d *Desugarer) Module(mod *ast.Module) (*core.Program, []error) {
	prog := &core.Program{}
	var errs []error
	for _, decl := range mod.Decls {
		switch decl := decl.(type) {
		case *ast.Let:
			e, err := d.Let(decl)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			prog.Decls = append(prog.Decls, core.Decl{
				Name:  declName(decl.Pattern),
				Names: patternNames(decl.Pattern),
				Expr:  e,
			})

		case *ast.LetRec:
			e, err := d.LetRec(decl)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			var names []string
			for _, b := range decl.Bindings {
				names = append(names, patternNames(b.Pattern)...)
			}
			prog.Decls = append(prog.Decls, core.Decl{Names: names, Expr: e})

		case *ast.TypeDecl, *ast.ExternalDecl:
			// consumed directly by the environment builder (spec.md §4.2)

		default:
			errs = append(errs, fmt.Errorf("desugar: unsupported top-level declaration %T", decl))
		}
	}
	return prog, errs
}

func declName(p ast.Pattern) string {
	if vp, ok := p.(*ast.VarPattern); ok {
		return vp.Name
	}
	return ""
}

func patternNames(p ast.Pattern) []string {
	var names []string
	collectPatternNames(p, &names)
	return names
}

func collectPatternNames(p ast.Pattern, out *[]string) {
	switch p := p.(type) {
	case *ast.VarPattern:
		*out = append(*out, p.Name)
	case *ast.VariantPattern:
		for _, a := range p.Args {
			collectPatternNames(a, out)
		}
	case *ast.RecordPattern:
		for _, f := range p.Fields {
			collectPatternNames(f.Pattern, out)
		}
	}
}

// Expr desugars one surface expression to Core (spec.md §4.1 rewrites 1-8).
func (d *Desugarer) Expr(e ast.Expr) (core.Expr, error) {
	switch e := e.(type) {
	case *ast.Literal:
		return &core.Lit{Node: d.node(e.Pos), Kind: core.LitKind(e.Kind), Value: e.Value}, nil

	case *ast.Identifier:
		return &core.Var{Node: d.node(e.Pos), Name: e.Name}, nil

	case *ast.Lambda:
		return d.lambda(e)

	case *ast.FuncCall:
		fn, err := d.Expr(e.Func)
		if err != nil {
			return nil, err
		}
		args := make([]core.Expr, len(e.Args))
		for i, a := range e.Args {
			ca, err := d.Expr(a)
			if err != nil {
				return nil, err
			}
			args[i] = ca
		}
		return &core.App{Node: d.node(e.Pos), Func: fn, Args: args}, nil

	case *ast.If:
		return d.ifExpr(e)

	case *ast.Pipe:
		// x |> f  ⇒  App f [x] (spec.md §4.1 rewrite 3)
		left, err := d.Expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.Expr(e.Right)
		if err != nil {
			return nil, err
		}
		return &core.App{Node: d.node(e.Pos), Func: right, Args: []core.Expr{left}}, nil

	case *ast.Compose:
		return d.compose(e)

	case *ast.Block:
		return d.block(e)

	case *ast.Let:
		return d.Let(e)

	case *ast.LetRec:
		return d.LetRec(e)

	case *ast.Match:
		return d.match(e)

	case *ast.RecordLit:
		return d.recordLit(e)

	case *ast.RecordAccess:
		rec, err := d.Expr(e.Record)
		if err != nil {
			return nil, err
		}
		return &core.RecordAccess{Node: d.node(e.Pos), Record: rec, Field: e.Field}, nil

	case *ast.RecordUpdateLit:
		return d.recordUpdate(e)

	case *ast.ListLit:
		return d.listLit(e)

	case *ast.ConsExpr:
		head, err := d.Expr(e.Head)
		if err != nil {
			return nil, err
		}
		tail, err := d.Expr(e.Tail)
		if err != nil {
			return nil, err
		}
		return &core.BinOp{Node: d.node(e.Pos), Op: core.OpCons, Left: head, Right: tail}, nil

	case *ast.VariantExpr:
		args := make([]core.Expr, len(e.Args))
		for i, a := range e.Args {
			ca, err := d.Expr(a)
			if err != nil {
				return nil, err
			}
			args[i] = ca
		}
		return &core.Variant{Node: d.node(e.Pos), Ctor: e.Name, Args: args}, nil

	case *ast.BinOp:
		return d.binOp(e)

	case *ast.UnaryOp:
		return d.unaryOp(e)

	case *ast.TypeAnnotation:
		inner, err := d.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &core.TypeAnnotation{Node: d.node(e.Pos), Expr: inner, TypeText: renderType(e.Type)}, nil

	case *ast.Unsafe:
		inner, err := d.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &core.Unsafe{Node: d.node(e.Pos), Expr: inner}, nil

	case *ast.RefExpr:
		// A bare ref(e) outside of `let mut` lowers directly to the opaque
		// Ref constructor (spec.md §4.1 rewrite 8 names the `let mut`
		// lowering; a standalone ref() shares the same target shape).
		inner, err := d.Expr(e.Value)
		if err != nil {
			return nil, err
		}
		return &core.Variant{Node: d.node(e.Pos), Ctor: "Ref", Args: []core.Expr{inner}}, nil

	case *ast.DerefOrNot:
		operand, err := d.Expr(e.Operand)
		if err != nil {
			return nil, err
		}
		// Ambiguity between logical-not and dereference is resolved by the
		// checker once the operand's type is known (spec.md §4.1 rewrite 8).
		return &core.UnaryOp{Node: d.node(e.Pos), Op: core.OpNot, Operand: operand}, nil

	case *ast.AssignExpr:
		target, err := d.Expr(e.Target)
		if err != nil {
			return nil, err
		}
		value, err := d.Expr(e.Value)
		if err != nil {
			return nil, err
		}
		return &core.BinOp{Node: d.node(e.Pos), Op: core.OpAssignOp, Left: target, Right: value}, nil

	default:
		return nil, fmt.Errorf("desugar: unsupported surface expression %T", e)
	}
}

// lambda curries an n-ary surface lambda into nested single-parameter
// Lambdas (spec.md §4.1 rewrite 1). A zero-parameter lambda (`() => e`)
// takes a single wildcard-pattern parameter so it still fits the Core shape.
func (d *Desugarer) lambda(l *ast.Lambda) (core.Expr, error) {
	body, err := d.Expr(l.Body)
	if err != nil {
		return nil, err
	}
	if len(l.Params) == 0 {
		return &core.Lambda{Node: d.node(l.Pos), Param: &core.WildcardPattern{}, Body: body}, nil
	}
	for i := len(l.Params) - 1; i >= 0; i-- {
		p := l.Params[i]
		pat := core.Pattern(&core.VarPattern{Name: p.Name})
		body = &core.Lambda{Node: d.node(p.Pos), Param: pat, Body: body}
	}
	return body, nil
}

// ifExpr lowers `if c then t else e` to `Match c { True -> t | False -> e }`
// (spec.md §4.1 rewrite 2).
func (d *Desugarer) ifExpr(i *ast.If) (core.Expr, error) {
	cond, err := d.Expr(i.Cond)
	if err != nil {
		return nil, err
	}
	thenE, err := d.Expr(i.Then)
	if err != nil {
		return nil, err
	}
	elseE, err := d.Expr(i.Else)
	if err != nil {
		return nil, err
	}
	return &core.Match{
		Node:      d.node(i.Pos),
		Scrutinee: cond,
		Cases: []core.MatchCase{
			{Pattern: &core.VariantPattern{Ctor: "True"}, Body: thenE},
			{Pattern: &core.VariantPattern{Ctor: "False"}, Body: elseE},
		},
	}, nil
}

// compose lowers `f >> g` to `Lambda x . App g [App f [x]]` (spec.md §4.1
// rewrite 3), binding a fresh parameter name so repeated composition in the
// same scope never collides.
func (d *Desugarer) compose(c *ast.Compose) (core.Expr, error) {
	f, err := d.Expr(c.Left)
	if err != nil {
		return nil, err
	}
	g, err := d.Expr(c.Right)
	if err != nil {
		return nil, err
	}
	x := d.ren.Fresh("x")
	param := &core.VarPattern{Name: x}
	inner := &core.App{Node: d.node(c.Pos), Func: f, Args: []core.Expr{&core.Var{Node: d.node(c.Pos), Name: x}}}
	outer := &core.App{Node: d.node(c.Pos), Func: g, Args: []core.Expr{inner}}
	return &core.Lambda{Node: d.node(c.Pos), Param: param, Body: outer}, nil
}

// block right-folds `{ s1; s2; ...; e }` into a Let chain: every
// non-trailing statement is bound to a fresh wildcard binder, and a
// trailing `;` (Last == nil) forces the block's result to Unit (spec.md
// §4.1 rewrite 4).
func (d *Desugarer) block(b *ast.Block) (core.Expr, error) {
	var result core.Expr
	if b.Last != nil {
		last, err := d.Expr(b.Last)
		if err != nil {
			return nil, err
		}
		result = last
	} else {
		result = &core.Lit{Node: d.node(b.Pos), Kind: core.UnitLit, Value: nil}
	}
	for i := len(b.Stmts) - 1; i >= 0; i-- {
		stmt, err := d.Expr(b.Stmts[i])
		if err != nil {
			return nil, err
		}
		result = &core.Let{
			Node:    d.node(b.Stmts[i].Position()),
			Pattern: &core.WildcardPattern{},
			Value:   stmt,
			Body:    result,
		}
	}
	return result, nil
}

// Let desugars a surface `let`/`let mut` into a core.Let, validating the
// `let mut` shape constraints (spec.md §4.1 rewrite 8, VF2001/VF2002).
func (d *Desugarer) Let(l *ast.Let) (core.Expr, error) {
	if l.Mutable {
		if _, ok := l.Value.(*ast.RefExpr); !ok {
			return nil, &diag.Report{Code: diag.MutableBindingMustUseRef, Phase: "desugar",
				Message: "`let mut` requires the value to be `ref(...)`",
				Span:    spanOf(l.Pos)}
		}
		if _, ok := l.Pattern.(*ast.VarPattern); !ok {
			return nil, &diag.Report{Code: diag.MutableBindingMustUseSimplePattern, Phase: "desugar",
				Message: "`let mut` requires a simple variable pattern",
				Span:    spanOf(l.Pos)}
		}
	}
	pat, err := d.Pattern(l.Pattern)
	if err != nil {
		return nil, err
	}
	value, err := d.Expr(l.Value)
	if err != nil {
		return nil, err
	}
	var body core.Expr
	if l.Body != nil {
		body, err = d.Expr(l.Body)
		if err != nil {
			return nil, err
		}
	}
	return &core.Let{
		Node: d.node(l.Pos), Pattern: pat, Value: value, Body: body,
		Mutable: l.Mutable, Recursive: l.Recursive,
	}, nil
}

// LetRec desugars `let rec f = ... and g = ...` (spec.md §4.1 rewrite 9).
func (d *Desugarer) LetRec(l *ast.LetRec) (core.Expr, error) {
	bindings := make([]core.RecBinding, len(l.Bindings))
	for i, b := range l.Bindings {
		pat, err := d.Pattern(b.Pattern)
		if err != nil {
			return nil, err
		}
		if _, ok := pat.(*core.VarPattern); !ok {
			return nil, fmt.Errorf("desugar: let rec binding %d must be a simple name", i)
		}
		value, err := d.Expr(b.Value)
		if err != nil {
			return nil, err
		}
		bindings[i] = core.RecBinding{Pattern: pat, Value: value, Mutable: b.Mutable}
	}
	var body core.Expr
	if l.Body != nil {
		var err error
		body, err = d.Expr(l.Body)
		if err != nil {
			return nil, err
		}
	}
	return &core.LetRecExpr{Node: d.node(l.Pos), Bindings: bindings, Body: body}, nil
}

func (d *Desugarer) match(m *ast.Match) (core.Expr, error) {
	scrutinee, err := d.Expr(m.Scrutinee)
	if err != nil {
		return nil, err
	}
	cases := make([]core.MatchCase, len(m.Cases))
	for i, c := range m.Cases {
		pat, err := d.Pattern(c.Pattern)
		if err != nil {
			return nil, err
		}
		var guard core.Expr
		if c.Guard != nil {
			guard, err = d.Expr(c.Guard)
			if err != nil {
				return nil, err
			}
		}
		body, err := d.Expr(c.Body)
		if err != nil {
			return nil, err
		}
		cases[i] = core.MatchCase{Pattern: pat, Guard: guard, Body: body}
	}
	return &core.Match{Node: d.node(m.Pos), Scrutinee: scrutinee, Cases: cases}, nil
}

// recordLit desugars a record literal preserving field/spread order;
// later entries override earlier ones for the same field name (I4).
func (d *Desugarer) recordLit(r *ast.RecordLit) (core.Expr, error) {
	entries, err := d.recordEntries(r.Fields)
	if err != nil {
		return nil, err
	}
	return &core.Record{Node: d.node(r.Pos), Entries: entries}, nil
}

// recordUpdate desugars `{ ...r, x: v }` to an explicit RecordUpdate node
// seeded with a spread of the base record, preserving spread-then-field
// precedence (spec.md §4.1 rewrite 7).
func (d *Desugarer) recordUpdate(r *ast.RecordUpdateLit) (core.Expr, error) {
	base, err := d.Expr(r.Record)
	if err != nil {
		return nil, err
	}
	updates, err := d.recordEntries(r.Updates)
	if err != nil {
		return nil, err
	}
	entries := append([]core.RecordEntry{core.RecordSpread{Value: base}}, updates...)
	return &core.RecordUpdate{Node: d.node(r.Pos), Record: base, Entries: entries}, nil
}

func (d *Desugarer) recordEntries(fields []ast.RecordFieldOrSpread) ([]core.RecordEntry, error) {
	entries := make([]core.RecordEntry, len(fields))
	for i, f := range fields {
		switch f := f.(type) {
		case *ast.RecordField:
			v, err := d.Expr(f.Value)
			if err != nil {
				return nil, err
			}
			entries[i] = core.RecordField{Name: f.Name, Value: v}
		case *ast.RecordSpread:
			v, err := d.Expr(f.Value)
			if err != nil {
				return nil, err
			}
			entries[i] = core.RecordSpread{Value: v}
		default:
			return nil, fmt.Errorf("desugar: unsupported record entry %T", f)
		}
	}
	return entries, nil
}

// listLit lowers `[a, b, ...xs]` to nested Cons applications terminated by
// either the spread tail or Nil (spec.md §4.1 rewrite 5).
func (d *Desugarer) listLit(l *ast.ListLit) (core.Expr, error) {
	var tail core.Expr
	if l.Tail != nil {
		t, err := d.Expr(l.Tail)
		if err != nil {
			return nil, err
		}
		tail = t
	} else {
		tail = &core.Variant{Node: d.node(l.Pos), Ctor: "Nil"}
	}
	for i := len(l.Elements) - 1; i >= 0; i-- {
		elem, err := d.Expr(l.Elements[i])
		if err != nil {
			return nil, err
		}
		tail = &core.BinOp{Node: d.node(l.Pos), Op: core.OpCons, Left: elem, Right: tail}
	}
	return tail, nil
}

func (d *Desugarer) binOp(b *ast.BinOp) (core.Expr, error) {
	left, err := d.Expr(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := d.Expr(b.Right)
	if err != nil {
		return nil, err
	}
	op, ok := binOpKind(b.Op)
	if !ok {
		return nil, fmt.Errorf("desugar: unsupported binary operator %q", b.Op)
	}
	if op == core.OpConcat {
		return &core.BinOp{Node: d.node(b.Pos), Op: core.OpConcat, Left: left, Right: right}, nil
	}
	return &core.BinOp{Node: d.node(b.Pos), Op: op, Left: left, Right: right}, nil
}

func binOpKind(op string) (core.BinOpKind, bool) {
	switch op {
	case "+":
		return core.OpAdd, true
	case "-":
		return core.OpSub, true
	case "*":
		return core.OpMul, true
	case "/":
		return core.OpDiv, true
	case "%":
		return core.OpMod, true
	case "&":
		return core.OpConcat, true
	case "::":
		return core.OpCons, true
	case "<":
		return core.OpLt, true
	case "<=":
		return core.OpLe, true
	case ">":
		return core.OpGt, true
	case ">=":
		return core.OpGe, true
	case "==":
		return core.OpEq, true
	case "!=":
		return core.OpNe, true
	case "&&":
		return core.OpAnd, true
	case "||":
		return core.OpOr, true
	case ":=":
		return core.OpAssignOp, true
	default:
		return "", false
	}
}

func (d *Desugarer) unaryOp(u *ast.UnaryOp) (core.Expr, error) {
	operand, err := d.Expr(u.Operand)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case "-":
		return &core.UnaryOp{Node: d.node(u.Pos), Op: core.OpNeg, Operand: operand}, nil
	case "!":
		// Logical-not vs. dereference is disambiguated by the checker once
		// the operand's type is known (spec.md §3 UnaryOp notes).
		return &core.UnaryOp{Node: d.node(u.Pos), Op: core.OpNot, Operand: operand}, nil
	default:
		return nil, fmt.Errorf("desugar: unsupported unary operator %q", u.Op)
	}
}

// Pattern desugars a surface pattern to its Core counterpart, enforcing
// linearity is left to the checker (I5) since it requires comparing across
// or-pattern branches that the current grammar does not yet expose.
func (d *Desugarer) Pattern(p ast.Pattern) (core.Pattern, error) {
	switch p := p.(type) {
	case *ast.WildcardPattern:
		return &core.WildcardPattern{}, nil
	case *ast.VarPattern:
		return &core.VarPattern{Name: p.Name}, nil
	case *ast.LiteralPattern:
		return &core.LitPattern{Kind: core.LitKind(p.Kind), Value: p.Value}, nil
	case *ast.VariantPattern:
		args := make([]core.Pattern, len(p.Args))
		for i, a := range p.Args {
			ca, err := d.Pattern(a)
			if err != nil {
				return nil, err
			}
			args[i] = ca
		}
		return &core.VariantPattern{Ctor: p.Name, Args: args}, nil
	case *ast.RecordPattern:
		fields := make([]core.RecordPatternField, len(p.Fields))
		for i, f := range p.Fields {
			cp, err := d.Pattern(f.Pattern)
			if err != nil {
				return nil, err
			}
			fields[i] = core.RecordPatternField{Name: f.Name, Pattern: cp}
		}
		return &core.RecordPattern{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("desugar: unsupported surface pattern %T", p)
	}
}

func renderType(te ast.TypeExpr) string {
	switch te := te.(type) {
	case *ast.TypeName:
		if len(te.Args) == 0 {
			return te.Name
		}
		s := te.Name + "<"
		for i, a := range te.Args {
			if i > 0 {
				s += ", "
			}
			s += renderType(a)
		}
		return s + ">"
	case *ast.FuncTypeExpr:
		s := "("
		for i, p := range te.Params {
			if i > 0 {
				s += ", "
			}
			s += renderType(p)
		}
		return s + ") -> " + renderType(te.Result)
	case *ast.RecordTypeExpr:
		s := "{"
		first := true
		for n, f := range te.Fields {
			if !first {
				s += ", "
			}
			first = false
			s += n + ": " + renderType(f)
		}
		return s + "}"
	case *ast.UnionTypeExpr:
		s := ""
		for i, m := range te.Members {
			if i > 0 {
				s += " | "
			}
			s += renderType(m)
		}
		return s
	default:
		return "?"
	}
}

func spanOf(p ast.Pos) *diag.Span {
	return &diag.Span{File: p.File, Line: p.Line, Column: p.Column}
}
