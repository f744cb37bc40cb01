package desugar

import (
	"testing"

	"github.com/mbcrawfo/vibefun-sub010/internal/ast"
	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
)

func TestExprLowersLiteralAndIdentifierUnchanged(t *testing.T) {
	d := New()
	lit, err := d.Expr(&ast.Literal{Kind: ast.IntLit, Value: int64(42)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l, ok := lit.(*core.Lit)
	if !ok || l.Value != int64(42) {
		t.Errorf("expected a Core Lit carrying 42, got %#v", lit)
	}

	id, err := d.Expr(&ast.Identifier{Name: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := id.(*core.Var)
	if !ok || v.Name != "x" {
		t.Errorf("expected a Core Var named x, got %#v", id)
	}
}

func TestLambdaCurriesMultipleParams(t *testing.T) {
	d := New()
	lam := &ast.Lambda{
		Params: []*ast.Param{{Name: "a"}, {Name: "b"}},
		Body:   &ast.Identifier{Name: "a"},
	}
	got, err := d.Expr(lam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := got.(*core.Lambda)
	if !ok {
		t.Fatalf("expected outer Lambda, got %T", got)
	}
	if p, ok := outer.Param.(*core.VarPattern); !ok || p.Name != "a" {
		t.Errorf("outer param should be a, got %#v", outer.Param)
	}
	inner, ok := outer.Body.(*core.Lambda)
	if !ok {
		t.Fatalf("expected nested Lambda for second param, got %T", outer.Body)
	}
	if p, ok := inner.Param.(*core.VarPattern); !ok || p.Name != "b" {
		t.Errorf("inner param should be b, got %#v", inner.Param)
	}
}

func TestLambdaWithZeroParamsTakesWildcard(t *testing.T) {
	d := New()
	lam := &ast.Lambda{Body: &ast.Literal{Kind: ast.UnitLit}}
	got, err := d.Expr(lam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer := got.(*core.Lambda)
	if _, ok := outer.Param.(*core.WildcardPattern); !ok {
		t.Errorf("zero-param lambda should bind a wildcard, got %#v", outer.Param)
	}
}

func TestIfLowersToTwoCaseMatchOnTrueFalse(t *testing.T) {
	d := New()
	ifExpr := &ast.If{
		Cond: &ast.Identifier{Name: "c"},
		Then: &ast.Literal{Kind: ast.IntLit, Value: int64(1)},
		Else: &ast.Literal{Kind: ast.IntLit, Value: int64(2)},
	}
	got, err := d.Expr(ifExpr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := got.(*core.Match)
	if !ok {
		t.Fatalf("expected a Match, got %T", got)
	}
	if len(m.Cases) != 2 {
		t.Fatalf("expected exactly 2 cases, got %d", len(m.Cases))
	}
	first, ok := m.Cases[0].Pattern.(*core.VariantPattern)
	if !ok || first.Ctor != "True" {
		t.Errorf("first case should match True, got %#v", m.Cases[0].Pattern)
	}
	second, ok := m.Cases[1].Pattern.(*core.VariantPattern)
	if !ok || second.Ctor != "False" {
		t.Errorf("second case should match False, got %#v", m.Cases[1].Pattern)
	}
}

func TestPipeLowersToApplication(t *testing.T) {
	d := New()
	pipe := &ast.Pipe{Left: &ast.Identifier{Name: "x"}, Right: &ast.Identifier{Name: "f"}}
	got, err := d.Expr(pipe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	app, ok := got.(*core.App)
	if !ok {
		t.Fatalf("expected an App, got %T", got)
	}
	if fn, ok := app.Func.(*core.Var); !ok || fn.Name != "f" {
		t.Errorf("pipe target should become the applied function, got %#v", app.Func)
	}
	if len(app.Args) != 1 {
		t.Fatalf("expected exactly one argument, got %d", len(app.Args))
	}
	if arg, ok := app.Args[0].(*core.Var); !ok || arg.Name != "x" {
		t.Errorf("piped value should become the sole argument, got %#v", app.Args[0])
	}
}

func TestComposeWrapsInAFreshBoundLambda(t *testing.T) {
	d := New()
	comp := &ast.Compose{Left: &ast.Identifier{Name: "f"}, Right: &ast.Identifier{Name: "g"}}
	got, err := d.Expr(comp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lam, ok := got.(*core.Lambda)
	if !ok {
		t.Fatalf("expected a Lambda, got %T", got)
	}
	param, ok := lam.Param.(*core.VarPattern)
	if !ok {
		t.Fatalf("expected a VarPattern param, got %T", lam.Param)
	}
	outer, ok := lam.Body.(*core.App)
	if !ok {
		t.Fatalf("expected body to apply g, got %T", lam.Body)
	}
	if fn, ok := outer.Func.(*core.Var); !ok || fn.Name != "g" {
		t.Errorf("outer application should be g, got %#v", outer.Func)
	}
	inner, ok := outer.Args[0].(*core.App)
	if !ok {
		t.Fatalf("expected g's argument to be App f [x], got %T", outer.Args[0])
	}
	if fn, ok := inner.Func.(*core.Var); !ok || fn.Name != "f" {
		t.Errorf("inner application should be f, got %#v", inner.Func)
	}
	if argVar, ok := inner.Args[0].(*core.Var); !ok || argVar.Name != param.Name {
		t.Errorf("f should be applied to the bound fresh parameter, got %#v", inner.Args[0])
	}
}

func TestComposeGeneratesDistinctFreshNamesPerCall(t *testing.T) {
	d := New()
	comp := &ast.Compose{Left: &ast.Identifier{Name: "f"}, Right: &ast.Identifier{Name: "g"}}
	got1, _ := d.Expr(comp)
	got2, _ := d.Expr(comp)
	name1 := got1.(*core.Lambda).Param.(*core.VarPattern).Name
	name2 := got2.(*core.Lambda).Param.(*core.VarPattern).Name
	if name1 == name2 {
		t.Errorf("two separate compose lowerings should not share a bound parameter name, got %q twice", name1)
	}
}

func TestBlockFoldsStatementsIntoLetChain(t *testing.T) {
	d := New()
	block := &ast.Block{
		Stmts: []ast.Expr{&ast.Identifier{Name: "sideEffect"}},
		Last:  &ast.Identifier{Name: "result"},
	}
	got, err := d.Expr(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	let, ok := got.(*core.Let)
	if !ok {
		t.Fatalf("expected a Let binding the statement, got %T", got)
	}
	if _, ok := let.Pattern.(*core.WildcardPattern); !ok {
		t.Errorf("statement binder should be a wildcard, got %#v", let.Pattern)
	}
	if v, ok := let.Value.(*core.Var); !ok || v.Name != "sideEffect" {
		t.Errorf("let value should be the statement expression, got %#v", let.Value)
	}
	if v, ok := let.Body.(*core.Var); !ok || v.Name != "result" {
		t.Errorf("let body should be the trailing expression, got %#v", let.Body)
	}
}

func TestBlockWithNoTrailingExprForcesUnit(t *testing.T) {
	d := New()
	block := &ast.Block{Stmts: []ast.Expr{&ast.Identifier{Name: "sideEffect"}}}
	got, err := d.Expr(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	let := got.(*core.Let)
	lit, ok := let.Body.(*core.Lit)
	if !ok || lit.Kind != core.UnitLit {
		t.Errorf("a block ending in ';' should produce a Unit result, got %#v", let.Body)
	}
}

func TestLetMutRejectsNonRefValue(t *testing.T) {
	d := New()
	let := &ast.Let{
		Pattern: &ast.VarPattern{Name: "x"},
		Value:   &ast.Literal{Kind: ast.IntLit, Value: int64(1)},
		Mutable: true,
	}
	_, err := d.Let(let)
	if err == nil {
		t.Fatal("expected an error for `let mut` whose value is not ref(...)")
	}
	rep, ok := diag.AsReport(err)
	if !ok || rep.Code != diag.MutableBindingMustUseRef {
		t.Errorf("expected code %q, got %v", diag.MutableBindingMustUseRef, err)
	}
}

func TestLetMutRejectsNonSimplePattern(t *testing.T) {
	d := New()
	let := &ast.Let{
		Pattern: &ast.WildcardPattern{},
		Value:   &ast.RefExpr{Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}},
		Mutable: true,
	}
	_, err := d.Let(let)
	if err == nil {
		t.Fatal("expected an error for `let mut` with a non-variable pattern")
	}
	rep, ok := diag.AsReport(err)
	if !ok || rep.Code != diag.MutableBindingMustUseSimplePattern {
		t.Errorf("expected code %q, got %v", diag.MutableBindingMustUseSimplePattern, err)
	}
}

func TestLetMutAcceptsRefValueWithSimplePattern(t *testing.T) {
	d := New()
	let := &ast.Let{
		Pattern: &ast.VarPattern{Name: "counter"},
		Value:   &ast.RefExpr{Value: &ast.Literal{Kind: ast.IntLit, Value: int64(0)}},
		Mutable: true,
		Body:    &ast.Identifier{Name: "counter"},
	}
	got, err := d.Let(let)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	coreLet, ok := got.(*core.Let)
	if !ok || !coreLet.Mutable {
		t.Errorf("expected a mutable Core Let, got %#v", got)
	}
	variant, ok := coreLet.Value.(*core.Variant)
	if !ok || variant.Ctor != "Ref" {
		t.Errorf("ref(0) should lower to the Ref constructor, got %#v", coreLet.Value)
	}
}

func TestLetRecRejectsNonSimpleBindingPattern(t *testing.T) {
	d := New()
	letRec := &ast.LetRec{
		Bindings: []*ast.LetBinding{
			{Pattern: &ast.WildcardPattern{}, Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}},
		},
	}
	_, err := d.LetRec(letRec)
	if err == nil {
		t.Fatal("expected an error: let rec bindings must be simple names")
	}
}

func TestLetRecLowersMutualBindings(t *testing.T) {
	d := New()
	letRec := &ast.LetRec{
		Bindings: []*ast.LetBinding{
			{Pattern: &ast.VarPattern{Name: "isEven"}, Value: &ast.Identifier{Name: "isEven"}},
			{Pattern: &ast.VarPattern{Name: "isOdd"}, Value: &ast.Identifier{Name: "isOdd"}},
		},
		Body: &ast.Identifier{Name: "isEven"},
	}
	got, err := d.LetRec(letRec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, ok := got.(*core.LetRecExpr)
	if !ok || len(rec.Bindings) != 2 {
		t.Fatalf("expected a LetRecExpr with 2 bindings, got %#v", got)
	}
}

func TestRecordLitPreservesFieldOrder(t *testing.T) {
	d := New()
	lit := &ast.RecordLit{Fields: []ast.RecordFieldOrSpread{
		&ast.RecordField{Name: "x", Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}},
		&ast.RecordField{Name: "y", Value: &ast.Literal{Kind: ast.IntLit, Value: int64(2)}},
	}}
	got, err := d.Expr(lit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, ok := got.(*core.Record)
	if !ok || len(rec.Entries) != 2 {
		t.Fatalf("expected a 2-entry Record, got %#v", got)
	}
	first, ok := rec.Entries[0].(core.RecordField)
	if !ok || first.Name != "x" {
		t.Errorf("expected first entry to be field x, got %#v", rec.Entries[0])
	}
}

func TestRecordUpdateSeedsWithBaseSpread(t *testing.T) {
	d := New()
	upd := &ast.RecordUpdateLit{
		Record: &ast.Identifier{Name: "r"},
		Updates: []ast.RecordFieldOrSpread{
			&ast.RecordField{Name: "x", Value: &ast.Literal{Kind: ast.IntLit, Value: int64(9)}},
		},
	}
	got, err := d.Expr(upd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ru, ok := got.(*core.RecordUpdate)
	if !ok {
		t.Fatalf("expected a RecordUpdate, got %T", got)
	}
	if len(ru.Entries) != 2 {
		t.Fatalf("expected spread + 1 field, got %d entries", len(ru.Entries))
	}
	if _, ok := ru.Entries[0].(core.RecordSpread); !ok {
		t.Errorf("base record must be spread first, got %#v", ru.Entries[0])
	}
}

func TestListLitLowersToConsChainTerminatedByNil(t *testing.T) {
	d := New()
	list := &ast.ListLit{Elements: []ast.Expr{
		&ast.Literal{Kind: ast.IntLit, Value: int64(1)},
		&ast.Literal{Kind: ast.IntLit, Value: int64(2)},
	}}
	got, err := d.Expr(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := got.(*core.BinOp)
	if !ok || outer.Op != core.OpCons {
		t.Fatalf("expected an outer Cons, got %#v", got)
	}
	inner, ok := outer.Right.(*core.BinOp)
	if !ok || inner.Op != core.OpCons {
		t.Fatalf("expected a nested Cons for the second element, got %#v", outer.Right)
	}
	if _, ok := inner.Right.(*core.Variant); !ok {
		t.Errorf("list should terminate in the Nil constructor, got %#v", inner.Right)
	}
}

func TestListLitWithSpreadTailSkipsNil(t *testing.T) {
	d := New()
	list := &ast.ListLit{
		Elements: []ast.Expr{&ast.Literal{Kind: ast.IntLit, Value: int64(1)}},
		Tail:     &ast.Identifier{Name: "rest"},
	}
	got, err := d.Expr(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cons := got.(*core.BinOp)
	if v, ok := cons.Right.(*core.Var); !ok || v.Name != "rest" {
		t.Errorf("spread tail should terminate the cons chain, got %#v", cons.Right)
	}
}

func TestVariantExprLowersCtorAndArgs(t *testing.T) {
	d := New()
	variant := &ast.VariantExpr{Name: "Some", Args: []ast.Expr{&ast.Literal{Kind: ast.IntLit, Value: int64(5)}}}
	got, err := d.Expr(variant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := got.(*core.Variant)
	if !ok || v.Ctor != "Some" || len(v.Args) != 1 {
		t.Errorf("expected Variant Some with 1 arg, got %#v", got)
	}
}

func TestBinOpMapsSurfaceOperatorToCoreKind(t *testing.T) {
	d := New()
	add := &ast.BinOp{Op: "+", Left: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}, Right: &ast.Literal{Kind: ast.IntLit, Value: int64(2)}}
	got, err := d.Expr(add)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := got.(*core.BinOp); !ok || b.Op != core.OpAdd {
		t.Errorf("expected OpAdd, got %#v", got)
	}
}

func TestUnaryOpMapsNegationAndNot(t *testing.T) {
	d := New()
	neg, err := d.Expr(&ast.UnaryOp{Op: "-", Operand: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u, ok := neg.(*core.UnaryOp); !ok || u.Op != core.OpNeg {
		t.Errorf("expected OpNeg, got %#v", neg)
	}

	not, err := d.Expr(&ast.UnaryOp{Op: "!", Operand: &ast.Identifier{Name: "flag"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u, ok := not.(*core.UnaryOp); !ok || u.Op != core.OpNot {
		t.Errorf("expected OpNot, got %#v", not)
	}
}

func TestAssignExprLowersToAssignOp(t *testing.T) {
	d := New()
	assign := &ast.AssignExpr{Target: &ast.Identifier{Name: "r"}, Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}}
	got, err := d.Expr(assign)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := got.(*core.BinOp); !ok || b.Op != core.OpAssignOp {
		t.Errorf("expected OpAssignOp, got %#v", got)
	}
}

func TestBareRefLowersToRefConstructor(t *testing.T) {
	d := New()
	got, err := d.Expr(&ast.RefExpr{Value: &ast.Literal{Kind: ast.IntLit, Value: int64(3)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := got.(*core.Variant); !ok || v.Ctor != "Ref" {
		t.Errorf("expected a Ref variant, got %#v", got)
	}
}

func TestModuleSkipsTypeAndExternalDecls(t *testing.T) {
	d := New()
	mod := &ast.Module{
		Name: "m",
		Decls: []ast.Decl{
			&ast.TypeDecl{Name: "Color"},
			&ast.Let{Pattern: &ast.VarPattern{Name: "one"}, Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}},
		},
	}
	prog, errs := d.Module(mod)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(prog.Decls) != 1 || prog.Decls[0].Name != "one" {
		t.Errorf("expected exactly the one Let declaration to survive, got %#v", prog.Decls)
	}
}

func TestPatternLoweringHandlesVariantAndRecordShapes(t *testing.T) {
	d := New()
	p, err := d.Pattern(&ast.VariantPattern{
		Name: "Some",
		Args: []ast.Pattern{&ast.VarPattern{Name: "x"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vp, ok := p.(*core.VariantPattern)
	if !ok || vp.Ctor != "Some" || len(vp.Args) != 1 {
		t.Errorf("expected a VariantPattern Some(x), got %#v", p)
	}

	rp, err := d.Pattern(&ast.RecordPattern{Fields: []ast.RecordPatternField{
		{Name: "x", Pattern: &ast.VarPattern{Name: "x"}},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	coreRP, ok := rp.(*core.RecordPattern)
	if !ok || len(coreRP.Fields) != 1 {
		t.Errorf("expected a RecordPattern with 1 field, got %#v", rp)
	}
}
