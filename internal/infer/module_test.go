package infer

import (
	"strings"
	"testing"

	"github.com/mbcrawfo/vibefun-sub010/internal/ast"
	"github.com/mbcrawfo/vibefun-sub010/internal/core"
	"github.com/mbcrawfo/vibefun-sub010/internal/diag"
	"github.com/mbcrawfo/vibefun-sub010/internal/scenario"
	"github.com/mbcrawfo/vibefun-sub010/internal/types"
)

func loadScenario(t *testing.T, name string) scenario.Scenario {
	t.Helper()
	scenarios, err := scenario.LoadDir("../scenario/testdata/scenarios")
	if err != nil {
		t.Fatalf("loading scenario fixtures: %v", err)
	}
	s, ok := scenario.ByName(scenarios)[name]
	if !ok {
		t.Fatalf("scenario %q not found", name)
	}
	return s
}

// factorialProgram builds the Core form of the "factorial" fixture's source
// by hand, since this module has no parser to turn Source into a program.
func factorialProgram() *core.Program {
	body := &core.Match{
		Scrutinee: &core.Var{Name: "n"},
		Cases: []core.MatchCase{
			{Pattern: &core.LitPattern{Kind: core.IntLit, Value: int64(0)}, Body: &core.Lit{Kind: core.IntLit, Value: int64(1)}},
			{Pattern: &core.VarPattern{Name: "m"}, Body: &core.BinOp{
				Op:   core.OpMul,
				Left: &core.Var{Name: "m"},
				Right: &core.App{Func: &core.Var{Name: "factorial"}, Args: []core.Expr{
					&core.BinOp{Op: core.OpSub, Left: &core.Var{Name: "m"}, Right: &core.Lit{Kind: core.IntLit, Value: int64(1)}},
				}},
			}},
		},
	}
	letRec := &core.LetRecExpr{Bindings: []core.RecBinding{
		{Pattern: &core.VarPattern{Name: "factorial"}, Value: &core.Lambda{Param: &core.VarPattern{Name: "n"}, Body: body}},
	}}
	return &core.Program{Decls: []core.Decl{{Names: []string{"factorial"}, Expr: letRec}}}
}

func TestEndToEndFactorialInfersIntToInt(t *testing.T) {
	s := loadScenario(t, "factorial")
	env, errs := BuildEnv(types.NewEnv(), &ast.Module{})
	if len(errs) != 0 {
		t.Fatalf("unexpected BuildEnv errors: %v", errs)
	}
	checker := NewChecker()
	finalEnv, errs := checker.InferProgram(env, factorialProgram())
	if len(errs) != 0 {
		t.Fatalf("unexpected InferProgram errors: %v", errs)
	}
	b, ok := finalEnv.LookupValue("factorial")
	if !ok {
		t.Fatal("factorial should be bound after InferProgram")
	}
	got := types.Apply(checker.Ctx.Sub, b.SchemeOf().Body).String()
	if got != s.ExpectedType {
		t.Errorf("factorial : %s, want %s (per scenario fixture)", got, s.ExpectedType)
	}
}

func mutualRecursionProgram() *core.Program {
	isEvenBody := &core.Match{
		Scrutinee: &core.BinOp{Op: core.OpEq, Left: &core.Var{Name: "n"}, Right: &core.Lit{Kind: core.IntLit, Value: int64(0)}},
		Cases: []core.MatchCase{
			{Pattern: &core.VariantPattern{Ctor: "True"}, Body: &core.Variant{Ctor: "True"}},
			{Pattern: &core.VariantPattern{Ctor: "False"}, Body: &core.App{Func: &core.Var{Name: "isOdd"}, Args: []core.Expr{
				&core.BinOp{Op: core.OpSub, Left: &core.Var{Name: "n"}, Right: &core.Lit{Kind: core.IntLit, Value: int64(1)}},
			}}},
		},
	}
	isOddBody := &core.Match{
		Scrutinee: &core.BinOp{Op: core.OpEq, Left: &core.Var{Name: "n"}, Right: &core.Lit{Kind: core.IntLit, Value: int64(0)}},
		Cases: []core.MatchCase{
			{Pattern: &core.VariantPattern{Ctor: "True"}, Body: &core.Variant{Ctor: "False"}},
			{Pattern: &core.VariantPattern{Ctor: "False"}, Body: &core.App{Func: &core.Var{Name: "isEven"}, Args: []core.Expr{
				&core.BinOp{Op: core.OpSub, Left: &core.Var{Name: "n"}, Right: &core.Lit{Kind: core.IntLit, Value: int64(1)}},
			}}},
		},
	}
	letRec := &core.LetRecExpr{Bindings: []core.RecBinding{
		{Pattern: &core.VarPattern{Name: "isEven"}, Value: &core.Lambda{Param: &core.VarPattern{Name: "n"}, Body: isEvenBody}},
		{Pattern: &core.VarPattern{Name: "isOdd"}, Value: &core.Lambda{Param: &core.VarPattern{Name: "n"}, Body: isOddBody}},
	}}
	return &core.Program{Decls: []core.Decl{{Names: []string{"isEven", "isOdd"}, Expr: letRec}}}
}

func TestEndToEndMutualRecursionInfersBothArmsAsIntToBool(t *testing.T) {
	env := types.NewEnv()
	checker := NewChecker()
	finalEnv, errs := checker.InferProgram(env, mutualRecursionProgram())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	for _, name := range []string{"isEven", "isOdd"} {
		b, ok := finalEnv.LookupValue(name)
		if !ok {
			t.Fatalf("%s should be bound", name)
		}
		got := types.Apply(checker.Ctx.Sub, b.SchemeOf().Body).String()
		if got != "Int -> Bool" {
			t.Errorf("%s : %s, want Int -> Bool", name, got)
		}
	}
}

func recordFieldAccessProgram() *core.Program {
	person := &core.Let{Pattern: &core.VarPattern{Name: "person"}, Value: &core.Record{Entries: []core.RecordEntry{
		core.RecordField{Name: "name", Value: &core.Lit{Kind: core.StringLit, Value: "Alice"}},
		core.RecordField{Name: "age", Value: &core.Lit{Kind: core.IntLit, Value: int64(30)}},
	}}}
	nameDecl := &core.Let{Pattern: &core.VarPattern{Name: "name"},
		Value: &core.RecordAccess{Record: &core.Var{Name: "person"}, Field: "name"}}
	ageDecl := &core.Let{Pattern: &core.VarPattern{Name: "age"},
		Value: &core.RecordAccess{Record: &core.Var{Name: "person"}, Field: "age"}}
	return &core.Program{Decls: []core.Decl{
		{Name: "person", Names: []string{"person"}, Expr: person},
		{Name: "name", Names: []string{"name"}, Expr: nameDecl},
		{Name: "age", Names: []string{"age"}, Expr: ageDecl},
	}}
}

func TestEndToEndRecordFieldAccess(t *testing.T) {
	env := types.NewEnv()
	checker := NewChecker()
	finalEnv, errs := checker.InferProgram(env, recordFieldAccessProgram())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	nameB, _ := finalEnv.LookupValue("name")
	ageB, _ := finalEnv.LookupValue("age")
	if types.Apply(checker.Ctx.Sub, nameB.SchemeOf().Body) != types.TString {
		t.Error("name should be String")
	}
	if types.Apply(checker.Ctx.Sub, ageB.SchemeOf().Body) != types.TInt {
		t.Error("age should be Int")
	}
}

func TestEndToEndExhaustivenessMissingNone(t *testing.T) {
	s := loadScenario(t, "exhaustiveness_missing_none")
	env := types.NewEnv()
	checker := NewChecker()
	match := &core.Match{
		Scrutinee: &core.Var{Name: "opt"},
		Cases: []core.MatchCase{
			{Pattern: &core.VariantPattern{Ctor: "Some", Args: []core.Pattern{&core.VarPattern{Name: "x"}}}, Body: &core.Var{Name: "x"}},
		},
	}
	optEnv := env.WithValue("opt", &types.ValueBinding{
		Scheme: types.MonoScheme(&types.TypeApp{Ctor: "Option", Args: []types.Type{types.TInt}}),
	})
	_, err := checker.Infer(optEnv, match)
	if err == nil {
		t.Fatal("expected a non-exhaustive match error")
	}
	rep, ok := diag.AsReport(err)
	if !ok || rep.Code != diag.NonExhaustiveMatch {
		t.Fatalf("expected NonExhaustiveMatch, got %v", err)
	}
	if !strings.Contains(s.Expected, "NonExhaustiveMatch") {
		t.Fatalf("fixture drifted: expected field no longer names NonExhaustiveMatch: %q", s.Expected)
	}
}

func TestBuildEnvRegistersUserDeclaredVariantType(t *testing.T) {
	mod := &ast.Module{Decls: []ast.Decl{
		&ast.TypeDecl{Name: "Color", Constructors: []ast.CtorDecl{{Name: "Red"}, {Name: "Blue"}}},
	}}
	env, errs := BuildEnv(types.NewEnv(), mod)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := env.LookupType("Color"); !ok {
		t.Error("Color should be registered")
	}
	if _, _, ok := env.LookupCtor("Red"); !ok {
		t.Error("Red should resolve as a constructor of Color")
	}
}

func TestBuildEnvRejectsDuplicateTypeDeclaration(t *testing.T) {
	mod := &ast.Module{Decls: []ast.Decl{
		&ast.TypeDecl{Name: "Color", Constructors: []ast.CtorDecl{{Name: "Red"}}},
		&ast.TypeDecl{Name: "Color", Constructors: []ast.CtorDecl{{Name: "Blue"}}},
	}}
	_, errs := BuildEnv(types.NewEnv(), mod)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one duplicate-declaration error, got %v", errs)
	}
}

func TestBuildExternalsMergesOverloadsByArity(t *testing.T) {
	mod := &ast.Module{Decls: []ast.Decl{
		&ast.ExternalDecl{Name: "fetch", JSName: "fetch",
			Overloads: []ast.ExternalOverload{
				{Params: []ast.TypeExpr{&ast.TypeName{Name: "String"}}, Result: &ast.TypeName{Name: "String"}},
				{Params: []ast.TypeExpr{&ast.TypeName{Name: "String"}, &ast.TypeName{Name: "Int"}}, Result: &ast.TypeName{Name: "String"}},
			}},
	}}
	env, errs := BuildEnv(types.NewEnv(), mod)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	b, ok := env.LookupValue("fetch")
	if !ok {
		t.Fatal("fetch should be bound")
	}
	eb, ok := b.(*types.ExternalBinding)
	if !ok || len(eb.Overloads) != 2 {
		t.Fatalf("expected an ExternalBinding with 2 overloads, got %#v", b)
	}
}

func TestBuildExternalsRejectsDuplicateArityOverload(t *testing.T) {
	mod := &ast.Module{Decls: []ast.Decl{
		&ast.ExternalDecl{Name: "fetch", JSName: "fetch",
			Overloads: []ast.ExternalOverload{
				{Params: []ast.TypeExpr{&ast.TypeName{Name: "String"}}, Result: &ast.TypeName{Name: "String"}},
				{Params: []ast.TypeExpr{&ast.TypeName{Name: "String"}}, Result: &ast.TypeName{Name: "Int"}},
			}},
	}}
	_, errs := BuildEnv(types.NewEnv(), mod)
	if len(errs) == 0 {
		t.Fatal("expected an error for two overloads sharing arity 1")
	}
}

func TestInferProgramRecoversAfterAFailingDeclaration(t *testing.T) {
	env := types.NewEnv()
	checker := NewChecker()
	prog := &core.Program{Decls: []core.Decl{
		{Name: "bad", Names: []string{"bad"}, Expr: &core.Let{
			Pattern: &core.VarPattern{Name: "bad"},
			Value:   &core.BinOp{Op: core.OpAdd, Left: &core.Lit{Kind: core.IntLit, Value: int64(1)}, Right: &core.Lit{Kind: core.StringLit, Value: "s"}},
		}},
		{Name: "good", Names: []string{"good"}, Expr: &core.Let{
			Pattern: &core.VarPattern{Name: "good"},
			Value:   &core.Lit{Kind: core.IntLit, Value: int64(1)},
		}},
	}}
	finalEnv, errs := checker.InferProgram(env, prog)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error from the failing declaration, got %v", errs)
	}
	if _, ok := finalEnv.LookupValue("good"); !ok {
		t.Error("the later, independent declaration should still be checked and bound")
	}
}
