package core

import "testing"

func TestFreeVarsExcludesLambdaParam(t *testing.T) {
	e := &Lambda{Param: &VarPattern{Name: "x"}, Body: &App{Func: &Var{Name: "f"}, Args: []Expr{&Var{Name: "x"}}}}
	fv := FreeVars(e)
	if fv["x"] {
		t.Error("x is bound by the lambda and must not be free")
	}
	if !fv["f"] {
		t.Error("f is free and should be reported")
	}
}

func TestFreeVarsRecursiveLetIncludesValueScope(t *testing.T) {
	// let rec f = f in body: f is bound in both value and body.
	e := &Let{
		Pattern:   &VarPattern{Name: "f"},
		Value:     &Var{Name: "f"},
		Body:      &Var{Name: "f"},
		Recursive: true,
	}
	fv := FreeVars(e)
	if fv["f"] {
		t.Error("recursive let must bind f in its own value")
	}
}

func TestFreeVarsNonRecursiveLetValueScopeExcludesBinder(t *testing.T) {
	// let x = x in x: the RHS x refers to an outer binding, so it IS free.
	e := &Let{
		Pattern: &VarPattern{Name: "x"},
		Value:   &Var{Name: "x"},
		Body:    &Var{Name: "x"},
	}
	fv := FreeVars(e)
	if !fv["x"] {
		t.Error("non-recursive let's value scope should see the outer x, making it free")
	}
}

func TestSubstReplacesFreeOccurrences(t *testing.T) {
	ren := NewRenamer()
	// (\y -> x) [x := 1]  =>  (\y -> 1)
	e := &Lambda{Param: &VarPattern{Name: "y"}, Body: &Var{Name: "x"}}
	result := Subst(e, "x", &Lit{Kind: IntLit, Value: int64(1)}, ren)
	lam, ok := result.(*Lambda)
	if !ok {
		t.Fatalf("expected *Lambda, got %T", result)
	}
	lit, ok := lam.Body.(*Lit)
	if !ok || lit.Value.(int64) != 1 {
		t.Errorf("expected body to become literal 1, got %v", lam.Body)
	}
}

func TestSubstDoesNotDescendPastShadowingBinder(t *testing.T) {
	ren := NewRenamer()
	// (\x -> x) [x := 1] => (\x -> x) unchanged: x is shadowed.
	e := &Lambda{Param: &VarPattern{Name: "x"}, Body: &Var{Name: "x"}}
	result := Subst(e, "x", &Lit{Kind: IntLit, Value: int64(1)}, ren)
	if !StructEqual(result, e) {
		t.Errorf("shadowed binder should prevent substitution, got %v", result)
	}
}

func TestSubstAvoidsCaptureByAlphaRenaming(t *testing.T) {
	ren := NewRenamer()
	// subst(x -> y, (\y -> x)) must alpha-rename the inner y before
	// substituting, or the free y in the replacement would be captured.
	e := &Lambda{Param: &VarPattern{Name: "y"}, Body: &Var{Name: "x"}}
	result := Subst(e, "x", &Var{Name: "y"}, ren)
	lam, ok := result.(*Lambda)
	if !ok {
		t.Fatalf("expected *Lambda, got %T", result)
	}
	param, ok := lam.Param.(*VarPattern)
	if !ok {
		t.Fatalf("expected *VarPattern param, got %T", lam.Param)
	}
	if param.Name == "y" {
		t.Fatal("inner binder must be alpha-renamed away from the captured name y")
	}
	body, ok := lam.Body.(*Var)
	if !ok || body.Name != "y" {
		t.Errorf("body should reference the substituted y, got %v", lam.Body)
	}
}

func TestStructEqualIgnoresNodeIDs(t *testing.T) {
	a := &Var{Node: Node{NodeID: 1}, Name: "x"}
	b := &Var{Node: Node{NodeID: 99}, Name: "x"}
	if !StructEqual(a, b) {
		t.Error("StructEqual should ignore differing node IDs")
	}
	c := &Var{Node: Node{NodeID: 1}, Name: "y"}
	if StructEqual(a, c) {
		t.Error("StructEqual should distinguish differing names")
	}
}

func TestStructEqualOnNestedExpressions(t *testing.T) {
	mk := func() Expr {
		return &BinOp{Op: OpAdd,
			Left:  &Lit{Kind: IntLit, Value: int64(1)},
			Right: &Var{Name: "x"},
		}
	}
	if !StructEqual(mk(), mk()) {
		t.Error("two structurally identical trees built independently should be equal")
	}
}

func TestSizeCountsNodes(t *testing.T) {
	// (x + 1): BinOp + Var + Lit = 3
	e := &BinOp{Op: OpAdd, Left: &Var{Name: "x"}, Right: &Lit{Kind: IntLit, Value: int64(1)}}
	if got := Size(e); got != 3 {
		t.Errorf("Size = %d, want 3", got)
	}
}

func TestSizeOfNilIsZero(t *testing.T) {
	if got := Size(nil); got != 0 {
		t.Errorf("Size(nil) = %d, want 0", got)
	}
}

func TestContainsMutableDetectsRef(t *testing.T) {
	e := &Variant{Ctor: "Ref", Args: []Expr{&Lit{Kind: IntLit, Value: int64(0)}}}
	if !ContainsMutable(e) {
		t.Error("a Ref variant should be reported as mutable")
	}
}

func TestContainsMutableDetectsAssignAndDeref(t *testing.T) {
	assign := &BinOp{Op: OpAssignOp, Left: &Var{Name: "c"}, Right: &Lit{Kind: IntLit, Value: int64(1)}}
	if !ContainsMutable(assign) {
		t.Error("an assignment should be reported as mutable")
	}
	deref := &UnaryOp{Op: OpDeref, Operand: &Var{Name: "c"}}
	if !ContainsMutable(deref) {
		t.Error("a deref should be reported as mutable")
	}
}

func TestContainsMutableFalseForPureExpression(t *testing.T) {
	e := &BinOp{Op: OpAdd, Left: &Var{Name: "x"}, Right: &Lit{Kind: IntLit, Value: int64(1)}}
	if ContainsMutable(e) {
		t.Error("a pure arithmetic expression should not be reported as mutable")
	}
}

func TestContainsUnsafeFindsNestedUnsafe(t *testing.T) {
	e := &Lambda{Param: &WildcardPattern{}, Body: &Unsafe{Expr: &Var{Name: "x"}}}
	if !ContainsUnsafe(e) {
		t.Error("Unsafe nested under a lambda body should be found")
	}
}

func TestContainsUnsafeFalseWithoutUnsafe(t *testing.T) {
	e := &Lambda{Param: &WildcardPattern{}, Body: &Var{Name: "x"}}
	if ContainsUnsafe(e) {
		t.Error("an expression with no Unsafe node should report false")
	}
}

func TestIsSyntacticValueAcceptsLambdaVarLit(t *testing.T) {
	for _, e := range []Expr{
		&Var{Name: "x"},
		&Lit{Kind: IntLit, Value: int64(1)},
		&Lambda{Param: &WildcardPattern{}, Body: &Var{Name: "x"}},
	} {
		if !IsSyntacticValue(e) {
			t.Errorf("%v should be a syntactic value", e)
		}
	}
}

func TestIsSyntacticValueRejectsApplication(t *testing.T) {
	e := &App{Func: &Var{Name: "f"}, Args: []Expr{&Var{Name: "x"}}}
	if IsSyntacticValue(e) {
		t.Error("a function application is never a syntactic value")
	}
}

func TestIsSyntacticValueRecursesIntoVariantArgs(t *testing.T) {
	okVariant := &Variant{Ctor: "Some", Args: []Expr{&Lit{Kind: IntLit, Value: int64(1)}}}
	if !IsSyntacticValue(okVariant) {
		t.Error("a variant applied only to syntactic values should itself be one")
	}
	badVariant := &Variant{Ctor: "Some", Args: []Expr{&App{Func: &Var{Name: "f"}, Args: nil}}}
	if IsSyntacticValue(badVariant) {
		t.Error("a variant applying a non-value should not be a syntactic value")
	}
}
