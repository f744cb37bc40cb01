package types

import "testing"

func TestUnifyConstMismatchFails(t *testing.T) {
	_, err := Unify(Substitution{}, TInt, TString, "test")
	if err == nil {
		t.Fatal("expected an error unifying Int with String")
	}
}

func TestUnifyConstMatchSucceeds(t *testing.T) {
	sub, err := Unify(Substitution{}, TInt, TInt, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sub) != 0 {
		t.Errorf("unifying two identical consts should not grow the substitution, got %v", sub)
	}
}

func TestUnifyBindsTypeVar(t *testing.T) {
	ctx := NewCtx()
	tv := ctx.Fresh(0)
	sub, err := Unify(Substitution{}, tv, TInt, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Apply(sub, tv) != TInt {
		t.Errorf("expected tv to resolve to Int, got %v", Apply(sub, tv))
	}
}

func TestUnifyOccursCheckRejectsInfiniteType(t *testing.T) {
	ctx := NewCtx()
	tv := ctx.Fresh(0)
	selfApp := &TypeApp{Ctor: "List", Args: []Type{tv}}
	_, err := Unify(Substitution{}, tv, selfApp, "test")
	if err == nil {
		t.Fatal("expected an occurs-check failure binding tv to List<tv>")
	}
}

func TestUnifyTypeAppRequiresMatchingCtorAndArity(t *testing.T) {
	a := &TypeApp{Ctor: "List", Args: []Type{TInt}}
	b := &TypeApp{Ctor: "Option", Args: []Type{TInt}}
	if _, err := Unify(Substitution{}, a, b, "test"); err == nil {
		t.Error("distinct nominal type constructors must not unify")
	}

	c := &TypeApp{Ctor: "List", Args: []Type{TInt, TString}}
	if _, err := Unify(Substitution{}, a, c, "test"); err == nil {
		t.Error("mismatched arity must not unify")
	}
}

func TestUnifyFunctionCurryAlignment(t *testing.T) {
	// (Int, Int) -> Bool  unifies with  Int -> Int -> Bool
	nary := &Function{Params: []Type{TInt, TInt}, Result: TBool}
	curried := &Function{Params: []Type{TInt}, Result: &Function{Params: []Type{TInt}, Result: TBool}}
	if _, err := Unify(Substitution{}, nary, curried, "test"); err != nil {
		t.Errorf("n-ary and curried forms should unify: %v", err)
	}
}

func TestUnifyArgWidthSubtypingAllowsExtraFields(t *testing.T) {
	param := &Record{Fields: map[string]Type{"x": TInt}}
	arg := &Record{Fields: map[string]Type{"x": TInt, "y": TInt}}
	if _, err := UnifyArg(Substitution{}, arg, param, "argument"); err != nil {
		t.Errorf("an argument record with extra fields should satisfy a narrower parameter: %v", err)
	}
}

func TestUnifyArgWidthSubtypingRejectsMissingField(t *testing.T) {
	param := &Record{Fields: map[string]Type{"x": TInt, "z": TInt}}
	arg := &Record{Fields: map[string]Type{"x": TInt}}
	if _, err := UnifyArg(Substitution{}, arg, param, "argument"); err == nil {
		t.Error("an argument missing a required field must not satisfy the parameter")
	}
}

func TestUnifyRecordsAtUnificationPositionOnlyChecksCommonFields(t *testing.T) {
	a := &Record{Fields: map[string]Type{"x": TInt}}
	b := &Record{Fields: map[string]Type{"x": TInt, "y": TString}}
	if _, err := Unify(Substitution{}, a, b, "test"); err != nil {
		t.Errorf("records should unify on their common fields regardless of extra ones: %v", err)
	}
}

func TestUnifySingleIntoUnionPicksMatchingMember(t *testing.T) {
	union := &Union{Members: []Type{TInt, TString}}
	if _, err := Unify(Substitution{}, TString, union, "ffi"); err != nil {
		t.Errorf("String should unify into a union containing String: %v", err)
	}
	if _, err := Unify(Substitution{}, TBool, union, "ffi"); err == nil {
		t.Error("Bool should not unify into a union of Int/String")
	}
}

func TestInstantiateAllocatesFreshVarsPerQuantifiedID(t *testing.T) {
	ctx := NewCtx()
	scheme := &Scheme{Quantified: map[int]bool{1: true}, Body: &TypeVar{ID: 1}}
	t1 := ctx.Instantiate(scheme, 0)
	t2 := ctx.Instantiate(scheme, 0)
	tv1, ok1 := t1.(*TypeVar)
	tv2, ok2 := t2.(*TypeVar)
	if !ok1 || !ok2 {
		t.Fatalf("expected both instantiations to be TypeVars, got %T, %T", t1, t2)
	}
	if tv1.ID == tv2.ID {
		t.Error("two separate instantiations of the same scheme must not share a type variable")
	}
}

func TestInstantiateMonoSchemeReturnsBodyUnchanged(t *testing.T) {
	ctx := NewCtx()
	if got := ctx.Instantiate(MonoScheme(TInt), 0); got != TInt {
		t.Errorf("instantiating a monomorphic scheme should return its body verbatim, got %v", got)
	}
}

func TestGeneralizeQuantifiesOnlyDeeperFreeVarsForValues(t *testing.T) {
	env := NewEnv()
	deep := &TypeVar{ID: 1, Level: 2}
	scheme := Generalize(env, 1, deep, true)
	if !scheme.Quantified[1] {
		t.Error("a type variable allocated deeper than the enclosing level should be quantified for a value")
	}
}

func TestGeneralizeDoesNotQuantifyForNonValues(t *testing.T) {
	env := NewEnv()
	deep := &TypeVar{ID: 1, Level: 2}
	scheme := Generalize(env, 1, deep, false)
	if len(scheme.Quantified) != 0 {
		t.Error("the value restriction must prevent generalization of a non-syntactic-value binding")
	}
}

func TestGeneralizeDoesNotQuantifyVarsFreeInEnv(t *testing.T) {
	env := NewEnv().WithValue("enclosing", &ValueBinding{
		Scheme: &Scheme{Quantified: map[int]bool{}, Body: &TypeVar{ID: 1, Level: 0}},
	})
	deep := &TypeVar{ID: 1, Level: 2}
	scheme := Generalize(env, 0, deep, true)
	if scheme.Quantified[1] {
		t.Error("a variable still free in an enclosing binding must not be generalized away")
	}
}
