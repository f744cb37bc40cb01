package main

import "github.com/mbcrawfo/vibefun-sub010/internal/ast"

// example is one hand-built module plus the human-readable source it
// stands in for. There is no lexer/parser in this repository (spec.md
// §1), so every example here is constructed directly as Surface AST
// nodes; Source exists only so `list`/`check` output can show the reader
// what they're looking at.
type example struct {
	name   string
	source string
	module *ast.Module
}

func identifier(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func intLit(v int64) *ast.Literal { return &ast.Literal{Kind: ast.IntLit, Value: v} }

func call(fn ast.Expr, args ...ast.Expr) *ast.FuncCall {
	return &ast.FuncCall{Func: fn, Args: args}
}

// examples is the fixed catalog cmd/vibefunc demonstrates. Each mirrors a
// named scenario from internal/scenario's fixtures so the CLI output can
// be checked against that scenario's ExpectedType/Expected by eye.
var examples = []example{
	{
		name:   "factorial",
		source: "let rec factorial = (n) => match n { 0 => 1 | m => m * factorial(m - 1) }",
		module: &ast.Module{
			Name: "factorial",
			Decls: []ast.Decl{
				&ast.LetRec{
					Bindings: []*ast.LetBinding{
						{
							Pattern: &ast.VarPattern{Name: "factorial"},
							Value: &ast.Lambda{
								Params: []*ast.Param{{Name: "n"}},
								Body: &ast.Match{
									Scrutinee: identifier("n"),
									Cases: []*ast.MatchCase{
										{Pattern: &ast.LiteralPattern{Kind: ast.IntLit, Value: int64(0)}, Body: intLit(1)},
										{
											Pattern: &ast.VarPattern{Name: "m"},
											Body: &ast.BinOp{
												Op:   "*",
												Left: identifier("m"),
												Right: call(identifier("factorial"),
													&ast.BinOp{Op: "-", Left: identifier("m"), Right: intLit(1)}),
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	},
	{
		name:   "record_field_access",
		source: `let person = { name: "Alice", age: 30 }; let age = person.age`,
		module: &ast.Module{
			Name: "record_field_access",
			Decls: []ast.Decl{
				&ast.Let{
					Pattern: &ast.VarPattern{Name: "person"},
					Value: &ast.RecordLit{Fields: []ast.RecordFieldOrSpread{
						&ast.RecordField{Name: "name", Value: &ast.Literal{Kind: ast.StringLit, Value: "Alice"}},
						&ast.RecordField{Name: "age", Value: intLit(30)},
					}},
				},
				&ast.Let{
					Pattern: &ast.VarPattern{Name: "age"},
					Value:   &ast.RecordAccess{Record: identifier("person"), Field: "age"},
				},
			},
		},
	},
	{
		name:   "mutable_ref_roundtrip",
		source: "let mut c = ref(0); c := !c + 1",
		module: &ast.Module{
			Name: "mutable_ref_roundtrip",
			Decls: []ast.Decl{
				&ast.Let{
					Pattern: &ast.VarPattern{Name: "c"},
					Mutable: true,
					Value:   &ast.RefExpr{Value: intLit(0)},
				},
				&ast.Let{
					Pattern: &ast.WildcardPattern{},
					Value: &ast.AssignExpr{
						Target: identifier("c"),
						Value: &ast.BinOp{
							Op:    "+",
							Left:  &ast.DerefOrNot{Operand: identifier("c")},
							Right: intLit(1),
						},
					},
				},
			},
		},
	},
	{
		name:   "generalization_correctness",
		source: `let id = (x) => x; id(1)`,
		module: &ast.Module{
			Name: "generalization_correctness",
			Decls: []ast.Decl{
				&ast.Let{
					Pattern: &ast.VarPattern{Name: "id"},
					Value: &ast.Lambda{
						Params: []*ast.Param{{Name: "x"}},
						Body:   identifier("x"),
					},
				},
				&ast.Let{
					Pattern: &ast.VarPattern{Name: "useAsInt"},
					Value:   call(identifier("id"), intLit(1)),
				},
			},
		},
	},
	{
		name:   "optimizer_beta_constant_fold",
		source: "((x) => x * 2)(3 + 4)",
		module: &ast.Module{
			Name: "optimizer_beta_constant_fold",
			Decls: []ast.Decl{
				&ast.Let{
					Pattern: &ast.VarPattern{Name: "result"},
					Value: call(
						&ast.Lambda{
							Params: []*ast.Param{{Name: "x"}},
							Body:   &ast.BinOp{Op: "*", Left: identifier("x"), Right: intLit(2)},
						},
						&ast.BinOp{Op: "+", Left: intLit(3), Right: intLit(4)},
					),
				},
			},
		},
	},
}

func findExample(name string) (example, bool) {
	for _, ex := range examples {
		if ex.name == name {
			return ex, true
		}
	}
	return example{}, false
}
