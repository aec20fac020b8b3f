package jack_test

import (
	"testing"

	"n2t-go/pkg/jack"
	"n2t-go/pkg/utils"
)

func TestTypeCheckValidProgram(t *testing.T) {
	// class Main { function int add(int a, int b) { return a + b; } }
	add := jack.Subroutine{
		Name: "add", Type: jack.Function, Return: jack.Int,
		Arguments: newArgs(
			jack.Variable{Name: "a", Type: jack.Parameter, DataType: jack.Int},
			jack.Variable{Name: "b", Type: jack.Parameter, DataType: jack.Int},
		),
		Statements: []jack.Statement{
			jack.ReturnStmt{Expr: jack.BinaryExpr{Type: jack.Plus, Lhs: jack.VarExpr{Var: "a"}, Rhs: jack.VarExpr{Var: "b"}}},
		},
	}
	program := newProgram(newClass("Main", nil, add))

	checker := jack.NewTypeChecker(program)
	ok, err := checker.Check()
	if err != nil {
		t.Fatalf("unexpected type-check error: %v", err)
	}
	if !ok {
		t.Fatalf("expected type-check to pass")
	}
}

func TestTypeCheckRejectsUndeclaredVariable(t *testing.T) {
	// function void useMissing() { do Output.printInt(missing); return; }
	sub := jack.Subroutine{
		Name: "useMissing", Type: jack.Function, Return: jack.Void,
		Arguments: utils.OrderedMap[string, jack.Variable]{},
		Statements: []jack.Statement{
			jack.DoStmt{FuncCall: jack.FuncCallExpr{
				IsExtCall: true, Var: "Output", FuncName: "printInt",
				Arguments: []jack.Expression{jack.VarExpr{Var: "missing"}},
			}},
			jack.ReturnStmt{},
		},
	}
	program := newProgram(newClass("Main", nil, sub))

	checker := jack.NewTypeChecker(program)
	if _, err := checker.Check(); err == nil {
		t.Fatalf("expected an error for a reference to an undeclared variable")
	}
}

func TestTypeCheckRejectsUnknownSubroutine(t *testing.T) {
	// function void callMissing() { do Helper.missing(); return; }
	sub := jack.Subroutine{
		Name: "callMissing", Type: jack.Function, Return: jack.Void,
		Arguments: utils.OrderedMap[string, jack.Variable]{},
		Statements: []jack.Statement{
			jack.DoStmt{FuncCall: jack.FuncCallExpr{IsExtCall: true, Var: "Helper", FuncName: "missing"}},
			jack.ReturnStmt{},
		},
	}
	helper := newClass("Helper", nil, jack.Subroutine{Name: "other", Type: jack.Function, Return: jack.Void, Arguments: utils.OrderedMap[string, jack.Variable]{}})
	program := newProgram(newClass("Main", nil, sub), helper)

	checker := jack.NewTypeChecker(program)
	if _, err := checker.Check(); err == nil {
		t.Fatalf("expected an error calling a subroutine that does not exist on 'Helper'")
	}
}

func TestTypeCheckRejectsIncompatibleAssignment(t *testing.T) {
	// function void bad() { var int n; let n = "text"; return; }
	sub := jack.Subroutine{
		Name: "bad", Type: jack.Function, Return: jack.Void,
		Arguments: utils.OrderedMap[string, jack.Variable]{},
		Statements: []jack.Statement{
			jack.VarStmt{Vars: []jack.Variable{{Name: "n", Type: jack.Local, DataType: jack.Int}}},
			jack.LetStmt{Lhs: jack.VarExpr{Var: "n"}, Rhs: jack.LiteralExpr{Type: jack.String, Value: "text"}},
			jack.ReturnStmt{},
		},
	}
	program := newProgram(newClass("Main", nil, sub))

	checker := jack.NewTypeChecker(program)
	if _, err := checker.Check(); err == nil {
		t.Fatalf("expected an error assigning a string literal to an int variable")
	}
}

func TestTypeCheckRejectsEmptyProgram(t *testing.T) {
	checker := jack.NewTypeChecker(jack.Program{})
	if _, err := checker.Check(); err == nil {
		t.Fatalf("expected an error type-checking an empty program")
	}
}
