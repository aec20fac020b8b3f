package jack_test

import (
	"testing"

	"n2t-go/pkg/jack"
	"n2t-go/pkg/utils"
	"n2t-go/pkg/vm"
)

func newProgram(classes ...jack.Class) jack.Program {
	program := jack.Program{}
	for _, class := range classes {
		program[class.Name] = class
	}
	return program
}

func newClass(name string, fields []jack.Variable, subs ...jack.Subroutine) jack.Class {
	class := jack.Class{Name: name, Fields: utils.OrderedMap[string, jack.Variable]{}, Subroutines: utils.OrderedMap[string, jack.Subroutine]{}}
	for _, field := range fields {
		class.Fields.Set(field.Name, field)
	}
	for _, sub := range subs {
		class.Subroutines.Set(sub.Name, sub)
	}
	return class
}

// newArgs builds a Subroutine's Arguments in declared order, the same way HandleParameterList
// does when parsing real source.
func newArgs(vars ...jack.Variable) utils.OrderedMap[string, jack.Variable] {
	args := utils.OrderedMap[string, jack.Variable]{}
	for _, v := range vars {
		args.Set(v.Name, v)
	}
	return args
}

func TestLowerFunctionWithLocalAndArithmetic(t *testing.T) {
	// function int compute(int x) { var int y; let y = x + 1; return y; }
	compute := jack.Subroutine{
		Name: "compute", Type: jack.Function, Return: jack.Int,
		Arguments: newArgs(jack.Variable{Name: "x", Type: jack.Parameter, DataType: jack.Int}),
		Statements: []jack.Statement{
			jack.VarStmt{Vars: []jack.Variable{{Name: "y", Type: jack.Local, DataType: jack.Int}}},
			jack.LetStmt{
				Lhs: jack.VarExpr{Var: "y"},
				Rhs: jack.BinaryExpr{Type: jack.Plus, Lhs: jack.VarExpr{Var: "x"}, Rhs: jack.LiteralExpr{Type: jack.Int, Value: "1"}},
			},
			jack.ReturnStmt{Expr: jack.VarExpr{Var: "y"}},
		},
	}
	program := newProgram(newClass("Calc", nil, compute))

	lowerer := jack.NewLowerer(program)
	lowered, err := lowerer.Lowerer()
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}

	module, ok := lowered["Calc"]
	if !ok {
		t.Fatalf("expected a lowered module for class 'Calc'")
	}

	decl, ok := module[0].(vm.FuncDecl)
	if !ok {
		t.Fatalf("expected first op to be a FuncDecl, got %T", module[0])
	}
	if decl.Name != "Calc.compute" {
		t.Errorf("expected function name 'Calc.compute', got %q", decl.Name)
	}
	if decl.NLocal != 1 {
		t.Errorf("expected 1 local slot, got %d", decl.NLocal)
	}

	expected := []vm.Operation{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Argument, Offset: 0}, // x
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1}, // 1
		vm.ArithmeticOp{Operation: vm.Add},
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Local, Offset: 0}, // y = ...
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Local, Offset: 0}, // return y
		vm.ReturnOp{},
	}
	if len(module) != len(expected)+1 { // +1 for the leading FuncDecl
		t.Fatalf("expected %d ops after FuncDecl, got %d: %+v", len(expected), len(module)-1, module)
	}
	for i, want := range expected {
		if got := module[i+1]; got != want {
			t.Errorf("op %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestLowerConstructorAllocatesFields(t *testing.T) {
	// class Point { field int x; field int y; constructor Point new() { return this; } }
	newSub := jack.Subroutine{
		Name: "new", Type: jack.Constructor, Return: jack.Object,
		Arguments:  utils.OrderedMap[string, jack.Variable]{},
		Statements: []jack.Statement{jack.ReturnStmt{Expr: jack.VarExpr{Var: "this"}}},
	}
	fields := []jack.Variable{
		{Name: "x", Type: jack.Field, DataType: jack.Int},
		{Name: "y", Type: jack.Field, DataType: jack.Int},
	}
	program := newProgram(newClass("Point", fields, newSub))

	lowerer := jack.NewLowerer(program)
	lowered, err := lowerer.Lowerer()
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}

	module := lowered["Point"]
	if len(module) < 4 {
		t.Fatalf("expected at least 4 ops (decl + alloc prelude + return), got %d: %+v", len(module), module)
	}

	decl, ok := module[0].(vm.FuncDecl)
	if !ok || decl.Name != "Point.new" {
		t.Fatalf("expected FuncDecl 'Point.new', got %+v", module[0])
	}

	wantAlloc := vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 2} // 2 fields
	if module[1] != wantAlloc {
		t.Errorf("expected allocation size push %+v, got %+v", wantAlloc, module[1])
	}
	call, ok := module[2].(vm.FuncCallOp)
	if !ok || call.Name != "Memory.alloc" || call.NArgs != 1 {
		t.Errorf("expected call to Memory.alloc with 1 arg, got %+v", module[2])
	}
	if module[3] != (vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0}) {
		t.Errorf("expected 'this' pointer set from allocated address, got %+v", module[3])
	}

	last := module[len(module)-1]
	if _, ok := last.(vm.ReturnOp); !ok {
		t.Errorf("expected lowered body to end in a return, got %+v", last)
	}
	pushThis := module[len(module)-2]
	if pushThis != (vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0}) {
		t.Errorf("expected 'return this' to push the 'this' pointer segment, got %+v", pushThis)
	}
}

func TestLowerMethodReceivesImplicitThis(t *testing.T) {
	// method void bump() { return; }
	bump := jack.Subroutine{
		Name: "bump", Type: jack.Method, Return: jack.Void,
		Arguments:  utils.OrderedMap[string, jack.Variable]{},
		Statements: []jack.Statement{jack.ReturnStmt{}},
	}
	program := newProgram(newClass("Counter", []jack.Variable{{Name: "n", Type: jack.Field, DataType: jack.Int}}, bump))

	lowerer := jack.NewLowerer(program)
	lowered, err := lowerer.Lowerer()
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}

	module := lowered["Counter"]
	decl, ok := module[0].(vm.FuncDecl)
	if !ok || decl.Name != "Counter.bump" {
		t.Fatalf("expected FuncDecl 'Counter.bump', got %+v", module[0])
	}

	wantPrelude := []vm.Operation{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Argument, Offset: 0},
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0},
	}
	for i, want := range wantPrelude {
		if got := module[i+1]; got != want {
			t.Errorf("prelude op %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestLowerRejectsEmptyProgram(t *testing.T) {
	lowerer := jack.NewLowerer(jack.Program{})
	if _, err := lowerer.Lowerer(); err == nil {
		t.Fatalf("expected an error lowering an empty program")
	}
}
