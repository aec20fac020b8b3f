package vm_test

import (
	"testing"

	"n2t-go/pkg/asm"
	"n2t-go/pkg/vm"
)

func TestLowerStaticSegmentIsFileScoped(t *testing.T) {
	program := vm.Program{
		"Foo": vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Static, Offset: 0}},
		"Bar": vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Static, Offset: 0}},
	}

	lowered, err := vm.NewLowerer().Lower(program, false)
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}

	var locations []string
	for _, inst := range lowered {
		if a, ok := inst.(asm.AInstruction); ok {
			locations = append(locations, a.Location)
		}
	}

	wantBar, wantFoo := "Bar.0", "Foo.0"
	var sawBar, sawFoo bool
	for _, loc := range locations {
		if loc == wantBar {
			sawBar = true
		}
		if loc == wantFoo {
			sawFoo = true
		}
	}
	if !sawBar || !sawFoo {
		t.Fatalf("expected file-scoped static locations %q and %q, got %v", wantBar, wantFoo, locations)
	}
}

func TestLowerLabelsAreFunctionScoped(t *testing.T) {
	module := vm.Module{
		vm.FuncDecl{Name: "Main.loop", NLocal: 0},
		vm.LabelDecl{Name: "start"},
		vm.GotoOp{Jump: vm.Unconditional, Label: "start"},
	}
	program := vm.Program{"Main": module}

	lowered, err := vm.NewLowerer().Lower(program, false)
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}

	var sawLabel, sawJumpTarget bool
	for _, inst := range lowered {
		switch v := inst.(type) {
		case asm.LabelDecl:
			if v.Name == "Main.loop$start" {
				sawLabel = true
			}
		case asm.AInstruction:
			if v.Location == "Main.loop$start" {
				sawJumpTarget = true
			}
		}
	}
	if !sawLabel {
		t.Errorf("expected the label to be prefixed with its enclosing function name")
	}
	if !sawJumpTarget {
		t.Errorf("expected the goto target to reference the same scoped label")
	}
}

func TestLowerIfGotoUsesJNE(t *testing.T) {
	module := vm.Module{vm.GotoOp{Jump: vm.Conditional, Label: "target"}}
	lowered, err := vm.NewLowerer().Lower(vm.Program{"M": module}, false)
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}

	last, ok := lowered[len(lowered)-1].(asm.CInstruction)
	if !ok || last.Jump != "JNE" {
		t.Fatalf("expected 'if-goto' to lower to a JNE jump, got %+v", lowered[len(lowered)-1])
	}
}

func TestLowerCallReturnLabelsAreUniquePerCall(t *testing.T) {
	// Two independent 'call' ops in the same module targeting the same callee must get
	// distinct, monotonically numbered return-address labels.
	module := vm.Module{
		vm.FuncCallOp{Name: "Math.abs", NArgs: 1},
		vm.FuncCallOp{Name: "Math.abs", NArgs: 1},
	}
	lowered, err := vm.NewLowerer().Lower(vm.Program{"M": module}, false)
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}

	var gotLabels []string
	for _, inst := range lowered {
		if a, ok := inst.(asm.AInstruction); ok && (a.Location == "Math.abs$ret.1" || a.Location == "Math.abs$ret.2") {
			gotLabels = append(gotLabels, a.Location)
		}
	}
	if len(gotLabels) != 2 || gotLabels[0] != "Math.abs$ret.1" || gotLabels[1] != "Math.abs$ret.2" {
		t.Fatalf("expected return-address labels 'Math.abs$ret.1' then 'Math.abs$ret.2', got %v", gotLabels)
	}
}

func TestLowerBootstrapCallsSysInit(t *testing.T) {
	lowered, err := vm.NewLowerer().Lower(vm.Program{}, true)
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}
	if len(lowered) == 0 {
		t.Fatalf("expected a non-empty bootstrap sequence")
	}

	first, ok := lowered[0].(asm.AInstruction)
	if !ok || first.Location != "256" {
		t.Fatalf("expected bootstrap to start by loading constant 256, got %+v", lowered[0])
	}

	var sawReturnLabel bool
	for _, inst := range lowered {
		if a, ok := inst.(asm.AInstruction); ok && a.Location == "Sys.init$ret.1" {
			sawReturnLabel = true
		}
	}
	if !sawReturnLabel {
		t.Fatalf("expected the bootstrap 'call Sys.init 0' to reference its own return-address label")
	}
}

func TestLowerRejectsEmptyLabelAndGoto(t *testing.T) {
	if _, err := vm.NewLowerer().Lower(vm.Program{"M": vm.Module{vm.LabelDecl{Name: ""}}}, false); err == nil {
		t.Fatalf("expected an error lowering an empty label declaration")
	}
	if _, err := vm.NewLowerer().Lower(vm.Program{"M": vm.Module{vm.GotoOp{Jump: vm.Unconditional, Label: ""}}}, false); err == nil {
		t.Fatalf("expected an error lowering a goto with an empty target")
	}
}
