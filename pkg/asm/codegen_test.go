package asm_test

import (
	"testing"

	"n2t-go/pkg/asm"
)

func TestAInstructions(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.AInstruction, expected string, fail bool) {
		res, err := codegen.GenerateAInst(inst)
		if (err != nil) != fail {
			t.Fatalf("GenerateAInst(%+v) error = %v, want failure = %v", inst, err, fail)
		}
		if !fail && res != expected {
			t.Fatalf("GenerateAInst(%+v) = %q, want %q", inst, res, expected)
		}
	}

	t.Run("Raw memory access", func(t *testing.T) {
		test(asm.AInstruction{Location: "38"}, "@38", false)
		test(asm.AInstruction{Location: "42"}, "@42", false)
		test(asm.AInstruction{Location: "64"}, "@64", false)
		test(asm.AInstruction{Location: "1024"}, "@1024", false)
	})

	t.Run("Hack built-in labels", func(t *testing.T) {
		test(asm.AInstruction{Location: "SP"}, "@SP", false)
		test(asm.AInstruction{Location: "LCL"}, "@LCL", false)
		test(asm.AInstruction{Location: "ARG"}, "@ARG", false)
		test(asm.AInstruction{Location: "THIS"}, "@THIS", false)
		test(asm.AInstruction{Location: "THAT"}, "@THAT", false)
		test(asm.AInstruction{Location: "R1"}, "@R1", false)
		test(asm.AInstruction{Location: "R15"}, "@R15", false)
		test(asm.AInstruction{Location: "KBD"}, "@KBD", false)
		test(asm.AInstruction{Location: "SCREEN"}, "@SCREEN", false)
	})

	t.Run("User-defined labels", func(t *testing.T) {
		test(asm.AInstruction{Location: "Test1"}, "@Test1", false)
		test(asm.AInstruction{Location: "hmny"}, "@hmny", false)
		test(asm.AInstruction{Location: "n2t"}, "@n2t", false)
		test(asm.AInstruction{Location: "JUMP"}, "@JUMP", false)
	})

	t.Run("Empty location is rejected", func(t *testing.T) {
		test(asm.AInstruction{Location: ""}, "", true)
	})
}

func TestCInstructions(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.CInstruction, expected string, fail bool) {
		res, err := codegen.GenerateCInst(inst)
		if (err != nil) != fail {
			t.Fatalf("GenerateCInst(%+v) error = %v, want failure = %v", inst, err, fail)
		}
		if !fail && res != expected {
			t.Fatalf("GenerateCInst(%+v) = %q, want %q", inst, res, expected)
		}
	}

	t.Run("Comp with Jump", func(t *testing.T) {
		test(asm.CInstruction{Comp: "0", Jump: "JGT"}, "0;JGT", false)
		test(asm.CInstruction{Comp: "1", Jump: "JEQ"}, "1;JEQ", false)
		test(asm.CInstruction{Comp: "-1", Jump: "JEQ"}, "-1;JEQ", false)
		test(asm.CInstruction{Comp: "D", Jump: "JGE"}, "D;JGE", false)
		test(asm.CInstruction{Comp: "A", Jump: "JGT"}, "A;JGT", false)
		test(asm.CInstruction{Comp: "!A", Jump: "JLT"}, "!A;JLT", false)
		test(asm.CInstruction{Comp: "!M", Jump: "JNE"}, "!M;JNE", false)
	})

	t.Run("Comp with Dest", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D-A", Dest: "M"}, "M=D-A", false)
		test(asm.CInstruction{Comp: "D-M", Dest: "M"}, "M=D-M", false)
		test(asm.CInstruction{Comp: "A-D", Dest: "D"}, "D=A-D", false)
		test(asm.CInstruction{Comp: "D&A", Dest: "A"}, "A=D&A", false)
		test(asm.CInstruction{Comp: "D|M", Dest: "MD"}, "MD=D|M", false)
		test(asm.CInstruction{Comp: "M", Dest: "AM"}, "AM=M", false)
		test(asm.CInstruction{Comp: "0", Dest: "AD"}, "AD=0", false)
		test(asm.CInstruction{Comp: "-1", Dest: "AMD"}, "AMD=-1", false)
	})

	t.Run("Comp only", func(t *testing.T) {
		// A bare 'comp' with neither 'dest' nor 'jump' is a legal (if useless) C Instruction.
		test(asm.CInstruction{Comp: "D+1"}, "D+1", false)
		test(asm.CInstruction{Comp: "0"}, "0", false)
	})

	t.Run("Comp with both Dest and Jump", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D-1", Dest: "D", Jump: "JGT"}, "D=D-1;JGT", false)
	})

	t.Run("Missing Comp is rejected", func(t *testing.T) {
		test(asm.CInstruction{Dest: "AM", Jump: "JNE"}, "", true)
		test(asm.CInstruction{Dest: "AMD"}, "", true)
		test(asm.CInstruction{Jump: "JGT"}, "", true)
	})
}

func TestLabelDecl(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.LabelDecl, expected string, fail bool) {
		res, err := codegen.GenerateLabelDecl(inst)
		if (err != nil) != fail {
			t.Fatalf("GenerateLabelDecl(%+v) error = %v, want failure = %v", inst, err, fail)
		}
		if !fail && res != expected {
			t.Fatalf("GenerateLabelDecl(%+v) = %q, want %q", inst, res, expected)
		}
	}

	t.Run("Well-formed labels", func(t *testing.T) {
		test(asm.LabelDecl{Name: "test123"}, "(test123)", false)
		test(asm.LabelDecl{Name: "ping"}, "(ping)", false)
		test(asm.LabelDecl{Name: "PONG"}, "(PONG)", false)
	})

	t.Run("Built-in names cannot be overridden", func(t *testing.T) {
		test(asm.LabelDecl{Name: "SP"}, "", true)
		test(asm.LabelDecl{Name: "R1"}, "", true)
		test(asm.LabelDecl{Name: "LCL"}, "", true)
		test(asm.LabelDecl{Name: "R15"}, "", true)
	})
}
