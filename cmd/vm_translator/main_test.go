package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"n2t-go/pkg/asm"
	"n2t-go/pkg/hack"
)

func TestVMTranslatorSimpleAdd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "SimpleAdd.vm")
	output := filepath.Join(dir, "SimpleAdd.asm")

	source := "push constant 7\npush constant 8\nadd\n"
	if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}

	if status := Handler([]string{input}, map[string]string{"output": output}); status != 0 {
		t.Fatalf("unexpected exit status: expected 0, got %d", status)
	}

	generated, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read compiled output: %v", err)
	}

	// The generated assembly must itself be valid Hack assembly: feed it straight back
	// through the assembler's own parsing/lowering/codegen pipeline.
	parser := asm.NewParser(bytes.NewReader(generated))
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("translated output is not valid Hack assembly: %v", err)
	}

	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("failed to lower translated assembly: %v", err)
	}

	codegen := hack.NewCodeGenerator(hackProgram, table)
	binary, err := codegen.Generate()
	if err != nil {
		t.Fatalf("failed to assemble translated output into binary: %v", err)
	}
	if len(binary) == 0 {
		t.Fatalf("expected a non-empty binary program")
	}
	for _, line := range binary {
		if len(line) != 16 || strings.Trim(line, "01") != "" {
			t.Errorf("expected a 16-bit binary instruction, got %q", line)
		}
	}
}

func TestVMTranslatorBootstrapCallsSysInit(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Main.vm")
	output := filepath.Join(dir, "Main.asm")

	source := "function Main.main 0\npush constant 0\nreturn\n"
	if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}

	if status := Handler([]string{input}, map[string]string{"output": output, "bootstrap": "true"}); status != 0 {
		t.Fatalf("unexpected exit status: expected 0, got %d", status)
	}

	generated, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read compiled output: %v", err)
	}
	if !strings.Contains(string(generated), "Sys.init") {
		t.Errorf("expected bootstrap sequence to reference 'Sys.init', got:\n%s", generated)
	}
}

func TestVMTranslatorRejectsMissingOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Main.vm")
	if err := os.WriteFile(input, []byte("push constant 1\n"), 0o644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}

	if status := Handler([]string{input}, map[string]string{}); status == 0 {
		t.Fatalf("expected a non-zero exit status when --output is missing")
	}
}
