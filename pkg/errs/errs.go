// Package errs collects the four error kinds shared by every stage of the toolchain
// (lexing, parsing, symbol resolution, file I/O), each implementing the 'error'
// interface and carrying enough source-location context to point a user at the
// offending line.
package errs

import "fmt"

// LexError reports a malformed token: an unterminated string, an unrecognized
// character, a number out of range for its field.
type LexError struct {
	File    string // Source file the error occurred in, empty if unknown/unset
	Line    int    // 1-based line number
	Column  int    // 1-based column number, 0 if not tracked at this granularity
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s:%d:%d: lex error: %s", loc(e.File), e.Line, e.Column, e.Message)
}

// ParseError reports a token sequence that doesn't match the grammar: a missing
// semicolon, a statement that doesn't start with a recognized keyword, an
// operand of the wrong shape. Carries the non-terminal being parsed when known.
type ParseError struct {
	File       string
	Line       int
	Column     int
	NonTerminal string // The grammar rule being parsed when the error was raised, may be empty
	Message    string
}

func (e *ParseError) Error() string {
	if e.NonTerminal == "" {
		return fmt.Sprintf("%s:%d:%d: parse error: %s", loc(e.File), e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: parse error in %s: %s", loc(e.File), e.Line, e.Column, e.NonTerminal, e.Message)
}

// SymbolError reports a symbol-table failure: an undeclared identifier, a
// redeclaration in the same scope, a reference to a class/subroutine that
// doesn't exist.
type SymbolError struct {
	File    string
	Line    int
	Symbol  string
	Message string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s:%d: symbol error for '%s': %s", loc(e.File), e.Line, e.Symbol, e.Message)
}

// IOError wraps a failure reading/writing a file, keeping the path and the
// underlying error together so the caller can report which translation unit
// was affected without losing the original cause.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func loc(file string) string {
	if file == "" {
		return "<input>"
	}
	return file
}
